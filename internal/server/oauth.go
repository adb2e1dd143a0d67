package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/genrefy/internal/shared"
	"golang.org/x/oauth2"
)

// ExchangeFunc trades an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles a single OAuth2 callback for the CLI authorization code flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	exchange    ExchangeFunc
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler with the given code exchange and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(exchange ExchangeFunc, state string) *OAuthHandler {
	return &OAuthHandler{
		exchange:   exchange,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	token, err := handleCallback(r, h.state, h.exchange)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// handleCallback validates state and exchanges the code carried by an authorization redirect.
func handleCallback(r *http.Request, state string, exchange ExchangeFunc) (*oauth2.Token, error) {
	query := r.URL.Query()
	if query.Get("state") != state {
		return nil, fmt.Errorf("%w: invalid state parameter", shared.ErrInvalidInput)
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: authorization failed: %s %s",
			shared.ErrAuthRequired, query.Get("error"), query.Get("error_description"))
	}

	token, err := exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}

const stateCookie = "genrefy_oauth_state"

// AuthHandler serves the browser login flow of the web service.
//
// GET /login redirects to the Spotify authorize page; GET /callback exchanges the code and
// returns the refresh token that clients send as their bearer credential.
type AuthHandler struct {
	authURL  func(state string) string
	exchange ExchangeFunc
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(authURL func(state string) string, exchange ExchangeFunc) *AuthHandler {
	return &AuthHandler{authURL: authURL, exchange: exchange}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"GET /login", "GET /callback"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/callback",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.authURL(state), http.StatusFound)
}

type tokenResponse struct {
	RefreshToken string    `json:"refreshToken"`
	AccessToken  string    `json:"accessToken"`
	ExpiresAt    time.Time `json:"expiresAt,omitzero"`
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, fmt.Errorf("%w: missing login state, start at /login", shared.ErrInvalidInput))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/callback", MaxAge: -1})

	token, err := handleCallback(r, cookie.Value, h.exchange)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		RefreshToken: token.RefreshToken,
		AccessToken:  token.AccessToken,
		ExpiresAt:    token.Expiry,
	})
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>genrefy saved your refresh token. You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
