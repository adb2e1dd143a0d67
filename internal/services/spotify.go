// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/genrefy/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// MaxTracksPerAdd is the Spotify limit for one add-items request.
	MaxTracksPerAdd = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
//
// Genres is only populated by the full artist object, not the simplified one embedded in tracks.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Genres      []string        `json:"genres"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Owner         Owner          `json:"owner"`
	Public        bool           `json:"public"`
	Collaborative bool           `json:"collaborative"`
	Tracks        playlistTracks `json:"tracks"`
	URI           string         `json:"uri"`
	ExternalURLs  ExternalURLs   `json:"external_urls"`
}

// ExternalURLs holds the open.spotify.com links of a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil when the underlying track was removed or is unavailable in the market.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyService implements [Catalog] for Spotify API interactions.
// Uses [oauth2] for authentication; one instance holds one user's access token.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Recognized keys: client_id, client_secret (required), redirect_uri, api_base_url, token_url.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	tokenURL := credentials["token_url"]
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	baseURL := strings.TrimSuffix(credentials["api_base_url"], "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserReadEmail,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyauth.AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
	}, nil
}

// WithHTTPClient replaces the client used for API calls and token exchange.
func (s *SpotifyService) WithHTTPClient(client *http.Client) *SpotifyService {
	if client != nil {
		s.httpClient = client
	}
	return s
}

// Authenticate sets the access token used for API calls.
//
// Expects one of "access_token", "refresh_token" or "auth_code" in credentials. Refresh tokens
// and auth codes are exchanged at the token endpoint; rejected credentials wrap [shared.ErrAuthRequired].
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	if accessToken := credentials["access_token"]; accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		return nil
	}

	if refreshToken := credentials["refresh_token"]; refreshToken != "" {
		token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return tokenError("refresh token exchange", err)
		}
		s.token = token
		return nil
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return tokenError("auth code exchange", err)
		}
		s.token = token
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrAuthRequired)
}

func tokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
		return fmt.Errorf("%w: %s rejected: %v", shared.ErrAuthRequired, op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrRefreshFailed, op, err)
}

// Token returns the current token, nil before [SpotifyService.Authenticate].
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig returns the oauth2 configuration, used by the callback handler.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated HTTP request to the Spotify API, JSON encoding body when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrAuthRequired)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, method+" "+endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstream, err)
		}
	}

	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Artist retrieves an artist by ID.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var artist SpotifyArtist
	if err := s.doRequest(ctx, http.MethodGet, "/artists/"+url.PathEscape(artistID), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Album retrieves an album by ID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, http.MethodGet, "/albums/"+url.PathEscape(albumID), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// CreatePlaylist creates a playlist in the current user's library.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string, opts PlaylistOptions) (*SpotifyPlaylist, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	body := struct {
		Name string `json:"name"`
		PlaylistOptions
	}{Name: name, PlaylistOptions: opts}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist adds up to [MaxTracksPerAdd] uris to the playlist in order.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) > MaxTracksPerAdd {
		return fmt.Errorf("%w: at most %d tracks per request, got %d", shared.ErrInvalidInput, MaxTracksPerAdd, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string][]string{"uris": uris}
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}
