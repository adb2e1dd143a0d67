package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/desertthunder/genrefy/internal/tasks"
)

const maxBodyBytes = 1 << 20

// CatalogFactory builds a catalog authorized by the caller's refresh token.
type CatalogFactory func(ctx context.Context, refreshToken string) (services.Catalog, error)

// SpotifyCatalogFactory exchanges the refresh token for an access token and wraps the client
// in the shared [services.Retrier].
func SpotifyCatalogFactory(credentials map[string]string, retrier *services.Retrier, client *http.Client) CatalogFactory {
	return func(ctx context.Context, refreshToken string) (services.Catalog, error) {
		svc, err := services.NewSpotifyService(credentials)
		if err != nil {
			return nil, err
		}
		svc.WithHTTPClient(client)

		if err := svc.Authenticate(ctx, map[string]string{"refresh_token": refreshToken}); err != nil {
			return nil, err
		}
		return services.NewRateLimitedCatalog(svc, retrier), nil
	}
}

// playlistRequest is the union of the playlist endpoint bodies.
type playlistRequest struct {
	PlaylistURL  string   `json:"playlistUrl"`
	Genres       []string `json:"genres"`
	PlaylistName string   `json:"playlistName"`
	Description  string   `json:"description"`
	Strategy     string   `json:"strategy"`
	Partial      *bool    `json:"partial"`
}

// PlaylistHandler serves the genre, filter and create-filtered endpoints.
type PlaylistHandler struct {
	engine   tasks.GenreEngine
	catalogs CatalogFactory
	defaults tasks.RunOptions
	logger   *log.Logger
}

// NewPlaylistHandler creates a [PlaylistHandler]. defaults supplies the strategy and failure policy
// when a request leaves them out.
func NewPlaylistHandler(engine tasks.GenreEngine, catalogs CatalogFactory, defaults tasks.RunOptions, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{engine: engine, catalogs: catalogs, defaults: defaults, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{
		"POST /playlist/genres",
		"POST /playlist/filter",
		"POST /playlist/create-filtered",
	}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/playlist/genres":
		h.serve(w, r, h.genres)
	case "/playlist/filter":
		h.serve(w, r, h.filter)
	case "/playlist/create-filtered":
		h.serve(w, r, h.createFiltered)
	default:
		http.NotFound(w, r)
	}
}

type playlistOp func(ctx context.Context, catalog services.Catalog, req playlistRequest, opts tasks.RunOptions) (any, int, error)

// serve authenticates the caller, decodes the body and runs op.
func (h *PlaylistHandler) serve(w http.ResponseWriter, r *http.Request, op playlistOp) {
	refreshToken, err := bearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := h.runOptions(req)
	if err != nil {
		writeError(w, err)
		return
	}

	catalog, err := h.catalogs(r.Context(), refreshToken)
	if err != nil {
		h.logger.Warn("catalog authorization failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, err)
		return
	}

	result, status, err := op(r.Context(), catalog, req, opts)
	if err != nil {
		h.logger.Error("playlist request failed", "path", r.URL.Path, "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, err)
		return
	}

	writeJSON(w, status, result)
}

func (h *PlaylistHandler) genres(ctx context.Context, catalog services.Catalog, req playlistRequest, opts tasks.RunOptions) (any, int, error) {
	result, err := h.engine.Genres(ctx, catalog, req.PlaylistURL, opts, nil)
	return result, http.StatusOK, err
}

func (h *PlaylistHandler) filter(ctx context.Context, catalog services.Catalog, req playlistRequest, opts tasks.RunOptions) (any, int, error) {
	result, err := h.engine.Filter(ctx, catalog, req.PlaylistURL, req.Genres, opts, nil)
	return result, http.StatusOK, err
}

func (h *PlaylistHandler) createFiltered(ctx context.Context, catalog services.Catalog, req playlistRequest, opts tasks.RunOptions) (any, int, error) {
	result, err := h.engine.CreateFiltered(ctx, catalog, tasks.CreateFilteredRequest{
		PlaylistRef:  req.PlaylistURL,
		Genres:       req.Genres,
		PlaylistName: req.PlaylistName,
		Description:  req.Description,
	}, opts, nil)
	return result, http.StatusCreated, err
}

func (h *PlaylistHandler) runOptions(req playlistRequest) (tasks.RunOptions, error) {
	opts := h.defaults
	if req.Strategy != "" {
		strategy, err := genres.ParseStrategy(req.Strategy)
		if err != nil {
			return opts, err
		}
		opts.Strategy = strategy
	}
	if req.Partial != nil {
		opts.ContinueOnError = *req.Partial
	}
	return opts, nil
}

// bearerToken extracts the refresh token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing bearer refresh token", shared.ErrAuthRequired)
	}
	return strings.TrimSpace(token), nil
}

func decodeRequest(r *http.Request) (playlistRequest, error) {
	var req playlistRequest

	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, fmt.Errorf("%w: request body is empty", shared.ErrInvalidInput)
		}
		return req, fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}

	if strings.TrimSpace(req.PlaylistURL) == "" {
		return req, fmt.Errorf("%w: playlistUrl is required", shared.ErrInvalidInput)
	}
	return req, nil
}
