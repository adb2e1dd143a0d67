package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/desertthunder/genrefy/internal/tasks"
	tu "github.com/desertthunder/genrefy/internal/testing"
	"golang.org/x/oauth2"
)

func exampleCatalog() *tu.MockCatalog {
	catalog := tu.NewMockCatalog()
	catalog.AddArtist("x", "X", "pop", "rock")
	catalog.AddArtist("y", "Y")
	catalog.AddTrack("A", "A", "x")
	catalog.AddTrack("B", "B", "y")
	catalog.AddPlaylist("mix1", "Mix", "A", "B", "")
	return catalog
}

func factoryFor(catalog services.Catalog) CatalogFactory {
	return func(ctx context.Context, refreshToken string) (services.Catalog, error) {
		if refreshToken != "good" {
			return nil, fmt.Errorf("%w: refresh token rejected", shared.ErrAuthRequired)
		}
		return catalog, nil
	}
}

func newTestRouter(catalog services.Catalog) *BasicRouter {
	cache := genres.NewCache(100, time.Hour)
	return NewRouter(Options{
		Engine:   tasks.NewPlaylistEngine(cache, nil, nil),
		Catalogs: factoryFor(catalog),
		Cache:    cache,
		Auth: NewAuthHandler(
			func(state string) string { return "https://accounts.example.com/authorize?state=" + state },
			func(ctx context.Context, code string) (*oauth2.Token, error) {
				if code != "ok" {
					return nil, fmt.Errorf("%w: bad code", shared.ErrAuthRequired)
				}
				return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}, nil
			},
		),
	})
}

func post(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestPlaylistEndpoints(t *testing.T) {
	const playlist = `"playlistUrl": "https://open.spotify.com/playlist/mix1"`

	t.Run("Genres", func(t *testing.T) {
		rec := post(t, newTestRouter(exampleCatalog()), "/playlist/genres", "good", `{`+playlist+`}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode[struct {
			ReadTracks []string `json:"readTracks"`
			Genres     []string `json:"genres"`
		}](t, rec)
		if strings.Join(body.Genres, ",") != "pop,rock" || strings.Join(body.ReadTracks, ",") != "A" {
			t.Errorf("unexpected body %+v", body)
		}
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("Filter", func(t *testing.T) {
		rec := post(t, newTestRouter(exampleCatalog()), "/playlist/filter", "good", `{`+playlist+`, "genres": ["POP"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode[tasks.FilterResult](t, rec)
		if len(body.FilteredTracks) != 1 || body.FilteredTracks[0].ID != "A" || body.FilteredTracks[0].Name != "A" {
			t.Errorf("unexpected filtered tracks %+v", body.FilteredTracks)
		}
		if body.TotalTracks != 2 || body.MatchingTracks != 1 {
			t.Errorf("expected totalTracks 2 and matchingTracks 1, got %d and %d", body.TotalTracks, body.MatchingTracks)
		}
	})

	t.Run("Create Filtered", func(t *testing.T) {
		catalog := exampleCatalog()
		rec := post(t, newTestRouter(catalog), "/playlist/create-filtered", "good",
			`{`+playlist+`, "genres": ["rock"], "playlistName": "Rock", "description": "from Mix"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode[tasks.CreateFilteredResult](t, rec)
		if body.Playlist == nil || body.Playlist.Name != "Rock" {
			t.Errorf("unexpected playlist %+v", body.Playlist)
		}
		if len(catalog.Added) != 1 || catalog.Added[0].URIs[0] != "spotify:track:A" {
			t.Errorf("unexpected add calls %+v", catalog.Added)
		}
	})

	t.Run("Filter Without Genres", func(t *testing.T) {
		rec := post(t, newTestRouter(exampleCatalog()), "/playlist/filter", "good", `{`+playlist+`, "genres": []}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode[tasks.FilterResult](t, rec)
		if len(body.FilteredTracks) != 0 || body.MatchingTracks != 0 || body.TotalTracks != 2 {
			t.Errorf("expected no matches out of 2 tracks, got %+v", body)
		}
	})

	t.Run("Create Filtered Without Matches", func(t *testing.T) {
		catalog := exampleCatalog()
		rec := post(t, newTestRouter(catalog), "/playlist/create-filtered", "good",
			`{`+playlist+`, "genres": ["jazz"], "playlistName": "Jazz"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode[tasks.CreateFilteredResult](t, rec)
		if body.Playlist == nil || body.Playlist.Name != "Jazz" || len(body.Tracks) != 0 {
			t.Errorf("expected an empty Jazz playlist, got %+v", body)
		}
		if catalog.CallCount("AddTracksToPlaylist") != 0 {
			t.Error("expected no add call")
		}
	})

	t.Run("Create Filtered Failure", func(t *testing.T) {
		catalog := exampleCatalog()
		catalog.CreateError = errors.New("forbidden")
		rec := post(t, newTestRouter(catalog), "/playlist/create-filtered", "good",
			`{`+playlist+`, "genres": ["rock"], "playlistName": "Rock"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if catalog.CallCount("AddTracksToPlaylist") != 0 {
			t.Error("expected no add call")
		}
	})

	t.Run("Album Strategy From Request", func(t *testing.T) {
		catalog := exampleCatalog()
		catalog.Tracks["A"].Album = services.SpotifyAlbum{ID: "al1"}
		catalog.Tracks["B"].Album = services.SpotifyAlbum{ID: "al1"}
		catalog.Albums["al1"] = &services.SpotifyAlbum{ID: "al1", Genres: []string{"art pop"}}

		rec := post(t, newTestRouter(catalog), "/playlist/genres", "good", `{`+playlist+`, "strategy": "album"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "art pop") {
			t.Errorf("expected album genres, got %s", rec.Body.String())
		}
	})

	t.Run("Errors", func(t *testing.T) {
		catalog := exampleCatalog()
		catalog.AddTrack("Z", "Orphan")
		catalog.AddPlaylist("broken", "Broken", "Z")
		catalog.Errors["Playlist:limited"] = fmt.Errorf("%w: gave up", shared.ErrRateLimited)

		tests := []struct {
			name   string
			path   string
			token  string
			body   string
			status int
		}{
			{name: "Missing Token", path: "/playlist/genres", body: `{` + playlist + `}`, status: http.StatusUnauthorized},
			{name: "Rejected Token", path: "/playlist/genres", token: "bad", body: `{` + playlist + `}`, status: http.StatusUnauthorized},
			{name: "Empty Body", path: "/playlist/genres", token: "good", body: ``, status: http.StatusBadRequest},
			{name: "Invalid JSON", path: "/playlist/genres", token: "good", body: `{`, status: http.StatusBadRequest},
			{name: "Missing Playlist", path: "/playlist/genres", token: "good", body: `{}`, status: http.StatusBadRequest},
			{name: "Malformed Playlist URL", path: "/playlist/genres", token: "good", body: `{"playlistUrl": "nope"}`, status: http.StatusBadRequest},
			{name: "Unknown Strategy", path: "/playlist/genres", token: "good", body: `{` + playlist + `, "strategy": "label"}`, status: http.StatusBadRequest},
			{name: "Unknown Playlist", path: "/playlist/genres", token: "good", body: `{"playlistUrl": "https://open.spotify.com/playlist/gone"}`, status: http.StatusNotFound},
			{name: "Malformed Track", path: "/playlist/filter", token: "good", body: `{"playlistUrl": "https://open.spotify.com/playlist/broken", "genres": ["pop"]}`, status: http.StatusBadRequest},
			{name: "Rate Limited", path: "/playlist/genres", token: "good", body: `{"playlistUrl": "https://open.spotify.com/playlist/limited"}`, status: http.StatusServiceUnavailable},
		}

		router := newTestRouter(catalog)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := post(t, router, tt.path, tt.token, tt.body)
				if rec.Code != tt.status {
					t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
				}
				if body := decode[errorResponse](t, rec); body.Error == "" {
					t.Error("expected error message")
				}
			})
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/playlist/genres", nil)
		rec := httptest.NewRecorder()
		newTestRouter(exampleCatalog()).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != "POST" {
			t.Errorf("expected Allow: POST, got %q", rec.Header().Get("Allow"))
		}
	})
}

func TestHealth(t *testing.T) {
	router := newTestRouter(exampleCatalog())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "running") {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestCacheHandler(t *testing.T) {
	router := newTestRouter(exampleCatalog())
	get := func() genres.CacheStats {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		return decode[genres.CacheStats](t, rec)
	}

	if stats := get(); stats.Size != 0 {
		t.Errorf("expected empty cache, got %+v", stats)
	}

	post(t, router, "/playlist/genres", "good", `{"playlistUrl": "https://open.spotify.com/playlist/mix1"}`)
	post(t, router, "/playlist/genres", "good", `{"playlistUrl": "https://open.spotify.com/playlist/mix1"}`)

	if stats := get(); stats.Size != 2 || stats.Misses != 2 || stats.Hits != 2 {
		t.Errorf("expected 2 entries, 2 misses and 2 hits, got %+v", stats)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	if stats := get(); stats.Size != 0 || stats.Hits != 0 {
		t.Errorf("expected purged cache, got %+v", stats)
	}
}

func TestAuthHandler(t *testing.T) {
	router := newTestRouter(exampleCatalog())

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
	if login.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", login.Code)
	}

	location, err := url.Parse(login.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("expected state in redirect")
	}

	cookies := login.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != state {
		t.Fatalf("expected state cookie, got %+v", cookies)
	}

	callback := func(query string, withCookie bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
		if withCookie {
			req.AddCookie(cookies[0])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Success", func(t *testing.T) {
		rec := callback("code=ok&state="+state, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[tokenResponse](t, rec)
		if body.RefreshToken != "refresh" || body.AccessToken != "access" {
			t.Errorf("unexpected tokens %+v", body)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		if rec := callback("code=ok&state=forged", true); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Missing Cookie", func(t *testing.T) {
		if rec := callback("code=ok&state="+state, false); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Denied", func(t *testing.T) {
		if rec := callback("error=access_denied&state="+state, true); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("Exchange Rejected", func(t *testing.T) {
		if rec := callback("code=bad&state="+state, true); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	exchange := func(ctx context.Context, code string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "a", RefreshToken: "r"}, nil
	}

	t.Run("Success", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=c&state=s1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := <-h.Result()
		if result.Error() != nil || result.Token.RefreshToken != "r" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=c&state=nope", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("Only Once", func(t *testing.T) {
		h := NewOAuthHandler(exchange, "s1")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=c&state=s1", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=c&state=s1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected second callback to be rejected, got %d", rec.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: shared.ErrAuthRequired, want: http.StatusUnauthorized},
		{err: shared.ErrMalformedData, want: http.StatusBadRequest},
		{err: shared.ErrNotFound, want: http.StatusNotFound},
		{err: shared.ErrRateLimited, want: http.StatusServiceUnavailable},
		{err: fmt.Errorf("%w: %w", shared.ErrPlaylistCreationFailed, shared.ErrAuthRequired), want: http.StatusBadGateway},
		{err: shared.ErrUpstream, want: http.StatusBadGateway},
		{err: fmt.Errorf("%w: %w", shared.ErrUpstream, context.DeadlineExceeded), want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
