// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
)

// MockCatalog is an in-memory test double for [services.Catalog].
//
// Unknown ids return an error wrapping [shared.ErrNotFound]. Errors set in Errors are
// returned for the matching id (or for "*") before any lookup.
type MockCatalog struct {
	mu sync.Mutex

	Playlists map[string]*services.SpotifyPlaylist
	Tracks    map[string]*services.SpotifyTrack
	Artists   map[string]*services.SpotifyArtist
	Albums    map[string]*services.SpotifyAlbum

	Errors      map[string]error // keyed by "<Method>:<id>" or "<Method>:*"
	CreateError error
	AddError    error

	Calls   map[string]int
	Created []CreatedPlaylist
	Added   []AddCall
}

// CreatedPlaylist records one CreatePlaylist call.
type CreatedPlaylist struct {
	Name    string
	Options services.PlaylistOptions
}

// AddCall records one AddTracksToPlaylist call.
type AddCall struct {
	PlaylistID string
	URIs       []string
}

// NewMockCatalog creates an empty [MockCatalog].
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Playlists: map[string]*services.SpotifyPlaylist{},
		Tracks:    map[string]*services.SpotifyTrack{},
		Artists:   map[string]*services.SpotifyArtist{},
		Albums:    map[string]*services.SpotifyAlbum{},
		Errors:    map[string]error{},
		Calls:     map[string]int{},
	}
}

// AddArtist registers an artist with the given genres.
func (m *MockCatalog) AddArtist(id, name string, genres ...string) *services.SpotifyArtist {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &services.SpotifyArtist{ID: id, Name: name, Genres: genres}
	m.Artists[id] = a
	return a
}

// AddTrack registers a track credited to the given artist ids, in order.
func (m *MockCatalog) AddTrack(id, name string, artistIDs ...string) *services.SpotifyTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &services.SpotifyTrack{ID: id, Name: name, URI: "spotify:track:" + id}
	for _, artistID := range artistIDs {
		artist := services.SpotifyArtist{ID: artistID}
		if a, ok := m.Artists[artistID]; ok {
			artist.Name = a.Name
		}
		t.Artists = append(t.Artists, artist)
	}
	m.Tracks[id] = t
	return t
}

// AddPlaylist registers a playlist listing the given track ids. An empty id is a removed track.
func (m *MockCatalog) AddPlaylist(id, name string, trackIDs ...string) *services.SpotifyPlaylist {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &services.SpotifyPlaylist{ID: id, Name: name}
	for _, trackID := range trackIDs {
		item := services.SpotifyPlaylistTrack{}
		if trackID != "" {
			if t, ok := m.Tracks[trackID]; ok {
				item.Track = t
			} else {
				item.Track = &services.SpotifyTrack{ID: trackID, URI: "spotify:track:" + trackID}
			}
		}
		p.Tracks.Items = append(p.Tracks.Items, item)
	}
	p.Tracks.Total = len(p.Tracks.Items)
	m.Playlists[id] = p
	return p
}

// CallCount returns how many times method was invoked.
func (m *MockCatalog) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

func (m *MockCatalog) enter(method, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
	if err, ok := m.Errors[method+":"+id]; ok {
		return err
	}
	if err, ok := m.Errors[method+":*"]; ok {
		return err
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
}

func (m *MockCatalog) Playlist(ctx context.Context, playlistID string) (*services.SpotifyPlaylist, error) {
	if err := m.enter("Playlist", playlistID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Playlists[playlistID]; ok {
		return p, nil
	}
	return nil, notFound("playlist", playlistID)
}

func (m *MockCatalog) Track(ctx context.Context, trackID string) (*services.SpotifyTrack, error) {
	if err := m.enter("Track", trackID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Tracks[trackID]; ok {
		return t, nil
	}
	return nil, notFound("track", trackID)
}

func (m *MockCatalog) Artist(ctx context.Context, artistID string) (*services.SpotifyArtist, error) {
	if err := m.enter("Artist", artistID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Artists[artistID]; ok {
		return a, nil
	}
	return nil, notFound("artist", artistID)
}

func (m *MockCatalog) Album(ctx context.Context, albumID string) (*services.SpotifyAlbum, error) {
	if err := m.enter("Album", albumID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Albums[albumID]; ok {
		return a, nil
	}
	return nil, notFound("album", albumID)
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name string, opts services.PlaylistOptions) (*services.SpotifyPlaylist, error) {
	if err := m.enter("CreatePlaylist", name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.Created = append(m.Created, CreatedPlaylist{Name: name, Options: opts})
	id := fmt.Sprintf("created%d", len(m.Created))
	p := &services.SpotifyPlaylist{ID: id, Name: name, Description: opts.Description, Public: opts.Public}
	p.ExternalURLs.Spotify = "https://open.spotify.com/playlist/" + id
	m.Playlists[id] = p
	return p, nil
}

func (m *MockCatalog) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if err := m.enter("AddTracksToPlaylist", playlistID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddError != nil {
		return m.AddError
	}
	m.Added = append(m.Added, AddCall{PlaylistID: playlistID, URIs: append([]string(nil), uris...)})
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
