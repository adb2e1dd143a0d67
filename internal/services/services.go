// package services defines interface Catalog for the music service the pipeline reads from
package services

import (
	"context"
)

// Catalog is the set of music service operations the genre pipeline consumes.
type Catalog interface {
	// Playlist retrieves a playlist with its first page of track entries.
	Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error)

	// Track retrieves a single track with its artists and album.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Artist retrieves an artist with its genre tags.
	Artist(ctx context.Context, artistID string) (*SpotifyArtist, error)

	// Album retrieves an album with its genre tags.
	Album(ctx context.Context, albumID string) (*SpotifyAlbum, error)

	// CreatePlaylist creates a playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name string, opts PlaylistOptions) (*SpotifyPlaylist, error)

	// AddTracksToPlaylist appends track URIs to a playlist, preserving order.
	AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error
}

// PlaylistOptions are the attributes of a playlist created through [Catalog.CreatePlaylist].
type PlaylistOptions struct {
	Description   string `json:"description"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}
