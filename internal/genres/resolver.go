package genres

import (
	"context"
	"fmt"

	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
)

// Strategy names a genre source.
type Strategy string

const (
	StrategyArtist Strategy = "artist" // genres of the first credited artist
	StrategyAlbum  Strategy = "album"  // genres of the track's album
)

// ParseStrategy validates a strategy name. The empty string selects [StrategyArtist].
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyArtist:
		return StrategyArtist, nil
	case StrategyAlbum:
		return StrategyAlbum, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (expected artist or album)", shared.ErrInvalidInput, s)
	}
}

// Resolver produces the genre record for a track.
type Resolver interface {
	Resolve(ctx context.Context, trackID string) (models.TrackGenreRecord, error)
}

// NewResolver returns the resolver for strategy backed by catalog.
func NewResolver(strategy Strategy, catalog services.Catalog) Resolver {
	if strategy == StrategyAlbum {
		return &AlbumResolver{catalog: catalog}
	}
	return &ArtistResolver{catalog: catalog}
}

// CacheKey namespaces a track id by strategy so both sources can share one [Cache].
func CacheKey(strategy Strategy, trackID string) string {
	if strategy == "" {
		strategy = StrategyArtist
	}
	return string(strategy) + ":" + trackID
}

// ArtistResolver resolves a track's genres from its first credited artist.
type ArtistResolver struct {
	catalog services.Catalog
}

// NewArtistResolver creates an [ArtistResolver].
func NewArtistResolver(catalog services.Catalog) *ArtistResolver {
	return &ArtistResolver{catalog: catalog}
}

// Resolve looks up the track, then its first artist.
//
// Exactly one track and one artist lookup are made. A track without artists is malformed
// data; an artist without genre tags yields an empty genre list.
func (r *ArtistResolver) Resolve(ctx context.Context, trackID string) (models.TrackGenreRecord, error) {
	track, err := r.catalog.Track(ctx, trackID)
	if err != nil {
		return models.TrackGenreRecord{}, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}
	if len(track.Artists) == 0 {
		return models.TrackGenreRecord{}, fmt.Errorf("%w: track %s has no artists", shared.ErrMalformedData, trackID)
	}

	artist, err := r.catalog.Artist(ctx, track.Artists[0].ID)
	if err != nil {
		return models.TrackGenreRecord{}, fmt.Errorf("failed to get artist %s: %w", track.Artists[0].ID, err)
	}

	return newRecord(trackID, track, artist.Genres), nil
}

// AlbumResolver resolves a track's genres from its album.
//
// Spotify rarely tags albums, so this strategy mostly yields empty genre lists.
type AlbumResolver struct {
	catalog services.Catalog
}

// NewAlbumResolver creates an [AlbumResolver].
func NewAlbumResolver(catalog services.Catalog) *AlbumResolver {
	return &AlbumResolver{catalog: catalog}
}

func (r *AlbumResolver) Resolve(ctx context.Context, trackID string) (models.TrackGenreRecord, error) {
	track, err := r.catalog.Track(ctx, trackID)
	if err != nil {
		return models.TrackGenreRecord{}, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}
	if track.Album.ID == "" {
		return models.TrackGenreRecord{}, fmt.Errorf("%w: track %s has no album", shared.ErrMalformedData, trackID)
	}

	album, err := r.catalog.Album(ctx, track.Album.ID)
	if err != nil {
		return models.TrackGenreRecord{}, fmt.Errorf("failed to get album %s: %w", track.Album.ID, err)
	}

	return newRecord(trackID, track, album.Genres), nil
}

func newRecord(trackID string, track *services.SpotifyTrack, genres []string) models.TrackGenreRecord {
	names := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		names = append(names, a.Name)
	}

	uri := track.URI
	if uri == "" {
		uri = "spotify:track:" + trackID
	}

	return models.TrackGenreRecord{
		TrackID:     trackID,
		Name:        track.Name,
		URI:         uri,
		ArtistNames: names,
		Genres:      append([]string{}, genres...),
	}
}

// CachedResolver serves resolutions from a [Cache], delegating misses to next.
type CachedResolver struct {
	cache    *Cache
	strategy Strategy
	next     Resolver
}

// NewCachedResolver wraps next with cache, keying entries by strategy.
func NewCachedResolver(cache *Cache, strategy Strategy, next Resolver) *CachedResolver {
	return &CachedResolver{cache: cache, strategy: strategy, next: next}
}

func (r *CachedResolver) Resolve(ctx context.Context, trackID string) (models.TrackGenreRecord, error) {
	return r.cache.GetOrResolve(ctx, CacheKey(r.strategy, trackID), func(ctx context.Context) (models.TrackGenreRecord, error) {
		return r.next.Resolve(ctx, trackID)
	})
}
