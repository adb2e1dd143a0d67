// package tasks implements the playlist genre pipeline and the operations built on it.
//
// The core abstraction is GenreEngine, which resolves a playlist's genres and derives genre listings,
// filtered track sets and new filtered playlists from the result.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/server layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
)

// RunOptions controls a single pipeline run.
type RunOptions struct {
	Strategy        genres.Strategy // genre source, defaults to [genres.StrategyArtist]
	ContinueOnError bool            // record failing tracks instead of aborting
}

// FilteredTrack identifies a track that matched the requested genres.
type FilteredTrack struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GenresResult lists the genre vocabulary of a playlist.
type GenresResult struct {
	ReadTracks []string             `json:"readTracks"`
	Genres     []string             `json:"genres"`
	Failed     []models.FailedTrack `json:"failed,omitempty"`
}

// FilterResult reports the tracks of a playlist matching the requested genres.
type FilterResult struct {
	FilteredTracks []FilteredTrack       `json:"filteredTracks"`
	TotalTracks    int                   `json:"totalTracks"`    // resolved tracks, removed entries excluded
	MatchingTracks int                   `json:"matchingTracks"` // len(FilteredTracks)
	Results        []models.FilterResult `json:"-"`
	Failed         []models.FailedTrack  `json:"failed,omitempty"`
}

// CreateFilteredResult describes a playlist created from filtered tracks.
type CreateFilteredResult struct {
	Playlist *services.SpotifyPlaylist `json:"playlist"`
	Tracks   []FilteredTrack           `json:"tracks"`
	JobID    string                    `json:"jobId,omitempty"`
	Failed   []models.FailedTrack      `json:"failed,omitempty"`
}

// CreateFilteredRequest holds the inputs of [PlaylistEngine.CreateFiltered].
type CreateFilteredRequest struct {
	PlaylistRef  string
	Genres       []string
	PlaylistName string
	Description  string
}

// GenreEngine defines the playlist genre operations.
type GenreEngine interface {
	// Run resolves the genres of every track in a playlist.
	Run(ctx context.Context, catalog services.Catalog, playlistRef string, opts RunOptions, progress chan<- ProgressUpdate) (*models.PipelineResult, error)

	// Genres lists the tracks that have genre tags and the playlist's deduplicated genres.
	Genres(ctx context.Context, catalog services.Catalog, playlistRef string, opts RunOptions, progress chan<- ProgressUpdate) (*GenresResult, error)

	// Filter selects the tracks matching any requested genre.
	Filter(ctx context.Context, catalog services.Catalog, playlistRef string, requested []string, opts RunOptions, progress chan<- ProgressUpdate) (*FilterResult, error)

	// CreateFiltered creates a private playlist holding the matched tracks.
	CreateFiltered(ctx context.Context, catalog services.Catalog, req CreateFilteredRequest, opts RunOptions, progress chan<- ProgressUpdate) (*CreateFilteredResult, error)
}

// JobRecorder persists the outcome of each CreateFiltered call.
//
// Implemented by repositories.FilterJobRepository.
type JobRecorder interface {
	Create(job *models.FilterJob) error
}

// PlaylistEngine implements [GenreEngine].
//
// The cache is shared across runs and catalogs; a nil cache resolves every track directly.
type PlaylistEngine struct {
	cache  *genres.Cache
	jobs   JobRecorder
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. jobs and logger may be nil.
func NewPlaylistEngine(cache *genres.Cache, jobs JobRecorder, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &PlaylistEngine{cache: cache, jobs: jobs, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) resolver(catalog services.Catalog, strategy genres.Strategy) genres.Resolver {
	base := genres.NewResolver(strategy, catalog)
	if e.cache == nil {
		return base
	}
	return genres.NewCachedResolver(e.cache, strategy, base)
}

// Run fetches the playlist and resolves each track in listing order, one at a time.
//
// Entries without an underlying track are skipped and counted. By default the first resolution
// failure aborts the run and no partial result is returned. With [RunOptions.ContinueOnError] the
// failing track is recorded in [models.PipelineResult.Failed] instead, except when the catalog
// keeps rate limiting or the context ends.
func (e *PlaylistEngine) Run(ctx context.Context, catalog services.Catalog, playlistRef string, opts RunOptions, progress chan<- ProgressUpdate) (*models.PipelineResult, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	playlistID, err := shared.ParsePlaylistID(playlistRef)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = genres.StrategyArtist
	}

	e.sendProgress(progress, fetchPlaylistUpdate(playlistID))
	playlist, err := catalog.Playlist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", playlistID, err)
	}

	items := playlist.Tracks.Items
	total := len(items)
	e.sendProgress(progress, foundPlaylistUpdate(playlist.Name, total))

	result := &models.PipelineResult{
		PlaylistID:     playlistID,
		PlaylistName:   playlist.Name,
		Genres:         []string{},
		ReadTrackNames: []string{},
		Tracks:         make([]models.TrackGenreRecord, 0, total),
	}

	resolver := e.resolver(catalog, strategy)
	seen := map[string]struct{}{}
	logger := shared.WithLogger(e.logger, "playlist", playlistID)

	for i, item := range items {
		if item.Track == nil || item.Track.ID == "" {
			result.Skipped++
			e.sendProgress(progress, skippedTrackUpdate(i+1, total))
			continue
		}

		e.sendProgress(progress, resolveTrackUpdate(i+1, total, item.Track.Name))

		record, err := resolver.Resolve(ctx, item.Track.ID)
		if err != nil {
			if !opts.ContinueOnError || abortsRun(ctx, err) {
				logger.Error("track resolution failed", "track", item.Track.ID, "error", err)
				return nil, fmt.Errorf("failed to resolve track %s: %w", item.Track.ID, err)
			}

			logger.Warn("skipping track", "track", item.Track.ID, "error", err)
			result.Failed = append(result.Failed, models.FailedTrack{TrackID: item.Track.ID, Name: item.Track.Name, Error: err.Error()})
			continue
		}

		result.Tracks = append(result.Tracks, record)
		result.Genres = genres.Merge(result.Genres, seen, record.Genres)
		if record.HasGenres() {
			result.ReadTrackNames = append(result.ReadTrackNames, record.Name)
		}
	}

	logger.Info("playlist resolved",
		"strategy", strategy,
		"tracks", len(result.Tracks),
		"skipped", result.Skipped,
		"failed", len(result.Failed),
		"genres", len(result.Genres),
	)
	return result, nil
}

func abortsRun(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, shared.ErrRateLimited) || errors.Is(err, shared.ErrAuthRequired)
}

// Genres returns the names of tracks with at least one genre and the playlist's genres in first-seen order.
func (e *PlaylistEngine) Genres(ctx context.Context, catalog services.Catalog, playlistRef string, opts RunOptions, progress chan<- ProgressUpdate) (*GenresResult, error) {
	result, err := e.Run(ctx, catalog, playlistRef, opts, progress)
	if err != nil {
		return nil, err
	}
	return NewGenresResult(result), nil
}

// NewGenresResult derives the genre listing from a completed run.
func NewGenresResult(result *models.PipelineResult) *GenresResult {
	return &GenresResult{ReadTracks: result.ReadTrackNames, Genres: result.Genres, Failed: result.Failed}
}

// Filter returns the tracks whose genres contain any requested genre, in playlist order.
//
// An empty requested list matches nothing, so the result has no tracks but still reports totalTracks.
func (e *PlaylistEngine) Filter(ctx context.Context, catalog services.Catalog, playlistRef string, requested []string, opts RunOptions, progress chan<- ProgressUpdate) (*FilterResult, error) {
	result, err := e.Run(ctx, catalog, playlistRef, opts, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, filterUpdate(len(result.Tracks)))
	return NewFilterResult(result, requested), nil
}

// NewFilterResult derives the filtered track set from a completed run.
func NewFilterResult(result *models.PipelineResult, requested []string) *FilterResult {
	results := genres.Filter(result.Tracks, requested)
	filtered := make([]FilteredTrack, 0, len(results))
	for _, r := range genres.Matching(results) {
		filtered = append(filtered, FilteredTrack{ID: r.TrackID, Name: r.Name})
	}

	return &FilterResult{
		FilteredTracks: filtered,
		TotalTracks:    len(result.Tracks),
		MatchingTracks: len(filtered),
		Results:        results,
		Failed:         result.Failed,
	}
}

// CreateFiltered filters the playlist and copies the matches into a new private, non-collaborative playlist.
//
// When no track matches the playlist is still created and no add request is made. Tracks are
// added in filter order, at most [services.MaxTracksPerAdd] per request. When a [JobRecorder] is configured every outcome past
// filtering is recorded.
func (e *PlaylistEngine) CreateFiltered(ctx context.Context, catalog services.Catalog, req CreateFilteredRequest, opts RunOptions, progress chan<- ProgressUpdate) (*CreateFilteredResult, error) {
	if req.PlaylistName == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	filtered, err := e.Filter(ctx, catalog, req.PlaylistRef, req.Genres, opts, progress)
	if err != nil {
		return nil, err
	}

	sourceID, _ := shared.ParsePlaylistID(req.PlaylistRef)
	strategy := opts.Strategy
	if strategy == "" {
		strategy = genres.StrategyArtist
	}
	job := models.NewFilterJob(sourceID, req.PlaylistName, req.Genres, string(strategy))
	job.TotalTracks, job.MatchedTracks = filtered.TotalTracks, filtered.MatchingTracks

	playlist, err := e.createAndFill(ctx, catalog, req, filtered, progress)
	if err != nil {
		job.Fail(err)
		if playlist != nil {
			job.CreatedPlaylistID = playlist.ID
		}
		e.record(job)
		return nil, err
	}

	job.Complete(playlist.ID, filtered.TotalTracks, filtered.MatchingTracks)
	e.record(job)

	e.logger.Info("filtered playlist created", "source", sourceID, "playlist", playlist.ID, "tracks", filtered.MatchingTracks)
	return &CreateFilteredResult{
		Playlist: playlist,
		Tracks:   filtered.FilteredTracks,
		JobID:    job.ID(),
		Failed:   filtered.Failed,
	}, nil
}

func (e *PlaylistEngine) createAndFill(ctx context.Context, catalog services.Catalog, req CreateFilteredRequest, filtered *FilterResult, progress chan<- ProgressUpdate) (*services.SpotifyPlaylist, error) {
	e.sendProgress(progress, createPlaylistUpdate(req.PlaylistName))

	playlist, err := catalog.CreatePlaylist(ctx, req.PlaylistName, services.PlaylistOptions{
		Description:   req.Description,
		Public:        false,
		Collaborative: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreationFailed, err)
	}

	uris := make([]string, 0, filtered.MatchingTracks)
	for _, r := range filtered.Results {
		if r.Matched {
			uris = append(uris, r.URI)
		}
	}

	for start := 0; start < len(uris); start += services.MaxTracksPerAdd {
		end := min(start+services.MaxTracksPerAdd, len(uris))
		e.sendProgress(progress, addTracksUpdate(end, len(uris)))

		if err := catalog.AddTracksToPlaylist(ctx, playlist.ID, uris[start:end]); err != nil {
			return playlist, fmt.Errorf("failed to add tracks %d-%d to playlist %s: %w", start+1, end, playlist.ID, err)
		}
	}

	e.sendProgress(progress, createdPlaylistUpdate(playlist))
	return playlist, nil
}

// record persists job, logging instead of failing the request when the store is unavailable.
func (e *PlaylistEngine) record(job *models.FilterJob) {
	if e.jobs == nil {
		return
	}
	if err := e.jobs.Create(job); err != nil {
		e.logger.Warn("failed to record filter job", "playlist", job.PlaylistName, "error", err)
	}
}
