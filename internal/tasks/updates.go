package tasks

import (
	"fmt"

	"github.com/desertthunder/genrefy/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	ResolveTracks
	FilterTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case ResolveTracks:
		return "resolve_tracks"
	case FilterTracks:
		return "filter_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", id),
	}
}

func foundPlaylistUpdate(name string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", name, total),
	}
}

func resolveTrackUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func skippedTrackUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] skipped unavailable track", step, total),
	}
}

func filterUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FilterTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Filtering %d tracks...", total),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %s on Spotify...", name),
	}
}

func addTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding tracks...", step, total),
	}
}

func createdPlaylistUpdate(pl *services.SpotifyPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}
