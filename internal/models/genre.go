package models

// TrackGenreRecord is the resolved genre fact for one track.
//
// Genres come from the track's first listed artist (or its album, under the album strategy)
// and may be empty. Records are never mutated once built.
type TrackGenreRecord struct {
	TrackID     string   `json:"id"`
	Name        string   `json:"name"`
	URI         string   `json:"uri"`
	ArtistNames []string `json:"artists"`
	Genres      []string `json:"genres"`
}

// HasGenres reports whether at least one genre tag is known.
func (r TrackGenreRecord) HasGenres() bool {
	return len(r.Genres) > 0
}

// FailedTrack identifies a track skipped by a run that continues past resolution errors.
type FailedTrack struct {
	TrackID string `json:"id"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error"`
}

// PipelineResult aggregates a single playlist resolution run.
type PipelineResult struct {
	PlaylistID     string             `json:"playlistId"`
	PlaylistName   string             `json:"playlistName"`
	Genres         []string           `json:"genres"`     // deduplicated, first-seen order
	ReadTrackNames []string           `json:"readTracks"` // resolved tracks with at least one genre
	Tracks         []TrackGenreRecord `json:"tracks"`     // every resolved track, playlist order
	Skipped        int                `json:"skipped"`    // entries with no underlying track
	Failed         []FailedTrack      `json:"failed,omitempty"`
}

// FilterResult is the inclusion decision for one resolved track.
type FilterResult struct {
	TrackID string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Matched bool   `json:"matched"`
}
