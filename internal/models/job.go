package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobStatus is the outcome of a create-filtered run.
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// FilterJob records a playlist materialized (or attempted) from a genre filter.
type FilterJob struct {
	id                string
	sequence          int
	SourcePlaylistID  string
	CreatedPlaylistID string
	PlaylistName      string
	Genres            []string
	Strategy          string
	TotalTracks       int
	MatchedTracks     int
	Status            JobStatus
	Error             string
	createdAt         time.Time
	updatedAt         time.Time
}

// NewFilterJob creates an unsaved job with timestamps set to now.
func NewFilterJob(sourcePlaylistID, playlistName string, genres []string, strategy string) *FilterJob {
	now := time.Now().UTC()
	return &FilterJob{
		SourcePlaylistID: sourcePlaylistID,
		PlaylistName:     playlistName,
		Genres:           genres,
		Strategy:         strategy,
		createdAt:        now,
		updatedAt:        now,
	}
}

// RestoreFilterJob rebuilds a job read from storage.
func RestoreFilterJob(id string, sequence int, createdAt, updatedAt time.Time, job FilterJob) *FilterJob {
	job.id = id
	job.sequence = sequence
	job.createdAt = createdAt
	job.updatedAt = updatedAt
	return &job
}

func (j *FilterJob) ID() string               { return j.id }
func (j *FilterJob) Sequence() int            { return j.sequence }
func (j *FilterJob) CreatedAt() time.Time     { return j.createdAt }
func (j *FilterJob) UpdatedAt() time.Time     { return j.updatedAt }
func (j *FilterJob) SetID(id string)          { j.id = id }
func (j *FilterJob) SetSequence(seq int)      { j.sequence = seq }
func (j *FilterJob) SetUpdatedAt(t time.Time) { j.updatedAt = t }

// Complete marks the job as successful.
func (j *FilterJob) Complete(playlistID string, total, matched int) {
	j.CreatedPlaylistID = playlistID
	j.TotalTracks = total
	j.MatchedTracks = matched
	j.Status = JobCompleted
	j.Error = ""
}

// Fail marks the job as failed with err.
func (j *FilterJob) Fail(err error) {
	j.Status = JobFailed
	if err != nil {
		j.Error = err.Error()
	}
}

// GenresString joins the requested genres for storage and display.
func (j *FilterJob) GenresString() string {
	return strings.Join(j.Genres, ",")
}

// Validate checks required fields.
func (j *FilterJob) Validate() error {
	if j.SourcePlaylistID == "" {
		return fmt.Errorf("source playlist id is required")
	}
	if j.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	switch j.Status {
	case JobCompleted, JobFailed:
	default:
		return fmt.Errorf("invalid job status: %q", j.Status)
	}
	return nil
}

type filterJobJSON struct {
	ID                string    `json:"id"`
	Sequence          int       `json:"sequence"`
	SourcePlaylistID  string    `json:"sourcePlaylistId"`
	CreatedPlaylistID string    `json:"createdPlaylistId,omitempty"`
	PlaylistName      string    `json:"playlistName"`
	Genres            []string  `json:"genres"`
	Strategy          string    `json:"strategy"`
	TotalTracks       int       `json:"totalTracks"`
	MatchedTracks     int       `json:"matchedTracks"`
	Status            JobStatus `json:"status"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// MarshalJSON includes the storage fields that are not exported.
func (j *FilterJob) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterJobJSON{
		ID:                j.id,
		Sequence:          j.sequence,
		SourcePlaylistID:  j.SourcePlaylistID,
		CreatedPlaylistID: j.CreatedPlaylistID,
		PlaylistName:      j.PlaylistName,
		Genres:            j.Genres,
		Strategy:          j.Strategy,
		TotalTracks:       j.TotalTracks,
		MatchedTracks:     j.MatchedTracks,
		Status:            j.Status,
		Error:             j.Error,
		CreatedAt:         j.createdAt,
		UpdatedAt:         j.updatedAt,
	})
}
