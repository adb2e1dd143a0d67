package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/shared"
)

const filterJobColumns = `id, sequence, source_playlist_id, created_playlist_id, playlist_name, genres, strategy,
		total_tracks, matched_tracks, status, error, created_at, updated_at`

// FilterJobRepository implements models.Store[*models.FilterJob] for create-filtered history.
type FilterJobRepository struct {
	db *sql.DB
}

// NewFilterJobRepository creates a new FilterJobRepository with the given database connection
func NewFilterJobRepository(db *sql.DB) *FilterJobRepository {
	return &FilterJobRepository{db: db}
}

// Create inserts a new job into the database with generated ID and sequence
func (r *FilterJobRepository) Create(job *models.FilterJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "filter_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO filter_jobs (` + filterJobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		id,
		sequence,
		job.SourcePlaylistID,
		nullString(job.CreatedPlaylistID),
		job.PlaylistName,
		job.GenresString(),
		job.Strategy,
		job.TotalTracks,
		job.MatchedTracks,
		string(job.Status),
		nullString(job.Error),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert filter job: %w", err)
	}

	job.SetID(id)
	job.SetSequence(sequence)
	return nil
}

// Get retrieves a job by ID
func (r *FilterJobRepository) Get(id string) (*models.FilterJob, error) {
	query := `SELECT ` + filterJobColumns + ` FROM filter_jobs WHERE id = ?`

	job, err := scanFilterJob(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: filter job %s", shared.ErrNotFound, id)
	}
	return job, err
}

// Update modifies the outcome fields of an existing job
func (r *FilterJobRepository) Update(job *models.FilterJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	job.SetUpdatedAt(now)

	query := `
		UPDATE filter_jobs
		SET created_playlist_id = ?, total_tracks = ?, matched_tracks = ?, status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(job.CreatedPlaylistID),
		job.TotalTracks,
		job.MatchedTracks,
		string(job.Status),
		nullString(job.Error),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update filter job: %w", err)
	}

	return expectAffected(result, job.ID())
}

// Delete removes a job by ID
func (r *FilterJobRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM filter_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filter job: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves jobs matching the given criteria in creation order.
//
// Supported criteria: "source_playlist_id" (string), "status" (string or [models.JobStatus]), "limit" (int).
func (r *FilterJobRepository) List(criteria map[string]any) ([]*models.FilterJob, error) {
	query := `SELECT ` + filterJobColumns + ` FROM filter_jobs WHERE 1 = 1`
	args := []any{}

	if source, ok := criteria["source_playlist_id"].(string); ok && source != "" {
		query += " AND source_playlist_id = ?"
		args = append(args, source)
	}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.JobStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

// Recent returns up to limit jobs, newest first.
func (r *FilterJobRepository) Recent(limit int) ([]*models.FilterJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + filterJobColumns + ` FROM filter_jobs ORDER BY sequence DESC LIMIT ?`
	return r.query(query, limit)
}

func (r *FilterJobRepository) query(query string, args ...any) ([]*models.FilterJob, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.FilterJob{}
	for rows.Next() {
		job, err := scanFilterJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanFilterJob(s scanner) (*models.FilterJob, error) {
	var (
		id                string
		sequence          int
		job               models.FilterJob
		createdPlaylistID sql.NullString
		genres            string
		status            string
		errMsg            sql.NullString
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := s.Scan(
		&id,
		&sequence,
		&job.SourcePlaylistID,
		&createdPlaylistID,
		&job.PlaylistName,
		&genres,
		&job.Strategy,
		&job.TotalTracks,
		&job.MatchedTracks,
		&status,
		&errMsg,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan filter job: %w", err)
	}

	job.CreatedPlaylistID = createdPlaylistID.String
	job.Error = errMsg.String
	job.Status = models.JobStatus(status)
	if genres != "" {
		job.Genres = strings.Split(genres, ",")
	}

	return models.RestoreFilterJob(id, sequence, createdAt, updatedAt, job), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: filter job %s", shared.ErrNotFound, id)
	}
	return nil
}
