package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/genrefy/internal/formatter"
	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Jobs lists recorded filter jobs, newest first unless a filter is given.
func (r *Runner) Jobs(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, release, err := r.jobStore(config)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer release()

	limit := cmd.Int("limit")
	status := cmd.String("status")
	source := cmd.String("source")

	var jobs []*models.FilterJob
	if status == "" && source == "" {
		jobs, err = repo.Recent(limit)
	} else {
		criteria := map[string]any{"limit": limit}
		if status != "" {
			switch models.JobStatus(status) {
			case models.JobCompleted, models.JobFailed:
			default:
				return fmt.Errorf("%w: unknown status %q, expected completed or failed", shared.ErrInvalidInput, status)
			}
			criteria["status"] = status
		}
		if source != "" {
			id, err := shared.ParsePlaylistID(source)
			if err != nil {
				return err
			}
			criteria["source_playlist_id"] = id
		}
		jobs, err = repo.List(criteria)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobs, cmd.Bool("pretty"))
	}
	return formatter.RenderJobs(r.output, jobs)
}
