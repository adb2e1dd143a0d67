package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/genrefy/internal/formatter"
	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/desertthunder/genrefy/internal/tasks"
	"github.com/urfave/cli/v3"
)

// playlistRun carries what every pipeline command resolves before running.
type playlistRun struct {
	config  *shared.Config
	catalog services.Catalog
	ref     string
	opts    tasks.RunOptions
	json    bool
	pretty  bool
}

func (r *Runner) preparePlaylistRun(ctx context.Context, cmd *cli.Command) (*playlistRun, error) {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return nil, fmt.Errorf("%w: playlist URL or ID is required", shared.ErrMissingArgument)
	}

	if err := checkExportFormat(cmd.String("export")); err != nil {
		return nil, err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts, err := runOptions(cmd, config)
	if err != nil {
		return nil, err
	}

	catalog, err := r.catalog(ctx, cmd, config)
	if err != nil {
		return nil, err
	}

	return &playlistRun{
		config:  config,
		catalog: catalog,
		ref:     ref,
		opts:    opts,
		json:    cmd.Bool("json"),
		pretty:  cmd.Bool("pretty"),
	}, nil
}

// Genres prints the deduplicated genres of a playlist.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	run, err := r.preparePlaylistRun(ctx, cmd)
	if err != nil {
		return err
	}

	progress, wait := r.trackProgress(run.json)
	result, err := r.engine(nil).Run(ctx, run.catalog, run.ref, run.opts, progress)
	wait()
	if err != nil {
		return err
	}

	if err := r.export(cmd, result, nil); err != nil {
		return err
	}

	if run.json {
		return r.writeJSON(tasks.NewGenresResult(result), run.pretty)
	}

	r.writePlain("\n")
	return formatter.RenderGenres(r.output, result)
}

// Filter prints the tracks of a playlist matching any --genre.
func (r *Runner) Filter(ctx context.Context, cmd *cli.Command) error {
	requested := cmd.StringSlice("genre")
	if len(requested) == 0 {
		return fmt.Errorf("%w: at least one --genre is required", shared.ErrMissingArgument)
	}

	run, err := r.preparePlaylistRun(ctx, cmd)
	if err != nil {
		return err
	}

	progress, wait := r.trackProgress(run.json)
	result, err := r.engine(nil).Run(ctx, run.catalog, run.ref, run.opts, progress)
	wait()
	if err != nil {
		return err
	}

	if err := r.export(cmd, result, requested); err != nil {
		return err
	}

	if run.json {
		return r.writeJSON(tasks.NewFilterResult(result, requested), run.pretty)
	}

	r.writePlain("\n")
	return formatter.RenderFilter(r.output, result, requested)
}

// Create copies the tracks matching any --genre into a new private playlist and records the job.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	requested := cmd.StringSlice("genre")
	if len(requested) == 0 {
		return fmt.Errorf("%w: at least one --genre is required", shared.ErrMissingArgument)
	}

	run, err := r.preparePlaylistRun(ctx, cmd)
	if err != nil {
		return err
	}

	jobs, release := r.jobRecorder(run.config)
	defer release()

	progress, wait := r.trackProgress(run.json)
	result, err := r.engine(jobs).CreateFiltered(ctx, run.catalog, tasks.CreateFilteredRequest{
		PlaylistRef:  run.ref,
		Genres:       requested,
		PlaylistName: cmd.String("name"),
		Description:  cmd.String("description"),
	}, run.opts, progress)
	wait()
	if err != nil {
		return err
	}

	if run.json {
		return r.writeJSON(result, run.pretty)
	}

	r.writePlain("\n")
	r.writePlainHeader("Filtered Playlist Created")
	r.writePlain("Name: %s\n", result.Playlist.Name)
	r.writePlain("ID: %s\n", result.Playlist.ID)
	if url := result.Playlist.ExternalURLs.Spotify; url != "" {
		r.writePlain("URL: %s\n", url)
	}
	r.writePlain("Tracks: %d\n", len(result.Tracks))
	for i, t := range result.Tracks {
		r.writePlain("  %d. %s\n", i+1, t.Name)
	}
	if len(result.Failed) > 0 {
		r.writePlainln("⚠ %d tracks could not be resolved and were left out", len(result.Failed))
	}
	if result.JobID != "" {
		r.writePlain("Job: %s\n", result.JobID)
	}
	return nil
}

func checkExportFormat(format string) error {
	switch format {
	case "", "csv", "md", "markdown":
		return nil
	default:
		return fmt.Errorf("%w: unknown export format %q, expected csv or md", shared.ErrInvalidInput, format)
	}
}

// export writes result to disk when --export is set.
func (r *Runner) export(cmd *cli.Command, result *models.PipelineResult, requested []string) error {
	switch cmd.String("export") {
	case "csv":
		files, err := formatter.WriteCSVExport(result, requested, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist genres", "tracks", files.TracksFile, "metadata", files.MetadataFile)
	case "md", "markdown":
		path, err := formatter.WriteMarkdownExport(result, requested, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist genres", "file", path)
	}
	return nil
}
