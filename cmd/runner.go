package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/repositories"
	"github.com/desertthunder/genrefy/internal/server"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/desertthunder/genrefy/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalogs   server.CatalogFactory
	cache      *genres.Cache
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalogs   server.CatalogFactory // defaults to the Spotify API with the config's credentials
	Cache      *genres.Cache
	DB         *sql.DB // filter job store; opened from [shared.DatabaseConfig] when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Cache == nil {
		opts.Cache = genres.NewCache(opts.Config.Resolution.CacheSize, opts.Config.Resolution.CacheTTL())
	}

	return &Runner{
		config:     opts.Config,
		catalogs:   opts.Catalogs,
		cache:      opts.Cache,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, genresCommand, filterCommand, createCommand, jobsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the runner's config unless --config names another file.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if !cmd.IsSet("config") {
		return r.config, nil
	}

	config, err := shared.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	config.ApplyEnv()
	return config, nil
}

// catalogFactory returns the injected factory or one backed by the Spotify API.
func (r *Runner) catalogFactory(config *shared.Config) server.CatalogFactory {
	if r.catalogs != nil {
		return r.catalogs
	}
	retrier := services.NewRetrierFromConfig(config.RateLimit, r.logger)
	return server.SpotifyCatalogFactory(config.Credentials.Spotify.Map(), retrier, r.httpClient)
}

// catalog authorizes a catalog with --refresh-token, falling back to the token saved by `genrefy auth`.
func (r *Runner) catalog(ctx context.Context, cmd *cli.Command, config *shared.Config) (services.Catalog, error) {
	token := cmd.String("refresh-token")
	if token == "" {
		token = config.Credentials.Spotify.RefreshToken
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no refresh token, run 'genrefy auth' first", shared.ErrAuthRequired)
	}
	return r.catalogFactory(config)(ctx, token)
}

// jobStore opens the filter job repository. The returned func releases it.
func (r *Runner) jobStore(config *shared.Config) (*repositories.FilterJobRepository, func(), error) {
	if r.db != nil {
		return repositories.NewFilterJobRepository(r.db), func() {}, nil
	}

	db, err := shared.OpenConfigured(config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewFilterJobRepository(db), func() { db.Close() }, nil
}

// jobRecorder is jobStore for callers that run without history when the database is unavailable.
func (r *Runner) jobRecorder(config *shared.Config) (tasks.JobRecorder, func()) {
	repo, release, err := r.jobStore(config)
	if err != nil {
		r.logger.Warn("filter job history disabled", "path", config.Database.Path, "error", err)
		return nil, func() {}
	}
	return repo, release
}

func (r *Runner) engine(jobs tasks.JobRecorder) *tasks.PlaylistEngine {
	return tasks.NewPlaylistEngine(r.cache, jobs, r.logger)
}

// defaultRunOptions reads the [resolution] and [pipeline] sections.
func defaultRunOptions(config *shared.Config) (tasks.RunOptions, error) {
	strategy, err := genres.ParseStrategy(config.Resolution.Strategy)
	if err != nil {
		return tasks.RunOptions{}, err
	}
	return tasks.RunOptions{Strategy: strategy, ContinueOnError: config.Pipeline.ContinueOnError}, nil
}

// runOptions applies --strategy and --partial over the config defaults.
func runOptions(cmd *cli.Command, config *shared.Config) (tasks.RunOptions, error) {
	opts, err := defaultRunOptions(config)
	if err != nil {
		return opts, err
	}

	if s := cmd.String("strategy"); s != "" {
		if opts.Strategy, err = genres.ParseStrategy(s); err != nil {
			return opts, err
		}
	}
	if cmd.Bool("partial") {
		opts.ContinueOnError = true
	}
	return opts, nil
}

// trackProgress prints engine updates until the returned func is called.
//
// Quiet mode logs updates at debug level so JSON output stays clean.
func (r *Runner) trackProgress(quiet bool) (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}

			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.FilterTracks:
				r.writePlain("\n🔎 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
