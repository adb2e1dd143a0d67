package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/genrefy/internal/server"
	"github.com/desertthunder/genrefy/internal/services"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loaded, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	config := *loaded
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return err
	}

	defaults, err := defaultRunOptions(&config)
	if err != nil {
		return err
	}

	jobs, release := r.jobRecorder(&config)
	defer release()

	router := server.NewRouter(server.Options{
		Engine:         r.engine(jobs),
		Catalogs:       r.catalogFactory(&config),
		Auth:           r.authHandler(&config),
		Cache:          r.cache,
		Defaults:       defaults,
		RequestTimeout: config.Server.RequestTimeout(),
		Logger:         r.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := config.Server.Addr()
	r.writePlain("→ genrefy listening on http://%s\n", addr)
	return server.ListenAndServe(ctx, addr, router, r.logger)
}

// authHandler serves /login and /callback when client credentials are configured.
func (r *Runner) authHandler(config *shared.Config) *server.AuthHandler {
	credentials := config.Credentials.Spotify.Map()
	svc, err := services.NewSpotifyService(credentials)
	if err != nil {
		r.logger.Warn("login disabled", "error", err)
		return nil
	}
	return server.NewAuthHandler(svc.GetAuthURL, r.exchangeFunc(credentials))
}
