package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrefy/internal/genres"
	"github.com/desertthunder/genrefy/internal/shared"
	"github.com/desertthunder/genrefy/internal/tasks"
)

// Options wires the web service.
type Options struct {
	Engine         tasks.GenreEngine
	Catalogs       CatalogFactory
	Auth           *AuthHandler  // optional; enables /login and /callback
	Cache          *genres.Cache // optional; enables GET and DELETE /cache
	Defaults       tasks.RunOptions
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// NewRouter registers every route of the web service behind the standard middleware stack.
func NewRouter(opts Options) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	r := NewBasicRouter()
	r.Use(RequestID(), Logging(logger), Recover(logger), Timeout(opts.RequestTimeout))

	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(health))
	r.Handler(NewPlaylistHandler(opts.Engine, opts.Catalogs, opts.Defaults, logger))
	if opts.Auth != nil {
		r.Handler(opts.Auth)
	}
	if opts.Cache != nil {
		r.Handler(NewCacheHandler(opts.Cache))
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "genrefy is running")
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
