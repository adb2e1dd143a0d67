package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrefy/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 5
	defaultMaxDelay    = 30 * time.Second
)

// Retrier executes catalog calls, waiting out 429 responses and retrying.
//
// A single Retrier is meant to be shared by every request so the optional request limiter
// paces the whole process.
type Retrier struct {
	maxAttempts int
	maxDelay    time.Duration
	limiter     *rate.Limiter
	logger      *log.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// RetrierOpts configures a [Retrier].
type RetrierOpts struct {
	MaxAttempts       int           // total calls per operation, including the first; defaults to 5
	MaxDelay          time.Duration // ceiling for server supplied Retry-After; defaults to 30s
	RequestsPerSecond float64       // proactive pacing, disabled when <= 0
	Burst             int
	Logger            *log.Logger
	Sleep             func(ctx context.Context, d time.Duration) error // test hook
}

// NewRetrier creates a [Retrier], filling zero values with defaults.
func NewRetrier(opts RetrierOpts) *Retrier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	r := &Retrier{
		maxAttempts: opts.MaxAttempts,
		maxDelay:    opts.MaxDelay,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
	}

	if opts.RequestsPerSecond > 0 {
		burst := max(opts.Burst, 1)
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return r
}

// NewRetrierFromConfig builds a [Retrier] from the [ratelimit] config section.
func NewRetrierFromConfig(cfg shared.RateLimitConfig, logger *log.Logger) *Retrier {
	return NewRetrier(RetrierOpts{
		MaxAttempts:       cfg.MaxAttempts,
		MaxDelay:          cfg.MaxDelay(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger,
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs call, retrying after the server's Retry-After delay while it keeps answering 429.
//
// Other failures are returned immediately. After the final attempt the rate limit error is
// returned wrapped in [shared.ErrRateLimited].
func Execute[T any](ctx context.Context, r *Retrier, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		result, err := call(ctx)
		if err == nil {
			return result, nil
		}

		delay, limited := RetryAfter(err)
		if !limited {
			return zero, err
		}

		if attempt >= r.maxAttempts {
			r.logger.Error("rate limit retries exhausted", "attempts", attempt)
			return zero, fmt.Errorf("%w: gave up after %d attempts: %v", shared.ErrRateLimited, attempt, err)
		}

		delay = min(delay, r.maxDelay)
		r.logger.Warn("rate limited, retrying", "attempt", attempt, "delay_ms", delay.Milliseconds())

		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// RateLimitedCatalog decorates a [Catalog] so every call goes through a [Retrier].
type RateLimitedCatalog struct {
	next    Catalog
	retrier *Retrier
}

// NewRateLimitedCatalog wraps next.
func NewRateLimitedCatalog(next Catalog, retrier *Retrier) *RateLimitedCatalog {
	if retrier == nil {
		retrier = NewRetrier(RetrierOpts{})
	}
	return &RateLimitedCatalog{next: next, retrier: retrier}
}

func (c *RateLimitedCatalog) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	return Execute(ctx, c.retrier, func(ctx context.Context) (*SpotifyPlaylist, error) {
		return c.next.Playlist(ctx, playlistID)
	})
}

func (c *RateLimitedCatalog) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	return Execute(ctx, c.retrier, func(ctx context.Context) (*SpotifyTrack, error) {
		return c.next.Track(ctx, trackID)
	})
}

func (c *RateLimitedCatalog) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	return Execute(ctx, c.retrier, func(ctx context.Context) (*SpotifyArtist, error) {
		return c.next.Artist(ctx, artistID)
	})
}

func (c *RateLimitedCatalog) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	return Execute(ctx, c.retrier, func(ctx context.Context) (*SpotifyAlbum, error) {
		return c.next.Album(ctx, albumID)
	})
}

func (c *RateLimitedCatalog) CreatePlaylist(ctx context.Context, name string, opts PlaylistOptions) (*SpotifyPlaylist, error) {
	return Execute(ctx, c.retrier, func(ctx context.Context) (*SpotifyPlaylist, error) {
		return c.next.CreatePlaylist(ctx, name, opts)
	})
}

func (c *RateLimitedCatalog) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	_, err := Execute(ctx, c.retrier, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.next.AddTracksToPlaylist(ctx, playlistID, uris)
	})
	return err
}
