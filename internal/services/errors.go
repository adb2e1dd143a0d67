package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/genrefy/internal/shared"
)

const defaultRetryAfter = time.Second

// APIError is a non-2xx response from the Spotify Web API.
//
// It unwraps to the matching shared sentinel so callers can use [errors.Is].
type APIError struct {
	Status     int
	RetryAfter string // raw Retry-After header, seconds
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("spotify API error: status %d on %s: %s", e.Status, e.Endpoint, msg)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, msg)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrAuthRequired
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusBadRequest:
		return shared.ErrInvalidInput
	default:
		return shared.ErrUpstream
	}
}

// RetryAfterDelay parses the Retry-After header as whole seconds, defaulting to one second
// when it is absent, non-numeric or not positive.
func (e *APIError) RetryAfterDelay() time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(e.RetryAfter))
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// RetryAfter reports whether err is a rate limit response and, if so, how long to wait.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return apiErr.RetryAfterDelay(), true
	}
	return 0, false
}

// newAPIError builds an [APIError] from a failed response, reading the Spotify error envelope when present.
func newAPIError(resp *http.Response, endpoint string) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		RetryAfter: resp.Header.Get("Retry-After"),
		Endpoint:   endpoint,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}

	return apiErr
}
