package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthRequired  = fmt.Errorf("authentication required")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")

	// Catalog errors
	ErrNotFound               = fmt.Errorf("not found")
	ErrRateLimited            = fmt.Errorf("rate limited")
	ErrUpstream               = fmt.Errorf("upstream request failed")
	ErrPlaylistCreationFailed = fmt.Errorf("playlist creation failed")
	ErrServiceUnavailable     = fmt.Errorf("service unavailable")
	ErrTimeout                = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMalformedData   = fmt.Errorf("%w: malformed data", ErrInvalidInput)
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
