package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/genrefy/internal/shared"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrPlaylistCreationFailed):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrUpstream), errors.Is(err, shared.ErrRefreshFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorResponse{Error: err.Error()})
}
