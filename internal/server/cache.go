package server

import (
	"net/http"

	"github.com/desertthunder/genrefy/internal/genres"
)

// CacheHandler reports and clears the process-wide genre resolution cache.
type CacheHandler struct {
	cache *genres.Cache
}

func NewCacheHandler(cache *genres.Cache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Routes returns the HTTP routes this handler serves.
func (h *CacheHandler) Routes() []string {
	return []string{"GET /cache", "DELETE /cache"}
}

func (h *CacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		h.cache.Purge()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.cache.Stats())
}
