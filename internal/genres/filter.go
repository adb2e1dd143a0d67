package genres

import (
	"strings"

	"github.com/desertthunder/genrefy/internal/models"
)

// Match reports whether any requested genre is a case-insensitive substring of any track genre.
//
// An empty requested set never matches.
func Match(trackGenres, requested []string) bool {
	for _, want := range requested {
		want = strings.ToLower(want)
		for _, g := range trackGenres {
			if strings.Contains(strings.ToLower(g), want) {
				return true
			}
		}
	}
	return false
}

// Filter decides inclusion for each record, preserving order.
func Filter(records []models.TrackGenreRecord, requested []string) []models.FilterResult {
	results := make([]models.FilterResult, 0, len(records))
	for _, r := range records {
		results = append(results, models.FilterResult{
			TrackID: r.TrackID,
			Name:    r.Name,
			URI:     r.URI,
			Matched: Match(r.Genres, requested),
		})
	}
	return results
}

// Matching returns only the matched results, in order.
func Matching(results []models.FilterResult) []models.FilterResult {
	matched := make([]models.FilterResult, 0, len(results))
	for _, r := range results {
		if r.Matched {
			matched = append(matched, r)
		}
	}
	return matched
}

// MatchedGenres returns the deduplicated genre vocabulary of records matching requested,
// in first-seen order.
func MatchedGenres(records []models.TrackGenreRecord, requested []string) []string {
	seen := map[string]struct{}{}
	genres := []string{}
	for _, r := range records {
		if !Match(r.Genres, requested) {
			continue
		}
		genres = Merge(genres, seen, r.Genres)
	}
	return genres
}

// Merge appends genres not yet in seen to dst, recording them in seen.
func Merge(dst []string, seen map[string]struct{}, genres []string) []string {
	for _, g := range genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		dst = append(dst, g)
	}
	return dst
}
