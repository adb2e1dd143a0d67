// Package genres resolves, caches and matches track genres.
//
// A track's genres are the genre tags of its first credited artist ([ArtistResolver]) or of its
// album ([AlbumResolver]). Resolutions are memoized in a process-wide [Cache] that collapses
// concurrent lookups of the same key into one catalog round trip.
//
// Matching is loose: a requested genre matches when it appears, case-insensitively,
// as a substring of any of the track's genres. "rock" therefore matches "pop rock" and "rockabilly".
package genres
