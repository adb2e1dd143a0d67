// Package tasks resolves playlist genres and builds genre listings, filters and filtered playlists on top.
//
// # Core Operations
//
// The [GenreEngine] interface defines four operations:
//
//  1. [GenreEngine.Run] : resolve every track of a playlist
//     - Fetches the playlist (first page of items)
//     - Skips entries whose track was removed
//     - Resolves each track's genres through the shared [genres.Cache], one at a time
//     - Aborts on the first failure unless [RunOptions.ContinueOnError] is set
//
//  2. [GenreEngine.Genres] : tracks with genre tags and the deduplicated genre list
//
//  3. [GenreEngine.Filter] : tracks matching any requested genre (case-insensitive substring)
//
//  4. [GenreEngine.CreateFiltered] : copy the matches into a new private playlist
//     - Refuses to create an empty playlist
//     - Adds tracks in filter order, 100 per request
//     - Records the outcome through the optional [JobRecorder]
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Updates are sent with select and
// default so a slow reader never blocks the pipeline.
//
// # Implementation
//
// [PlaylistEngine] implements [GenreEngine] and is safe to share between requests. The
// [services.Catalog] is passed per call so each request uses its own credentials.
package tasks
