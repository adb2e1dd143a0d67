// Package models defines the domain entities shared by the genre pipeline, the HTTP layer and persistence.
//
// The package contains two categories of types:
//
// 1. Value types produced per request:
//   - [TrackGenreRecord] : a track resolved to its genre tags
//   - [PipelineResult] : aggregate of one playlist resolution run
//   - [FilterResult] : per-track inclusion decision
//
// 2. Persistent entities:
//   - [FilterJob] : history of playlists materialized from a genre filter
//
// Persistent entities implement [Record]; their repositories satisfy [Store].
package models
