// Package repositories implements SQLite persistence for filter job history.
//
// Key Implementations:
//   - [FilterJobRepository] : one row per create-filtered request with its outcome
//
// Sequence numbers provide stable, human-readable ordering (e.g., job #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Genre resolutions are not stored here; the cache in package genres lives for the life of the process.
package repositories
