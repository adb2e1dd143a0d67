// Package services defines the [Catalog] capability consumed by the genre pipeline and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Web API over net/http. Authentication uses [oauth2]: callers forward
// a refresh token, which is exchanged for a short-lived access token before any catalog call.
// One SpotifyService holds one user's token, so the HTTP layer builds one per request.
//
// # Rate Limiting
//
// [RateLimitedCatalog] routes every call through a shared [Retrier]. A 429 response is retried
// after the Retry-After delay (seconds, one second when missing) up to a bounded number of attempts;
// any other failure is returned immediately. An optional token bucket paces requests across the process.
//
// # Error Handling
//
// Non-2xx responses become [APIError], which unwraps to the shared sentinels:
//   - [shared.ErrAuthRequired] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrUpstream] : anything else
package services
