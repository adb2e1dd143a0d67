// Package server provides HTTP routing, middleware, and handlers for the genre filtering web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-path method tables.
//
// [NewRouter] installs [RequestID], [Logging], [Recover] and [Timeout] and registers:
//
//	GET  /                         health text
//	POST /playlist/genres          {playlistUrl}                          → {readTracks, genres}
//	POST /playlist/filter          {playlistUrl, genres}                  → {filteredTracks, totalTracks, matchingTracks}
//	POST /playlist/create-filtered {playlistUrl, genres, playlistName}    → {playlist, tracks}
//	GET  /login, GET /callback     browser login returning a refresh token
//	GET  /cache, DELETE /cache     resolution cache stats and purge
//
// Playlist endpoints require "Authorization: Bearer <refresh token>". Each request builds its own
// catalog through a [CatalogFactory]; the genre cache and rate limiter are shared by all requests.
// Errors are JSON {"error": "..."} with a status chosen by [StatusFor].
//
// # OAuth Callback Handler
//
// OAuthHandler implements the one-shot callback used by the CLI auth command.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
