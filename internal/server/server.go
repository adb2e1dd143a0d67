package server

import "net/http"

// Middleware decorates every route registered after it is installed with [BasicRouter.Use].
type Middleware func(http.Handler) http.Handler

// Handler groups the routes of one concern (playlist modes, login, cache).
//
// Routes are either "METHOD /path", dispatched through the router's method table so other
// methods get 405, or a bare ServeMux pattern handed to the mux as is.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router is what [NewRouter] builds the service on.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
}

var _ Router = (*BasicRouter)(nil)
