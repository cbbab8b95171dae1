package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
)

// apiHandler is an HTTP handler that reports failures as errors, which
// the router turns into JSON error responses.
type apiHandler func(w http.ResponseWriter, r *http.Request) error

// middlewareHandler can enrich the request context or abort with an error.
type middlewareHandler func(w http.ResponseWriter, r *http.Request) (context.Context, error)

type router struct {
	chi chi.Router
}

func newRouter() *router {
	return &router{chi: chi.NewRouter()}
}

func (r *router) Route(pattern string, fn func(*router)) {
	r.chi.Route(pattern, func(c chi.Router) {
		fn(&router{chi: c})
	})
}

func (r *router) Get(pattern string, fn apiHandler)    { r.chi.Get(pattern, handler(fn)) }
func (r *router) Post(pattern string, fn apiHandler)   { r.chi.Post(pattern, handler(fn)) }
func (r *router) Put(pattern string, fn apiHandler)    { r.chi.Put(pattern, handler(fn)) }
func (r *router) Delete(pattern string, fn apiHandler) { r.chi.Delete(pattern, handler(fn)) }

func (r *router) Handle(pattern string, h http.Handler) { r.chi.Handle(pattern, h) }

func (r *router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.chi.ServeHTTP(w, req)
}

// Use adds a context-aware middleware to the chain.
func (r *router) Use(fn middlewareHandler) {
	r.chi.Use(middlewareAdapter(fn))
}

// UseBypass adds a plain http middleware to the chain.
func (r *router) UseBypass(fn func(http.Handler) http.Handler) {
	r.chi.Use(fn)
}

// With creates a new inline router with the given middleware appended.
func (r *router) With(fn middlewareHandler) *router {
	return &router{chi: r.chi.With(middlewareAdapter(fn))}
}

func handler(fn apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			handleError(err, w, r)
		}
	}
}

func middlewareAdapter(fn middlewareHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := fn(w, r)
			if err != nil {
				handleError(err, w, r)
				return
			}
			if ctx != nil {
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
