// internal/page/middleware.go
//
// Request-path → page resolution.
//
// `Middleware` runs after tenant resolution.  It looks up r.URL.Path in the
// tenant's page Cache and stores the Lookup in the request context, so the
// redirect hook and the page handler read the same resolved page.

package page

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey struct{} // unexported, collision-proof

// WithLookup returns ctx carrying l.
func WithLookup(ctx context.Context, l Lookup) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Lookup stored by Middleware.  ok is false when the
// middleware has not run.
func FromContext(ctx context.Context) (Lookup, bool) {
	l, ok := ctx.Value(ctxKey{}).(Lookup)
	return l, ok
}

// Middleware resolves the page through the Cache returned by pages.  A nil
// Cache is treated as "no pages"; a first-load failure yields 503.
func Middleware(pages func(*http.Request) *Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var l Lookup
			if c := pages(r); c != nil {
				var err error
				l, err = c.Resolve(r.Context(), r.URL.Path)
				if err != nil {
					zap.L().Error("page resolve failed",
						zap.String("host", r.Host),
						zap.String("path", r.URL.Path),
						zap.Error(err))
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLookup(r.Context(), l)))
		})
	}
}
