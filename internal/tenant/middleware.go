// internal/tenant/middleware.go
//
// Host → Tenant resolution for the request chain.
//
// Context
// -------
// `Middleware` strips the port from r.Host, maps "localhost" to the
// configured alias, and loads the Tenant through the Cache.  Unknown hosts
// get 404; any other load failure gets 500 and is logged.  Downstream
// handlers read the tenant with FromContext.
//
// Notes
// -----
// • No DB access here beyond Cache.Get.
// • Oxford commas, two spaces after periods.

package tenant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey struct{} // unexported, collision-proof

// WithTenant returns ctx carrying t.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the Tenant stored by Middleware, or nil.
func FromContext(ctx context.Context) *Tenant {
	t, _ := ctx.Value(ctxKey{}).(*Tenant)
	return t
}

// Middleware resolves the tenant for every request.  localhostAlias may be
// empty.
func Middleware(c *Cache, localhostAlias string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := lookupHost(r.Host, localhostAlias)
			t, err := c.Get(host)
			switch {
			case errors.Is(err, ErrNotFound):
				http.NotFound(w, r)
				return
			case err != nil:
				zap.L().Error("tenant load failed", zap.String("host", host), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

// lookupHost returns the host string used when querying the `site` table:
// lower-case, without port or IPv6 brackets, with "localhost" mapped to
// alias when one is configured.
func lookupHost(h, alias string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.ToLower(strings.Trim(h, "[]"))
	if h == "localhost" && alias != "" {
		return alias
	}
	return h
}
