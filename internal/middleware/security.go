// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects standard headers on every response:
//
//   • Content-Security-Policy  –  self-only default policy
//   • X-Frame-Options          –  click-jacking defence
//   • X-Content-Type-Options   –  MIME-sniffing defence
//   • Referrer-Policy          –  drops path/query from Referer
//   • Permissions-Policy       –  disables powerful features by default
//
// Strict-Transport-Security is emitted only when the hsts predicate says
// so.  A host that serves any page over plain HTTP (ForceHttp) must never
// send HSTS, or browsers would refuse the HTTP redirect target.
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP, since nothing added after the
//   first write reaches the client.  Handlers may still override them.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

const (
	hsts = "max-age=63072000; includeSubDomains"
	csp  = "default-src 'self'; img-src 'self' data:; object-src 'none'; " +
		"base-uri 'self'; frame-ancestors 'none'"
	xfo   = "DENY"
	nosn  = "nosniff"
	refer = "strict-origin-when-cross-origin"
	perm  = "geolocation=(), microphone=(), camera=()"
)

// Security returns middleware that sets security headers.  hsts may be nil,
// which disables Strict-Transport-Security.
func Security(sendHSTS func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			set := func(k, v string) {
				if h.Get(k) == "" {
					h.Set(k, v)
				}
			}

			if sendHSTS != nil && sendHSTS(r) {
				set("Strict-Transport-Security", hsts)
			}
			set("Content-Security-Policy", csp)
			set("X-Frame-Options", xfo)
			set("X-Content-Type-Options", nosn)
			set("Referrer-Policy", refer)
			set("Permissions-Policy", perm)

			next.ServeHTTP(w, r)
		})
	}
}
