// internal/redirect/middleware.go
//
// HTTP adapter around Decide.
//
/*
Context
--------
`Middleware` is mounted once at process start, after the tenant and page
resolvers, so every request reaching it already carries a resolved page.
For each request it:

  1. Asks the host for the PageContext and the tenant's Settings.
  2. Builds a RequestTransport from the request (TLS state, optionally the
     X-Forwarded-Proto header from a trusted proxy).
  3. Runs Decide and, when redirecting, writes 301 or 302 with Location.

Instrumentation
---------------
  • DEBUG span — bypass reason and path, like the hook it replaces.
  • INFO  span — issued redirect with from, to, and permanence.
  • Counters — metrics.RedirectDecisionsTotal, metrics.RedirectBypassTotal.
*/
package redirect

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/httpsredirect/internal/metrics"
)

// Options wires the middleware to the host.  Page and Settings are
// required.
type Options struct {
	Page     func(*http.Request) PageContext
	Settings func(*http.Request) *Settings

	// TrustForwardedProto treats X-Forwarded-Proto: https as a secure
	// connection.  Enable only behind a TLS-terminating proxy.
	TrustForwardedProto bool

	// Log defaults to zap.L().
	Log *zap.Logger
}

// Middleware returns a chi-compatible middleware that applies Decide.
func Middleware(opts Options) func(http.Handler) http.Handler {
	if opts.Page == nil || opts.Settings == nil {
		panic("redirect.Middleware: Page and Settings must be supplied")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := opts.Log
			if log == nil {
				log = zap.L()
			}

			pc := opts.Page(r)
			if reason := BypassReason(pc); reason != "" {
				metrics.RedirectBypassTotal.WithLabelValues(reason).Inc()
				log.Debug("https redirect bypassed",
					zap.String("path", r.URL.Path),
					zap.String("reason", reason))
				next.ServeHTTP(w, r)
				return
			}

			rt := Transport(r, opts.TrustForwardedProto)
			a := Decide(pc, rt, opts.Settings(r))
			metrics.RedirectDecisionsTotal.WithLabelValues(a.Kind.String()).Inc()
			if !a.Redirect() {
				next.ServeHTTP(w, r)
				return
			}

			log.Info("https redirect",
				zap.String("from", rt.URL.String()),
				zap.String("to", a.Target),
				zap.Bool("permanent", a.Permanent))
			Apply(w, r, a)
		})
	}
}

// Apply writes the redirect described by a.  It reports false and writes
// nothing when a is None.
func Apply(w http.ResponseWriter, r *http.Request, a Action) bool {
	if !a.Redirect() {
		return false
	}
	http.Redirect(w, r, a.Target, StatusCode(a))
	return true
}

// StatusCode maps permanence to 301 or 302.
func StatusCode(a Action) int {
	if a.Permanent {
		return http.StatusMovedPermanently
	}
	return http.StatusFound
}

// Transport derives the RequestTransport of r.  The returned URL is a copy
// with Scheme and Host filled in from the connection.
func Transport(r *http.Request, trustForwardedProto bool) RequestTransport {
	secure := r.TLS != nil
	if !secure && trustForwardedProto {
		secure = forwardedHTTPS(r.Header.Get("X-Forwarded-Proto"))
	}

	u := new(url.URL)
	*u = *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if secure {
		u.Scheme = "https"
	}
	return RequestTransport{IsSecure: secure, URL: u}
}

// forwardedHTTPS accepts a comma-separated header only when every hop
// reports https.
func forwardedHTTPS(h string) bool {
	if h == "" {
		return false
	}
	for _, v := range strings.Split(h, ",") {
		if !strings.EqualFold(strings.TrimSpace(v), "https") {
			return false
		}
	}
	return true
}
