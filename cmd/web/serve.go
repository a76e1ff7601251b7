// cmd/web/serve.go
//
// `web serve` – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Bootstrap logger, Vault, and config (fatal on a malformed key).
//
//  2. Open the global control-plane DB and validate every active site's
//     `HttpsRedirect:` rows.  One bad row stops boot.
//
//  3. Build the tenant cache (lazy-loads each site on first hit).
//
//  4. Mount /metrics, then the per-request chain:
//
//     • tenant lookup      – cache.Get(host), 404 on unknown host
//     • security headers   – HSTS only where HTTP is never served
//     • page lookup        – tenant page cache, path → Lookup
//     • scheme redirect    – redirect.Decide on the resolved page
//     • page handler       – editor redirect, fixed status, or render
//
//  5. Serve with server.New timeouts.  A config watcher runs in the same
//     errgroup; SIGINT or SIGTERM drains both.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/httpsredirect/internal/config"
	"github.com/yanizio/httpsredirect/internal/logger"
	"github.com/yanizio/httpsredirect/internal/middleware"
	"github.com/yanizio/httpsredirect/internal/page"
	"github.com/yanizio/httpsredirect/internal/redirect"
	"github.com/yanizio/httpsredirect/internal/server"
	"github.com/yanizio/httpsredirect/internal/tenant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, secrets, err := bootstrap(ctx, runningInTTY())
	if err != nil {
		return err
	}
	log := zap.S()

	//
	// ── 1.  Global DB connect + site validation ────────────────────────
	//
	log.Infow("connecting to global DB")
	db, err := openGlobalDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Infow("global DB online")

	if err := tenant.ValidateAll(ctx, db, cfg.RedirectSource()); err != nil {
		return err
	}
	log.Infow("site redirect overrides validated")

	//
	// ── 2.  Tenant cache and global rule store ─────────────────────────
	//
	cache := tenant.New(db, cfg.RedirectSource(), tenant.IdleTTL, tenant.MaxEntries)
	defer cache.Close()
	global := redirect.NewStore(cfg.Redirect)

	h := &handlers{
		db:      db,
		cache:   cache,
		global:  global,
		trust:   cfg.HTTP.TrustForwardedProto,
		aliasOf: cfg.Database.LocalhostAlias,
	}
	srv := server.New(cfg.HTTP.ListenAddr, h.router())

	//
	// ── 3.  Serve + watch ──────────────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, srv) })
	g.Go(func() error {
		err := config.Watch(gctx, cfg.Paths.Root, secrets, func(next *config.Config) {
			h.reload(gctx, next)
		})
		if err != nil {
			log.Warnw("config watcher disabled", "err", err)
		}
		return nil
	})
	return g.Wait()
}

// handlers carries the state the request chain reads.
type handlers struct {
	db      *sqlx.DB
	cache   *tenant.Cache
	global  *redirect.Store
	trust   bool
	aliasOf string
}

func (h *handlers) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(h.cache, h.aliasOf))
		r.Use(middleware.Security(h.sendHSTS))
		r.Use(page.Middleware(h.pages))
		r.Use(redirect.Middleware(redirect.Options{
			Page:                h.pageContext,
			Settings:            h.settings,
			TrustForwardedProto: h.trust,
		}))
		r.Handle("/*", page.Handler())
	})
	return r
}

func (h *handlers) pages(r *http.Request) *page.Cache {
	if t := tenant.FromContext(r.Context()); t != nil {
		return t.Pages
	}
	return nil
}

func (h *handlers) pageContext(r *http.Request) redirect.PageContext {
	l, _ := page.FromContext(r.Context())
	return l.Context()
}

// settings returns the tenant's layered rules, or the global rules when no
// tenant is attached.
func (h *handlers) settings(r *http.Request) *redirect.Settings {
	if t := tenant.FromContext(r.Context()); t != nil && t.Redirect != nil {
		return t.Redirect
	}
	return h.global.Load()
}

// sendHSTS allows HSTS on secure requests to sites that never push pages
// back to HTTP.
func (h *handlers) sendHSTS(r *http.Request) bool {
	return redirect.Transport(r, h.trust).IsSecure && !h.settings(r).ForceHTTP()
}

// reload applies a new config.  Site rows are re-validated against the new
// global layer first; on failure the previous layer stays live.
func (h *handlers) reload(ctx context.Context, next *config.Config) {
	if err := logger.SetLevel(next.Log.Level); err != nil {
		zap.S().Warnw("log level unchanged", "err", err)
	}
	if err := tenant.ValidateAll(ctx, h.db, next.RedirectSource()); err != nil {
		zap.S().Errorw("redirect reload rejected, previous rules stay live", "err", err)
		return
	}
	h.global.Swap(next.Redirect)
	h.cache.SetBase(next.RedirectSource())
	zap.S().Infow("redirect rules reloaded", next.Redirect.Summary()...)
}
