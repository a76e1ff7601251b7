// internal/page/cache.go
//
// Per-site path → page cache.
//
// Context
// -------
// Every tenant owns one Cache.  The first lookup loads all pages of the
// site in one query; later lookups are map reads until the TTL expires.
// Concurrent refreshes collapse into one query via singleflight.
//
// Notes
// -----
// • Paths are normalised: lower-case, no trailing slash except root.
// • A failed refresh keeps serving the previous snapshot and is logged.
// • Oxford commas, two spaces after periods.

package page

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long edits take to become visible.
const DefaultTTL = time.Minute

const loadTimeout = 10 * time.Second

// Cache stores path→Record pairs plus TTL state.  Zero value is unusable;
// construct with NewCache.
type Cache struct {
	db     *sqlx.DB
	siteID uint64
	ttl    time.Duration
	sfg    singleflight.Group

	mu       sync.RWMutex
	data     map[string]Record
	loadedAt time.Time
}

// NewCache returns an empty cache for one site.
func NewCache(db *sqlx.DB, siteID uint64, ttl time.Duration) *Cache {
	return &Cache{db: db, siteID: siteID, ttl: ttl}
}

// Load refreshes all pages of the site.
func (c *Cache) Load(ctx context.Context) error {
	const q = `
	    SELECT id, path, title, doc_type, template, https_redirect,
	           published, redirect_url, status_code
	    FROM   page
	    WHERE  site_id = ?`

	var rows []Record
	if err := c.db.SelectContext(ctx, &rows, q, c.siteID); err != nil {
		return err
	}

	fresh := make(map[string]Record, len(rows))
	for _, r := range rows {
		fresh[Normalize(r.Path)] = r
	}

	c.mu.Lock()
	c.data = fresh
	c.loadedAt = time.Now()
	c.mu.Unlock()

	zap.L().Debug("page cache load",
		zap.Uint64("site_id", c.siteID),
		zap.Int("count", len(fresh)))
	return nil
}

// Resolve returns the page for path, refreshing the snapshot when stale.
// An error is returned only when no snapshot exists yet.  The refresh runs
// on its own timeout; ctx only bounds how long this caller waits for it.
func (c *Cache) Resolve(ctx context.Context, path string) (Lookup, error) {
	if c.stale() {
		ch := c.sfg.DoChan("load", func() (any, error) {
			if !c.stale() {
				return nil, nil
			}
			lctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			return nil, c.Load(lctx)
		})

		var err error
		select {
		case res := <-ch:
			err = res.Err
		case <-ctx.Done():
			if !c.loaded() {
				return Lookup{}, ctx.Err()
			}
		}
		if err != nil {
			if !c.loaded() {
				return Lookup{}, err
			}
			zap.L().Warn("page cache refresh failed, serving previous snapshot",
				zap.Uint64("site_id", c.siteID), zap.Error(err))
		}
	}

	c.mu.RLock()
	rec, ok := c.data[Normalize(path)]
	c.mu.RUnlock()
	return Lookup{Page: rec, Found: ok}, nil
}

func (c *Cache) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data == nil || time.Since(c.loadedAt) > c.ttl
}

func (c *Cache) loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data != nil
}

// Normalize lower-cases p and drops a trailing slash, keeping "/" as root.
func Normalize(p string) string {
	p = strings.ToLower(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
