// internal/tenant/cache.go
//
// Lazy, host-keyed tenant cache.
//
// Context
// -------
// Tenants are loaded on first request for their host and kept in a
// sync.Map.  Concurrent first requests collapse into one load through
// singleflight.  A background evictor drops idle tenants and trims the map
// under LRU pressure.  The global redirect layer is held separately so a
// config reload can swap it and purge every tenant in one step.
//
// Notes
// -----
//   - Loads run on a detached context with loadTimeout so one cancelled
//     request cannot fail the load for every waiter.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/httpsredirect/internal/metrics"
	"github.com/yanizio/httpsredirect/internal/redirect"
)

// Static defaults.  Override via New's arguments.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 100
	EvictInterval = 5 * time.Minute

	loadTimeout     = 10 * time.Second
	maxStaleRetries = 2
)

// ErrNotFound is returned when a host is not present in the site table.
var ErrNotFound = errors.New("tenant not found")

type layer struct{ src redirect.Source }

// Cache lazily loads tenants, stores them in a sync.Map, and evicts them on
// idle TTL or LRU pressure.
type Cache struct {
	globalDB    *sqlx.DB
	base        atomic.Pointer[layer]
	swapMu      sync.Mutex // orders SetBase against tenant stores
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
	idleTTL     time.Duration
	maxEntries  int
	log         *zap.SugaredLogger
}

// New constructs a Cache over the global DB and starts the background
// evictor.  base is the global `https_redirect` layer; it may be nil.
func New(global *sqlx.DB, base redirect.Source, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		globalDB:   global,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		log:        zap.S().Named("tenant"),
	}
	c.base.Store(&layer{src: base})
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Close stops the evictor.  Cached tenants stay readable.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.stop)
	})
}

// Get returns the Tenant for host, loading it on demand.
func (c *Cache) Get(host string) (*Tenant, error) {
	if v, ok := c.m.Load(host); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	v, err, _ := c.sfg.Do(host, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(host); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.tenant, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		// A SetBase during the load makes the result stale; load again
		// against the new layer instead of caching it.
		for attempt := 0; ; attempt++ {
			lay := c.base.Load()
			ten, err := loadSite(ctx, c.globalDB, host, lay.src)
			if err != nil {
				metrics.TenantLoadErrorsTotal.Inc()
				return nil, err
			}
			if c.storeIfCurrent(host, lay, ten) {
				metrics.TenantLoadTotal.Inc()
				metrics.ActiveTenants.Inc()
				c.log.Infow("tenant loaded", append([]any{"host", host, "site_id", ten.Meta.ID},
					ten.Redirect.Summary()...)...)
				return ten, nil
			}
			if attempt >= maxStaleRetries {
				c.log.Warnw("redirect layer kept changing during load, serving uncached",
					"host", host, "attempts", attempt+1)
				return ten, nil
			}
			c.log.Debugw("redirect layer changed during load, reloading", "host", host)
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// storeIfCurrent caches ten only while lay is still the live layer.
// swapMu orders it against SetBase, so a tenant built from a replaced
// layer can never land after the purge.
func (c *Cache) storeIfCurrent(host string, lay *layer, ten *Tenant) bool {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	if c.base.Load() != lay {
		return false
	}
	c.m.Store(host, &entry{tenant: ten, lastSeen: time.Now().UnixNano()})
	return true
}

// SetBase installs a new global redirect layer and purges every tenant so
// the next request rebuilds its rules against it.
func (c *Cache) SetBase(base redirect.Source) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	c.base.Store(&layer{src: base})
	c.Purge()
}

// Purge drops every cached tenant.
func (c *Cache) Purge() {
	var n int
	c.m.Range(func(key, _ any) bool {
		if _, loaded := c.m.LoadAndDelete(key); loaded {
			n++
			metrics.ActiveTenants.Dec()
		}
		return true
	})
	if n > 0 {
		c.log.Infow("tenant cache purged", "count", n)
	}
}

// Len reports the number of cached tenants.
func (c *Cache) Len() int {
	var n int
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}
