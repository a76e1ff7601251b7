// evictor.go houses the eviction loop for Cache.  Every EvictInterval it
// scans the map and removes:
//
//   - tenants idle longer than idleTTL
//   - least-recently-used tenants when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package tenant

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/yanizio/httpsredirect/internal/metrics"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.evictTicker.C:
			c.evict(time.Now())
		}
	}
}

func (c *Cache) evict(at time.Time) {
	now := at.UnixNano()
	var count int

	// Idle pass.
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if c.idleTTL > 0 && idle > c.idleTTL {
			if _, loaded := c.m.LoadAndDelete(key); loaded {
				c.log.Infow("tenant evicted", "host", key, "idle", idle.Truncate(time.Second))
				metrics.TenantEvictTotal.Inc()
				metrics.ActiveTenants.Dec()
			}
			return true
		}
		count++
		return true
	})

	// LRU pass.
	if c.maxEntries <= 0 || count <= c.maxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
	}
	all := make([]kv, 0, count)
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-c.maxEntries; i++ {
		if _, loaded := c.m.LoadAndDelete(all[i].key); loaded {
			c.log.Infow("tenant evicted (LRU pressure)", "host", all[i].key)
			metrics.TenantEvictTotal.Inc()
			metrics.ActiveTenants.Dec()
		}
	}
}
