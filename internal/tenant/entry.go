// internal/tenant/entry.go
//
// Tenant cache entry and aggregate.
//
// Context
// -------
// A live Tenant aggregates everything the request chain needs to serve a
// single site: its `site` row, the raw `site_config` map, the effective
// redirect rule set (global layer plus `HttpsRedirect:` rows), and the
// site's page cache.  The cache stores a pointer to Tenant inside `entry`,
// along with a `lastSeen` UnixNano timestamp used by the evictor for idle
// and LRU eviction.
//
// Notes
// -----
//   - Tenant is immutable after load.  A config reload purges the cache
//     instead of mutating live tenants.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"github.com/yanizio/httpsredirect/internal/page"
	"github.com/yanizio/httpsredirect/internal/redirect"
	"github.com/yanizio/httpsredirect/internal/site"
)

//
// Cache entry
//

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

//
// Tenant aggregate
//

// Tenant groups all per-site runtime assets needed by request handlers.
type Tenant struct {
	Meta     site.Record        // Row from `site`
	Config   map[string]string  // Key-value pairs from `site_config`
	Redirect *redirect.Settings // Global rules with per-site overrides
	Pages    *page.Cache        // path → page
}

// Host returns the site host the tenant was loaded for.
func (t *Tenant) Host() string { return t.Meta.Host }
