package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/httpsredirect/internal/page"
	"github.com/yanizio/httpsredirect/internal/redirect"
	"github.com/yanizio/httpsredirect/internal/site"
)

// loadSite turns host → *Tenant.  Steps:
//
//  1. Fetch site row.
//  2. Fetch key-value config rows.
//  3. Layer `HttpsRedirect:` rows over base and parse the rule set.
//  4. Attach an empty page cache; pages load on first request.
func loadSite(ctx context.Context, global *sqlx.DB, host string, base redirect.Source) (*Tenant, error) {
	// 1. site row
	rec, err := site.ByHost(ctx, global, host)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// 2. key-value config
	cfg, err := site.ConfigBySite(ctx, global, rec.ID)
	if err != nil {
		return nil, err
	}

	// 3. redirect rules
	rs, err := siteSettings(base, cfg)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", rec.Host, err)
	}

	// 4. pages
	return &Tenant{
		Meta:     *rec,
		Config:   cfg,
		Redirect: rs,
		Pages:    page.NewCache(global, rec.ID, page.DefaultTTL),
	}, nil
}

// siteSettings parses the effective rule set for one site.  A key present
// in the site rows replaces the global value for that key only.
func siteSettings(base redirect.Source, cfg map[string]string) (*redirect.Settings, error) {
	return redirect.Load(redirect.Layered{base, redirect.FromSiteConfig(cfg)})
}
