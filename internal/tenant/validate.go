package tenant

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/httpsredirect/internal/redirect"
	"github.com/yanizio/httpsredirect/internal/site"
)

// ValidateAll parses the redirect rules of every active site against base
// and returns the first failure.  Boot calls it so a malformed
// `HttpsRedirect:` row stops the process instead of failing lazily on the
// site's first request.
func ValidateAll(ctx context.Context, db *sqlx.DB, base redirect.Source) error {
	sites, err := site.AllActive(ctx, db)
	if err != nil {
		return err
	}
	for _, s := range sites {
		cfg, err := site.ConfigBySite(ctx, db, s.ID)
		if err != nil {
			return err
		}
		if _, err := siteSettings(base, cfg); err != nil {
			return fmt.Errorf("site %s: %w", s.Host, err)
		}
	}
	return nil
}
