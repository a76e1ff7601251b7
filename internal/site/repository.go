package site

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const selectSite = `
        SELECT id, host, title, locale, suspended_at, deleted_at
        FROM   site
        WHERE  suspended_at IS NULL
          AND  deleted_at   IS NULL`

// AllActive returns every site that is neither suspended nor deleted.  The
// startup check walks this list to validate each site's redirect rows.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	var rows []Record
	if err := db.SelectContext(ctx, &rows, selectSite); err != nil {
		return nil, fmt.Errorf("site.AllActive: %w", err)
	}
	return rows, nil
}

// ByHost fetches a single site row that is not suspended or deleted.  The
// caller supplies a context so the lookup respects request deadlines.
func ByHost(ctx context.Context, db *sqlx.DB, host string) (*Record, error) {
	const q = selectSite + `
          AND  host = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, host); err != nil {
		return nil, fmt.Errorf("site.ByHost %q: %w", host, err)
	}
	return &rec, nil
}
