// internal/page/record.go
//
// `page` table row model and its mapping to redirect.PageContext.
//
// Schema reference
//
//	CREATE TABLE page (
//	    id             INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    site_id        INT UNSIGNED  NOT NULL,
//	    path           VARCHAR(512)  NOT NULL,
//	    title          VARCHAR(256)  NOT NULL DEFAULT '',
//	    doc_type       VARCHAR(128)  NOT NULL,
//	    template       VARCHAR(128)  NOT NULL DEFAULT '',
//	    https_redirect TINYINT(1)    NULL,
//	    published      TINYINT(1)    NOT NULL DEFAULT 0,
//	    redirect_url   VARCHAR(1024) NULL,
//	    status_code    SMALLINT      NOT NULL DEFAULT 0,
//	    UNIQUE KEY (site_id, path)
//	);
//
// Notes
// -----
// • `https_redirect` is the per-page override; NULL means "not set".
// • `redirect_url` and `status_code` let editors short-circuit a page.  Both
//   suppress the scheme redirect.
package page

import (
	"database/sql"

	"github.com/yanizio/httpsredirect/internal/redirect"
)

// Record mirrors one row in the `page` table.
type Record struct {
	ID            int            `db:"id"`
	Path          string         `db:"path"`
	Title         string         `db:"title"`
	DocType       string         `db:"doc_type"`
	Template      string         `db:"template"`
	HTTPSRedirect sql.NullBool   `db:"https_redirect"`
	Published     bool           `db:"published"`
	RedirectURL   sql.NullString `db:"redirect_url"`
	StatusCode    int            `db:"status_code"`
}

// Lookup is the outcome of resolving one request path.
type Lookup struct {
	Page  Record
	Found bool
}

// Context maps the lookup onto the engine's view of the page.
func (l Lookup) Context() redirect.PageContext {
	if !l.Found {
		return redirect.PageContext{IsNotFound: true}
	}
	p := l.Page
	return redirect.PageContext{
		ID:                       p.ID,
		DocumentType:             p.DocType,
		Template:                 p.Template,
		ExplicitHTTPS:            p.HTTPSRedirect.Valid && p.HTTPSRedirect.Bool,
		HasPublishedContent:      p.Published,
		IsAlreadyRedirecting:     p.RedirectURL.Valid && p.RedirectURL.String != "",
		ResponseStatusAlreadySet: p.StatusCode > 0,
	}
}
