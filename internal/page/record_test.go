package page

import (
	"database/sql"
	"testing"

	"github.com/yanizio/httpsredirect/internal/redirect"
)

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestLookupContext(t *testing.T) {
	cases := []struct {
		name string
		in   Lookup
		want redirect.PageContext
	}{
		{
			name: "not found",
			in:   Lookup{},
			want: redirect.PageContext{IsNotFound: true},
		},
		{
			name: "published with null override",
			in:   Lookup{Found: true, Page: Record{ID: 5, DocType: "article", Template: "std", Published: true}},
			want: redirect.PageContext{ID: 5, DocumentType: "article", Template: "std", HasPublishedContent: true},
		},
		{
			name: "explicit override",
			in: Lookup{Found: true, Page: Record{ID: 6, Published: true,
				HTTPSRedirect: sql.NullBool{Bool: true, Valid: true}}},
			want: redirect.PageContext{ID: 6, ExplicitHTTPS: true, HasPublishedContent: true},
		},
		{
			name: "editor redirect and status",
			in: Lookup{Found: true, Page: Record{ID: 7, Published: true,
				RedirectURL: nullString("/elsewhere"), StatusCode: 410}},
			want: redirect.PageContext{ID: 7, HasPublishedContent: true,
				IsAlreadyRedirecting: true, ResponseStatusAlreadySet: true},
		},
		{
			name: "empty redirect url is not a redirect",
			in:   Lookup{Found: true, Page: Record{ID: 8, RedirectURL: nullString("")}},
			want: redirect.PageContext{ID: 8},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Context(); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
