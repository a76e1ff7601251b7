package page

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var pageTpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{ .Title }}</title></head>
<body data-doctype="{{ .DocType }}" data-template="{{ .Template }}"><h1>{{ .Title }}</h1></body>
</html>
`))

// Handler terminates the chain for a resolved page.  It honours the states
// the redirect hook bypasses: missing or unpublished pages 404, an editor
// redirect is issued as 302, and a 4xx/5xx status_code is written as an
// error page.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l, _ := FromContext(r.Context())
		p := l.Page

		switch {
		case !l.Found:
			http.NotFound(w, r)
		case p.RedirectURL.Valid && p.RedirectURL.String != "":
			http.Redirect(w, r, p.RedirectURL.String, http.StatusFound)
		case isErrorStatus(p.StatusCode):
			http.Error(w, http.StatusText(p.StatusCode), p.StatusCode)
		case !p.Published:
			http.NotFound(w, r)
		default:
			render(w, p)
		}
	})
}

// isErrorStatus reports whether code is a 4xx or 5xx status.
func isErrorStatus(code int) bool { return code >= 400 && code <= 599 }

// render writes the page body.  A 2xx status_code replaces 200; any other
// non-error value cannot be served without more headers and is ignored.
func render(w http.ResponseWriter, p Record) {
	code := http.StatusOK
	switch {
	case p.StatusCode >= 200 && p.StatusCode <= 299:
		code = p.StatusCode
	case p.StatusCode != 0:
		zap.L().Warn("page status_code out of range, serving 200",
			zap.Int("page_id", p.ID),
			zap.Int("status_code", p.StatusCode))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pageTpl.Execute(w, p); err != nil {
		zap.L().Error("render page", zap.Int("page_id", p.ID), zap.Error(err))
	}
}
