package redirect

import "strings"

// SiteConfigPrefix namespaces redirect keys inside a site's key-value
// config rows, e.g. "HttpsRedirect:PageIds".
const SiteConfigPrefix = "HttpsRedirect:"

// Source yields raw string values by key.  ok == false means the key is
// absent, which is distinct from present-but-empty.
type Source interface {
	Lookup(key string) (value string, ok bool)
}

// MapSource is a Source over a plain map.  Keys match exactly.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// FromSiteConfig extracts the HttpsRedirect:-prefixed rows of a site config
// map and strips the prefix.
func FromSiteConfig(cfg map[string]string) MapSource {
	out := MapSource{}
	for k, v := range cfg {
		if rest, ok := strings.CutPrefix(k, SiteConfigPrefix); ok {
			out[rest] = v
		}
	}
	return out
}

// Layered consults sources from last to first; the last source that has a
// key wins.  nil entries are skipped.
type Layered []Source

func (l Layered) Lookup(key string) (string, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i] == nil {
			continue
		}
		if v, ok := l[i].Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}
