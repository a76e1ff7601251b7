package config

import (
	"fmt"
	"strings"

	koanf "github.com/knadh/koanf/v2"
)

// redirectPath is the koanf subtree holding redirect keys.
const redirectPath = "https_redirect"

// koanfSource adapts a koanf subtree to redirect.Source.  The env provider
// lowercases keys, so lookups try the lowercase form first and then fall
// back to a case-insensitive scan for mixed-case YAML keys.
type koanfSource struct{ k *koanf.Koanf }

func (s koanfSource) Lookup(key string) (string, bool) {
	if s.k == nil {
		return "", false
	}
	path := strings.ToLower(key)
	if !s.k.Exists(path) {
		path = ""
		for _, candidate := range s.k.Keys() {
			if strings.EqualFold(candidate, key) {
				path = candidate
				break
			}
		}
		if path == "" {
			return "", false
		}
	}
	return stringify(s.k.Get(path)), true
}

// stringify renders YAML scalars and sequences in the comma-separated form
// the redirect loaders expect.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
