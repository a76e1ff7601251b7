// internal/redirect/settings.go
//
// Typed, immutable redirect settings.
//
// Context
// -------
// `Load` reads seven named values from a Source and turns them into one
// `*Settings`.  Every key follows the same contract:
//
//   • absent    → the documented default, never an error,
//   • present   → parsed into its declared type,
//   • malformed → *ConfigurationError naming the key.
//
// Settings are built once (or rebuilt wholesale on reload) and shared by
// pointer across goroutines.  Nothing mutates a Settings after Load
// returns, so readers never lock.
//
// Notes
// -----
//   • A blank int-list value is a parse error.  String lists keep blank
//     elements as "" after trimming.
//   • Oxford commas, two spaces after periods.
package redirect

import (
	"fmt"
	"strconv"
	"strings"
)

// Recognised keys.
const (
	KeyDocTypes              = "DocTypes"
	KeyPageIDs               = "PageIds"
	KeyTemplates             = "Templates"
	KeyForceHTTP             = "ForceHttp"
	KeyUseTemporaryRedirects = "UseTemporaryRedirects"
	KeyHTTPPort              = "HttpPort"
	KeyHTTPSPort             = "HttpsPort"
)

// Keys lists every recognised key in documentation order.
var Keys = []string{
	KeyDocTypes, KeyPageIDs, KeyTemplates, KeyForceHTTP,
	KeyUseTemporaryRedirects, KeyHTTPPort, KeyHTTPSPort,
}

// ConfigurationError reports a present value that could not be parsed.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("value for %s not correctly specified (%q): %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Port is an optional TCP port.  The zero value means "use the scheme
// default".
type Port struct {
	n   int
	set bool
}

// PortOf returns a set Port.
func PortOf(n int) Port { return Port{n: n, set: true} }

// Get returns the port and whether it was configured.
func (p Port) Get() (int, bool) { return p.n, p.set }

// Settings is the immutable rule set consumed by Decide.  The zero value
// (and a nil pointer) is valid and matches nothing.
type Settings struct {
	pageIDs   map[int]struct{}
	docTypes  map[string]struct{}
	templates map[string]struct{}

	forceHTTP             bool
	useTemporaryRedirects bool
	httpPort              Port
	httpsPort             Port
}

// Load builds Settings from src.  The first malformed key aborts the load.
func Load(src Source) (*Settings, error) {
	l := loader{src: src}
	s := &Settings{}
	var err error

	if s.docTypes, err = l.stringList(KeyDocTypes); err != nil {
		return nil, err
	}
	if s.pageIDs, err = l.intList(KeyPageIDs); err != nil {
		return nil, err
	}
	if s.templates, err = l.stringList(KeyTemplates); err != nil {
		return nil, err
	}
	if s.forceHTTP, err = l.boolean(KeyForceHTTP, false); err != nil {
		return nil, err
	}
	if s.useTemporaryRedirects, err = l.boolean(KeyUseTemporaryRedirects, false); err != nil {
		return nil, err
	}
	if s.httpPort, err = l.optionalPort(KeyHTTPPort); err != nil {
		return nil, err
	}
	if s.httpsPort, err = l.optionalPort(KeyHTTPSPort); err != nil {
		return nil, err
	}
	return s, nil
}

/*──────────────────────────── accessors ───────────────────────────────────*/

func (s *Settings) HasPageID(id int) bool {
	if s == nil {
		return false
	}
	_, ok := s.pageIDs[id]
	return ok
}

func (s *Settings) HasDocType(alias string) bool {
	if s == nil {
		return false
	}
	_, ok := s.docTypes[alias]
	return ok
}

func (s *Settings) HasTemplate(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.templates[name]
	return ok
}

func (s *Settings) ForceHTTP() bool             { return s != nil && s.forceHTTP }
func (s *Settings) UseTemporaryRedirects() bool { return s != nil && s.useTemporaryRedirects }

func (s *Settings) HTTPPort() Port {
	if s == nil {
		return Port{}
	}
	return s.httpPort
}

func (s *Settings) HTTPSPort() Port {
	if s == nil {
		return Port{}
	}
	return s.httpsPort
}

// Summary returns key highlights for structured logging.
func (s *Settings) Summary() []any {
	if s == nil {
		return nil
	}
	hp, _ := s.httpPort.Get()
	sp, _ := s.httpsPort.Get()
	return []any{
		"page_ids", len(s.pageIDs),
		"doc_types", len(s.docTypes),
		"templates", len(s.templates),
		"force_http", s.forceHTTP,
		"temporary", s.useTemporaryRedirects,
		"http_port", hp,
		"https_port", sp,
	}
}

/*──────────────────────────── typed loaders ───────────────────────────────*/

type loader struct{ src Source }

// read is the one place the absent/present split is decided.  parse runs
// only for present values; its error is wrapped with the key.
func read[T any](l loader, key string, def T, parse func(string) (T, error)) (T, error) {
	raw, ok := l.src.Lookup(key)
	if !ok {
		return def, nil
	}
	v, err := parse(raw)
	if err != nil {
		return def, &ConfigurationError{Key: key, Value: raw, Err: err}
	}
	return v, nil
}

func (l loader) intList(key string) (map[int]struct{}, error) {
	return read(l, key, map[int]struct{}{}, func(raw string) (map[int]struct{}, error) {
		out := map[int]struct{}{}
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			out[n] = struct{}{}
		}
		return out, nil
	})
}

func (l loader) stringList(key string) (map[string]struct{}, error) {
	return read(l, key, map[string]struct{}{}, func(raw string) (map[string]struct{}, error) {
		out := map[string]struct{}{}
		for _, part := range strings.Split(raw, ",") {
			out[strings.TrimSpace(part)] = struct{}{}
		}
		return out, nil
	})
}

func (l loader) boolean(key string, def bool) (bool, error) {
	return read(l, key, def, func(raw string) (bool, error) {
		return parseBool(raw)
	})
}

// parseBool accepts only the words true and false, in any case.  Numeric
// and single-letter forms are rejected.
func parseBool(raw string) (bool, error) {
	switch v := strings.TrimSpace(raw); {
	case strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("%q is not true or false", v)
	}
}

func (l loader) optionalPort(key string) (Port, error) {
	return read(l, key, Port{}, func(raw string) (Port, error) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Port{}, err
		}
		if n < 1 || n > 65535 {
			return Port{}, fmt.Errorf("port %d out of range 1-65535", n)
		}
		return PortOf(n), nil
	})
}
