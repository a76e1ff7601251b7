// internal/redirect/engine.go
//
// Scheme redirect decision.
//
// Context
// -------
// `Decide` is a pure function of the resolved page, the request transport,
// and the Settings.  It runs once per request after page resolution and
// returns an Action the host executes.  It performs no I/O and never
// fails.
//
// Workflow
// --------
//  1. Bypass when the pipeline is already terminal: no published content,
//     404, a redirect in progress, or a status code already set.
//  2. Classify the page as HTTPS-only when any rule matches: explicit page
//     flag, page ID, document type, or template.
//  3. HTTPS-only over HTTP → redirect to https.  Otherwise, over HTTPS with
//     ForceHttp on → redirect to http.  Anything else → no action.
//  4. Build the target from the current URL, swapping only scheme and port.
//
// Notes
// -----
//   • A status code set upstream suppresses even an HTTPS upgrade.  That
//     ordering is kept as-is.
//   • Oxford commas, two spaces after periods.
package redirect

import (
	"net"
	"net/url"
	"strconv"
)

// Kind is the direction of an Action.
type Kind int

const (
	None Kind = iota
	ToHTTPS
	ToHTTP
)

func (k Kind) String() string {
	switch k {
	case ToHTTPS:
		return "https"
	case ToHTTP:
		return "http"
	default:
		return "none"
	}
}

// Action is the engine output.  Target and Permanent are meaningful only
// when Kind != None.
type Action struct {
	Kind      Kind
	Target    string
	Permanent bool
}

// Redirect reports whether the host must issue a redirect.
func (a Action) Redirect() bool { return a.Kind != None }

// PageContext describes the page the host resolved for this request.
type PageContext struct {
	ID            int
	DocumentType  string
	Template      string
	ExplicitHTTPS bool // page-level override; false when unset

	HasPublishedContent      bool
	IsNotFound               bool
	IsAlreadyRedirecting     bool
	ResponseStatusAlreadySet bool
}

// RequestTransport is the transport state of the current request.  URL
// must carry Host; Scheme is informational only.
type RequestTransport struct {
	IsSecure bool
	URL      *url.URL
}

// Bypass reasons, also used as metric labels.
const (
	ReasonNoContent   = "no_content"
	ReasonNotFound    = "not_found"
	ReasonRedirecting = "redirecting"
	ReasonStatusSet   = "status_set"
)

// BypassReason returns the first terminal condition that suppresses a
// redirect, or "" when the page is eligible.  Order only affects the
// reported reason.
func BypassReason(pc PageContext) string {
	switch {
	case !pc.HasPublishedContent:
		return ReasonNoContent
	case pc.IsNotFound:
		return ReasonNotFound
	case pc.IsAlreadyRedirecting:
		return ReasonRedirecting
	case pc.ResponseStatusAlreadySet:
		return ReasonStatusSet
	}
	return ""
}

// RequiresHTTPS reports whether any HTTPS rule matches the page.
func RequiresHTTPS(pc PageContext, s *Settings) bool {
	return pc.ExplicitHTTPS ||
		s.HasPageID(pc.ID) ||
		s.HasDocType(pc.DocumentType) ||
		s.HasTemplate(pc.Template)
}

// Decide computes the redirect for one request.
func Decide(pc PageContext, rt RequestTransport, s *Settings) Action {
	if BypassReason(pc) != "" || rt.URL == nil {
		return Action{}
	}

	var (
		kind Kind
		port Port
	)
	switch {
	case RequiresHTTPS(pc, s):
		if rt.IsSecure {
			return Action{}
		}
		kind, port = ToHTTPS, s.HTTPSPort()
	case rt.IsSecure && s.ForceHTTP():
		kind, port = ToHTTP, s.HTTPPort()
	default:
		return Action{}
	}

	return Action{
		Kind:      kind,
		Target:    TargetURL(rt.URL, kind.String(), port),
		Permanent: !s.UseTemporaryRedirects(),
	}
}

// defaultPorts maps scheme → port omitted from generated URLs.
var defaultPorts = map[string]int{"http": 80, "https": 443}

// TargetURL rebuilds cur with a new scheme.  Host, path, query, and
// fragment are copied verbatim; any incoming port is dropped.  The port
// appears only when configured and not the scheme default.
func TargetURL(cur *url.URL, scheme string, port Port) string {
	host := cur.Hostname()
	if n, ok := port.Get(); ok && n != defaultPorts[scheme] {
		host = net.JoinHostPort(host, strconv.Itoa(n))
	} else if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}

	out := url.URL{
		Scheme:      scheme,
		Host:        host,
		Path:        cur.Path,
		RawPath:     cur.RawPath,
		RawQuery:    cur.RawQuery,
		Fragment:    cur.Fragment,
		RawFragment: cur.RawFragment,
	}
	if out.Path == "" {
		out.Path = "/"
		out.RawPath = ""
	}
	return out.String()
}
