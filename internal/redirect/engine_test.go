package redirect

import (
	"net/url"
	"strings"
	"testing"
)

func mustSettings(t *testing.T, src MapSource) *Settings {
	t.Helper()
	s, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

// eligible is a published, non-terminal page.
func eligible() PageContext {
	return PageContext{ID: 1, DocumentType: "textPage", Template: "standard", HasPublishedContent: true}
}

func TestDecide_Bypass(t *testing.T) {
	s := mustSettings(t, MapSource{KeyPageIDs: "1", KeyForceHTTP: "true"})
	cases := map[string]func(*PageContext){
		"no content":  func(pc *PageContext) { pc.HasPublishedContent = false },
		"not found":   func(pc *PageContext) { pc.IsNotFound = true },
		"redirecting": func(pc *PageContext) { pc.IsAlreadyRedirecting = true },
		"status set":  func(pc *PageContext) { pc.ResponseStatusAlreadySet = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			pc := eligible()
			pc.ExplicitHTTPS = true
			mutate(&pc)
			for _, secure := range []bool{false, true} {
				rt := RequestTransport{IsSecure: secure, URL: mustURL(t, "http://example.com/a")}
				if a := Decide(pc, rt, s); a.Redirect() {
					t.Fatalf("secure=%v: got %+v, want None", secure, a)
				}
			}
		})
	}
}

func TestDecide_ClassificationRules(t *testing.T) {
	s := mustSettings(t, MapSource{
		KeyPageIDs:   "42",
		KeyDocTypes:  "checkout",
		KeyTemplates: "secureLayout",
	})
	cases := map[string]func(*PageContext){
		"explicit flag": func(pc *PageContext) { pc.ExplicitHTTPS = true },
		"page id":       func(pc *PageContext) { pc.ID = 42 },
		"doc type":      func(pc *PageContext) { pc.DocumentType = "checkout" },
		"template":      func(pc *PageContext) { pc.Template = "secureLayout" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			pc := eligible()
			mutate(&pc)
			rt := RequestTransport{URL: mustURL(t, "http://example.com:8080/shop/cart?step=2#pay")}
			a := Decide(pc, rt, s)
			if a.Kind != ToHTTPS {
				t.Fatalf("kind = %v, want https", a.Kind)
			}
			if a.Target != "https://example.com/shop/cart?step=2#pay" {
				t.Fatalf("target = %q", a.Target)
			}
		})
	}
}

func TestDecide_AlreadySecureNoop(t *testing.T) {
	s := mustSettings(t, MapSource{KeyPageIDs: "42", KeyForceHTTP: "true"})
	pc := eligible()
	pc.ID = 42
	rt := RequestTransport{IsSecure: true, URL: mustURL(t, "https://example.com/")}
	if a := Decide(pc, rt, s); a.Redirect() {
		t.Fatalf("got %+v, want None", a)
	}
}

func TestDecide_ForceHTTP(t *testing.T) {
	pc := eligible()
	rt := RequestTransport{IsSecure: true, URL: mustURL(t, "https://example.com/news?id=3")}

	off := mustSettings(t, MapSource{})
	if a := Decide(pc, rt, off); a.Redirect() {
		t.Fatalf("forceHttp=false: got %+v, want None", a)
	}

	on := mustSettings(t, MapSource{KeyForceHTTP: "true"})
	a := Decide(pc, rt, on)
	if a.Kind != ToHTTP || a.Target != "http://example.com/news?id=3" {
		t.Fatalf("got %+v", a)
	}

	insecure := RequestTransport{URL: mustURL(t, "http://example.com/news")}
	if a := Decide(pc, insecure, on); a.Redirect() {
		t.Fatalf("plain HTTP page already on HTTP: got %+v", a)
	}
}

func TestDecide_PageIDScenario(t *testing.T) {
	s := mustSettings(t, MapSource{KeyPageIDs: "42", KeyUseTemporaryRedirects: "false"})
	pc := eligible()
	pc.ID = 42
	rt := RequestTransport{URL: mustURL(t, "http://example.com/foo?x=1#y")}

	got := Decide(pc, rt, s)
	want := Action{Kind: ToHTTPS, Target: "https://example.com/foo?x=1#y", Permanent: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecide_ForceHTTPWithPortScenario(t *testing.T) {
	s := mustSettings(t, MapSource{
		KeyForceHTTP:             "true",
		KeyHTTPPort:              "8080",
		KeyUseTemporaryRedirects: "true",
		KeyDocTypes:              "checkout",
	})
	pc := eligible()
	pc.DocumentType = "article"
	rt := RequestTransport{IsSecure: true, URL: mustURL(t, "https://example.com/blog/post")}

	got := Decide(pc, rt, s)
	want := Action{Kind: ToHTTP, Target: "http://example.com:8080/blog/post", Permanent: false}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	cases := []struct {
		name   string
		src    MapSource
		pc     PageContext
		secure bool
		raw    string
	}{
		{"to https", MapSource{KeyPageIDs: "1", KeyHTTPSPort: "8443"}, eligible(), false, "http://example.com/a?b=c#d"},
		{"to http", MapSource{KeyForceHTTP: "true", KeyHTTPPort: "8080"}, eligible(), true, "https://example.com/a?b=c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustSettings(t, tc.src)
			a := Decide(tc.pc, RequestTransport{IsSecure: tc.secure, URL: mustURL(t, tc.raw)}, s)
			if !a.Redirect() {
				t.Fatalf("expected a redirect")
			}
			next := mustURL(t, a.Target)
			rt := RequestTransport{IsSecure: next.Scheme == "https", URL: next}
			if again := Decide(tc.pc, rt, s); again.Redirect() {
				t.Fatalf("redirect loop: %q → %q", a.Target, again.Target)
			}
		})
	}
}

func TestTargetURL_Ports(t *testing.T) {
	cur := mustURL(t, "http://example.com:8080/p")
	cases := []struct {
		scheme string
		port   Port
		want   string
	}{
		{"https", Port{}, "https://example.com/p"},
		{"https", PortOf(443), "https://example.com/p"},
		{"https", PortOf(8443), "https://example.com:8443/p"},
		{"http", PortOf(80), "http://example.com/p"},
	}
	for _, tc := range cases {
		if got := TargetURL(cur, tc.scheme, tc.port); got != tc.want {
			t.Fatalf("%s %+v: got %q, want %q", tc.scheme, tc.port, got, tc.want)
		}
	}
}

func TestTargetURL_PreservesParts(t *testing.T) {
	cur := mustURL(t, "http://[::1]:8080/a%2Fb/c?q=a+b&r=%26#frag")
	got := TargetURL(cur, "https", Port{})
	if !strings.HasPrefix(got, "https://[::1]/") {
		t.Fatalf("ipv6 host lost: %q", got)
	}
	if !strings.Contains(got, "/a%2Fb/c?q=a+b&r=%26#frag") {
		t.Fatalf("path, query, or fragment altered: %q", got)
	}

	escaped := TargetURL(mustURL(t, "http://example.com/a#x%2Fy"), "https", Port{})
	if escaped != "https://example.com/a#x%2Fy" {
		t.Fatalf("escaped fragment re-encoded: %q", escaped)
	}

	root := TargetURL(mustURL(t, "http://example.com"), "https", Port{})
	if root != "https://example.com/" {
		t.Fatalf("root = %q", root)
	}
}

func TestDecide_NilURLIsNoop(t *testing.T) {
	pc := eligible()
	pc.ExplicitHTTPS = true
	if a := Decide(pc, RequestTransport{}, nil); a.Redirect() {
		t.Fatalf("got %+v", a)
	}
}
