package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yanizio/httpsredirect/internal/redirect"
)

// writeRoot lays out <tmp>/conf/global.yaml and returns <tmp>.
func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(yamlPath(root), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return root
}

const baseYAML = `
http:
  listen_addr: "127.0.0.1:9090"
database:
  global_dsn: "adept@tcp(127.0.0.1:3306)/adept"
`

func TestLoadFrom_Defaults(t *testing.T) {
	root := writeRoot(t, `
database:
  global_dsn: "adept@tcp(127.0.0.1:3306)/adept"
`)
	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != defaultListenAddr || cfg.Log.Level != defaultLogLevel {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Redirect == nil || cfg.Redirect.ForceHTTP() {
		t.Fatalf("absent https_redirect must yield empty settings")
	}
	if Get() != cfg {
		t.Fatalf("Get should return the last loaded config")
	}
}

func TestLoadFrom_RedirectSection(t *testing.T) {
	root := writeRoot(t, baseYAML+`
https_redirect:
  doctypes: "checkout, account"
  pageids: [1, 2, 3]
  templates: secureLayout
  forcehttp: true
  HttpsPort: 8443
`)
	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	rs := cfg.Redirect
	if !rs.HasDocType("account") || !rs.HasPageID(3) || !rs.HasTemplate("secureLayout") {
		t.Fatalf("lists not parsed: %v", rs.Summary())
	}
	if !rs.ForceHTTP() {
		t.Fatalf("forcehttp not parsed")
	}
	if n, ok := rs.HTTPSPort().Get(); !ok || n != 8443 {
		t.Fatalf("mixed-case key not found: (%d, %v)", n, ok)
	}
	if _, ok := cfg.RedirectSource().Lookup(redirect.KeyHTTPPort); ok {
		t.Fatalf("HttpPort should be absent")
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	root := writeRoot(t, baseYAML+`
https_redirect:
  forcehttp: false
`)
	t.Setenv("ADEPT_HTTPS_REDIRECT__FORCEHTTP", "true")
	t.Setenv("ADEPT_HTTP__LISTEN_ADDR", "127.0.0.1:7070")

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.Redirect.ForceHTTP() {
		t.Fatalf("env override ignored")
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:7070" {
		t.Fatalf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadFrom_MalformedRedirectIsFatal(t *testing.T) {
	root := writeRoot(t, baseYAML+`
https_redirect:
  pageids: "1,two"
`)
	_, err := LoadFrom(context.Background(), root, nil)
	var ce *redirect.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if ce.Key != redirect.KeyPageIDs {
		t.Fatalf("key = %q", ce.Key)
	}
}

func TestLoadFrom_RequiresDSN(t *testing.T) {
	root := writeRoot(t, `http: {listen_addr: ":8080"}`)
	if _, err := LoadFrom(context.Background(), root, nil); err == nil {
		t.Fatalf("missing global_dsn should fail validation")
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func TestLoadFrom_VaultPassword(t *testing.T) {
	root := writeRoot(t, baseYAML+`  global_password: "vault:secret/adept/db#password"
`)
	cfg, err := LoadFrom(context.Background(), root, fakeSecrets{"secret/adept/db#password": "s3cret"})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Database.GlobalPassword != "s3cret" {
		t.Fatalf("password = %q", cfg.Database.GlobalPassword)
	}

	if _, err := LoadFrom(context.Background(), root, nil); err == nil {
		t.Fatalf("vault reference without a resolver must fail")
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"a,b", "a,b"},
		{[]any{1, "two", true}, "1,two,true"},
		{8443, "8443"},
		{false, "false"},
	}
	for _, tc := range cases {
		if got := stringify(tc.in); got != tc.want {
			t.Fatalf("stringify(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
