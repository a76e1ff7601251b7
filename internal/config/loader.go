// internal/config/loader.go
//
// Configuration loader, hot-reloader, and secret resolution.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `ADEPT_`, where `__` maps to “.”
     (e.g., `ADEPT_HTTPS_REDIRECT__PAGEIDS → https_redirect.pageids`).

After merging, the tree is unmarshalled into strongly-typed structs,
`vault:` references are resolved, the struct is validated, and the
`https_redirect` subtree is parsed into `*redirect.Settings`.  A malformed
redirect key fails the whole load, so the process never serves requests
with partial rules.  The result is cached in an `atomic.Pointer`.

`Watch()` re-runs the load whenever `conf/global.yaml` changes and hands
the fresh Config to a callback.  A failed reload keeps the previous Config.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation, redirect.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`).
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/httpsredirect/internal/metrics"
	"github.com/yanizio/httpsredirect/internal/redirect"
)

const (
	envPrefix   = "ADEPT_"
	vaultPrefix = "vault:"

	defaultListenAddr = ":8080"
	defaultLogLevel   = "info"
)

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its plain value.
// *vault.Client satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves ADEPT_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func RootDir() string {
	if r := os.Getenv("ADEPT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(yamlPath(dir)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

func yamlPath(root string) string { return filepath.Join(root, "conf", "global.yaml") }

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads the layered config under RootDir().
func Load(ctx context.Context, secrets SecretResolver) (*Config, error) {
	return LoadFrom(ctx, RootDir(), secrets)
}

// LoadFrom reads .env, YAML, env overrides, resolves secrets, validates,
// parses redirect settings, and caches the Config.
func LoadFrom(ctx context.Context, root string, secrets SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yp := yamlPath(root)
	if err := k.Load(file.Provider(yp), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yp, "err", err)
		return nil, fmt.Errorf("load %s: %w", yp, err)
	}
	zap.S().Debugw("config yaml loaded", "file", yp)

	// Env overrides: ADEPT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	applyDefaults(&cfg)
	cfg.Paths.Root = root

	if err := resolveSecrets(ctx, &cfg, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	cfg.redirectSrc = koanfSource{k: k.Cut(redirectPath)}
	rs, err := redirect.Load(cfg.redirectSrc)
	if err != nil {
		zap.S().Errorw("https redirect settings invalid", "err", err)
		return nil, fmt.Errorf("%s: %w", redirectPath, err)
	}
	cfg.Redirect = rs

	current.Store(&cfg)
	zap.S().Infow("config loaded", append([]any{
		"listen_addr", cfg.HTTP.ListenAddr,
		"trust_forwarded_proto", cfg.HTTP.TrustForwardedProto,
		"root", cfg.Paths.Root,
	}, rs.Summary()...)...)
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = defaultListenAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// resolveSecrets swaps `vault:` references for their values.
func resolveSecrets(ctx context.Context, c *Config, secrets SecretResolver) error {
	pw := c.Database.GlobalPassword
	if !strings.HasPrefix(pw, vaultPrefix) {
		return nil
	}
	if secrets == nil {
		return fmt.Errorf("database.global_password is a vault reference but no vault client is configured")
	}
	val, err := secrets.Resolve(ctx, strings.TrimPrefix(pw, vaultPrefix))
	if err != nil {
		return fmt.Errorf("resolve database.global_password: %w", err)
	}
	c.Database.GlobalPassword = val
	return nil
}

/*─────────────────────────────── watcher ──────────────────────────────────*/

// Watch calls onChange with a freshly loaded Config each time the YAML file
// changes.  It blocks until ctx is done.
func Watch(ctx context.Context, root string, secrets SecretResolver, onChange func(*Config)) error {
	f := file.Provider(yamlPath(root))
	err := f.Watch(func(_ any, err error) {
		if err != nil {
			zap.S().Errorw("config watch error", "err", err)
			return
		}
		cfg, err := LoadFrom(ctx, root, secrets)
		if err != nil {
			metrics.ConfigReloadTotal.WithLabelValues("error").Inc()
			zap.S().Errorw("config reload rejected, previous config stays live", "err", err)
			return
		}
		metrics.ConfigReloadTotal.WithLabelValues("ok").Inc()
		onChange(cfg)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", yamlPath(root), err)
	}

	<-ctx.Done()
	return f.Unwatch()
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

// Reload re-reads the config under the current root and swaps it in.
func Reload(ctx context.Context, secrets SecretResolver) error {
	root := RootDir()
	if c := Get(); c != nil {
		root = c.Paths.Root
	}
	_, err := LoadFrom(ctx, root, secrets)
	return err
}
