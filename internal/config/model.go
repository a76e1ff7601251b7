// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `ADEPT_`-prefixed environment overrides – highest precedence.
//
// The `https_redirect` subtree is not unmarshalled into a struct.  It is
// kept as a flat key-value Source so the redirect package owns parsing
// and error reporting for its seven keys.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Paths` and `Redirect` are filled at runtime; YAML must not set them.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "github.com/yanizio/httpsredirect/internal/redirect"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr          string `koanf:"listen_addr"           validate:"required,hostname_port"`
	TrustForwardedProto bool   `koanf:"trust_forwarded_proto"`
}

//
// Database section
//

// Database holds the control-plane DSN.  `GlobalPassword` may be a
// `vault:<mount/path>#<key>` reference; the loader resolves it before
// validation so the model only ever stores the plain secret.
// `LocalhostAlias` lets a dev box answer "localhost" as a real site host.
type Database struct {
	GlobalDSN      string `koanf:"global_dsn"      validate:"required"`
	GlobalPassword string `koanf:"global_password"`
	LocalhostAlias string `koanf:"localhost_alias"`
}

//
// Log section
//

type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  `Root` is the repo root or ADEPT_ROOT.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`

	// Redirect is the parsed global rule set.
	Redirect *redirect.Settings `koanf:"-"`

	redirectSrc redirect.Source
}

// RedirectSource returns the raw `https_redirect` subtree.  Tenants layer
// their own rows over it.
func (c *Config) RedirectSource() redirect.Source { return c.redirectSrc }

