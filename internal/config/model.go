// internal/config/model.go
//
// Typed configuration model for NameDeal.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `NAMEDEAL_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`; Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Mail section
//

// Mail holds outbound-delivery tunables.  Which SMTP server to talk to is
// operator data managed through the back office (email_settings.json), not
// deployment configuration, so only the dial/IO timeout lives here.
type Mail struct {
	Timeout time.Duration `koanf:"timeout"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database used to tag visit-log
// rows with a country code.  An empty path disables the lookup.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or NAMEDEAL_ROOT override); `Data` holds the
// SQLite files, the settings documents, and the verification-code records.
type Paths struct {
	Root string
	Data string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP  HTTP  `koanf:"http"`
	Mail  Mail  `koanf:"mail"`
	Geo   Geo   `koanf:"geo"`
	Paths Paths `koanf:"-"`
}
