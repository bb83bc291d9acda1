// Package config loads, normalizes, and validates fieldsync configuration.
//
// Configuration lives in a TOML file (default ~/.config/fieldsync/config.toml)
// and is decoded into Config. Load applies defaults, expands paths, and
// validates before returning; callers can rely on every path field being
// absolute and every numeric field being in range.
package config
