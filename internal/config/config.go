// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"strings"
	"time"
)

// Storage backend names as accepted in storage_type. Matching is
// case-insensitive and the aliases below are accepted too.
const (
	StorageMemory   = "memory"
	StorageTinyDB   = "tinydb"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMongoDB  = "mongodb"
)

var storageAliases = map[string]string{
	"memory":     StorageMemory,
	"inmemory":   StorageMemory,
	"tinydb":     StorageTinyDB,
	"file":       StorageTinyDB,
	"json":       StorageTinyDB,
	"yaml":       StorageTinyDB,
	"sqlite":     StorageSQLite,
	"sqlite3":    StorageSQLite,
	"postgres":   StoragePostgres,
	"postgresql": StoragePostgres,
	"pg":         StoragePostgres,
	"mongodb":    StorageMongoDB,
	"mongo":      StorageMongoDB,
}

// CanonicalStorageType maps a storage_type value or one of its aliases to
// the backend name, ignoring case and surrounding space. ok is false for
// unknown values.
func CanonicalStorageType(s string) (name string, ok bool) {
	name, ok = storageAliases[strings.ToLower(strings.TrimSpace(s))]
	return name, ok
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RequestTimeoutMS bounds each HTTP request, store fetch included.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxBodyBytes caps the size of a submitted form body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// StorageType selects the template store backend.
	StorageType string `koanf:"storage_type"`

	// StorageName is the database file (tinydb, sqlite) or database name (mongodb).
	StorageName string `koanf:"storage_name"`

	// StorageCollection is the TinyDB table or Mongo collection. SQL backends
	// always read the form_templates table.
	StorageCollection string `koanf:"storage_collection"`

	// StorageHost is the Mongo URI or the PostgreSQL DSN.
	StorageHost string `koanf:"storage_host"`

	// StorageWatch keeps a parsed snapshot of a tinydb file and reloads it
	// when the file changes, instead of reading the file on every request.
	StorageWatch bool `koanf:"storage_watch"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		RequestTimeoutMS:  5000,
		MaxBodyBytes:      1 << 20,
		StorageType:       StorageTinyDB,
		StorageName:       "forms.json",
		StorageCollection: "forms",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
