package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names and prefixes.
const (
	EnvPrefix     = "FORMMATCH_"
	EnvConfigFile = "FORMMATCH_CONFIG"
	// LegacyStoragePrefix covers STORAGE_TYPE, STORAGE_NAME,
	// STORAGE_COLLECTION and STORAGE_HOST.
	LegacyStoragePrefix = "STORAGE_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FORMMATCH_CONFIG is set
//  3. env STORAGE_* (storage_type, storage_name, ...)
//  4. env FORMMATCH_* (prefix stripped)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadFailed(path, err)
		}
	}

	// STORAGE_TYPE -> storage_type
	legacy := env.Provider(LegacyStoragePrefix, ".", strings.ToLower)
	if err := k.Load(legacy, nil); err != nil {
		return nil, loadFailed("env "+LegacyStoragePrefix+"*", err)
	}

	// FORMMATCH_STORAGE_TYPE -> storage_type. Underscores are preserved to
	// match the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadFailed("env "+EnvPrefix+"*", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailed("unmarshal", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules. An unrecognised storage_type is left to
// storage.Open, which owns the set of backends.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if c.RequestTimeoutMS <= 0 {
		return invalid("request_timeout_ms must be positive, got %d", c.RequestTimeoutMS)
	}
	if c.MaxBodyBytes <= 0 {
		return invalid("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if strings.TrimSpace(c.StorageType) == "" {
		return invalid("storage_type must not be empty")
	}

	kind, _ := CanonicalStorageType(c.StorageType)
	switch kind {
	case StorageMongoDB:
		if c.StorageHost == "" || c.StorageName == "" || c.StorageCollection == "" {
			return invalid("incomplete mongodb configuration: storage_host, storage_name and storage_collection are required")
		}
	case StoragePostgres:
		if c.StorageHost == "" {
			return invalid("postgres storage requires storage_host (DSN)")
		}
	case StorageTinyDB, StorageSQLite:
		if c.StorageName == "" {
			return invalid("%s storage requires storage_name", kind)
		}
	}
	return nil
}
