package storage

import (
	"context"
	"fmt"

	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/pkg/logger"
)

// Kind names a storage backend.
type Kind string

// Supported backends.
const (
	KindMemory   Kind = "memory"
	KindTinyDB   Kind = "tinydb"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindMongoDB  Kind = "mongodb"
)

// ParseKind resolves a storage_type value through config.CanonicalStorageType.
// Matching is case-insensitive, so the historical "TinyDB" and "MongoDB"
// spellings are accepted.
func ParseKind(s string) (Kind, error) {
	name, ok := config.CanonicalStorageType(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return Kind(name), nil
}

// Config selects and parameterises a backend.
type Config struct {
	// Kind is the raw storage_type value.
	Kind string
	// Name is the file path (tinydb, sqlite) or database name (mongodb).
	Name string
	// Collection is the TinyDB table or Mongo collection.
	Collection string
	// Host is the Mongo URI or the PostgreSQL DSN.
	Host string
	// Watch enables the reloading snapshot for tinydb files.
	Watch bool
}

// ConfigFrom extracts the storage settings of a service config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Kind:       c.StorageType,
		Name:       c.StorageName,
		Collection: c.StorageCollection,
		Host:       c.StorageHost,
		Watch:      c.StorageWatch,
	}
}

// Open builds the backend selected by cfg and wraps it with metrics.
// An unsupported kind fails with ErrUnknownKind.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Instrumented, error) {
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	var inner Store
	switch kind {
	case KindMemory:
		inner = NewMemoryStore()
	case KindTinyDB:
		inner, err = NewFileStore(ctx, cfg.Name, cfg.Collection, cfg.Watch, opts...)
	case KindSQLite:
		inner, err = NewSQLiteStore(ctx, cfg.Name)
	case KindPostgres:
		inner, err = NewPostgresStore(ctx, cfg.Host)
	case KindMongoDB:
		inner, err = NewMongoStore(ctx, cfg.Host, cfg.Name, cfg.Collection)
	}
	if err != nil {
		return nil, err
	}

	store := Instrument(inner, string(kind))
	o.log.Info(ctx, "template store opened",
		logger.String("backend", string(kind)),
		logger.String("name", cfg.Name),
		logger.String("collection", cfg.Collection),
	)
	return store, nil
}

// WarnCatchAll logs every template that declares no fields, since it
// matches all submissions and shadows the templates after it. A store that
// cannot be listed yet is logged and otherwise ignored.
func WarnCatchAll(ctx context.Context, log logger.Logger, s Store) {
	tpls, err := s.ListTemplates(ctx)
	if err != nil {
		log.Warn(ctx, "initial template listing failed", logger.Error(err))
		return
	}
	for i, tpl := range tpls {
		if tpl.IsCatchAll() {
			log.Warn(ctx, "catch-all template shadows later templates",
				logger.String("template", tpl.Name()),
				logger.Int("position", i),
				logger.Int("shadowed", len(tpls)-i-1),
			)
		}
	}
	log.Info(ctx, "templates available", logger.Int("count", len(tpls)))
}
