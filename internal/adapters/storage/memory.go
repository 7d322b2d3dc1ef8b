package storage

import (
	"context"
	"sync"

	"github.com/okian/formmatch/internal/domain/template"
)

// MemoryStore keeps templates in process memory in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	templates []template.Template
	closed    bool
}

// NewMemoryStore creates a store holding templates.
func NewMemoryStore(templates ...template.Template) *MemoryStore {
	return &MemoryStore{templates: append([]template.Template(nil), templates...)}
}

// ListTemplates returns the templates in insertion order.
func (s *MemoryStore) ListTemplates(_ context.Context) ([]template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, unavailable("list templates", ErrClosed)
	}
	return append([]template.Template(nil), s.templates...), nil
}

// Add appends already validated templates.
func (s *MemoryStore) Add(templates ...template.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, templates...)
}

// Seed decodes and appends records. Nothing is added if any record is
// invalid.
func (s *MemoryStore) Seed(_ context.Context, records []template.Record) error {
	tpls, err := decodeRecords("seed", recordMaps(records))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("seed", ErrClosed)
	}
	s.templates = append(s.templates, tpls...)
	return nil
}

// Ping fails once the store is closed.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return unavailable("ping", ErrClosed)
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func recordMaps(records []template.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
