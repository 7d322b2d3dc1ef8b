package storage

import (
	"context"
	"time"

	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/metrics"
)

// Instrumented records latency, errors and template counts for a Store.
// Seed and Ping are forwarded when the wrapped store supports them.
type Instrumented struct {
	inner   Store
	backend string
}

// Instrument wraps s, labelling its metrics with backend.
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{inner: s, backend: backend}
}

// Backend returns the metrics label of the wrapped store.
func (i *Instrumented) Backend() string { return i.backend }

// Unwrap returns the wrapped store.
func (i *Instrumented) Unwrap() Store { return i.inner }

// ListTemplates implements Store.
func (i *Instrumented) ListTemplates(ctx context.Context) ([]template.Template, error) {
	start := time.Now()
	tpls, err := i.inner.ListTemplates(ctx)
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordStoreQueryLatency(i.backend, ms)
	if err != nil {
		metrics.RecordStoreError(i.backend, Reason(err))
		metrics.RecordErrorLatency("storage", Reason(err), ms)
		return nil, err
	}
	metrics.UpdateTemplatesLoaded(i.backend, len(tpls))
	return tpls, nil
}

// Seed implements Seeder.
func (i *Instrumented) Seed(ctx context.Context, records []template.Record) error {
	s, ok := i.inner.(Seeder)
	if !ok {
		return &Error{Op: "seed", Kind: ErrNotSupported}
	}
	if err := s.Seed(ctx, records); err != nil {
		metrics.RecordStoreError(i.backend, Reason(err))
		return err
	}
	return nil
}

// Ping implements Pinger. Stores without a medium are always reachable.
func (i *Instrumented) Ping(ctx context.Context) error {
	p, ok := i.inner.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		metrics.RecordStoreError(i.backend, Reason(err))
		return err
	}
	return nil
}

// Close implements Store.
func (i *Instrumented) Close() error {
	return i.inner.Close()
}
