// Package storage defines the template store interface, its error kinds and
// the backends that persist form templates.
package storage

import (
	"context"

	"github.com/okian/formmatch/internal/domain/template"
)

// Store provides read access to the registered templates.
//
// Implementations must be safe for concurrent use. The order of the
// returned slice is the matching priority and is stable between calls as
// long as the underlying data does not change.
type Store interface {
	// ListTemplates returns every registered template.
	// Fails with ErrStoreUnavailable or ErrStoreCorrupt.
	ListTemplates(ctx context.Context) ([]template.Template, error)

	// Close releases connections, watchers and file handles.
	Close() error
}

// Seeder is implemented by stores that can register new templates.
// New records are appended after the existing ones.
type Seeder interface {
	Seed(ctx context.Context, records []template.Record) error
}

// Pinger is implemented by stores with a reachable backing medium.
type Pinger interface {
	Ping(ctx context.Context) error
}

// decodeRecords converts raw records into templates, failing on the first
// record that is not a valid template.
func decodeRecords(op string, records []map[string]any) ([]template.Template, error) {
	out := make([]template.Template, 0, len(records))
	for i, rec := range records {
		tpl, err := template.FromRecord(rec)
		if err != nil {
			return nil, corruptf(op, err, "record %d", i)
		}
		out = append(out, tpl)
	}
	return out, nil
}
