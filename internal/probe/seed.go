package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/formmatch/internal/adapters/storage"
	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/logger"
	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []map[string]any `yaml:"templates"`
}

// LoadRecords reads template records from YAML:
//
//	templates:
//	  - name: Contact Form
//	    user_email: email
//
// Each record must be a valid template.
func LoadRecords(path string) ([]template.Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied template path
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes and validates a template document.
func ParseRecords(data []byte) ([]template.Record, error) {
	var doc templateFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCases, err)
	}
	if len(doc.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates", ErrInvalidCases)
	}
	records := make([]template.Record, 0, len(doc.Templates))
	for i, raw := range doc.Templates {
		tpl, err := template.FromRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: template %d: %w", ErrInvalidCases, i+1, err)
		}
		records = append(records, tpl.ToRecord())
	}
	return records, nil
}

// Seed appends records to the store selected by cfg.
func Seed(ctx context.Context, cfg *config.Config, records []template.Record) error {
	log := logger.Get().Named("seed")
	store, err := storage.Open(ctx, storage.ConfigFrom(cfg), storage.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Seed(ctx, records); err != nil {
		return err
	}
	log.Info(ctx, "templates seeded",
		logger.String("backend", store.Backend()),
		logger.Int("count", len(records)))
	return nil
}
