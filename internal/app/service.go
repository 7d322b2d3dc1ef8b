// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/formmatch/internal/adapters/storage"
	"github.com/okian/formmatch/internal/domain/field"
	"github.com/okian/formmatch/internal/domain/matching"
	"github.com/okian/formmatch/internal/domain/model"
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/logger"
	"github.com/okian/formmatch/pkg/metrics"
)

// Service classifies submitted forms and matches them against the
// templates of its store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      storage.Store
	classifier field.Classifier

	// State
	started   bool
	startedAt time.Time

	// Counters
	processed atomic.Int64
	matched   atomic.Int64
	unmatched atomic.Int64
	failed    atomic.Int64
	fallbacks atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the template store. The service closes it on Stop.
func WithStore(store storage.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClassifier sets the field classifier.
func WithClassifier(c field.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service. Without WithStore it serves an empty
// in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		logger: nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = storage.Instrument(storage.NewMemoryStore(), string(storage.KindMemory))
	}

	return s
}

// Start marks the service ready and reports templates that would shadow
// the rest.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting form service...")
	storage.WarnCatchAll(ctx, s.logger, s.store)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "form service started", logger.String("backend", backendOf(s.store)))

	return nil
}

// Stop closes the store and marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping form service...")

	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing template store failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "form service stopped")
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// Process classifies raw, fetches the current templates and returns the
// first template satisfied by the inferred types, or the inferred types
// themselves. Store errors are returned wrapped and nothing is retried.
func (s *Service) Process(ctx context.Context, raw map[string]string) (matching.Result, error) {
	start := time.Now()
	log := s.log()

	form := model.NewSubmittedForm(raw, s.classifier)
	inferred := form.InferredTypes()
	for _, t := range inferred {
		metrics.RecordFieldClassified(t.String())
	}
	if fb := form.FallbackFields(); len(fb) > 0 {
		s.fallbacks.Add(int64(len(fb)))
		for range fb {
			metrics.RecordTextFallback()
		}
		log.Debug(ctx, "values typed text by default", logger.Any("fields", fb))
	}

	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		s.failed.Add(1)
		metrics.RecordErrorByComponent("service", storage.Reason(err))
		log.Error(ctx, "listing templates failed", logger.Error(err))
		return matching.Result{}, fmt.Errorf("process form: %w", err)
	}

	res := matching.Match(inferred, templates)
	s.processed.Add(1)
	metrics.RecordFormProcessed()

	switch res.Kind() {
	case matching.KindTemplateMatched:
		name, _ := res.TemplateName()
		s.matched.Add(1)
		metrics.RecordTemplateMatch(name)
		log.Debug(ctx, "form matched template",
			logger.String("template", name),
			logger.Int("fields", form.Len()),
		)
	case matching.KindFieldTypesOnly:
		s.unmatched.Add(1)
		metrics.RecordFormUnmatched()
		log.Debug(ctx, "form matched no template",
			logger.Int("fields", form.Len()),
			logger.Int("templates", len(templates)),
		)
	}

	metrics.RecordProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	return res, nil
}

// ListTemplates returns the registered templates in matching order.
func (s *Service) ListTemplates(ctx context.Context) ([]template.Template, error) {
	tpls, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return tpls, nil
}

// Ping checks the store when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if p, ok := s.store.(storage.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping store: %w", err)
		}
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"backend":       backendOf(s.store),
		"processed":     s.processed.Load(),
		"matched":       s.matched.Load(),
		"unmatched":     s.unmatched.Load(),
		"failed":        s.failed.Load(),
		"textFallbacks": s.fallbacks.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
	}

	return stats
}

func backendOf(store storage.Store) string {
	if b, ok := store.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return fmt.Sprintf("%T", store)
}
