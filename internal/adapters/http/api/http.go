// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/formmatch/internal/domain/matching"
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/logger"
	"github.com/okian/formmatch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	// Process classifies a submission and matches it against the templates.
	Process(ctx context.Context, raw map[string]string) (matching.Result, error)

	// ListTemplates returns the registered templates in matching order.
	ListTemplates(ctx context.Context) ([]template.Template, error)

	// Ping reports whether the service and its store are ready.
	Ping(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	formHandler      *FormHandler
	templatesHandler *TemplatesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		formHandler:      NewFormHandler(deps, log),
		templatesHandler: NewTemplatesHandler(deps, log),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.With(Instrument("get_form")).Post("/get_form", s.formHandler.HandleGetForm)
	r.With(Instrument("templates")).Get("/templates", s.templatesHandler.HandleListTemplates)
	r.With(Instrument("stats")).Get("/stats", s.statsHandler.HandleStats)
	r.With(Instrument("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
