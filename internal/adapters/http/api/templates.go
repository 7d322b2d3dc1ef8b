package api

import (
	"net/http"

	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/logger"
)

// TemplatesHandler handles GET /templates.
type TemplatesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(deps Dependencies, log logger.Logger) *TemplatesHandler {
	return &TemplatesHandler{deps: deps, log: log}
}

// HandleListTemplates returns the registered templates as stored records,
// in matching order.
func (h *TemplatesHandler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_templates"
	tpls, err := h.deps.ListTemplates(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "listing templates failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
		return
	}
	out := make([]template.Record, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, t.ToRecord())
	}
	writeJSON(w, http.StatusOK, out)
}
