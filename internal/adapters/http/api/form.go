package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/okian/formmatch/internal/domain/matching"
	"github.com/okian/formmatch/pkg/logger"
)

// defaultMultipartMemory bounds the in-memory part of a multipart body.
const defaultMultipartMemory = 1 << 20

// FormHandler handles POST /get_form.
type FormHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewFormHandler creates a new form handler.
func NewFormHandler(deps Dependencies, log logger.Logger) *FormHandler {
	return &FormHandler{deps: deps, log: log}
}

// templateMatchResponse is the body returned when a template matched.
type templateMatchResponse struct {
	TemplateName string `json:"template_name"`
}

// HandleGetForm answers with {"template_name": ...} when a registered
// template matches, otherwise with the inferred type of every field.
func (h *FormHandler) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_form"

	raw, err := decodeSubmission(r)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
		case errors.Is(err, ErrUnsupportedMedia):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", WrapKind(op, ErrUnsupportedMedia, err))
		default:
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		}
		return
	}

	res, err := h.deps.Process(r.Context(), raw)
	if err != nil {
		h.log.Error(r.Context(), "form processing failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
		return
	}

	switch res.Kind() {
	case matching.KindTemplateMatched:
		name, _ := res.TemplateName()
		writeJSON(w, http.StatusOK, templateMatchResponse{TemplateName: name})
	case matching.KindFieldTypesOnly:
		types, _ := res.FieldTypes()
		writeJSON(w, http.StatusOK, types.Tags())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
	}
}

// decodeSubmission reads a flat name -> value form from urlencoded,
// multipart or JSON bodies. Repeated fields, files and non-string JSON
// values are rejected.
func decodeSubmission(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	mediaType := "application/x-www-form-urlencoded"
	if ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, ct)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		return decodeJSON(r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil {
			return nil, bodyError(err)
		}
		if len(r.MultipartForm.File) > 0 {
			return nil, errors.New("file uploads are not accepted")
		}
		return flatten(r.MultipartForm.Value)
	case "application/x-www-form-urlencoded":
		if ct == "" {
			r.Header.Set("Content-Type", mediaType)
		}
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return flatten(r.PostForm)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, mediaType)
	}
}

func decodeJSON(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, bodyError(err)
	}
	// The object must be the whole body.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, bodyError(err)
		}
		return nil, errors.New("body must hold a single JSON object")
	}
	out := make(map[string]string, len(doc))
	for name, v := range doc {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must be a string, got %T", name, v)
		}
		out[name] = s
	}
	return out, nil
}

func flatten(values map[string][]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for name, vs := range values {
		if len(vs) != 1 {
			return nil, fmt.Errorf("field %q has %d values, expected one", name, len(vs))
		}
		out[name] = vs[0]
	}
	return out, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, tooLarge.Limit)
	}
	return err
}
