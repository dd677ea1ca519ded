package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/rules"
	"github.com/aerialtv/aerial/internal/selection"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/telemetry"
	"github.com/aerialtv/aerial/internal/validation"
)

// previewRequest carries the raw rule string exactly as the console will
// persist it, so the preview evaluates the same bytes a save would store.
type previewRequest struct {
	Rule  string `json:"rule"`
	Limit *int   `json:"limit,omitempty"`
}

// previewResponse reports the full match count plus the (possibly capped)
// item projection used for materialization.
type previewResponse struct {
	Count       int    `json:"count"`
	ETag        string `json:"etag"`
	Fingerprint string `json:"fingerprint"`
	Items       any    `json:"items"`
}

func (s *Server) handlePreviewChannels(w http.ResponseWriter, r *http.Request) {
	s.handlePreview(w, r, registry.KindChannel)
}

func (s *Server) handlePreviewMedia(w http.ResponseWriter, r *http.Request) {
	s.handlePreview(w, r, registry.KindMedia)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, kind registry.EntityKind) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	// The cap is a caller concern: absent or zero means the server default,
	// negative means uncapped. Count always reports the uncapped total.
	limit := s.previewLimit
	if req.Limit != nil && *req.Limit != 0 {
		limit = *req.Limit
	}

	snap := snapshot.Load()
	telemetry.Selections.WithLabelValues(string(kind), "preview").Inc()
	result := selection.SelectRaw(kind, req.Rule, snap.Pool(kind))

	items := result.Items
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Count:       result.Count,
		ETag:        snap.ETag,
		Fingerprint: rules.Fingerprint(req.Rule),
		Items:       items,
	})
}

// handleFields returns the rule-builder metadata for one entity kind: the
// queryable fields, their value types, legal operators and enum values.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	kind := registry.EntityKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		BadRequestError(w, r, ErrCodeInvalidKind, "unknown entity kind: "+string(kind))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   kind,
		"fields": registry.Fields(kind),
	})
}

type validateRuleRequest struct {
	Kind registry.EntityKind `json:"kind"`
	Rule string              `json:"rule"`
}

// handleValidateRule lints a rule string so the console can show inline
// warnings. Lint never blocks saving; the engine fails closed regardless.
func (s *Server) handleValidateRule(w http.ResponseWriter, r *http.Request) {
	var req validateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if !req.Kind.Valid() {
		BadRequestError(w, r, ErrCodeInvalidKind, "unknown entity kind: "+string(req.Kind))
		return
	}
	writeJSON(w, http.StatusOK, validation.Lint(req.Kind, req.Rule))
}
