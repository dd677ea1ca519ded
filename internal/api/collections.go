package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/store"
)

// collectionRequest is the create/update payload. Rule is the raw string as
// the console builder produced it; the service normalizes it on save.
type collectionRequest struct {
	Name    string              `json:"name"`
	Kind    registry.EntityKind `json:"kind"`
	Rule    string              `json:"rule"`
	Enabled bool                `json:"enabled"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	list, err := s.collections.List(r.Context())
	if err != nil {
		InternalError(w, r, "list collections: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": list})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if req.Name == "" {
		ValidationError(w, r, "invalid collection", map[string]string{"name": "required"})
		return
	}
	if !req.Kind.Valid() {
		BadRequestError(w, r, ErrCodeInvalidKind, "unknown entity kind: "+string(req.Kind))
		return
	}

	c, err := s.collections.Create(r.Context(), store.Collection{
		Name:    req.Name,
		Kind:    req.Kind,
		Rule:    req.Rule,
		Enabled: req.Enabled,
	})
	if err != nil {
		InternalError(w, r, "create collection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.collections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "collection not found")
			return
		}
		InternalError(w, r, "get collection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	c, err := s.collections.Update(r.Context(), store.Collection{
		ID:      chi.URLParam(r, "id"),
		Name:    req.Name,
		Rule:    req.Rule,
		Enabled: req.Enabled,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "collection not found")
			return
		}
		InternalError(w, r, "update collection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		InternalError(w, r, "delete collection: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCollectionMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	members, err := s.collections.Members(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "collection not found")
			return
		}
		InternalError(w, r, "get members: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collectionId": id, "members": members})
}

// handleMaterialize evaluates the collection's rule against the current
// snapshot pool and persists the result. The response mirrors what a
// preview of the same rule over the same snapshot would have reported.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.collections.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "collection not found")
			return
		}
		InternalError(w, r, "get collection: "+err.Error())
		return
	}

	snap := snapshot.Load()
	result, err := s.collections.Materialize(r.Context(), id, snap.Pool(c.Kind))
	if err != nil {
		InternalError(w, r, "materialize: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collectionId": result.CollectionID,
		"count":        result.Count,
		"memberIds":    result.MemberIDs,
		"fingerprint":  result.Fingerprint,
		"etag":         snap.ETag,
	})
}
