package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/telemetry"
)

// Catalog writes rebuild the snapshot before responding so the next preview
// already sees the change and carries a fresh ETag.

func (s *Server) handleUpsertChannel(w http.ResponseWriter, r *http.Request) {
	var ch catalog.Channel
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if ch.Name == "" {
		ValidationError(w, r, "invalid channel", map[string]string{"name": "required"})
		return
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if err := s.store.UpsertChannel(r.Context(), ch); err != nil {
		InternalError(w, r, "upsert channel: "+err.Error())
		return
	}
	if err := s.refreshSnapshot(r); err != nil {
		InternalError(w, r, "rebuild snapshot: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChannel(r.Context(), chi.URLParam(r, "id")); err != nil {
		InternalError(w, r, "delete channel: "+err.Error())
		return
	}
	if err := s.refreshSnapshot(r); err != nil {
		InternalError(w, r, "rebuild snapshot: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpsertMedia(w http.ResponseWriter, r *http.Request) {
	var m catalog.MediaItem
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if m.Title == "" {
		ValidationError(w, r, "invalid media item", map[string]string{"title": "required"})
		return
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.store.UpsertMediaItem(r.Context(), m); err != nil {
		InternalError(w, r, "upsert media: "+err.Error())
		return
	}
	if err := s.refreshSnapshot(r); err != nil {
		InternalError(w, r, "rebuild snapshot: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMediaItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		InternalError(w, r, "delete media: "+err.Error())
		return
	}
	if err := s.refreshSnapshot(r); err != nil {
		InternalError(w, r, "rebuild snapshot: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refreshSnapshot(r *http.Request) error {
	snap, err := snapshot.Rebuild(r.Context(), s.store)
	if err != nil {
		return err
	}
	telemetry.SnapshotChannels.Set(float64(len(snap.Channels)))
	telemetry.SnapshotMedia.Set(float64(len(snap.Media)))
	return nil
}
