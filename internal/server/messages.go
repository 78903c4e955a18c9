package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/storage"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// storeError maps store errors to responses.
func storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Message not found")
	case errors.Is(err, storage.ErrInvalidMessage):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error("message store failed", "op", op, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		storeError(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var in storage.MessageInput
	if !decodeBody(w, r, &in) {
		return
	}
	m, err := s.store.Create(r.Context(), in)
	if err != nil {
		storeError(w, r, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	var patch storage.MessagePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	m, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		storeError(w, r, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		storeError(w, r, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
