// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests for the audit trail.
type Handler struct {
	repo   Repository
	logger *log.Logger
}

// NewHandler creates a new audit handler.
func NewHandler(repo Repository, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers audit API routes with a gorilla/mux router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/audit", h.ListEvents).Methods("GET")
	r.HandleFunc("/api/v1/audit/{id}", h.GetEvent).Methods("GET")
}

// ListEvents handles GET /api/v1/audit.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := Query{}

	if agentID := r.URL.Query().Get("agent_id"); agentID != "" {
		q.AgentID = agentID
	}
	if destination := r.URL.Query().Get("destination"); destination != "" {
		q.Destination = destination
	}
	if action := r.URL.Query().Get("action"); action != "" {
		q.Action = action
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			q.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o >= 0 {
			q.Offset = o
		}
	}

	events, err := h.repo.QueryEvents(r.Context(), q)
	if err != nil {
		h.logger.Printf("[Audit] ListEvents error: %v", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list audit events")
		return
	}

	h.writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/v1/audit/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid event ID")
		return
	}

	event, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Audit event not found")
			return
		}
		h.logger.Printf("[Audit] GetEvent error for %d: %v", id, err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get audit event")
		return
	}

	h.writeJSON(w, http.StatusOK, event)
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(code),
		Code:    code,
		Message: message,
	})
}
