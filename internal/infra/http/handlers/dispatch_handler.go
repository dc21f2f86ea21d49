package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

const (
	defaultDispatchLimit = 20
	maxDispatchLimit     = 100
)

type DispatchHandler struct {
	Repo entity.DispatchRepositoryInterface
}

func NewDispatchHandler(repo entity.DispatchRepositoryInterface) *DispatchHandler {
	return &DispatchHandler{Repo: repo}
}

// HandleList serves GET /dispatches?limit=N, newest first.
func (h *DispatchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultDispatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "INVALID_LIMIT"})
			return
		}
		limit = min(n, maxDispatchLimit)
	}

	dispatches, err := h.Repo.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "JOURNAL_UNAVAILABLE"})
		return
	}
	if dispatches == nil {
		dispatches = []*entity.Dispatch{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dispatches": dispatches,
		"total":      len(dispatches),
	})
}

// HandleGet serves GET /dispatches/{id}.
func (h *DispatchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "MISSING_ID"})
		return
	}

	d, err := h.Repo.FindByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "JOURNAL_UNAVAILABLE"})
		return
	}
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
