// Package adminapi exposes the moderation service's read operations and
// the rate-limit override over HTTP for admin tooling. Responses are JSON.
package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/taskbridge/chat-moderation/internal/escalate"
	"github.com/taskbridge/chat-moderation/internal/violation"
)

// Service is the subset of the moderation service the API needs.
type Service interface {
	UserSummary(ctx context.Context, userID string) escalate.Summary
	History(ctx context.Context, userID string, limit int) ([]violation.LogEntry, error)
	ProjectStats(ctx context.Context, projectID string) (violation.ProjectStats, error)
	ClearRateLimit(ctx context.Context, userID string) error
}

// Handler serves the admin API.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler creates an admin API handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the HTTP handler with all admin routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{id}/summary", h.userSummary)
	mux.HandleFunc("GET /api/users/{id}/history", h.userHistory)
	mux.HandleFunc("GET /api/projects/{id}/stats", h.projectStats)
	mux.HandleFunc("POST /api/users/{id}/rate-limit/clear", h.clearRateLimit)
	return mux
}

func (h *Handler) userSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.UserSummary(r.Context(), userID))
}

func (h *Handler) userHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("history query failed", zap.Error(err), zap.String("user_id", userID))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []violation.LogEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) projectStats(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		http.Error(w, "missing project id", http.StatusBadRequest)
		return
	}

	stats, err := h.svc.ProjectStats(r.Context(), projectID)
	if err != nil {
		h.logger.Error("project stats query failed", zap.Error(err), zap.String("project_id", projectID))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) clearRateLimit(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	if err := h.svc.ClearRateLimit(r.Context(), userID); err != nil {
		h.logger.Error("clear rate limit failed", zap.Error(err), zap.String("user_id", userID))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("rate limit cleared", zap.String("user_id", userID))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "user_id": userID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response failed", zap.Error(err))
	}
}
