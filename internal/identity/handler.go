package identity

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Handler exposes the session boundary: start a session for a known user,
// end the current one. There is no password flow here; upstream identity
// is out of scope and this is the seam it plugs into.
type Handler struct {
	sessions *RedisSessionStore
	logger   *slog.Logger
}

func NewHandler(sessions *RedisSessionStore, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

type startSessionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type startSessionResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "missing email")
		return
	}

	user := User{ID: req.UserID, Email: req.Email}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	token, err := h.sessions.StartSession(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to start session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("session started", "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, startSessionResponse{Token: token, User: user})
}

func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	token := TokenFromRequest(r)
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.sessions.EndSession(r.Context(), token); err != nil {
		h.logger.Error("failed to end session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
