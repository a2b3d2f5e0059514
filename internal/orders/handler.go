package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rmcampos/storefront/internal/identity"
)

// Handler serves order reads for the authenticated user. Orders are
// created only by the checkout saga; there is no write endpoint here.
type Handler struct {
	repo     *Repository
	identity identity.Provider
	logger   *slog.Logger
}

func NewHandler(repo *Repository, provider identity.Provider, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		identity: provider,
		logger:   logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "user_id", user.ID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil || order.UserID != user.ID {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	user, err := h.identity.CurrentUser(r.Context(), identity.TokenFromRequest(r))
	if err != nil {
		h.logger.Error("failed to resolve session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return user, true
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
