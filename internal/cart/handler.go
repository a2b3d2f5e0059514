package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/identity"
)

type Handler struct {
	store    *Store
	identity identity.Provider
	logger   *slog.Logger
}

func NewHandler(store *Store, provider identity.Provider, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		identity: provider,
		logger:   logger,
	}
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	lines, err := h.store.GetLines(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if lines == nil {
		lines = []domain.CartLine{}
	}

	h.writeJSON(w, http.StatusOK, lines)
}

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.store.AddLine(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLine):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownProduct):
			h.writeError(w, http.StatusNotFound, "product not found")
		default:
			h.logger.Error("failed to add cart line", "error", err, "user_id", user.ID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("cart line added", "user_id", user.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusCreated, line)
}

func (h *Handler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	lineID := r.PathValue("lineId")
	if lineID == "" {
		h.writeError(w, http.StatusBadRequest, "missing line id")
		return
	}

	if err := h.store.RemoveLine(r.Context(), user.ID, lineID); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			h.writeError(w, http.StatusNotFound, "cart line not found")
			return
		}
		h.logger.Error("failed to remove cart line", "error", err, "user_id", user.ID, "line_id", lineID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line removed", "user_id", user.ID, "line_id", lineID)
	w.WriteHeader(http.StatusNoContent)
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
