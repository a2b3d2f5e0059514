package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/identity"
	"github.com/rmcampos/storefront/internal/inventory"
)

type Handler struct {
	saga   *Saga
	logger *slog.Logger
}

func NewHandler(saga *Saga, logger *slog.Logger) *Handler {
	return &Handler{
		saga:   saga,
		logger: logger,
	}
}

type checkoutRequest struct {
	Contact domain.Contact `json:"contact"`
}

type checkoutErrorResponse struct {
	Error      string      `json:"error"`
	OrderID    string      `json:"order_id,omitempty"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// HandleCheckout runs the saga for the authenticated user. The response
// keeps the distinction the saga guarantees: before the order header
// exists nothing was charged or reserved; afterwards the caller gets the
// order id to quote to support.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, checkoutErrorResponse{Error: "invalid request body"})
			return
		}
	}

	order, err := h.saga.Execute(r.Context(), identity.TokenFromRequest(r), req.Contact)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var shortfallErr *StockShortfallError
	var stepErr *StepError

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		h.writeJSON(w, http.StatusUnauthorized, checkoutErrorResponse{Error: "not authenticated"})

	case errors.Is(err, ErrEmptyCart):
		h.writeJSON(w, http.StatusUnprocessableEntity, checkoutErrorResponse{
			Error: "could not place order, the cart is empty; nothing was charged or reserved",
		})

	case errors.As(err, &shortfallErr):
		h.writeJSON(w, http.StatusConflict, checkoutErrorResponse{
			Error:      "could not place order, some products are out of stock; nothing was charged or reserved",
			Shortfalls: shortfallErr.Shortfalls,
		})

	case errors.Is(err, inventory.ErrProductNotFound):
		h.writeJSON(w, http.StatusConflict, checkoutErrorResponse{
			Error: "could not place order, a cart product no longer exists; nothing was charged or reserved",
		})

	case errors.As(err, &stepErr) && stepErr.Partial():
		h.logger.Error("checkout left partial state", "error", err, "order_id", stepErr.OrderID, "step", stepErr.Step.String())
		h.writeJSON(w, http.StatusInternalServerError, checkoutErrorResponse{
			Error:   "order partially processed, contact support with order id " + stepErr.OrderID,
			OrderID: stepErr.OrderID,
		})

	default:
		h.logger.Error("checkout failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, checkoutErrorResponse{
			Error: "could not place order, nothing was charged or reserved",
		})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
