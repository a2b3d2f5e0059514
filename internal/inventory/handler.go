package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmcampos/storefront/internal/catalog"
)

// Handler exposes read-only stock endpoints. Decrements are not reachable
// over HTTP; they only happen inside the checkout saga and the reconciler.
type Handler struct {
	ledger   *Ledger
	products *catalog.ProductRepository
	logger   *slog.Logger
}

func NewHandler(ledger *Ledger, products *catalog.ProductRepository, logger *slog.Logger) *Handler {
	return &Handler{
		ledger:   ledger,
		products: products,
		logger:   logger,
	}
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list stock", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	levels := make([]stockResponse, 0, len(products))
	for _, p := range products {
		levels = append(levels, stockResponse{ProductID: p.ID, Stock: p.Stock})
	}

	h.logger.Info("stock listed", "count", len(levels))
	h.writeJSON(w, http.StatusOK, levels)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	stock, err := h.ledger.GetStock(r.Context(), productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get stock", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("stock retrieved", "product_id", productID)
	h.writeJSON(w, http.StatusOK, stockResponse{ProductID: productID, Stock: stock})
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
