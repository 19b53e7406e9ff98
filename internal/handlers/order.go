package handlers

import (
	"net/http"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// OrderHandler serves a buyer's order history
type OrderHandler struct {
	orders services.OrderServiceInterface
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders services.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List returns the buyer's orders, newest first
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	buyerID, _ := middleware.BuyerIDFromContext(r.Context())

	orders, err := h.orders.GetBuyerOrders(r.Context(), buyerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// Get returns one of the buyer's orders
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := intParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	buyerID, _ := middleware.BuyerIDFromContext(r.Context())

	order, err := h.orders.GetOrderByID(r.Context(), orderID, buyerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
