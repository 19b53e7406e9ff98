package handlers

import (
	"net/http"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// CheckoutHandler starts and completes PayPal payments for the buyer's basket
type CheckoutHandler struct {
	baskets  services.BasketServiceInterface
	checkout services.CheckoutServiceInterface
	purchase services.PurchaseServiceInterface
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(
	baskets services.BasketServiceInterface,
	checkout services.CheckoutServiceInterface,
	purchase services.PurchaseServiceInterface,
) *CheckoutHandler {
	return &CheckoutHandler{
		baskets:  baskets,
		checkout: checkout,
		purchase: purchase,
	}
}

// InitPayPal creates a payment for the basket and returns the approval URL
func (h *CheckoutHandler) InitPayPal(w http.ResponseWriter, r *http.Request) {
	var req models.PayPalInitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	basket, err := h.basket(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	initiated, err := h.checkout.Initiate(r.Context(), basket.ID, req.ReturnURL, req.CancelURL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiated)
}

// Purchase executes the approved payment and returns the order
func (h *CheckoutHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var form models.PurchaseForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	basket, err := h.basket(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.purchase.Purchase(r.Context(), basket.ID, &form)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *CheckoutHandler) basket(r *http.Request) (*models.Basket, error) {
	buyerID, _ := middleware.BuyerIDFromContext(r.Context())
	return h.baskets.GetBasket(r.Context(), buyerID)
}
