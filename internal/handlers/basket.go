package handlers

import (
	"net/http"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// BasketHandler handles basket requests. Routes are mounted under
// /buyers/{buyerID} behind RequireBuyer, so the session buyer owns the basket.
type BasketHandler struct {
	baskets services.BasketServiceInterface
}

// NewBasketHandler creates a new basket handler
func NewBasketHandler(baskets services.BasketServiceInterface) *BasketHandler {
	return &BasketHandler{baskets: baskets}
}

// Get returns the buyer's basket
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	basket, err := h.basket(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, basket)
}

// AddItem adds tickets of a ticket set to the basket
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.BasketItemRequest
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

	updated, err := h.baskets.AddItem(r.Context(), basket.ID, req.TicketSetID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, updated)
}

// UpdateItem changes the quantity of a basket item
func (h *BasketHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := intParam(r, "itemID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.BasketItemUpdateRequest
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

	updated, err := h.baskets.UpdateItemQuantity(r.Context(), basket.ID, itemID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// RemoveItem deletes a basket item
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := intParam(r, "itemID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	basket, err := h.basket(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.baskets.RemoveItem(r.Context(), basket.ID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Clear empties the basket
func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	basket, err := h.basket(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.baskets.Clear(r.Context(), basket.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *BasketHandler) basket(r *http.Request) (*models.Basket, error) {
	buyerID, _ := middleware.BuyerIDFromContext(r.Context())
	return h.baskets.GetBasket(r.Context(), buyerID)
}
