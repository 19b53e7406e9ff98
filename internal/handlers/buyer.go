package handlers

import (
	"net/http"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/services"
)

// BuyerHandler handles buyer identity requests
type BuyerHandler struct {
	buyers   services.BuyerServiceInterface
	sessions *middleware.SessionMiddleware
}

// NewBuyerHandler creates a new buyer handler
func NewBuyerHandler(buyers services.BuyerServiceInterface, sessions *middleware.SessionMiddleware) *BuyerHandler {
	return &BuyerHandler{
		buyers:   buyers,
		sessions: sessions,
	}
}

// Create registers a new buyer and binds the session cookie to it
func (h *BuyerHandler) Create(w http.ResponseWriter, r *http.Request) {
	buyer, err := h.buyers.Register(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.sessions.Start(w, r, buyer.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, buyer)
}

// Me returns the buyer of the current session
func (h *BuyerHandler) Me(w http.ResponseWriter, r *http.Request) {
	buyerID, _ := middleware.BuyerIDFromContext(r.Context())

	buyer, err := h.buyers.GetBuyer(r.Context(), buyerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, buyer)
}
