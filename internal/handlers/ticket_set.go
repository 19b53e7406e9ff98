package handlers

import (
	"net/http"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// TicketSetHandler serves the read-only ticket catalogue
type TicketSetHandler struct {
	ticketSets services.TicketSetServiceInterface
}

// NewTicketSetHandler creates a new ticket set handler
func NewTicketSetHandler(ticketSets services.TicketSetServiceInterface) *TicketSetHandler {
	return &TicketSetHandler{ticketSets: ticketSets}
}

func (h *TicketSetHandler) List(w http.ResponseWriter, r *http.Request) {
	sets, err := h.ticketSets.ListTicketSets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sets == nil {
		sets = []*models.TicketSet{}
	}

	writeJSON(w, http.StatusOK, sets)
}

func (h *TicketSetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	set, err := h.ticketSets.GetTicketSet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}
