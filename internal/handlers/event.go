package handlers

import (
	"net/http"

	"ticket-checkout/internal/services"
)

// EventHandler serves the public event catalogue
type EventHandler struct {
	events services.EventServiceInterface
}

// NewEventHandler creates a new event handler
func NewEventHandler(events services.EventServiceInterface) *EventHandler {
	return &EventHandler{events: events}
}

// List returns every public event with its ticket sets
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*services.EventView{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}
