package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
)

// Error codes returned in the "error" field of a JSON error body
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeBasketEmpty            = "BASKET_IS_EMPTY"
	CodeOutOfStock             = "TICKET_OUT_OF_STOCK"
	CodeNotFound               = "NOT_FOUND"
	CodeNoPayment              = "PURCHASE_NO_PAYMENT"
	CodeAlreadyExecuted        = "PAYMENT_ALREADY_EXECUTED"
	CodePaymentGateway         = "PAYPAL_ERROR"
	CodeReconciliationRequired = "PURCHASE_RECONCILIATION_REQUIRED"
	CodeInternal               = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidationError("body", "request body is required")
		}
		return models.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

// intParam parses a positive integer URL parameter
func intParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// writeError maps a service error to its HTTP status and error code. Order
// matters: a post-capture failure wraps other kinds, and a missing payment
// is also a not-found.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context()).WithError(err)

	var (
		validationErr *models.ValidationError
		gatewayErr    *models.PaymentGatewayError
	)

	switch {
	case errors.Is(err, models.ErrPostCapture):
		log.Error("Purchase needs reconciliation")
		middleware.WriteError(w, http.StatusInternalServerError, CodeReconciliationRequired,
			"Your payment was received but the order could not be completed. Our team has been notified.")
	case errors.Is(err, models.ErrBasketEmpty):
		middleware.WriteError(w, http.StatusBadRequest, CodeBasketEmpty, "The basket is empty.")
	case errors.As(err, &validationErr):
		middleware.WriteError(w, http.StatusBadRequest, CodeValidation, validationErr.Error())
	case errors.Is(err, models.ErrOutOfStock):
		middleware.WriteError(w, http.StatusConflict, CodeOutOfStock, err.Error())
	case errors.Is(err, models.ErrNoPayment):
		middleware.WriteError(w, http.StatusBadRequest, CodeNoPayment, "No payment has been started for this basket.")
	case errors.Is(err, models.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, models.ErrPaymentAlreadyExecuted):
		middleware.WriteError(w, http.StatusConflict, CodeAlreadyExecuted, "This payment has already been executed.")
	case errors.As(err, &gatewayErr):
		log.Warn("Payment gateway error")
		middleware.WriteError(w, http.StatusBadGateway, CodePaymentGateway, "The payment provider could not process the request.")
	default:
		log.Error("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, CodeInternal, "Something went wrong. Please try again.")
	}
}
