package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrValidation             = errors.New("validation failed")
	ErrOutOfStock             = errors.New("insufficient ticket stock")
	ErrNotFound               = errors.New("not found")
	ErrNoPayment              = errors.New("no pending payment for basket")
	ErrPaymentAlreadyExecuted = errors.New("payment already executed")
	ErrPaymentGateway         = errors.New("payment gateway failure")
	ErrPostCapture            = errors.New("purchase failed after payment capture")
)

// ValidationError reports malformed input. Field is empty for errors that
// concern the request as a whole, such as an empty basket.
type ValidationError struct {
	Field   string
	Message string
}

// ErrBasketEmpty rejects checkout and purchase of a basket without items
var ErrBasketEmpty = &ValidationError{Field: "basket", Message: "basket is empty"}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OutOfStockError is returned when a ticket set cannot cover a quantity.
type OutOfStockError struct {
	TicketSetID int
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("ticket set %d out of stock (requested: %d, available: %d)",
		e.TicketSetID, e.Requested, e.Available)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// NotFoundError is returned when a resource does not exist. Err carries a
// more specific sentinel, e.g. ErrNoPayment.
type NotFoundError struct {
	Resource string
	ID       any
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %v: %v", e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotFound, e.Err}
	}
	return []error{ErrNotFound}
}

// NewNoPaymentError builds the not-found error for a basket without a live
// pending payment.
func NewNoPaymentError(basketID int) *NotFoundError {
	return &NotFoundError{Resource: "pending payment", ID: basketID, Err: ErrNoPayment}
}

// PaymentGatewayError describes a failed call to the external payment
// gateway. Name is the gateway's own error identifier when it sent one.
type PaymentGatewayError struct {
	Op         string
	StatusCode int
	Name       string
	Message    string
	Err        error
}

func (e *PaymentGatewayError) Error() string {
	msg := fmt.Sprintf("payment gateway %s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PaymentGatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPaymentGateway, e.Err}
	}
	return []error{ErrPaymentGateway}
}

// FulfilmentError is returned by a purchase that failed after the gateway
// captured the funds. The order was not written and the payment needs
// reconciliation.
type FulfilmentError struct {
	BasketID  int
	PaymentID string
	Err       error
}

func (e *FulfilmentError) Error() string {
	return fmt.Sprintf("payment %s captured but basket %d was not fulfilled: %v", e.PaymentID, e.BasketID, e.Err)
}

func (e *FulfilmentError) Unwrap() []error {
	return []error{ErrPostCapture, e.Err}
}
