package models

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxHolderNameLength matches the tickets.first_name and last_name columns
const MaxHolderNameLength = 100

// BasketItemRequest represents a request to add a ticket set to a basket
type BasketItemRequest struct {
	TicketSetID int `json:"ticketSetId"`
	Quantity    int `json:"quantity"`
}

// BasketItemUpdateRequest represents a request to change an item's quantity
type BasketItemUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// PayPalInitRequest carries the redirect targets for the approval page
type PayPalInitRequest struct {
	ReturnURL string `json:"returnUrl"`
	CancelURL string `json:"cancelUrl"`
}

// TicketInfo names the holder of the ticket issued for one ticket set
type TicketInfo struct {
	TicketSetID int    `json:"ticketSetId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// PayPalPaymentInfo is the payer confirmation returned by the approval page
type PayPalPaymentInfo struct {
	PayerID string `json:"payerId"`
}

// PurchaseForm is the input for executing an approved payment
type PurchaseForm struct {
	TicketInfos   []TicketInfo       `json:"ticketInfos"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	PayPal        *PayPalPaymentInfo `json:"paypal"`
}

// Validate validates the basket item request
func (r *BasketItemRequest) Validate() error {
	if r.TicketSetID <= 0 {
		return NewValidationError("ticketSetId", "ticket set is required")
	}
	return ValidateQuantity(r.Quantity)
}

// Validate validates the basket item update request
func (r *BasketItemUpdateRequest) Validate() error {
	return ValidateQuantity(r.Quantity)
}

// Validate validates the redirect URLs
func (r *PayPalInitRequest) Validate() error {
	if err := ValidateRedirectURL("returnUrl", r.ReturnURL); err != nil {
		return err
	}
	return ValidateRedirectURL("cancelUrl", r.CancelURL)
}

// Validate checks the form on its own, without looking at the basket
func (f *PurchaseForm) Validate() error {
	if f.PaymentMethod == "" {
		return NewValidationError("paymentMethod", "payment method is required")
	}

	if !f.PaymentMethod.IsValid() {
		return NewValidationError("paymentMethod", fmt.Sprintf("unsupported payment method %q", f.PaymentMethod))
	}

	if f.PayPal == nil || strings.TrimSpace(f.PayPal.PayerID) == "" {
		return NewValidationError("paypal.payerId", "payer id is required")
	}

	if len(f.TicketInfos) == 0 {
		return NewValidationError("ticketInfos", "ticket holder information is required")
	}

	for i, info := range f.TicketInfos {
		field := fmt.Sprintf("ticketInfos[%d]", i)
		if info.TicketSetID <= 0 {
			return NewValidationError(field+".ticketSetId", "ticket set is required")
		}
		if strings.TrimSpace(info.FirstName) == "" {
			return NewValidationError(field+".firstName", "first name is required")
		}
		if strings.TrimSpace(info.LastName) == "" {
			return NewValidationError(field+".lastName", "last name is required")
		}
		if utf8.RuneCountInString(strings.TrimSpace(info.FirstName)) > MaxHolderNameLength {
			return NewValidationError(field+".firstName", fmt.Sprintf("first name cannot exceed %d characters", MaxHolderNameLength))
		}
		if utf8.RuneCountInString(strings.TrimSpace(info.LastName)) > MaxHolderNameLength {
			return NewValidationError(field+".lastName", fmt.Sprintf("last name cannot exceed %d characters", MaxHolderNameLength))
		}
	}

	return nil
}

// HoldersFor matches the ticket infos to the basket items. Every item needs
// exactly one holder and the form may not name ticket sets outside the basket.
func (f *PurchaseForm) HoldersFor(basket *Basket) (map[int]TicketInfo, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	holders := make(map[int]TicketInfo, len(f.TicketInfos))
	for _, info := range f.TicketInfos {
		if _, dup := holders[info.TicketSetID]; dup {
			return nil, NewValidationError("ticketInfos", fmt.Sprintf("duplicate holder for ticket set %d", info.TicketSetID))
		}
		if basket.ItemFor(info.TicketSetID) == nil {
			return nil, NewValidationError("ticketInfos", fmt.Sprintf("ticket set %d is not in the basket", info.TicketSetID))
		}
		holders[info.TicketSetID] = info
	}

	for _, item := range basket.Items {
		if _, ok := holders[item.TicketSetID]; !ok {
			return nil, NewValidationError("ticketInfos", fmt.Sprintf("missing holder for ticket set %d", item.TicketSetID))
		}
	}

	return holders, nil
}

// ValidateRedirectURL requires an absolute http(s) URL
func ValidateRedirectURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return NewValidationError(field, "url is required")
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewValidationError(field, "must be an absolute url")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError(field, "must use http or https")
	}

	return nil
}

// ValidateQuantity requires a positive quantity within the per-line limit
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("quantity", "quantity must be greater than zero")
	}
	if quantity > 1000 {
		return NewValidationError("quantity", "quantity cannot exceed 1000")
	}
	return nil
}
