package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ticket-checkout/internal/models"
)

// Transactor runs fn inside one database transaction carried by ctx
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TicketSetRepository defines the ticket set operations the services need
type TicketSetRepository interface {
	GetByID(ctx context.Context, id int) (*models.TicketSet, error)
	List(ctx context.Context) ([]*models.TicketSet, error)
	DecrementStock(ctx context.Context, id int, quantity int) error
}

// BasketRepository defines the basket operations the services need
type BasketRepository interface {
	GetOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Basket, error)
	GetByID(ctx context.Context, id int) (*models.Basket, error)
	GetByIDForUpdate(ctx context.Context, id int) (*models.Basket, error)
	AddItem(ctx context.Context, item *models.BasketItem) error
	UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity int) error
	RemoveItem(ctx context.Context, basketID, itemID int) error
	Clear(ctx context.Context, basketID int) error
}

// PendingPaymentRepository defines the storage behind the payment ledger
type PendingPaymentRepository interface {
	Upsert(ctx context.Context, p *models.PendingPayment) error
	GetByBasket(ctx context.Context, basketID int) (*models.PendingPayment, error)
	GetByBasketForUpdate(ctx context.Context, basketID int) (*models.PendingPayment, error)
	Delete(ctx context.Context, basketID int) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// OrderRepository defines the order operations the services need
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error)
}

// ReconciliationRepository records payments captured without an order
type ReconciliationRepository interface {
	Create(ctx context.Context, rec *models.Reconciliation) error
	ListUnresolved(ctx context.Context) ([]*models.Reconciliation, error)
	HasUnresolved(ctx context.Context, paymentID string) (bool, error)
	Resolve(ctx context.Context, id int) error
}

// EventRepository defines the read side of the event catalogue
type EventRepository interface {
	ListPublic(ctx context.Context) ([]*models.Event, error)
	GetPublicByID(ctx context.Context, id int) (*models.Event, error)
}

// BuyerRepository defines the buyer operations the services need
type BuyerRepository interface {
	Create(ctx context.Context) (*models.Buyer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
}

// PaymentGateway is the external payment provider. InitiatePayment creates a
// payment the buyer approves out of band; ExecutePayment captures it.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req *PaymentRequest) (*InitiatedPayment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*CapturedPayment, error)
}

// PaymentRequest describes the amount and line items of a new payment
type PaymentRequest struct {
	Amount      int // in cents
	Currency    string
	Description string
	Items       []PaymentItem
	ReturnURL   string
	CancelURL   string
}

// PaymentItem is one line shown on the approval page
type PaymentItem struct {
	Title     string
	Quantity  int
	UnitPrice int // in cents
}

// InitiatedPayment is the gateway's handle for a created payment
type InitiatedPayment struct {
	ID          string
	ApprovalURL string
}

// CapturedPayment is the result of a successful execution
type CapturedPayment struct {
	ID      string
	PayerID string
	State   string
}

// BasketServiceInterface defines the interface for basket services
type BasketServiceInterface interface {
	GetBasket(ctx context.Context, buyerID uuid.UUID) (*models.Basket, error)
	AddItem(ctx context.Context, basketID, ticketSetID, quantity int) (*models.Basket, error)
	UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity int) (*models.Basket, error)
	RemoveItem(ctx context.Context, basketID, itemID int) (*models.Basket, error)
	Clear(ctx context.Context, basketID int) (*models.Basket, error)
}

// CheckoutServiceInterface defines the interface for starting a payment
type CheckoutServiceInterface interface {
	Initiate(ctx context.Context, basketID int, returnURL, cancelURL string) (*InitiatedCheckout, error)
}

// PurchaseServiceInterface defines the interface for completing a payment
type PurchaseServiceInterface interface {
	Purchase(ctx context.Context, basketID int, form *models.PurchaseForm) (*models.Order, error)
}

// OrderServiceInterface defines the interface for reading a buyer's orders
type OrderServiceInterface interface {
	GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error)
	GetOrderByID(ctx context.Context, orderID int, buyerID uuid.UUID) (*models.Order, error)
}

// TicketSetServiceInterface defines the interface for the ticket catalogue
type TicketSetServiceInterface interface {
	ListTicketSets(ctx context.Context) ([]*models.TicketSet, error)
	GetTicketSet(ctx context.Context, id int) (*models.TicketSet, error)
}

// EventServiceInterface defines the interface for the public event catalogue
type EventServiceInterface interface {
	ListEvents(ctx context.Context) ([]*EventView, error)
	GetEvent(ctx context.Context, id int) (*EventView, error)
}

// BuyerServiceInterface defines the interface for buyer identities
type BuyerServiceInterface interface {
	Register(ctx context.Context) (*models.Buyer, error)
	GetBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
}

var (
	_ BasketServiceInterface    = (*BasketService)(nil)
	_ CheckoutServiceInterface  = (*CheckoutService)(nil)
	_ PurchaseServiceInterface  = (*PurchaseService)(nil)
	_ OrderServiceInterface     = (*OrderService)(nil)
	_ TicketSetServiceInterface = (*TicketSetService)(nil)
	_ EventServiceInterface     = (*EventService)(nil)
	_ BuyerServiceInterface     = (*BuyerService)(nil)
	_ PaymentGateway            = (*PayPalService)(nil)
	_ PaymentGateway            = (*MockPaymentService)(nil)
)
