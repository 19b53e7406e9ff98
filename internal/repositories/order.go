package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"ticket-checkout/internal/models"
)

// ordersPaymentIDKey is the unique constraint that makes a payment produce at
// most one order
const ordersPaymentIDKey = "orders_payment_id_key"

// OrderRepository handles orders with their positions and tickets
type OrderRepository struct {
	db *sqlx.DB
	tx *Transactor
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db, tx: NewTransactor(db)}
}

// positionRow is an order position joined with its ticket
type positionRow struct {
	ID              int            `db:"id"`
	OrderID         int            `db:"order_id"`
	TicketSetID     int            `db:"ticket_set_id"`
	Title           string         `db:"title"`
	Quantity        int            `db:"quantity"`
	UnitPrice       int            `db:"unit_price"`
	TicketID        sql.NullInt64  `db:"ticket_id"`
	Code            sql.NullString `db:"code"`
	FirstName       sql.NullString `db:"first_name"`
	LastName        sql.NullString `db:"last_name"`
	UsedAt          sql.NullTime   `db:"used_at"`
	TicketCreatedAt sql.NullTime   `db:"ticket_created_at"`
}

func (row positionRow) toPosition() models.OrderPosition {
	pos := models.OrderPosition{
		ID:          row.ID,
		OrderID:     row.OrderID,
		TicketSetID: row.TicketSetID,
		Title:       row.Title,
		Quantity:    row.Quantity,
		UnitPrice:   row.UnitPrice,
	}

	if row.TicketID.Valid {
		pos.Ticket = &models.Ticket{
			ID:              int(row.TicketID.Int64),
			OrderPositionID: row.ID,
			Code:            row.Code.String,
			FirstName:       row.FirstName.String,
			LastName:        row.LastName.String,
			CreatedAt:       row.TicketCreatedAt.Time,
		}
		if row.UsedAt.Valid {
			usedAt := row.UsedAt.Time
			pos.Ticket.UsedAt = &usedAt
		}
	}

	return pos
}

// Create inserts the order, its positions and their tickets. IDs and
// timestamps are written back into the aggregate.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return models.NewValidationError("order", err.Error())
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		exec := executor(ctx, r.db)

		err := exec.GetContext(ctx, order, `
			INSERT INTO orders (order_number, buyer_id, payment_method, payment_id, total_amount, currency, ordered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, order_number, buyer_id, payment_method, payment_id, total_amount, currency, ordered_at`,
			order.OrderNumber, order.BuyerID, order.PaymentMethod, order.PaymentID, order.TotalAmount, order.Currency, order.OrderedAt)
		if err != nil {
			if isUniqueViolationOn(err, ordersPaymentIDKey) {
				return fmt.Errorf("order for payment %s already exists: %w", order.PaymentID, models.ErrPaymentAlreadyExecuted)
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Positions {
			pos := &order.Positions[i]
			pos.OrderID = order.ID

			err := exec.GetContext(ctx, &pos.ID, `
				INSERT INTO order_positions (order_id, ticket_set_id, title, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				pos.OrderID, pos.TicketSetID, pos.Title, pos.Quantity, pos.UnitPrice)
			if err != nil {
				return fmt.Errorf("failed to create order position: %w", err)
			}

			ticket := pos.Ticket
			ticket.OrderPositionID = pos.ID
			err = exec.GetContext(ctx, ticket, `
				INSERT INTO tickets (order_position_id, code, first_name, last_name)
				VALUES ($1, $2, $3, $4)
				RETURNING id, order_position_id, code, first_name, last_name, used_at, created_at`,
				ticket.OrderPositionID, ticket.Code, ticket.FirstName, ticket.LastName)
			if err != nil {
				return fmt.Errorf("failed to create ticket: %w", err)
			}
		}

		return nil
	})
}

// GetByID retrieves an order with positions and tickets
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	exec := executor(ctx, r.db)

	var order models.Order
	err := exec.GetContext(ctx, &order, `
		SELECT id, order_number, buyer_id, payment_method, payment_id, total_amount, currency, ordered_at
		FROM orders
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []*models.Order{&order}
	if err := r.loadPositions(ctx, exec, orders); err != nil {
		return nil, err
	}

	return &order, nil
}

// ListByBuyer returns the buyer's orders, newest first
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	exec := executor(ctx, r.db)

	var orders []*models.Order
	err := exec.SelectContext(ctx, &orders, `
		SELECT id, order_number, buyer_id, payment_method, payment_id, total_amount, currency, ordered_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY ordered_at DESC, id DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := r.loadPositions(ctx, exec, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) loadPositions(ctx context.Context, exec Executor, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := lo.Map(orders, func(o *models.Order, _ int) int64 { return int64(o.ID) })

	var rows []positionRow
	err := exec.SelectContext(ctx, &rows, `
		SELECT p.id, p.order_id, p.ticket_set_id, p.title, p.quantity, p.unit_price,
		       t.id AS ticket_id, t.code, t.first_name, t.last_name, t.used_at, t.created_at AS ticket_created_at
		FROM order_positions p
		LEFT JOIN tickets t ON t.order_position_id = p.id
		WHERE p.order_id = ANY($1)
		ORDER BY p.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get order positions: %w", err)
	}

	byOrder := lo.GroupBy(rows, func(row positionRow) int { return row.OrderID })
	for _, order := range orders {
		order.Positions = lo.Map(byOrder[order.ID], func(row positionRow, _ int) models.OrderPosition {
			return row.toPosition()
		})
	}

	return nil
}
