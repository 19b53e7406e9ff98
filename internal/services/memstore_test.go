package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticket-checkout/internal/models"
)

// memStore is an in-memory stand-in for the postgres repositories. RunInTx
// serializes transactions and restores a snapshot when fn fails, which is
// enough to observe all-or-nothing behaviour.
type memStore struct {
	txMu sync.Mutex // held for the duration of a transaction
	mu   sync.Mutex // guards state

	state memState

	failOrderCreate error
	commitErr       error
	txCount         int
}

type memState struct {
	nextID          int
	ticketSets      map[int]models.TicketSet
	baskets         map[int]models.Basket
	pending         map[int]models.PendingPayment
	orders          map[int]models.Order
	reconciliations map[int]models.Reconciliation
	buyers          map[uuid.UUID]models.Buyer
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			ticketSets:      make(map[int]models.TicketSet),
			baskets:         make(map[int]models.Basket),
			pending:         make(map[int]models.PendingPayment),
			orders:          make(map[int]models.Order),
			reconciliations: make(map[int]models.Reconciliation),
			buyers:          make(map[uuid.UUID]models.Buyer),
		},
	}
}

func (s memState) clone() memState {
	c := memState{
		nextID:          s.nextID,
		ticketSets:      make(map[int]models.TicketSet, len(s.ticketSets)),
		baskets:         make(map[int]models.Basket, len(s.baskets)),
		pending:         make(map[int]models.PendingPayment, len(s.pending)),
		orders:          make(map[int]models.Order, len(s.orders)),
		reconciliations: make(map[int]models.Reconciliation, len(s.reconciliations)),
		buyers:          make(map[uuid.UUID]models.Buyer, len(s.buyers)),
	}
	for k, v := range s.ticketSets {
		c.ticketSets[k] = v
	}
	for k, v := range s.baskets {
		v.Items = append([]models.BasketItem(nil), v.Items...)
		c.baskets[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	for k, v := range s.orders {
		v.Positions = append([]models.OrderPosition(nil), v.Positions...)
		c.orders[k] = v
	}
	for k, v := range s.reconciliations {
		c.reconciliations[k] = v
	}
	for k, v := range s.buyers {
		c.buyers[k] = v
	}
	return c
}

func (s *memStore) id() int {
	s.state.nextID++
	return s.state.nextID
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	snapshot := s.state.clone()
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err == nil && s.commitErr != nil {
		err = s.commitErr
	}
	if err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
	}
	return err
}

// seeding and inspection helpers

func (s *memStore) addTicketSet(title string, price, stock int) *models.TicketSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := models.TicketSet{ID: s.id(), Title: title, Price: price, Stock: stock}
	s.state.ticketSets[ts.ID] = ts
	return &ts
}

func (s *memStore) stock(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ticketSets[id].Stock
}

func (s *memStore) basket(id int) *models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.state.clone().baskets[id]
	return &b
}

func (s *memStore) pendingFor(basketID int) (models.PendingPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.pending[basketID]
	return p, ok
}

func (s *memStore) setPending(p models.PendingPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.pending[p.BasketID] = p
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

func (s *memStore) reconciliationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.reconciliations)
}

// memTicketSets implements TicketSetRepository
type memTicketSets struct{ s *memStore }

func (r memTicketSets) GetByID(_ context.Context, id int) (*models.TicketSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts, ok := r.s.state.ticketSets[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "ticket set", ID: id}
	}
	return &ts, nil
}

func (r memTicketSets) List(_ context.Context) ([]*models.TicketSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sets := make([]*models.TicketSet, 0, len(r.s.state.ticketSets))
	for _, ts := range r.s.state.ticketSets {
		ts := ts
		sets = append(sets, &ts)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	return sets, nil
}

func (r memTicketSets) DecrementStock(_ context.Context, id int, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts, ok := r.s.state.ticketSets[id]
	if !ok {
		return &models.NotFoundError{Resource: "ticket set", ID: id}
	}
	if ts.Stock < quantity {
		return &models.OutOfStockError{TicketSetID: id, Requested: quantity, Available: ts.Stock}
	}
	ts.Stock -= quantity
	r.s.state.ticketSets[id] = ts
	return nil
}

// memBaskets implements BasketRepository
type memBaskets struct{ s *memStore }

func (r memBaskets) GetOrCreateByBuyer(_ context.Context, buyerID uuid.UUID) (*models.Basket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.state.baskets {
		if b.BuyerID == buyerID {
			b.Items = append([]models.BasketItem(nil), b.Items...)
			return &b, nil
		}
	}

	b := models.Basket{ID: r.s.id(), BuyerID: buyerID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.s.state.baskets[b.ID] = b
	return &b, nil
}

func (r memBaskets) GetByID(_ context.Context, id int) (*models.Basket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.baskets[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "basket", ID: id}
	}
	b.Items = append([]models.BasketItem(nil), b.Items...)
	return &b, nil
}

// GetByIDForUpdate needs no lock here: RunInTx already serializes
func (r memBaskets) GetByIDForUpdate(ctx context.Context, id int) (*models.Basket, error) {
	return r.GetByID(ctx, id)
}

func (r memBaskets) AddItem(_ context.Context, item *models.BasketItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.baskets[item.BasketID]
	if !ok {
		return &models.NotFoundError{Resource: "basket", ID: item.BasketID}
	}
	if b.ItemFor(item.TicketSetID) != nil {
		return models.NewValidationError("ticketSetId", "ticket set is already in the basket")
	}

	item.ID = r.s.id()
	b.Items = append(append([]models.BasketItem(nil), b.Items...), *item)
	r.s.state.baskets[b.ID] = b
	return nil
}

func (r memBaskets) UpdateItemQuantity(_ context.Context, basketID, itemID, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.baskets[basketID]
	if !ok {
		return &models.NotFoundError{Resource: "basket item", ID: itemID}
	}
	b.Items = append([]models.BasketItem(nil), b.Items...)
	item := b.Item(itemID)
	if item == nil {
		return &models.NotFoundError{Resource: "basket item", ID: itemID}
	}
	item.Quantity = quantity
	r.s.state.baskets[basketID] = b
	return nil
}

func (r memBaskets) RemoveItem(_ context.Context, basketID, itemID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.baskets[basketID]
	if !ok {
		return &models.NotFoundError{Resource: "basket item", ID: itemID}
	}
	if b.Item(itemID) == nil {
		return &models.NotFoundError{Resource: "basket item", ID: itemID}
	}
	b.Items = lo.Reject(b.Items, func(item models.BasketItem, _ int) bool {
		return item.ID == itemID
	})
	r.s.state.baskets[basketID] = b
	return nil
}

func (r memBaskets) Clear(_ context.Context, basketID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.baskets[basketID]
	if !ok {
		return &models.NotFoundError{Resource: "basket", ID: basketID}
	}
	b.Items = nil
	r.s.state.baskets[basketID] = b
	return nil
}

// memPending implements PendingPaymentRepository
type memPending struct{ s *memStore }

func (r memPending) Upsert(_ context.Context, p *models.PendingPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.pending[p.BasketID] = *p
	return nil
}

func (r memPending) GetByBasket(_ context.Context, basketID int) (*models.PendingPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.state.pending[basketID]
	if !ok {
		return nil, models.NewNoPaymentError(basketID)
	}
	return &p, nil
}

func (r memPending) GetByBasketForUpdate(ctx context.Context, basketID int) (*models.PendingPayment, error) {
	return r.GetByBasket(ctx, basketID)
}

func (r memPending) Delete(_ context.Context, basketID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.state.pending, basketID)
	return nil
}

func (r memPending) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for id, p := range r.s.state.pending {
		if !p.ExpiresAt.After(now) {
			delete(r.s.state.pending, id)
			n++
		}
	}
	return n, nil
}

// memOrders implements OrderRepository
type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failOrderCreate != nil {
		return r.s.failOrderCreate
	}
	if err := order.Validate(); err != nil {
		return models.NewValidationError("order", err.Error())
	}
	for _, o := range r.s.state.orders {
		if o.PaymentID == order.PaymentID {
			return models.ErrPaymentAlreadyExecuted
		}
	}

	order.ID = r.s.id()
	for i := range order.Positions {
		order.Positions[i].ID = r.s.id()
		order.Positions[i].OrderID = order.ID
		order.Positions[i].Ticket.ID = r.s.id()
		order.Positions[i].Ticket.OrderPositionID = order.Positions[i].ID
	}
	stored := *order
	stored.Positions = append([]models.OrderPosition(nil), order.Positions...)
	r.s.state.orders[order.ID] = stored
	return nil
}

func (r memOrders) GetByID(_ context.Context, id int) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	return &o, nil
}

func (r memOrders) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var orders []*models.Order
	for _, o := range r.s.state.orders {
		if o.BuyerID == buyerID {
			o := o
			orders = append(orders, &o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

// memReconciliations implements ReconciliationRepository
type memReconciliations struct{ s *memStore }

func (r memReconciliations) Create(_ context.Context, rec *models.Reconciliation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec.ID = r.s.id()
	rec.CreatedAt = time.Now()
	r.s.state.reconciliations[rec.ID] = *rec
	return nil
}

func (r memReconciliations) ListUnresolved(_ context.Context) ([]*models.Reconciliation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var recs []*models.Reconciliation
	for _, rec := range r.s.state.reconciliations {
		if !rec.IsResolved() {
			rec := rec
			recs = append(recs, &rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (r memReconciliations) HasUnresolved(_ context.Context, paymentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.state.reconciliations {
		if rec.PaymentID == paymentID && !rec.IsResolved() {
			return true, nil
		}
	}
	return false, nil
}

func (r memReconciliations) Resolve(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.state.reconciliations[id]
	if !ok || rec.IsResolved() {
		return &models.NotFoundError{Resource: "reconciliation", ID: id}
	}
	now := time.Now()
	rec.ResolvedAt = &now
	r.s.state.reconciliations[id] = rec
	return nil
}

// memBuyers implements BuyerRepository
type memBuyers struct{ s *memStore }

func (r memBuyers) Create(_ context.Context) (*models.Buyer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b := models.Buyer{ID: uuid.New(), CreatedAt: time.Now()}
	r.s.state.buyers[b.ID] = b
	return &b, nil
}

func (r memBuyers) GetByID(_ context.Context, id uuid.UUID) (*models.Buyer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.state.buyers[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "buyer", ID: id}
	}
	return &b, nil
}
