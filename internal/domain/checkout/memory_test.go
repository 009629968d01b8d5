package checkout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

var errInjected = errors.New("injected store failure")

// memState is one snapshot of the fake database.
type memState struct {
	products    map[uint]product.Product
	carts       map[string]cart.Cart
	orders      map[uint]order.Order
	events      []outbox.Event
	nextOrderID uint
}

func newMemState() *memState {
	return &memState{
		products: map[uint]product.Product{},
		carts:    map[string]cart.Cart{},
		orders:   map[uint]order.Order{},
	}
}

func (s *memState) clone() *memState {
	out := &memState{
		products:    make(map[uint]product.Product, len(s.products)),
		carts:       make(map[string]cart.Cart, len(s.carts)),
		orders:      make(map[uint]order.Order, len(s.orders)),
		events:      append([]outbox.Event(nil), s.events...),
		nextOrderID: s.nextOrderID,
	}
	for id, p := range s.products {
		out.products[id] = p
	}
	for user, c := range s.carts {
		c.Items = append([]cart.CartItem(nil), c.Items...)
		out.carts[user] = c
	}
	for id, o := range s.orders {
		o.Items = append([]order.OrderItem(nil), o.Items...)
		o.StatusHistory = append([]order.OrderStatusHistory(nil), o.StatusHistory...)
		out.orders[id] = o
	}
	return out
}

// memoryUnitOfWork is a transactional in-memory store. Each Do works on a
// private copy that replaces the committed state only when fn succeeds.
// Transactions are serialized, like SERIALIZABLE isolation.
type memoryUnitOfWork struct {
	mu    sync.Mutex
	state *memState
	seq   int64
	calls int

	failInsert bool
	failEvents bool
}

func newMemoryUnitOfWork() *memoryUnitOfWork {
	return &memoryUnitOfWork{state: newMemState()}
}

func (u *memoryUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++

	work := u.state.clone()
	st := Stores{
		Catalog: &memCatalog{state: work},
		Carts:   &memCarts{state: work},
		Orders:  &memOrders{state: work, uow: u},
		Events:  &memEvents{state: work, uow: u},
	}
	if err := fn(ctx, st); err != nil {
		return err
	}
	u.state = work
	return nil
}

func (u *memoryUnitOfWork) addProduct(p product.Product) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state.products[p.ID] = p
}

func (u *memoryUnitOfWork) addCart(c cart.Cart) {
	u.mu.Lock()
	defer u.mu.Unlock()
	c.Recalculate()
	u.state.carts[c.UserID] = c
}

func (u *memoryUnitOfWork) stock(id uint) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.products[id].Stock
}

func (u *memoryUnitOfWork) cart(userID string) cart.Cart {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.carts[userID]
}

func (u *memoryUnitOfWork) orders() []order.Order {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]order.Order, 0, len(u.state.orders))
	for _, o := range u.state.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (u *memoryUnitOfWork) events() []outbox.Event {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]outbox.Event(nil), u.state.events...)
}

func (u *memoryUnitOfWork) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

type memCatalog struct {
	state *memState
}

func (m *memCatalog) FindByID(_ context.Context, id uint) (*product.Product, error) {
	p, ok := m.state.products[id]
	if !ok {
		return nil, apperror.NotFound("product", id)
	}
	return &p, nil
}

func (m *memCatalog) DecrementStock(_ context.Context, id uint, qty int) error {
	p, ok := m.state.products[id]
	if !ok || p.Stock < qty {
		return product.ErrInsufficientStock
	}
	p.Stock -= qty
	m.state.products[id] = p
	return nil
}

type memCarts struct {
	state *memState
}

func (m *memCarts) FindByUser(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.state.carts[userID]
	if !ok {
		return nil, apperror.NotFound("cart", userID)
	}
	c.Items = append([]cart.CartItem(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) ReplaceItems(_ context.Context, c *cart.Cart, items []cart.CartItem, expiresAt time.Time) error {
	c.Items = items
	c.Recalculate()
	c.ExpiresAt = expiresAt
	m.state.carts[c.UserID] = *c
	return nil
}

type memOrders struct {
	state *memState
	uow   *memoryUnitOfWork
}

// NextSequence is not rolled back, matching a database sequence.
func (m *memOrders) NextSequence(context.Context) (int64, error) {
	m.uow.seq++
	return m.uow.seq, nil
}

func (m *memOrders) Insert(_ context.Context, o *order.Order) error {
	if m.uow.failInsert {
		return errInjected
	}
	for _, existing := range m.state.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperror.Conflict("order number %s already exists", o.OrderNumber)
		}
	}
	m.state.nextOrderID++
	o.ID = m.state.nextOrderID
	m.state.orders[o.ID] = *o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uint) (*order.Order, error) {
	o, ok := m.state.orders[id]
	if !ok {
		return nil, apperror.NotFound("order", id)
	}
	o.Items = append([]order.OrderItem(nil), o.Items...)
	for i := range o.Items {
		if p, ok := m.state.products[o.Items[i].ProductID]; ok {
			o.Items[i].ProductSummary = p.Summary()
		}
	}
	return &o, nil
}

type memEvents struct {
	state *memState
	uow   *memoryUnitOfWork
}

func (m *memEvents) Append(_ context.Context, e *outbox.Event) error {
	if m.uow.failEvents {
		return errInjected
	}
	m.state.events = append(m.state.events, *e)
	return nil
}
