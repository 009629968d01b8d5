package checkout

import (
	"context"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"gorm.io/gorm"
)

// CatalogStore is the product side of a checkout transaction.
type CatalogStore interface {
	// FindByID returns the product, locked until the transaction ends.
	FindByID(ctx context.Context, id uint) (*product.Product, error)
	// DecrementStock subtracts qty only if stock >= qty, returning
	// product.ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, id uint, qty int) error
}

// CartStore is the cart side of a checkout transaction.
type CartStore interface {
	FindByUser(ctx context.Context, userID string) (*cart.Cart, error)
	ReplaceItems(ctx context.Context, c *cart.Cart, items []cart.CartItem, expiresAt time.Time) error
}

// OrderStore is the order side of a checkout transaction.
type OrderStore interface {
	NextSequence(ctx context.Context) (int64, error)
	Insert(ctx context.Context, o *order.Order) error
	FindByID(ctx context.Context, id uint) (*order.Order, error)
}

// EventStore appends outbox events.
type EventStore interface {
	Append(ctx context.Context, e *outbox.Event) error
}

// Stores are the collaborators bound to one transaction.
type Stores struct {
	Catalog CatalogStore
	Carts   CartStore
	Orders  OrderStore
	Events  EventStore
}

// UnitOfWork runs fn inside one transaction. If fn returns an error every
// write made through the given Stores is rolled back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, st Stores) error) error
}

// GormUnitOfWork binds GORM stores to a database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, Stores{
			Catalog: product.NewStore(tx),
			Carts:   cart.NewStore(tx),
			Orders:  order.NewStore(tx),
			Events:  outbox.NewStore(tx),
		})
	})
}
