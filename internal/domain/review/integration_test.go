package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/review"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres/pgtest"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

func seedPurchase(t *testing.T, db *gorm.DB, userID string, products ...*product.Product) *order.Order {
	t.Helper()
	ctx := context.Background()
	store := order.NewStore(db)
	seq, err := store.NextSequence(ctx)
	require.NoError(t, err)

	now := time.Now().UTC()
	o := &order.Order{
		OrderNumber:   order.FormatOrderNumber(now, seq),
		UserID:        userID,
		Customer:      order.Customer{Name: "Ana", Email: "ana@example.com"},
		Status:        order.OrderStatusDelivered,
		PaymentMethod: order.PaymentMethodCard,
		PaymentStatus: order.PaymentStatusPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, p := range products {
		o.Items = append(o.Items, order.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1, Subtotal: p.Price, Position: i})
		o.Subtotal += p.Price
	}
	o.Total = o.Subtotal
	require.NoError(t, store.Insert(ctx, o))
	return o
}

func reload(t *testing.T, db *gorm.DB, id uint) product.Product {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func TestService_ReviewLifecycle(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := review.NewService(db, pgtest.Logger())

	mate := &product.Product{Name: "mate", Price: 5000, Stock: 5, IsActive: true}
	other := &product.Product{Name: "other", Price: 100, Stock: 5, IsActive: true}
	require.NoError(t, db.Create(mate).Error)
	require.NoError(t, db.Create(other).Error)

	ana := auth.Principal{UserID: 7, Email: "ana@example.com", Name: "Ana", Role: auth.RoleUser}
	bob := auth.Principal{UserID: 8, Email: "bob@example.com", Name: "Bob", Role: auth.RoleUser}
	o := seedPurchase(t, db, "7", mate)

	created, err := svc.Create(ctx, ana, &review.CreateRequest{Rating: 5, Comment: "great", ProductID: mate.ID, OrderID: o.ID})
	require.NoError(t, err)
	assert.True(t, created.IsVerifiedPurchase)
	assert.Equal(t, "Ana", created.UserName)

	p := reload(t, db, mate.ID)
	assert.Equal(t, 5.0, p.AverageRating)
	assert.Equal(t, 1, p.TotalReviews)

	_, err = svc.Create(ctx, ana, &review.CreateRequest{Rating: 3, Comment: "again", ProductID: mate.ID, OrderID: o.ID})
	assert.Equal(t, 409, apperror.HTTPStatus(err))

	_, err = svc.Create(ctx, bob, &review.CreateRequest{Rating: 3, Comment: "not mine", ProductID: mate.ID, OrderID: o.ID})
	assert.Equal(t, 403, apperror.HTTPStatus(err))

	_, err = svc.Create(ctx, ana, &review.CreateRequest{Rating: 3, Comment: "not bought", ProductID: other.ID, OrderID: o.ID})
	assert.Equal(t, 403, apperror.HTTPStatus(err))

	_, err = svc.Create(ctx, ana, &review.CreateRequest{Rating: 3, Comment: "no order", ProductID: mate.ID, OrderID: 9999})
	assert.Equal(t, 404, apperror.HTTPStatus(err))

	// Bob buys too, by email.
	o2 := seedPurchase(t, db, "bob@example.com", mate)
	_, err = svc.Create(ctx, bob, &review.CreateRequest{Rating: 2, Comment: "meh", ProductID: mate.ID, OrderID: o2.ID})
	require.NoError(t, err)
	p = reload(t, db, mate.ID)
	assert.Equal(t, 3.5, p.AverageRating)
	assert.Equal(t, 2, p.TotalReviews)

	_, err = svc.Update(ctx, bob, created.ID, &review.UpdateRequest{Comment: ptr("hijack")})
	assert.Equal(t, 403, apperror.HTTPStatus(err))

	_, err = svc.Update(ctx, ana, created.ID, &review.UpdateRequest{Rating: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, reload(t, db, mate.ID).AverageRating)

	require.NoError(t, svc.Delete(ctx, ana, created.ID))
	p = reload(t, db, mate.ID)
	assert.Equal(t, 2.0, p.AverageRating)
	assert.Equal(t, 1, p.TotalReviews)

	list, err := svc.List(ctx, &review.ListRequest{ProductID: mate.ID})
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, uint(8), list.Reviews[0].UserID)
}

func ptr[T any](v T) *T { return &v }
