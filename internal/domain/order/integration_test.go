package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres/pgtest"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func placeOrder(t *testing.T, db *gorm.DB, userID string, lines map[*product.Product]int) *order.Order {
	t.Helper()
	ctx := context.Background()
	store := order.NewStore(db)

	seq, err := store.NextSequence(ctx)
	require.NoError(t, err)

	now := time.Now().UTC()
	o := &order.Order{
		OrderNumber:   order.FormatOrderNumber(now, seq),
		UserID:        userID,
		Customer:      order.Customer{Name: "Ana", Email: "ana@example.com", Phone: "1", Address: order.Address{Street: "s", City: "c", Country: "AR"}},
		Status:        order.OrderStatusPending,
		PaymentMethod: order.PaymentMethodCash,
		PaymentStatus: order.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	pos := 0
	for p, qty := range lines {
		o.Items = append(o.Items, order.OrderItem{
			ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty,
			Subtotal: p.Price * int64(qty), Position: pos,
		})
		o.Subtotal += p.Price * int64(qty)
		pos++
	}
	o.Total = o.Subtotal
	o.AddStatusHistory(order.OrderStatusPending, "Order created", "system", now)
	require.NoError(t, store.Insert(ctx, o))
	return o
}

func newProduct(t *testing.T, db *gorm.DB, name string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{Name: name, Price: 1000, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, db.Unscoped().First(&p, id).Error)
	return p.Stock
}

func TestService_UpdateCancelRestocks(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := order.NewService(db, "orders", pgtest.Logger())

	a := newProduct(t, db, "a", 3)
	b := newProduct(t, db, "b", 0)
	o := placeOrder(t, db, "ana@example.com", map[*product.Product]int{a: 2, b: 1})

	// Soft-deleted products are still restocked.
	require.NoError(t, db.Delete(&product.Product{}, b.ID).Error)

	updated, err := svc.Update(ctx, o.ID, &order.UpdateRequest{
		Status:    ptr(order.OrderStatusCancelled),
		UpdatedBy: "ops",
	})
	require.NoError(t, err)

	assert.Equal(t, order.OrderStatusCancelled, updated.Status)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, "ops", updated.StatusHistory[1].UpdatedBy)
	assert.Equal(t, 5, stockOf(t, db, a.ID))
	assert.Equal(t, 1, stockOf(t, db, b.ID))

	pending, err := outbox.NewStore(db).FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, order.EventOrderStatusChanged, pending[0].EventType)

	_, err = svc.Update(ctx, o.ID, &order.UpdateRequest{Status: ptr(order.OrderStatusPending)})
	assert.Equal(t, 400, apperror.HTTPStatus(err))
	assert.Equal(t, 5, stockOf(t, db, a.ID))
}

func TestService_UpdateShippingWithoutStatusChange(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := order.NewService(db, "orders", pgtest.Logger())

	p := newProduct(t, db, "p", 5)
	o := placeOrder(t, db, "ana@example.com", map[*product.Product]int{p: 1})

	updated, err := svc.Update(ctx, o.ID, &order.UpdateRequest{
		ShippingInfo: &order.ShippingInfoPatch{Carrier: ptr("Correo"), TrackingNumber: ptr("TN1")},
		AdminNotes:   ptr("fragile"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Correo", updated.ShippingInfo.Carrier)
	assert.Equal(t, "TN1", updated.ShippingInfo.TrackingNumber)
	assert.Equal(t, "fragile", updated.AdminNotes)
	assert.Len(t, updated.StatusHistory, 1)

	pending, err := outbox.NewStore(db).FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestService_UpdateShippingCostPersistsTotal(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := order.NewService(db, "orders", pgtest.Logger())

	p := newProduct(t, db, "p", 5)
	o := placeOrder(t, db, "ana@example.com", map[*product.Product]int{p: 2})

	_, err := svc.Update(ctx, o.ID, &order.UpdateRequest{
		ShippingInfo: &order.ShippingInfoPatch{ShippingCost: ptr(int64(700))},
	})
	require.NoError(t, err)

	var stored order.Order
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, int64(700), stored.ShippingInfo.ShippingCost)
	assert.Equal(t, int64(2700), stored.Total)
}

func TestService_ListAndDelete(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	svc := order.NewService(db, "orders", pgtest.Logger())

	p := newProduct(t, db, "p", 50)
	first := placeOrder(t, db, "ana@example.com", map[*product.Product]int{p: 1})
	placeOrder(t, db, "bob@example.com", map[*product.Product]int{p: 1})
	last := placeOrder(t, db, "ana@example.com", map[*product.Product]int{p: 2})

	page, err := svc.List(ctx, &order.ListRequest{Page: 1, Limit: 10, UserID: "ana@example.com"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, last.ID, page.Orders[0].ID)
	assert.Equal(t, int64(2), page.Pagination.Total)
	require.NotNil(t, page.Orders[0].Items[0].ProductSummary)

	_, err = svc.List(ctx, &order.ListRequest{Status: "lost"})
	assert.Equal(t, 400, apperror.HTTPStatus(err))

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Get(ctx, first.ID)
	assert.Equal(t, 404, apperror.HTTPStatus(err))
	assert.Equal(t, 404, apperror.HTTPStatus(svc.Delete(ctx, first.ID)))

	var items int64
	require.NoError(t, db.Model(&order.OrderItem{}).Where("order_id = ?", first.ID).Count(&items).Error)
	assert.Zero(t, items)
	assert.Equal(t, 50, stockOf(t, db, p.ID))
}
