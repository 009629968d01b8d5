package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

func ptr[T any](v T) *T { return &v }

func pendingOrder() *Order {
	return &Order{
		ID:            7,
		OrderNumber:   "ORD-20260115-0007",
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		ShippingInfo:  ShippingInfo{Carrier: "Andreani", ShippingCost: 800},
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func TestApply_StatusChangeAppendsHistory(t *testing.T) {
	o := pendingOrder()
	at := time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC)

	change, err := o.Apply(&UpdateRequest{Status: ptr(OrderStatusConfirmed)}, at)
	require.NoError(t, err)

	assert.Equal(t, OrderStatusConfirmed, o.Status)
	require.NotNil(t, change.History)
	assert.Equal(t, DefaultUpdatedBy, change.History.UpdatedBy)
	assert.Equal(t, "Status changed from pending to confirmed", change.History.Note)
	assert.Equal(t, at, change.History.CreatedAt)
	assert.Equal(t, uint(7), change.History.OrderID)
	assert.False(t, change.Restock)
	assert.True(t, change.StatusChanged(o))
}

func TestApply_SameStatusRecordsNothing(t *testing.T) {
	o := pendingOrder()

	change, err := o.Apply(&UpdateRequest{Status: ptr(OrderStatusPending), Notes: ptr("call first")}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, change.History)
	assert.False(t, change.StatusChanged(o))
	assert.Equal(t, "call first", o.Notes)
}

func TestApply_CancelRequestsRestock(t *testing.T) {
	o := pendingOrder()

	change, err := o.Apply(&UpdateRequest{
		Status:    ptr(OrderStatusCancelled),
		UpdatedBy: "ops@example.com",
		Note:      "customer asked",
	}, time.Now())
	require.NoError(t, err)
	assert.True(t, change.Restock)
	assert.Equal(t, "ops@example.com", change.History.UpdatedBy)
	assert.Equal(t, "customer asked", change.History.Note)
}

func TestApply_CancelledOrdersStayCancelled(t *testing.T) {
	o := pendingOrder()
	o.Status = OrderStatusCancelled

	_, err := o.Apply(&UpdateRequest{Status: ptr(OrderStatusPending)}, time.Now())
	var validation *apperror.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, OrderStatusCancelled, o.Status)

	change, err := o.Apply(&UpdateRequest{PaymentStatus: ptr(PaymentStatusRefunded)}, time.Now())
	require.NoError(t, err)
	assert.False(t, change.Restock)
	assert.Equal(t, PaymentStatusRefunded, o.PaymentStatus)
	assert.True(t, change.StatusChanged(o))
}

func TestApply_MergesShippingInfo(t *testing.T) {
	o := pendingOrder()
	eta := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	_, err := o.Apply(&UpdateRequest{ShippingInfo: &ShippingInfoPatch{
		TrackingNumber:    ptr("AR123"),
		EstimatedDelivery: &eta,
	}}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Andreani", o.ShippingInfo.Carrier)
	assert.Equal(t, "AR123", o.ShippingInfo.TrackingNumber)
	assert.Equal(t, int64(800), o.ShippingInfo.ShippingCost)
	require.NotNil(t, o.ShippingInfo.EstimatedDelivery)
	assert.True(t, eta.Equal(*o.ShippingInfo.EstimatedDelivery))
}

func TestApply_ShippingCostChangeKeepsTotalConsistent(t *testing.T) {
	o := pendingOrder()
	o.Subtotal = 10000
	o.Discount = 1000
	o.Total = 9800

	_, err := o.Apply(&UpdateRequest{ShippingInfo: &ShippingInfoPatch{ShippingCost: ptr(int64(1500))}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1500), o.ShippingInfo.ShippingCost)
	assert.Equal(t, o.Subtotal+o.ShippingInfo.ShippingCost-o.Discount, o.Total)
	assert.Equal(t, int64(10500), o.Total)

	_, err = o.Apply(&UpdateRequest{ShippingInfo: &ShippingInfoPatch{ShippingCost: ptr(int64(0))}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(9000), o.Total)
}

func TestApply_TotalFloorsAtZero(t *testing.T) {
	o := pendingOrder()
	o.Subtotal = 500
	o.Discount = 2000
	o.Total = 0

	_, err := o.Apply(&UpdateRequest{ShippingInfo: &ShippingInfoPatch{ShippingCost: ptr(int64(100))}}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, o.Total)
}

func TestApply_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		req  *UpdateRequest
	}{
		{"status", &UpdateRequest{Status: ptr(OrderStatus("lost"))}},
		{"payment status", &UpdateRequest{PaymentStatus: ptr(PaymentStatus("maybe"))}},
		{"negative shipping", &UpdateRequest{ShippingInfo: &ShippingInfoPatch{ShippingCost: ptr(int64(-5))}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder()
			_, err := o.Apply(tt.req, time.Now())
			assert.Equal(t, 400, apperror.HTTPStatus(err))
			assert.Equal(t, OrderStatusPending, o.Status)
		})
	}
}

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20260304-0001", FormatOrderNumber(at, 1))
	assert.Equal(t, "ORD-20260304-12345", FormatOrderNumber(at, 12345))
}

func TestNewCreatedEvent(t *testing.T) {
	o := pendingOrder()
	o.Customer.Email = "ana@example.com"
	o.Total = 900

	evt := NewCreatedEvent(o)
	assert.Equal(t, 3, evt.ItemCount)
	assert.Equal(t, "ana@example.com", evt.CustomerEmail)
	assert.Equal(t, int64(900), evt.Total)
}
