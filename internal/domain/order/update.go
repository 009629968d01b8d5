package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// DefaultUpdatedBy is recorded in the status history when the caller does
// not name who made a change.
const DefaultUpdatedBy = "admin"

// UpdateRequest carries the mutable fields of an order. Nil fields are left
// as they are.
type UpdateRequest struct {
	Status        *OrderStatus       `json:"status"`
	PaymentStatus *PaymentStatus     `json:"paymentStatus"`
	Notes         *string            `json:"notes"`
	AdminNotes    *string            `json:"adminNotes"`
	ShippingInfo  *ShippingInfoPatch `json:"shippingInfo"`
	UpdatedBy     string             `json:"updatedBy"`
	Note          string             `json:"note"`
}

// ShippingInfoPatch is merged into the stored shipping info field by field.
type ShippingInfoPatch struct {
	Carrier           *string    `json:"carrier"`
	TrackingNumber    *string    `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	ShippingCost      *int64     `json:"shippingCost"`
}

// Change describes what Apply did to an order.
type Change struct {
	PreviousStatus        OrderStatus
	PreviousPaymentStatus PaymentStatus
	History               *OrderStatusHistory
	// Restock is set when the order just moved to cancelled and its lines
	// must go back to stock.
	Restock bool
}

// StatusChanged reports whether the delivery or payment status moved.
func (c *Change) StatusChanged(o *Order) bool {
	return c.PreviousStatus != o.Status || c.PreviousPaymentStatus != o.PaymentStatus
}

// Apply validates req and applies it to o in memory.
func (o *Order) Apply(req *UpdateRequest, at time.Time) (*Change, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	change := &Change{PreviousStatus: o.Status, PreviousPaymentStatus: o.PaymentStatus}

	if req.Status != nil && *req.Status != o.Status {
		if o.IsCancelled() {
			return nil, apperror.Validation("order %s is cancelled and cannot move to %s", o.OrderNumber, *req.Status)
		}

		updatedBy := strings.TrimSpace(req.UpdatedBy)
		if updatedBy == "" {
			updatedBy = DefaultUpdatedBy
		}
		note := strings.TrimSpace(req.Note)
		if note == "" {
			note = fmt.Sprintf("Status changed from %s to %s", o.Status, *req.Status)
		}

		o.Status = *req.Status
		change.History = &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    o.Status,
			Note:      note,
			UpdatedBy: updatedBy,
			CreatedAt: at,
		}
		change.Restock = o.Status == OrderStatusCancelled
	}

	if req.PaymentStatus != nil {
		o.PaymentStatus = *req.PaymentStatus
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}
	if req.AdminNotes != nil {
		o.AdminNotes = *req.AdminNotes
	}
	if p := req.ShippingInfo; p != nil {
		if p.Carrier != nil {
			o.ShippingInfo.Carrier = *p.Carrier
		}
		if p.TrackingNumber != nil {
			o.ShippingInfo.TrackingNumber = *p.TrackingNumber
		}
		if p.EstimatedDelivery != nil {
			o.ShippingInfo.EstimatedDelivery = p.EstimatedDelivery
		}
		if p.ShippingCost != nil && *p.ShippingCost != o.ShippingInfo.ShippingCost {
			o.ShippingInfo.ShippingCost = *p.ShippingCost
			o.recalculateTotal()
		}
	}

	o.UpdatedAt = at
	return change, nil
}

// recalculateTotal keeps total equal to subtotal plus shipping minus
// discount, floored at zero.
func (o *Order) recalculateTotal() {
	o.Total = o.Subtotal + o.ShippingInfo.ShippingCost - o.Discount
	if o.Total < 0 {
		o.Total = 0
	}
}

func (r *UpdateRequest) validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return apperror.Validation("status must be one of pending, confirmed, preparing, shipped, delivered, cancelled")
	}
	if r.PaymentStatus != nil && !r.PaymentStatus.Valid() {
		return apperror.Validation("paymentStatus must be one of pending, paid, rejected, refunded")
	}
	if r.ShippingInfo != nil && r.ShippingInfo.ShippingCost != nil && *r.ShippingInfo.ShippingCost < 0 {
		return apperror.Validation("shipping cost cannot be negative")
	}
	return nil
}
