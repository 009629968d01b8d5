package order

import "time"

// Event types written to the outbox.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// CreatedEvent is the payload of order.created.
type CreatedEvent struct {
	OrderID       uint          `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	UserID        string        `json:"userId"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Total         int64         `json:"total"`
	ItemCount     int           `json:"itemCount"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func NewCreatedEvent(o *Order) CreatedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return CreatedEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		ItemCount:     count,
		CreatedAt:     o.CreatedAt,
	}
}

// StatusChangedEvent is the payload of order.status_changed.
type StatusChangedEvent struct {
	OrderID        uint          `json:"orderId"`
	OrderNumber    string        `json:"orderNumber"`
	CustomerEmail  string        `json:"customerEmail"`
	PreviousStatus OrderStatus   `json:"previousStatus"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	UpdatedBy      string        `json:"updatedBy"`
	ChangedAt      time.Time     `json:"changedAt"`
}
