// internal/domain/order/entity.go
package order

import (
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// OrderStatus represents the delivery status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRejected, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodMercadoPago  PaymentMethod = "mercado_pago"
)

// Canonical lowercases m and accepts hyphenated spellings such as
// "bank-transfer" for "bank_transfer".
func (m PaymentMethod) Canonical() PaymentMethod {
	return PaymentMethod(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(m))), "-", "_"))
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer,
		PaymentMethodPayPal, PaymentMethodMercadoPago:
		return true
	}
	return false
}

// Order represents the order entity. Everything except status, payment
// status, notes and shipping info is fixed at creation.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"orderNumber"`
	UserID        string        `gorm:"size:255;index" json:"userId"`
	Customer      Customer      `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Subtotal      int64         `gorm:"not null" json:"subtotal"` // In cents
	Discount      int64         `gorm:"not null;default:0" json:"discount"`
	CouponCode    string        `gorm:"size:50" json:"couponCode,omitempty"`
	Total         int64         `gorm:"not null;check:total >= 0" json:"total"`
	Status        OrderStatus   `gorm:"not null;size:20;default:'pending';index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:20" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;default:'pending'" json:"paymentStatus"`
	ShippingInfo  ShippingInfo  `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingInfo"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes    string        `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"statusHistory"`
}

// Customer is the contact and delivery address captured with the order
type Customer struct {
	Name    string  `gorm:"size:255" json:"name"`
	Email   string  `gorm:"size:255;index" json:"email"`
	Phone   string  `gorm:"size:50" json:"phone"`
	Address Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
}

// Address represents the shipping address (embedded in Customer)
type Address struct {
	Street     string `gorm:"size:255" json:"street"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state,omitempty"`
	PostalCode string `gorm:"size:20" json:"postalCode,omitempty"`
	Country    string `gorm:"size:100" json:"country"`
}

// ShippingInfo carries carrier metadata and the shipping cost charged
type ShippingInfo struct {
	Carrier           string     `gorm:"size:100" json:"carrier,omitempty"`
	TrackingNumber    string     `gorm:"size:100" json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippingCost      int64      `gorm:"default:0" json:"shippingCost"`
}

// OrderItem is a permanent snapshot of a purchased product
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;index" json:"-"`
	ProductID  uint   `gorm:"not null;index" json:"productId"`
	Name       string `gorm:"not null;size:255" json:"name"`
	Price      int64  `gorm:"not null" json:"price"` // Unit price in cents at purchase time
	Quantity   int    `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Subtotal   int64  `gorm:"not null" json:"subtotal"`
	Image      string `gorm:"size:500" json:"image"`
	OwnerID    *uint  `gorm:"index" json:"ownerId"`
	IsOfficial bool   `gorm:"default:false" json:"isOfficial"`
	Position   int    `gorm:"not null;default:0" json:"-"`

	Product        *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	ProductSummary *product.Summary `gorm:"-" json:"product,omitempty"`
}

// OrderStatusHistory is an append-only log of status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"-"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Note      string      `gorm:"type:text" json:"note,omitempty"`
	UpdatedBy string      `gorm:"size:255" json:"updatedBy"`
	CreatedAt time.Time   `json:"timestamp"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// ItemsSubtotal sums the line subtotals.
func (o *Order) ItemsSubtotal() int64 {
	var sum int64
	for _, item := range o.Items {
		sum += item.Subtotal
	}
	return sum
}

// IsCancelled reports whether the order has been cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// AddStatusHistory appends a status change to history
func (o *Order) AddStatusHistory(status OrderStatus, note, updatedBy string, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Note:      note,
		UpdatedBy: updatedBy,
		CreatedAt: at,
	})
}

// ResolveProducts fills the display projection of each line from its
// preloaded product.
func (o *Order) ResolveProducts() {
	for i := range o.Items {
		if p := o.Items[i].Product; p != nil {
			o.Items[i].ProductSummary = p.Summary()
		}
	}
}

// preloadDetails loads lines in purchase order, their products (deleted ones
// included) and the status history.
func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
}
