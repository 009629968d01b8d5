// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart is the per-user shopping cart. UserID is a free-form key: an email,
// an account id or a session id.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"uniqueIndex;not null;size:255" json:"userId"`
	Total     int64      `gorm:"not null;default:0;check:total >= 0" json:"total"` // In cents
	ExpiresAt time.Time  `gorm:"not null;index" json:"expiresAt"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is a cart line with the product snapshot taken at the last write
type CartItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	CartID    uint   `gorm:"not null;index" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"productId"`
	Name      string `gorm:"not null;size:255" json:"name"`
	Price     int64  `gorm:"not null" json:"price"`
	Quantity  int    `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Subtotal  int64  `gorm:"not null" json:"subtotal"`
	Image     string `gorm:"size:500" json:"image"`
	Position  int    `gorm:"not null;default:0" json:"-"`
}

// TableName overrides the table name
func (Cart) TableName() string {
	return "carts"
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Recalculate refreshes line subtotals, positions and the cached total.
func (c *Cart) Recalculate() {
	var total int64
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Price * int64(c.Items[i].Quantity)
		c.Items[i].Position = i
		total += c.Items[i].Subtotal
	}
	c.Total = total
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// LineSubtotals returns the subtotal of every line in order.
func (c *Cart) LineSubtotals() []int64 {
	out := make([]int64, len(c.Items))
	for i, item := range c.Items {
		out[i] = item.Subtotal
	}
	return out
}

// ItemCount is the number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
