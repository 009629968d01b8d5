// internal/domain/review/entity.go
package review

import (
	"math"
	"strconv"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a verified-purchase rating of a product. A user reviews a
// product at most once.
type Review struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Rating             int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment            string    `gorm:"type:text;not null" json:"comment"`
	UserID             uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"userId"`
	UserName           string    `gorm:"size:255" json:"userName"`
	ProductID          uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product;index" json:"productId"`
	OrderID            uint      `gorm:"not null;index" json:"orderId"`
	OwnerID            *uint     `gorm:"index" json:"ownerId"`
	IsVerifiedPurchase bool      `gorm:"default:true" json:"isVerifiedPurchase"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// AverageRating rounds sum/count to one decimal. Zero reviews average 0.
func AverageRating(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

func validRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// placedBy reports whether the order was placed by p. Orders carry the
// caller's account id or, for guest-style checkouts, their email.
func placedBy(o *order.Order, p auth.Principal) bool {
	return o.UserID == strconv.FormatUint(uint64(p.UserID), 10) ||
		(p.Email != "" && o.UserID == p.Email) ||
		(p.Email != "" && o.Customer.Email == p.Email)
}
