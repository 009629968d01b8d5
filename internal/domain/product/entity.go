// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product represents a catalog entry. Stock is only ever decremented through
// Store.DecrementStock.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null" json:"price"` // Price in cents
	Stock         int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category      string         `gorm:"size:100;index" json:"category"`
	Images        pq.StringArray `gorm:"type:text[]" json:"images"`
	OwnerID       *uint          `gorm:"index" json:"ownerId"`
	OwnerName     string         `gorm:"size:255" json:"ownerName"`
	IsOfficial    bool           `gorm:"default:false;index" json:"isOfficial"`
	IsActive      bool           `gorm:"default:true" json:"isActive"`
	AverageRating float64        `gorm:"default:0" json:"averageRating"`
	TotalReviews  int            `gorm:"default:0" json:"totalReviews"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// PrimaryImage returns the first image URL or an empty string.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// InStock reports whether qty units can be taken.
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// Summary is the display projection embedded in order and cart responses.
type Summary struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      pq.StringArray `json:"images"`
}

func (p *Product) Summary() *Summary {
	return &Summary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
	}
}
