// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// User represents the user entity
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Email       string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	Phone       string         `gorm:"size:50" json:"phone"`
	Role        string         `gorm:"not null;size:20;default:'user';index" json:"role"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`
	LastLoginAt *time.Time     `json:"lastLoginAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = auth.RoleUser
	}
	return nil
}

// Principal is the identity carried in this user's tokens.
func (u *User) Principal() auth.Principal {
	return auth.Principal{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	}
}

// GetDisplayName returns display name (name or email)
func (u *User) GetDisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role can be stored on a user.
func ValidRole(role string) bool {
	switch role {
	case auth.RoleUser, auth.RoleSeller, auth.RoleAdmin:
		return true
	}
	return false
}
