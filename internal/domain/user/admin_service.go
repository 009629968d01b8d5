// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AdminService handles user management for administrators
type AdminService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB, logger logrus.FieldLogger) *AdminService {
	return &AdminService{db: db, logger: logger}
}

// ListRequest represents user list query parameters
type ListRequest struct {
	Search string `form:"search"`
	Role   string `form:"role"`
}

// UpdateRequest holds the fields an admin may change. Nil fields are kept.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// List returns users newest first, filtered by a name/email search and role
func (s *AdminService) List(ctx context.Context, req *ListRequest) ([]User, error) {
	query := s.db.WithContext(ctx).Model(&User{})

	if search := strings.TrimSpace(req.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if req.Role != "" && req.Role != "all" {
		if !ValidRole(req.Role) {
			return nil, apperror.Validation("unknown role %q", req.Role)
		}
		query = query.Where("role = ?", req.Role)
	}

	var users []User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return users, nil
}

// Get retrieves a single user by ID
func (s *AdminService) Get(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to retrieve user %d: %w", id, err)
	}
	return &u, nil
}

// Update changes name, phone, role or active flag
func (s *AdminService) Update(ctx context.Context, id uint, req *UpdateRequest) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		if !ValidRole(*req.Role) {
			return nil, apperror.Validation("role must be user, seller or admin")
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "fields": len(updates)}).Info("user updated by admin")
	return s.Get(ctx, id)
}

// Delete soft-deletes a user
func (s *AdminService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}
