// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Listing types accepted by ListRequest.Type.
const (
	TypeAll      = "all"
	TypeOfficial = "official"
	TypeSellers  = "sellers"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewService creates a new product service
func NewService(db *gorm.DB, logger logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Search string `form:"search"`
	Type   string `form:"type,default=all"`
}

// CreateRequest represents product creation data
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// UpdateRequest lists the fields a product owner may change.
type UpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	IsActive    *bool     `json:"isActive"`
}

// ListResponse represents product response with pagination
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination fills the derived fields for a page of total rows.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NormalizePage clamps page and limit to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// List retrieves products with filtering and pagination
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Page, req.Limit = NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	switch req.Type {
	case TypeOfficial:
		query = query.Where("is_official = ?", true)
	case TypeSellers:
		query = query.Where("is_official = ?", false)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?", search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ListResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// ListByOwner returns every product a user sells, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uint) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products for owner %d: %w", ownerID, err)
	}
	return products, nil
}

// Get retrieves a single product by ID
func (s *Service) Get(ctx context.Context, id uint) (*Product, error) {
	var p Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

// Create validates and stores a new product owned by the caller. Products
// created by admins are official store products.
func (s *Service) Create(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Product, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	p := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Images:      pq.StringArray(req.Images),
		IsOfficial:  actor.IsAdmin(),
		IsActive:    true,
	}
	if !actor.IsAdmin() {
		ownerID := actor.UserID
		p.OwnerID = &ownerID
		p.OwnerName = actor.Name
	}

	if err := NewStore(s.db).Save(ctx, &p); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id":  p.ID,
		"is_official": p.IsOfficial,
	}).Info("product created")

	return &p, nil
}

// Update applies allowed field changes. Only the owner or an admin may edit.
func (s *Service) Update(ctx context.Context, actor auth.Principal, id uint, req *UpdateRequest) (*Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, apperror.Forbidden("you cannot edit this product")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, apperror.Validation("price must be greater than zero")
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperror.Validation("stock cannot be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Images != nil {
		if len(*req.Images) == 0 {
			return nil, apperror.Validation("at least one image is required")
		}
		updates["images"] = pq.StringArray(*req.Images)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Delete soft deletes a product
func (s *Service) Delete(ctx context.Context, actor auth.Principal, id uint) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, p) {
		return apperror.Forbidden("you cannot delete this product")
	}

	if err := s.db.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func validateCreate(req *CreateRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return apperror.Validation("name is required")
	case req.Price <= 0:
		return apperror.Validation("price must be greater than zero")
	case req.Stock < 0:
		return apperror.Validation("stock cannot be negative")
	case len(req.Images) == 0:
		return apperror.Validation("at least one image is required")
	}
	return nil
}

func canManage(actor auth.Principal, p *Product) bool {
	if actor.IsAdmin() {
		return true
	}
	return p.OwnerID != nil && *p.OwnerID == actor.UserID
}
