// internal/domain/review/service.go
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles review business logic
type Service struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewService creates a new review service
func NewService(db *gorm.DB, logger logrus.FieldLogger) *Service {
	return &Service{db: db, logger: logger}
}

// ListRequest represents review list query parameters
type ListRequest struct {
	ProductID uint `form:"productId"`
	UserID    uint `form:"userId"`
	Page      int  `form:"page,default=1"`
	Limit     int  `form:"limit,default=10"`
}

// ListResponse represents a page of reviews
type ListResponse struct {
	Reviews    []Review           `json:"reviews"`
	Pagination product.Pagination `json:"pagination"`
}

// CreateRequest represents review creation data
type CreateRequest struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	ProductID uint   `json:"productId"`
	OrderID   uint   `json:"orderId"`
}

// UpdateRequest represents review update data
type UpdateRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// List retrieves reviews newest first
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Page, req.Limit = product.NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Review{})
	if req.ProductID != 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []Review
	err := query.Order("created_at DESC, id DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	return &ListResponse{
		Reviews:    reviews,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// Get retrieves a review by ID
func (s *Service) Get(ctx context.Context, id uint) (*Review, error) {
	return find(ctx, s.db, id)
}

// Create records a review for a product the caller bought in the named order
func (s *Service) Create(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	switch {
	case req.ProductID == 0 || req.OrderID == 0 || req.Comment == "":
		return nil, apperror.Validation("rating, comment, productId and orderId are required")
	case !validRating(req.Rating):
		return nil, apperror.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}

	var created Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := order.NewStore(tx).FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if !placedBy(o, actor) {
			return apperror.Forbidden("you cannot review products from another customer's order")
		}

		bought, err := order.NewStore(tx).ContainsProduct(ctx, req.OrderID, req.ProductID)
		if err != nil {
			return err
		}
		if !bought {
			return apperror.Forbidden(fmt.Sprintf("product %d is not part of order %d", req.ProductID, req.OrderID))
		}

		var dup int64
		if err := tx.Model(&Review{}).Where("user_id = ? AND product_id = ?", actor.UserID, req.ProductID).Count(&dup).Error; err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if dup > 0 {
			return apperror.Conflict("you have already reviewed this product")
		}

		p, err := product.NewStore(tx).FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		created = Review{
			Rating:             req.Rating,
			Comment:            req.Comment,
			UserID:             actor.UserID,
			UserName:           actor.Name,
			ProductID:          p.ID,
			OrderID:            o.ID,
			OwnerID:            p.OwnerID,
			IsVerifiedPurchase: true,
		}
		if err := tx.Create(&created).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return apperror.Conflict("you have already reviewed this product")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return refreshRating(ctx, tx, p.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":  created.ID,
		"product_id": created.ProductID,
		"rating":     created.Rating,
	}).Info("review created")
	return &created, nil
}

// Update changes rating or comment of the caller's own review
func (s *Service) Update(ctx context.Context, actor auth.Principal, id uint, req *UpdateRequest) (*Review, error) {
	if req.Rating != nil && !validRating(*req.Rating) {
		return nil, apperror.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}

	var updated *Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := find(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.UserID != actor.UserID {
			return apperror.Forbidden("you cannot edit this review")
		}

		if req.Rating != nil {
			r.Rating = *req.Rating
		}
		if req.Comment != nil {
			if c := strings.TrimSpace(*req.Comment); c != "" {
				r.Comment = c
			}
		}
		if err := tx.Save(r).Error; err != nil {
			return fmt.Errorf("failed to update review %d: %w", id, err)
		}
		updated = r
		return refreshRating(ctx, tx, r.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the caller's own review
func (s *Service) Delete(ctx context.Context, actor auth.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := find(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.UserID != actor.UserID {
			return apperror.Forbidden("you cannot delete this review")
		}
		if err := tx.Delete(r).Error; err != nil {
			return fmt.Errorf("failed to delete review %d: %w", id, err)
		}
		return refreshRating(ctx, tx, r.ProductID)
	})
}

func find(ctx context.Context, db *gorm.DB, id uint) (*Review, error) {
	var r Review
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("failed to retrieve review %d: %w", id, err)
	}
	return &r, nil
}

// refreshRating recomputes a product's average and count from its reviews.
func refreshRating(ctx context.Context, tx *gorm.DB, productID uint) error {
	var agg struct {
		Total int64
		Sum   int64
	}
	err := tx.WithContext(ctx).
		Model(&Review{}).
		Select("COUNT(*) AS total, COALESCE(SUM(rating), 0) AS sum").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings for product %d: %w", productID, err)
	}
	return product.NewStore(tx).UpdateRating(ctx, productID, AverageRating(agg.Sum, agg.Total), int(agg.Total))
}
