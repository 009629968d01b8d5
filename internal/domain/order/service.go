// internal/domain/order/service.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles order business logic after checkout
type Service struct {
	db     *gorm.DB
	topic  string
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, ordersTopic string, logger logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		topic:  ordersTopic,
		logger: logger,
		now:    time.Now,
	}
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status string `form:"status"`
	UserID string `form:"userId"`
}

// ListResponse represents a page of orders
type ListResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// List retrieves orders newest first
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Page, req.Limit = product.NormalizePage(req.Page, req.Limit)
	if req.Status != "" && !OrderStatus(req.Status).Valid() {
		return nil, apperror.Validation("unknown order status %q", req.Status)
	}

	orders, total, err := NewStore(s.db).List(ctx, ListFilter{
		Status: req.Status,
		UserID: req.UserID,
		Offset: (req.Page - 1) * req.Limit,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// Get retrieves an order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	return NewStore(s.db).FindByID(ctx, id)
}

// Update applies an admin change. A move to cancelled puts every line back
// in stock within the same transaction.
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Order, error) {
	var updated *Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := NewStore(tx)

		o, err := orders.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		change, err := o.Apply(req, now)
		if err != nil {
			return err
		}

		if change.Restock {
			catalog := product.NewStore(tx)
			for _, item := range o.Items {
				if err := catalog.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := orders.UpdateStatus(ctx, o, change.History); err != nil {
			return err
		}

		if change.StatusChanged(o) {
			updatedBy := DefaultUpdatedBy
			if change.History != nil {
				updatedBy = change.History.UpdatedBy
			} else if req.UpdatedBy != "" {
				updatedBy = req.UpdatedBy
			}
			evt, err := outbox.NewEvent(s.topic, EventOrderStatusChanged, o.OrderNumber, StatusChangedEvent{
				OrderID:        o.ID,
				OrderNumber:    o.OrderNumber,
				CustomerEmail:  o.Customer.Email,
				PreviousStatus: change.PreviousStatus,
				Status:         o.Status,
				PaymentStatus:  o.PaymentStatus,
				UpdatedBy:      updatedBy,
				ChangedAt:      now,
			})
			if err != nil {
				return err
			}
			if err := outbox.NewStore(tx).Append(ctx, evt); err != nil {
				return err
			}
		}

		updated, err = orders.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if apperror.IsClientError(err) {
			return nil, err
		}
		return nil, &apperror.TransactionError{Op: "update order", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":       updated.ID,
		"order_number":   updated.OrderNumber,
		"status":         updated.Status,
		"payment_status": updated.PaymentStatus,
	}).Info("order updated")
	return updated, nil
}

// Delete removes an order with its lines and history. Stock is not returned.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := NewStore(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("order_id", id).Info("order deleted")
	return nil
}
