package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceName is the Postgres sequence backing order numbers.
const SequenceName = "order_number_seq"

// Store is the GORM-backed order store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Count returns how many orders exist.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// NextSequence draws the next order number sequence value. Values are never
// handed out twice, even when the drawing transaction rolls back.
func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.WithContext(ctx).Raw("SELECT nextval('" + SequenceName + "')").Scan(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to draw order sequence: %w", err)
	}
	return seq, nil
}

// Insert persists an order with its items and history.
func (s *Store) Insert(ctx context.Context, o *Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		if apperror.IsUniqueViolation(err) {
			return apperror.Conflict("order number %s already exists", o.OrderNumber)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// FindByID loads an order with items, resolved products and history.
func (s *Store) FindByID(ctx context.Context, id uint) (*Order, error) {
	var o Order
	if err := preloadDetails(s.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	o.ResolveProducts()
	return &o, nil
}

// FindForUpdate loads an order with its items under a row lock.
func (s *Store) FindForUpdate(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	if err := s.db.WithContext(ctx).Where("order_id = ?", id).Order("position ASC, id ASC").Find(&o.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items of order %d: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus writes the mutable columns of o and appends entry to the
// status history when it is non-nil.
func (s *Store) UpdateStatus(ctx context.Context, o *Order, entry *OrderStatusHistory) error {
	db := s.db.WithContext(ctx)

	err := db.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"status":                      o.Status,
		"payment_status":              o.PaymentStatus,
		"notes":                       o.Notes,
		"admin_notes":                 o.AdminNotes,
		"shipping_carrier":            o.ShippingInfo.Carrier,
		"shipping_tracking_number":    o.ShippingInfo.TrackingNumber,
		"shipping_estimated_delivery": o.ShippingInfo.EstimatedDelivery,
		"shipping_shipping_cost":      o.ShippingInfo.ShippingCost,
		"total":                       o.Total,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}

	if entry != nil {
		entry.OrderID = o.ID
		if err := db.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append status history for order %d: %w", o.ID, err)
		}
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status string
	UserID string
	Offset int
	Limit  int
}

// List returns a page of orders, newest first, and the total matching count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&Order{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := preloadDetails(query).
		Order("created_at DESC, id DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	for i := range orders {
		orders[i].ResolveProducts()
	}
	return orders, total, nil
}

// Delete removes an order and, by cascade, its items and history.
func (s *Store) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Order{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("order", id)
	}
	return nil
}

// ContainsProduct reports whether the order has a line for productID.
func (s *Store) ContainsProduct(ctx context.Context, orderID, productID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&OrderItem{}).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order items: %w", err)
	}
	return n > 0, nil
}
