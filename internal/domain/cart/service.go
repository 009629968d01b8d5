// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db        *gorm.DB
	cache     Cache
	evaluator *pricing.Evaluator
	ttl       time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cache Cache, evaluator *pricing.Evaluator, ttl time.Duration, logger logrus.FieldLogger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		db:        db,
		cache:     cache,
		evaluator: evaluator,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// ItemRequest adds or updates a cart line
type ItemRequest struct {
	UserID    string `json:"userId"`
	ProductID uint   `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CalculateRequest asks for a pricing preview of a cart
type CalculateRequest struct {
	UserID       string `json:"userId"`
	ShippingCost int64  `json:"shippingCost"`
	Discount     int64  `json:"discount"`
	CouponCode   string `json:"couponCode"`
}

// Calculation is the preview returned by Calculate
type Calculation struct {
	UserID    string            `json:"userId"`
	Items     []CartItem        `json:"items"`
	ItemCount int               `json:"itemCount"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// Get returns the cart for userID, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.Validation("userId is required")
	}

	return s.readThrough(ctx, userID, func(store *Store) (*Cart, error) {
		return store.FindOrCreate(ctx, userID, s.expiry())
	})
}

// AddItem merges quantity into the product's line, refreshing every line
// from the catalog.
func (s *Service) AddItem(ctx context.Context, req *ItemRequest) (*Cart, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validateItemRequest(req, 1); err != nil {
		return nil, err
	}

	return s.mutate(ctx, req.UserID, true, func(c *Cart, products map[uint]*product.Product) error {
		p, ok := products[req.ProductID]
		if !ok {
			return apperror.NotFound("product", req.ProductID)
		}

		wanted := req.Quantity
		idx := c.FindItem(req.ProductID)
		if idx >= 0 {
			wanted += c.Items[idx].Quantity
		}
		if !p.InStock(wanted) {
			return stockError(p, wanted)
		}

		if idx >= 0 {
			c.Items[idx].Quantity = wanted
		} else {
			c.Items = append(c.Items, CartItem{ProductID: p.ID, Quantity: wanted})
		}
		return nil
	}, req.ProductID)
}

// UpdateItem sets a line's quantity; zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, req *ItemRequest) (*Cart, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validateItemRequest(req, 0); err != nil {
		return nil, err
	}

	return s.mutate(ctx, req.UserID, false, func(c *Cart, products map[uint]*product.Product) error {
		idx := c.FindItem(req.ProductID)
		if idx < 0 {
			return apperror.NotFound("cart item for product", req.ProductID)
		}

		if req.Quantity == 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}

		p, ok := products[req.ProductID]
		if !ok {
			return apperror.NotFound("product", req.ProductID)
		}
		if !p.InStock(req.Quantity) {
			return stockError(p, req.Quantity)
		}
		c.Items[idx].Quantity = req.Quantity
		return nil
	}, req.ProductID)
}

// RemoveItem drops one line, or every line when productID is zero.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID uint) (*Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.Validation("userId is required")
	}

	return s.mutate(ctx, userID, false, func(c *Cart, _ map[uint]*product.Product) error {
		if productID == 0 {
			c.Items = []CartItem{}
			return nil
		}
		idx := c.FindItem(productID)
		if idx < 0 {
			return apperror.NotFound("cart item for product", productID)
		}
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	})
}

// Calculate previews the cart's totals without touching it.
func (s *Service) Calculate(ctx context.Context, req *CalculateRequest) (*Calculation, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, apperror.Validation("userId is required")
	}
	if req.ShippingCost < 0 || req.Discount < 0 {
		return nil, apperror.Validation("shippingCost and discount cannot be negative")
	}

	c, err := s.load(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.NotFound("cart items", req.UserID)
	}

	breakdown := s.evaluator.Calculate(pricing.Input{
		LineSubtotals: c.LineSubtotals(),
		ShippingCost:  req.ShippingCost,
		Discount:      req.Discount,
		CouponCode:    req.CouponCode,
	})

	return &Calculation{
		UserID:    c.UserID,
		Items:     c.Items,
		ItemCount: len(c.Items),
		Breakdown: breakdown,
	}, nil
}

// PurgeExpired reclaims carts past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	store := NewStore(s.db)

	users, err := store.ExpiredUsers(ctx, now)
	if err != nil {
		return 0, err
	}
	n, err := store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, userID := range users {
		s.Invalidate(ctx, userID)
	}

	if n > 0 {
		s.logger.WithField("count", n).Info("purged expired carts")
	}
	return n, nil
}

// Invalidate evicts userID's cart from the cache. Failures are logged only.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("cart cache eviction failed")
	}
}

// mutate runs fn against the locked cart inside a transaction, then refreshes
// prices and snapshots of every line, recomputes the total and persists. The
// cached entry is evicted after commit; the next read refills it.
func (s *Service) mutate(ctx context.Context, userID string, create bool, fn func(*Cart, map[uint]*product.Product) error, extra ...uint) (*Cart, error) {
	var out *Cart

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewStore(tx)

		var (
			c   *Cart
			err error
		)
		if create {
			c, err = store.FindOrCreate(ctx, userID, s.expiry())
		} else {
			c, err = store.FindByUser(ctx, userID)
		}
		if err != nil {
			return err
		}

		products, err := loadProducts(ctx, tx, c, extra...)
		if err != nil {
			return err
		}

		if err := fn(c, products); err != nil {
			return err
		}

		items := refreshItems(c.Items, products)
		if err := store.ReplaceItems(ctx, c, items, s.expiry()); err != nil {
			return err
		}

		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, userID)
	return out, nil
}

func (s *Service) load(ctx context.Context, userID string) (*Cart, error) {
	return s.readThrough(ctx, userID, func(store *Store) (*Cart, error) {
		return store.FindByUser(ctx, userID)
	})
}

// readThrough serves userID's cart from the cache or loads it with find. The
// generation is read before the database so a fill that races an
// invalidation is rejected by the cache.
func (s *Service) readThrough(ctx context.Context, userID string, find func(*Store) (*Cart, error)) (*Cart, error) {
	log := s.logger.WithField("user_id", userID)

	if c, err := s.cache.Get(ctx, userID); err == nil {
		return c, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		log.WithError(err).Warn("cart cache read failed")
	}

	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		log.WithError(genErr).Warn("cart cache generation read failed")
	}

	c, err := find(NewStore(s.db))
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, c, gen); errors.Is(err, ErrStaleWrite) {
			log.Debug("skipped stale cart cache fill")
		} else if err != nil {
			log.WithError(err).Warn("cart cache write failed")
		}
	}
	return c, nil
}

func (s *Service) expiry() time.Time {
	return s.now().UTC().Add(s.ttl)
}

func loadProducts(ctx context.Context, tx *gorm.DB, c *Cart, extra ...uint) (map[uint]*product.Product, error) {
	ids := append([]uint{}, extra...)
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}

	out := make(map[uint]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []product.Product
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// refreshItems copies current name, price and image onto each line. Lines
// whose product no longer exists are dropped.
func refreshItems(items []CartItem, products map[uint]*product.Product) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		item.Name = p.Name
		item.Price = p.Price
		item.Image = p.PrimaryImage()
		out = append(out, item)
	}
	return out
}

func validateItemRequest(req *ItemRequest, minQty int) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return apperror.Validation("userId is required")
	case req.ProductID == 0:
		return apperror.Validation("productId is required")
	case req.Quantity < minQty:
		return apperror.Validation("quantity must be at least %d", minQty)
	}
	return nil
}

func stockError(p *product.Product, requested int) error {
	return &apperror.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}
