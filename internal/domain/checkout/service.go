// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Source tells where the items of a checkout come from.
type Source string

const (
	SourceCart   Source = "cart"
	SourceDirect Source = "direct"
)

// Item is one explicitly requested product.
type Item struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// Request is the input to Checkout. For SourceCart, Items is ignored and the
// named user's cart is used.
type Request struct {
	Source        Source
	UserID        string
	Items         []Item
	Customer      order.Customer
	PaymentMethod order.PaymentMethod
	Notes         string
	ShippingInfo  *order.ShippingInfo
	CouponCode    string
}

// CartInvalidator evicts cached carts once a checkout has emptied them.
type CartInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Service turns carts or item lists into orders.
type Service struct {
	uow       UnitOfWork
	evaluator *pricing.Evaluator
	carts     CartInvalidator
	topic     string
	cartTTL   time.Duration
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	now       func() time.Time
}

// Options configures a Service.
type Options struct {
	OrdersTopic string
	CartTTL     time.Duration
	Metrics     *metrics.Metrics
	Logger      logrus.FieldLogger
}

func NewService(uow UnitOfWork, evaluator *pricing.Evaluator, carts CartInvalidator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		uow:       uow,
		evaluator: evaluator,
		carts:     carts,
		topic:     opts.OrdersTopic,
		cartTTL:   opts.CartTTL,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout validates the request, reserves stock, prices and persists the
// order and empties the cart, all in one transaction. On error nothing is
// written.
func (s *Service) Checkout(ctx context.Context, req *Request) (*order.Order, error) {
	start := s.now()
	o, err := s.checkout(ctx, req)
	took := s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.ObserveCheckout(string(req.Source), outcome(err), took)
	}

	log := s.logger.WithFields(logrus.Fields{
		"source":  req.Source,
		"user_id": req.UserID,
		"took_ms": took.Milliseconds(),
	})
	if err != nil {
		if apperror.IsClientError(err) {
			log.WithError(err).Info("checkout rejected")
		} else {
			log.WithError(err).Error("checkout failed")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"total":        o.Total,
	}).Info("order created")
	return o, nil
}

func (s *Service) checkout(ctx context.Context, req *Request) (*order.Order, error) {
	normalize(req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var created *order.Order
	err := s.uow.Do(ctx, func(ctx context.Context, st Stores) error {
		items := req.Items

		var c *cart.Cart
		if req.Source == SourceCart {
			var err error
			if c, err = st.Carts.FindByUser(ctx, req.UserID); err != nil {
				return err
			}
			if c.IsEmpty() {
				return apperror.Validation("cart is empty")
			}
			items = itemsFromCart(c)
		}

		lines, err := reserve(ctx, st.Catalog, items)
		if err != nil {
			return err
		}

		o, err := s.buildOrder(ctx, st.Orders, req, lines)
		if err != nil {
			return err
		}
		if err := st.Orders.Insert(ctx, o); err != nil {
			return err
		}

		if c != nil {
			if err := st.Carts.ReplaceItems(ctx, c, []cart.CartItem{}, s.now().UTC().Add(s.cartTTL)); err != nil {
				return err
			}
		}

		evt, err := outbox.NewEvent(s.topic, order.EventOrderCreated, o.OrderNumber, order.NewCreatedEvent(o))
		if err != nil {
			return err
		}
		if err := st.Events.Append(ctx, evt); err != nil {
			return err
		}

		created, err = st.Orders.FindByID(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	if req.Source == SourceCart && s.carts != nil {
		s.carts.Invalidate(ctx, req.UserID)
	}
	return created, nil
}

// reserve checks and decrements stock for every item and returns the order
// lines in request order. Products are visited in ascending id order so
// concurrent checkouts lock rows in the same sequence.
func reserve(ctx context.Context, catalog CatalogStore, items []Item) ([]order.OrderItem, error) {
	visit := make([]int, len(items))
	for i := range visit {
		visit[i] = i
	}
	sort.SliceStable(visit, func(a, b int) bool {
		return items[visit[a]].ProductID < items[visit[b]].ProductID
	})

	lines := make([]order.OrderItem, len(items))
	for _, i := range visit {
		item := items[i]

		p, err := catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.InStock(item.Quantity) {
			return nil, stockShortage(p, item.Quantity)
		}

		if err := catalog.DecrementStock(ctx, p.ID, item.Quantity); err != nil {
			if errors.Is(err, product.ErrInsufficientStock) {
				return nil, stockShortage(p, item.Quantity)
			}
			return nil, err
		}

		lines[i] = order.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Quantity:   item.Quantity,
			Subtotal:   p.Price * int64(item.Quantity),
			Image:      p.PrimaryImage(),
			OwnerID:    p.OwnerID,
			IsOfficial: p.IsOfficial,
			Position:   i,
		}
	}
	return lines, nil
}

func (s *Service) buildOrder(ctx context.Context, orders OrderStore, req *Request, lines []order.OrderItem) (*order.Order, error) {
	subtotals := make([]int64, len(lines))
	for i, line := range lines {
		subtotals[i] = line.Subtotal
	}

	var shipping order.ShippingInfo
	if req.ShippingInfo != nil {
		shipping = *req.ShippingInfo
	}

	breakdown := s.evaluator.Calculate(pricing.Input{
		LineSubtotals: subtotals,
		ShippingCost:  shipping.ShippingCost,
		CouponCode:    req.CouponCode,
	})

	seq, err := orders.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &order.Order{
		OrderNumber:   order.FormatOrderNumber(now, seq),
		UserID:        req.UserID,
		Customer:      req.Customer,
		Subtotal:      breakdown.Subtotal,
		Discount:      breakdown.Discount,
		Total:         breakdown.Total,
		Status:        order.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: order.PaymentStatusPending,
		ShippingInfo:  shipping,
		Notes:         req.Notes,
		Items:         lines,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if breakdown.CouponApplied {
		o.CouponCode = breakdown.CouponCode
	}
	o.AddStatusHistory(order.OrderStatusPending, "Order created", "system", now)
	return o, nil
}

func itemsFromCart(c *cart.Cart) []Item {
	items := make([]Item, len(c.Items))
	for i, line := range c.Items {
		items[i] = Item{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	return items
}

func normalize(req *Request) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	req.Customer.Email = strings.ToLower(strings.TrimSpace(req.Customer.Email))
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)
	req.Customer.Address.Street = strings.TrimSpace(req.Customer.Address.Street)
	req.Customer.Address.City = strings.TrimSpace(req.Customer.Address.City)
	req.Customer.Address.Country = strings.TrimSpace(req.Customer.Address.Country)
	req.CouponCode = strings.TrimSpace(req.CouponCode)
	req.PaymentMethod = req.PaymentMethod.Canonical()

	if req.Source == SourceDirect && req.UserID == "" {
		req.UserID = req.Customer.Email
	}
}

func validate(req *Request) error {
	switch req.Source {
	case SourceCart:
		if req.UserID == "" {
			return apperror.Validation("userId is required")
		}
	case SourceDirect:
		if len(req.Items) == 0 {
			return apperror.Validation("at least one item is required")
		}
		for i, item := range req.Items {
			if item.ProductID == 0 {
				return apperror.Validation("item %d: productId is required", i+1)
			}
			if item.Quantity < 1 {
				return apperror.Validation("item %d: quantity must be at least 1", i+1)
			}
		}
	default:
		return apperror.Validation("unknown checkout source %q", req.Source)
	}

	c := req.Customer
	switch {
	case c.Name == "":
		return apperror.Validation("customer name is required")
	case c.Email == "":
		return apperror.Validation("customer email is required")
	case c.Phone == "":
		return apperror.Validation("customer phone is required")
	case c.Address.Street == "", c.Address.City == "", c.Address.Country == "":
		return apperror.Validation("shipping address requires street, city and country")
	}

	if !req.PaymentMethod.Valid() {
		return apperror.Validation("payment method must be one of cash, card, bank_transfer, paypal, mercado_pago")
	}

	if req.ShippingInfo != nil && req.ShippingInfo.ShippingCost < 0 {
		return apperror.Validation("shipping cost cannot be negative")
	}
	return nil
}

func stockShortage(p *product.Product, requested int) error {
	return &apperror.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}

// classify keeps domain errors as they are and wraps anything else as a
// transaction failure.
func classify(err error) error {
	if apperror.HTTPStatus(err) < 500 {
		return err
	}
	var txErr *apperror.TransactionError
	if errors.As(err, &txErr) {
		return err
	}
	return &apperror.TransactionError{Op: "checkout", Err: err}
}

func outcome(err error) string {
	var (
		validation   *apperror.ValidationError
		notFound     *apperror.NotFoundError
		insufficient *apperror.InsufficientStockError
		conflict     *apperror.ConflictError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &insufficient):
		return metrics.OutcomeInsufficientStock
	case errors.As(err, &validation):
		return metrics.OutcomeValidation
	case errors.As(err, &notFound):
		return metrics.OutcomeNotFound
	case errors.As(err, &conflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
