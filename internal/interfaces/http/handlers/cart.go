// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// CartService is the cart behaviour the handlers need.
type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, req *cart.ItemRequest) (*cart.Cart, error)
	UpdateItem(ctx context.Context, req *cart.ItemRequest) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID string, productID uint) (*cart.Cart, error)
	Calculate(ctx context.Context, req *cart.CalculateRequest) (*cart.Calculation, error)
}

// Checkouter places orders.
type Checkouter interface {
	Checkout(ctx context.Context, req *checkout.Request) (*order.Order, error)
}

// CartHandler handles cart endpoints
type CartHandler struct {
	carts    CartService
	checkout Checkouter
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService, checkout Checkouter) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout}
}

// cartCheckoutRequest is the body of POST /cart/checkout
type cartCheckoutRequest struct {
	UserID        string              `json:"userId"`
	Customer      order.Customer      `json:"customer"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod"`
	Notes         string              `json:"notes"`
	ShippingInfo  *order.ShippingInfo `json:"shippingInfo"`
	CouponCode    string              `json:"couponCode"`
}

// GetCart handles GET /cart?userId=
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		response.Error(c, apperror.Validation("userId is required"))
		return
	}

	result, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart retrieved successfully", result)
}

// AddItem handles POST /cart
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cart.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.carts.AddItem(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item added to cart", result)
}

// UpdateItem handles PUT /cart
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req cart.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.carts.UpdateItem(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated", result)
}

// RemoveItem handles DELETE /cart?userId=&productId=. Without productId the
// whole cart is emptied.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		response.Error(c, apperror.Validation("userId is required"))
		return
	}
	productID, err := optionalUintQuery(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.carts.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Item removed from cart"
	if productID == 0 {
		message = "Cart cleared"
	}
	response.OK(c, message, result)
}

// Calculate handles POST /cart/calculate
func (h *CartHandler) Calculate(c *gin.Context) {
	var req cart.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.carts.Calculate(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart total calculated", result)
}

// Checkout handles POST /cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	var body cartCheckoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	placed, err := h.checkout.Checkout(c.Request.Context(), &checkout.Request{
		Source:        checkout.SourceCart,
		UserID:        body.UserID,
		Customer:      body.Customer,
		PaymentMethod: body.PaymentMethod,
		Notes:         body.Notes,
		ShippingInfo:  body.ShippingInfo,
		CouponCode:    body.CouponCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order created successfully", placed)
}
