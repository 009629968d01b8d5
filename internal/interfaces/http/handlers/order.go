// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
)

// OrderService is the order behaviour the handlers need.
type OrderService interface {
	List(ctx context.Context, req *order.ListRequest) (*order.ListResponse, error)
	Get(ctx context.Context, id uint) (*order.Order, error)
	Update(ctx context.Context, id uint, req *order.UpdateRequest) (*order.Order, error)
	Delete(ctx context.Context, id uint) error
}

// ReceiptRenderer turns an order into a printable receipt.
type ReceiptRenderer interface {
	GenerateReceipt(o *order.Order) ([]byte, error)
	RenderHTML(o *order.Order) ([]byte, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders   OrderService
	checkout Checkouter
	receipts ReceiptRenderer
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService, checkout Checkouter, receipts ReceiptRenderer) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkout, receipts: receipts}
}

// createOrderRequest is the body of POST /orders
type createOrderRequest struct {
	UserID        string              `json:"userId"`
	Items         []checkout.Item     `json:"items"`
	Customer      order.Customer      `json:"customer"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod"`
	Notes         string              `json:"notes"`
	ShippingInfo  *order.ShippingInfo `json:"shippingInfo"`
	CouponCode    string              `json:"couponCode"`
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.orders.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", result)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", o)
}

// CreateOrder handles POST /orders with an explicit item list
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err)
		return
	}

	placed, err := h.checkout.Checkout(c.Request.Context(), &checkout.Request{
		Source:        checkout.SourceDirect,
		UserID:        body.UserID,
		Items:         body.Items,
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

// UpdateOrder handles PATCH /orders/:id (admin)
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req order.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.UpdatedBy) == "" {
		if p, ok := middleware.CurrentPrincipal(c); ok {
			req.UpdatedBy = p.Email
		}
	}

	updated, err := h.orders.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order updated successfully", updated)
}

// DeleteOrder handles DELETE /orders/:id (admin)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order deleted successfully", nil)
}

// DownloadReceipt handles GET /orders/:id/receipt. ?format=html returns the
// page the PDF is printed from.
func (h *OrderHandler) DownloadReceipt(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") == "html" {
		page, err := h.receipts.RenderHTML(o)
		if err != nil {
			response.Error(c, fmt.Errorf("render receipt: %w", err))
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	pdf, err := h.receipts.GenerateReceipt(o)
	if err != nil {
		response.Error(c, fmt.Errorf("generate receipt: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(len(pdf)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
