// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// ProductService is the catalog behaviour the handlers need.
type ProductService interface {
	List(ctx context.Context, req *product.ListRequest) (*product.ListResponse, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]product.Product, error)
	Get(ctx context.Context, id uint) (*product.Product, error)
	Create(ctx context.Context, actor auth.Principal, req *product.CreateRequest) (*product.Product, error)
	Update(ctx context.Context, actor auth.Principal, id uint, req *product.UpdateRequest) (*product.Product, error)
	Delete(ctx context.Context, actor auth.Principal, id uint) error
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	products ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.products.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", result)
}

// ListByOwner handles GET /products/user/:userId
func (h *ProductHandler) ListByOwner(c *gin.Context) {
	ownerID, err := idParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}

	products, err := h.products.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"products": products, "count": len(products)})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", p)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)

	var req product.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	p, err := h.products.Create(c.Request.Context(), actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	p, err := h.products.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product updated successfully", p)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.products.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product deleted successfully", nil)
}
