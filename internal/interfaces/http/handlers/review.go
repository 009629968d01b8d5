// internal/interfaces/http/handlers/review.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/review"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// ReviewService is the review behaviour the handlers need.
type ReviewService interface {
	List(ctx context.Context, req *review.ListRequest) (*review.ListResponse, error)
	Get(ctx context.Context, id uint) (*review.Review, error)
	Create(ctx context.Context, actor auth.Principal, req *review.CreateRequest) (*review.Review, error)
	Update(ctx context.Context, actor auth.Principal, id uint, req *review.UpdateRequest) (*review.Review, error)
	Delete(ctx context.Context, actor auth.Principal, id uint) error
}

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	reviews ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// ListReviews handles GET /reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	var req review.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.reviews.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", result)
}

// GetReview handles GET /reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", r)
}

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)

	var req review.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.reviews.Create(c.Request.Context(), actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Review created successfully", r)
}

// UpdateReview handles PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req review.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.reviews.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review updated successfully", r)
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review deleted successfully", nil)
}
