// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// UserDirectory is the user management behaviour the handlers need.
type UserDirectory interface {
	List(ctx context.Context, req *user.ListRequest) ([]user.User, error)
	Get(ctx context.Context, id uint) (*user.User, error)
	Update(ctx context.Context, id uint, req *user.UpdateRequest) (*user.User, error)
	Delete(ctx context.Context, id uint) error
}

// UserHandler handles user management endpoints
type UserHandler struct {
	users UserDirectory
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers handles GET /users (admin)
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req user.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	users, err := h.users.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"users": users, "count": len(users)})
}

// GetUser handles GET /users/:id. Users may read themselves; admins anyone.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, _ := middleware.CurrentPrincipal(c)
	if !actor.IsAdmin() && actor.UserID != id {
		response.Error(c, apperror.Forbidden("you can only view your own account"))
		return
	}

	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", u)
}

// UpdateUser handles PATCH /users/:id (admin)
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	u, err := h.users.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User updated successfully", u)
}

// DeleteUser handles DELETE /users/:id (admin). Admins cannot delete
// themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if actor, ok := middleware.CurrentPrincipal(c); ok && actor.UserID == id {
		response.Error(c, apperror.Validation("you cannot delete your own account"))
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User deleted successfully", nil)
}
