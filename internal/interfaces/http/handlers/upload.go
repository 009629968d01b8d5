// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// ImageStore stores and removes uploaded images.
type ImageStore interface {
	UploadImage(ctx context.Context, req *upload.ImageUploadRequest) (*upload.UploadedFile, error)
	DeleteImage(ctx context.Context, publicID string) error
}

// UploadHandler handles image upload endpoints
type UploadHandler struct {
	images ImageStore
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(images ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// UploadImage handles POST /upload with a multipart "file" field
func (h *UploadHandler) UploadImage(c *gin.Context) {
	actor, _ := middleware.CurrentPrincipal(c)

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperror.Validation("no file provided"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, apperror.Validation("failed to open uploaded file"))
		return
	}
	defer file.Close()

	stored, err := h.images.UploadImage(c.Request.Context(), &upload.ImageUploadRequest{
		File:       file,
		Filename:   header.Filename,
		UploadedBy: actor.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Image uploaded successfully", stored)
}

// DeleteImage handles DELETE /upload?publicId=
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	publicID := c.Query("publicId")
	if publicID == "" {
		response.Error(c, apperror.Validation("publicId is required"))
		return
	}

	if err := h.images.DeleteImage(c.Request.Context(), publicID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Image deleted successfully", nil)
}
