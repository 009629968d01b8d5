package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// optionalUintQuery parses a numeric query parameter. Missing means zero.
func optionalUintQuery(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.Validation("invalid %s %q", name, raw)
	}
	return uint(v), nil
}
