// internal/interfaces/http/response/response.go
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a 200 envelope.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Created writes a 201 envelope.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// JSON writes a successful envelope with the given status.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error maps err to its HTTP status and writes a failed envelope. Server
// errors are attached to the context for the access log and hidden from the
// client.
func Error(c *gin.Context, err error) {
	status := Status(err)
	_ = c.Error(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, Envelope{Success: false, Error: msg})
}

// Abort writes a failed envelope and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: msg})
}

// BadRequest reports a malformed request body or query.
func BadRequest(c *gin.Context, err error) {
	Error(c, apperror.Validation("invalid request: %v", err))
}

// Status returns the HTTP status for err.
func Status(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}
	return apperror.HTTPStatus(err)
}
