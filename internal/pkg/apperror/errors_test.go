package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("customer name is required"), http.StatusBadRequest},
		{"insufficient stock", &InsufficientStockError{ProductID: 1, Requested: 10, Available: 5}, http.StatusBadRequest},
		{"not found", NotFound("product", 7), http.StatusNotFound},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"unauthorized", Unauthorized("bad credentials"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), http.StatusForbidden},
		{"transaction", &TransactionError{Op: "commit", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("order", 3)), http.StatusNotFound},
		{"plain", errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{ProductID: 4, ProductName: "Mug", Requested: 10, Available: 5}

	assert.Contains(t, err.Error(), "Mug")
	assert.Contains(t, err.Error(), "requested 10")
	assert.Contains(t, err.Error(), "available 5")
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "product 42 not found", NotFound("product", 42).Error())
	assert.Equal(t, "cart not found", NotFound("cart", nil).Error())
}

func TestTransactionErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransactionError{Op: "checkout", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.False(t, IsClientError(err))
	assert.True(t, IsClientError(Validation("x")))
}
