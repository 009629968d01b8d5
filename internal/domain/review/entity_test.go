package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		sum, count int64
		want       float64
	}{
		{0, 0, 0},
		{5, 1, 5},
		{9, 2, 4.5},
		{13, 3, 4.3},
		{14, 3, 4.7},
		{1, 3, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AverageRating(tt.sum, tt.count), "sum=%d count=%d", tt.sum, tt.count)
	}
}

func TestValidRating(t *testing.T) {
	assert.False(t, validRating(0))
	assert.True(t, validRating(1))
	assert.True(t, validRating(5))
	assert.False(t, validRating(6))
}

func TestPlacedBy(t *testing.T) {
	p := auth.Principal{UserID: 42, Email: "ana@example.com"}

	assert.True(t, placedBy(&order.Order{UserID: "42"}, p))
	assert.True(t, placedBy(&order.Order{UserID: "ana@example.com"}, p))
	assert.True(t, placedBy(&order.Order{UserID: "session-1", Customer: order.Customer{Email: "ana@example.com"}}, p))
	assert.False(t, placedBy(&order.Order{UserID: "7", Customer: order.Customer{Email: "bob@example.com"}}, p))
}
