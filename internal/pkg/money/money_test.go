package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		100:       "$1.00",
		12345:     "$123.45",
		123456:    "$1,234.56",
		100000000: "$1,000,000.00",
		-2550:     "-$25.50",
	}
	for cents, want := range tests {
		assert.Equal(t, want, Format(cents), "cents=%d", cents)
	}
}
