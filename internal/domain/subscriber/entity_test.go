package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"ana@example.com", "a.b+c@sub.example.co", "x@y.z"}
	invalid := []string{"", "ana", "ana@example", "@example.com", "ana @example.com", "ana@exa mple.com"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}
