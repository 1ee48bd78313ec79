package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateDigits(4)
		require.NoError(t, err)
		assert.Len(t, code, 4)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "unexpected rune %q", c)
		}
	}
}

func TestCalculateHash(t *testing.T) {
	assert.Empty(t, CalculateHash("key"))
	a := CalculateHash("key", "user@example.com", "1234")
	assert.Equal(t, a, CalculateHash("key", "user@example.com", "1234"))
	assert.NotEqual(t, a, CalculateHash("other", "user@example.com", "1234"))
	assert.NotEqual(t, a, CalculateHash("key", "user@example.com", "4321"))
}
