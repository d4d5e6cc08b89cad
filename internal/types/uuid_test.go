package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithPrefix(t *testing.T) {
	id := GenerateUUIDWithPrefix(UUID_PREFIX_ORDER)
	assert.True(t, strings.HasPrefix(id, "ord_"))
	assert.NotEqual(t, id, GenerateUUIDWithPrefix(UUID_PREFIX_ORDER))

	assert.NotContains(t, GenerateUUID(), "_")
}

func TestGenerateShortIDWithPrefix(t *testing.T) {
	id := GenerateShortIDWithPrefix(UUID_PREFIX_ORDER)
	assert.True(t, strings.HasPrefix(id, "ORD"))
	assert.LessOrEqual(t, len(id), 12)
	assert.Greater(t, len(id), len(UUID_PREFIX_ORDER))
	assert.Equal(t, id, strings.ToUpper(id))
}
