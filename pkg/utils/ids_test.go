package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("pay_")
	assert.True(t, strings.HasPrefix(id, "pay_"))
	assert.Len(t, id, len("pay_")+16)
	for _, r := range strings.TrimPrefix(id, "pay_") {
		assert.Contains(t, idAlphabet, string(r))
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID("order_")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerateSecret(t *testing.T) {
	s := GenerateSecret(16)
	assert.Len(t, s, 32)
	assert.NotEqual(t, s, GenerateSecret(16))
}
