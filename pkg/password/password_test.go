package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher_EncryptAndVerify(t *testing.T) {
	h := NewHasher()

	hash, err := h.Encrypt("hunter2", "pepper")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, h.Verify("hunter2", hash, "pepper"))
	assert.False(t, h.Verify("hunter3", hash, "pepper"))
	assert.False(t, h.Verify("hunter2", hash, "other-pepper"))
}

func TestHasher_EncryptIsSalted(t *testing.T) {
	h := NewHasher()

	first, err := h.Encrypt("hunter2", "pepper")
	assert.NoError(t, err)
	second, err := h.Encrypt("hunter2", "pepper")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("hunter2", first, "pepper"))
	assert.True(t, h.Verify("hunter2", second, "pepper"))
}
