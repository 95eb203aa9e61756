package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHmacSHA256(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		result := HmacSHA256("secret", []byte("data"))
		assert.Len(t, result, 64)
	})

	t.Run("same inputs produce same result", func(t *testing.T) {
		result1 := HmacSHA256("secret", []byte("data"))
		result2 := HmacSHA256("secret", []byte("data"))
		assert.Equal(t, result1, result2)
	})

	t.Run("different secret produces different result", func(t *testing.T) {
		result1 := HmacSHA256("secret1", []byte("data"))
		result2 := HmacSHA256("secret2", []byte("data"))
		assert.NotEqual(t, result1, result2)
	})

	t.Run("different data produces different result", func(t *testing.T) {
		result1 := HmacSHA256("secret", []byte("data1"))
		result2 := HmacSHA256("secret", []byte("data2"))
		assert.NotEqual(t, result1, result2)
	})

	t.Run("produces expected HMAC", func(t *testing.T) {
		// Known test vector
		result := HmacSHA256("key", []byte("The quick brown fox jumps over the lazy dog"))
		assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", result)
	})

	t.Run("signs raw bytes without normalization", func(t *testing.T) {
		compact := HmacSHA256("secret", []byte(`{"a":1}`))
		spaced := HmacSHA256("secret", []byte(`{"a": 1}`))
		assert.NotEqual(t, compact, spaced)
	})
}

func TestVerifyHmacSHA256(t *testing.T) {
	data := []byte(`{"event":"done"}`)
	signature := HmacSHA256("secret", data)

	t.Run("accepts matching signature", func(t *testing.T) {
		assert.True(t, VerifyHmacSHA256("secret", data, signature))
	})

	t.Run("ignores hex case", func(t *testing.T) {
		assert.True(t, VerifyHmacSHA256("secret", data, strings.ToUpper(signature)))
	})

	t.Run("rejects other secret", func(t *testing.T) {
		assert.False(t, VerifyHmacSHA256("other", data, signature))
	})

	t.Run("rejects truncated signature", func(t *testing.T) {
		assert.False(t, VerifyHmacSHA256("secret", data, signature[:62]))
	})

	t.Run("rejects non-hex signature", func(t *testing.T) {
		assert.False(t, VerifyHmacSHA256("secret", data, "z"+signature[1:]))
		assert.False(t, VerifyHmacSHA256("secret", data, ""))
	})
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", MaskToken("short"))
	assert.Equal(t, "MOCK_TOK****", MaskToken("MOCK_TOKEN_1234"))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3f2b8c1e-9d4a-4b6e-8f10-2a3b4c5d6e7f"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("3F2B8C1E-9D4A-4B6E-8F10-2A3B4C5D6E7F"))
}

func TestIsValidEnum(t *testing.T) {
	values := []string{"file", "postgres"}
	assert.True(t, IsValidEnum("", values))
	assert.True(t, IsValidEnum("file", values))
	assert.False(t, IsValidEnum("mongo", values))
}
