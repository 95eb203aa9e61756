package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HmacSHA256 returns the hex-encoded HMAC-SHA256 of data keyed by secret.
func HmacSHA256(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHmacSHA256 reports whether signature is the hex HMAC-SHA256 of data.
// Hex case is ignored; the comparison runs in constant time.
func VerifyHmacSHA256(secret string, data []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hmac.Equal(h.Sum(nil), got)
}

// MaskToken keeps enough of a credential to correlate log lines.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:8] + "****"
}
