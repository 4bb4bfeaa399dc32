package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewSecureToken 高熵随机令牌（hex），仅明文发给用户，库里只存哈希
func NewSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken 单向 sha256，查找/比对都走哈希
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
