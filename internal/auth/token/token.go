// Package token generates URL-safe random tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomToken returns a hex token from size random bytes.
// The encoded length is size*2; 16 bytes yields 32 characters.
func GenerateRandomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
