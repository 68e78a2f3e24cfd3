package captcha

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher normalizes and hashes answers and responses for comparison.
type Hasher interface {
	Hash(text string) string
}

// SHA1Hasher is the default hasher: hex(sha1(upper(text))).
// Hashes stay compatible with sessions written by older deployments.
type SHA1Hasher struct{}

func (SHA1Hasher) Hash(text string) string {
	sum := sha1.Sum([]byte(strings.ToUpper(text)))
	return hex.EncodeToString(sum[:])
}

// SHA256Hasher hashes the uppercased text with SHA-256.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(text string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(text)))
	return hex.EncodeToString(sum[:])
}

// Hash uses the default hasher.
func Hash(text string) string {
	return SHA1Hasher{}.Hash(text)
}
