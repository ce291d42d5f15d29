package misc

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumSHA256 hex-encodes the SHA-256 digest of value concatenated with the
// shared key. It backs the HashSHA256 body-signature header on gateway
// uploads and its verification middleware on the receiver.
func SumSHA256(value []byte, key string) string {
	sum := sha256.Sum256(append(value, []byte(key)...))
	return hex.EncodeToString(sum[:])
}
