package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for cache keys in logs
func (h Hash) Short() string {
	if len(h) < 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeContentHash hashes several byte slices as one, length-prefixing each
// part so that ("ab","c") and ("a","bc") differ.
func ComputeContentHash(parts ...[]byte) Hash {
	h := sha256.New()
	for _, part := range parts {
		var size [8]byte
		n := uint64(len(part))
		for i := 0; i < 8; i++ {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write(part)
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ComputeKeyHash hashes an ordered list of strings
func ComputeKeyHash(fields ...string) Hash {
	return NewHash([]byte(strings.Join(fields, "\x00")))
}
