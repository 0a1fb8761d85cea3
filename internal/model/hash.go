package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash is a stable hex-encoded SHA-256 digest of a file's bytes.
type ContentHash string

// HashContent computes the ContentHash of b.
func HashContent(b []byte) ContentHash {
	sum := sha256.Sum256(b)
	return ContentHash(hex.EncodeToString(sum[:]))
}

// Empty reports whether the hash has not been computed.
func (h ContentHash) Empty() bool {
	return h == ""
}

// String implements fmt.Stringer.
func (h ContentHash) String() string {
	return string(h)
}
