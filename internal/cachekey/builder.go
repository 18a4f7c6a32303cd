// internal/cachekey/builder.go
package cachekey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"rivet/internal/fingerprint"
)

// Builder accumulates the components of a cache key. Implementations must be
// order-sensitive: callers are responsible for feeding components in a
// deterministic order.
type Builder interface {
	PutBytes(b []byte)
	PutString(s string)
	PutHash(h fingerprint.Hash)
}

// SHA256Builder derives a cache key by hashing each component with an 8-byte
// length prefix, so adjacent components can never be confused for each other
// ("ab"+"c" hashes differently from "a"+"bc").
type SHA256Builder struct {
	h hash.Hash
}

func NewSHA256Builder() *SHA256Builder {
	return &SHA256Builder{h: sha256.New()}
}

func (b *SHA256Builder) PutBytes(data []byte) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(data)))
	b.h.Write(prefix[:])
	b.h.Write(data)
}

func (b *SHA256Builder) PutString(s string) {
	b.PutBytes([]byte(s))
}

func (b *SHA256Builder) PutHash(h fingerprint.Hash) {
	b.PutBytes([]byte(h))
}

// Sum returns the accumulated key. The builder stays usable; further Put
// calls extend the key.
func (b *SHA256Builder) Sum() fingerprint.Hash {
	return fingerprint.Hash(hex.EncodeToString(b.h.Sum(nil)))
}
