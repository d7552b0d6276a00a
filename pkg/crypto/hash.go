// Copyright 2026 Simperby Authors
//
// Hash256 and the stable, canonically-serialized hashing contract that
// every domain type in this module relies on.

package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash256Size is the length in bytes of a Hash256 digest.
const Hash256Size = 32

// Hash256 is a SHA-256 digest.
type Hash256 [Hash256Size]byte

// ZeroHash256 is the all-zero digest, used as the genesis "previous hash"
// and as the empty-Merkle-tree root.
var ZeroHash256 = Hash256{}

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) Hash256 {
	return Hash256(sha256.Sum256(data))
}

// Aggregate combines two hashes the way a Merkle internal node combines
// its children: aggregate(a, b) = hash(a || b). Order matters.
func Aggregate(a, b Hash256) Hash256 {
	buf := make([]byte, 0, 2*Hash256Size)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return Hash(buf)
}

// IsZero reports whether h is the all-zero digest.
func (h Hash256) IsZero() bool {
	return h == ZeroHash256
}

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash256) Bytes() []byte {
	out := make([]byte, Hash256Size)
	copy(out, h[:])
	return out
}

// String renders the digest as lowercase hex, matching the `hash-prefix`
// convention used for ephemeral branch and tag names.
func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// Prefix returns the first n hex digits of the hash, used for
// `a-<prefix>` / `b-<prefix>` / `vote-<prefix>` / `veto-<prefix>` names.
func (h Hash256) Prefix(n int) string {
	s := h.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// HashFromHex parses a hex-encoded 32-byte digest.
func HashFromHex(s string) (Hash256, error) {
	var h Hash256
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != Hash256Size {
		return h, errInvalidHashLength
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash256) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ToHash256 is implemented by every domain type that participates in the
// commit graph; hashing always goes through a type's canonical
// serialization (see canon.go), never through JSON.
type ToHash256 interface {
	ToHash256() Hash256
}

// HashString hashes a string's raw bytes directly - the one case where a
// type's "canonical bytes" and its natural byte representation coincide,
// since a string is already its own canonical encoding.
func HashString(s string) Hash256 {
	return Hash([]byte(s))
}
