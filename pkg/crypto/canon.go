// Copyright 2026 Simperby Authors
//
// Canonical serialization: a deterministic, length-prefixed binary
// encoding with stable field order, used exclusively for hashing and
// signing domain types. JSON is reserved for on-disk/human-readable
// encodings (SemanticCommit bodies, reserved/ files) and must never be
// fed into Hash or a signature - see pkg/domain/semantic.go for that path.

package crypto

import (
	"encoding/binary"
)

// Canonicalizer is implemented by every domain type whose canonical byte
// representation feeds ToHash256 and TypedSignature.
type Canonicalizer interface {
	CanonicalEncode(w *Writer)
}

// Writer accumulates a canonical byte stream with stable field order.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty canonical writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 128)}
}

// Bytes returns the accumulated canonical byte stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteBytes writes a uvarint length prefix followed by raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(b)))
	w.buf = append(w.buf, tmp[:n]...)
	w.buf = append(w.buf, b...)
}

// WriteString writes a string the same way WriteBytes does.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteU64 writes a uint64 in little-endian fixed width.
func (w *Writer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI64 writes an int64 in little-endian fixed width.
func (w *Writer) WriteI64(v int64) {
	w.WriteU64(uint64(v))
}

// WriteBool writes a single 0/1 byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteHash writes a Hash256 as raw fixed-width bytes (no length prefix
// needed - the length is invariant).
func (w *Writer) WriteHash(h Hash256) {
	w.buf = append(w.buf, h[:]...)
}

// WriteCanonical recursively encodes a nested Canonicalizer.
func (w *Writer) WriteCanonical(c Canonicalizer) {
	c.CanonicalEncode(w)
}

// WriteSlice encodes a length-prefixed sequence of canonical elements.
func WriteSlice[T Canonicalizer](w *Writer, items []T) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(items)))
	w.buf = append(w.buf, tmp[:n]...)
	for _, item := range items {
		item.CanonicalEncode(w)
	}
}

// Canonical returns the canonical byte encoding of c.
func Canonical(c Canonicalizer) []byte {
	w := NewWriter()
	c.CanonicalEncode(w)
	return w.Bytes()
}

// HashCanonical hashes the canonical encoding of c.
func HashCanonical(c Canonicalizer) Hash256 {
	return Hash(Canonical(c))
}
