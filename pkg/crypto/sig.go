// Copyright 2026 Simperby Authors
//
// Signature port. Keys are backed by CometBFT's ed25519 implementation
// (github.com/cometbft/cometbft/crypto/ed25519) rather than a hand-rolled
// wrapper over crypto/ed25519, since that package already does the
// Bytes()/VerifySignature() plumbing a node needs.

package crypto

import (
	"encoding/hex"
	"encoding/json"

	cmted25519 "github.com/cometbft/cometbft/crypto/ed25519"
)

// PublicKey identifies a member or validator.
type PublicKey struct {
	raw cmted25519.PubKey
}

// PrivateKey signs on behalf of a PublicKey.
type PrivateKey struct {
	raw cmted25519.PrivKey
}

// GenerateKeyPair creates a new random Ed25519 key pair.
func GenerateKeyPair() (PublicKey, PrivateKey) {
	priv := cmted25519.GenPrivKey()
	pub, _ := priv.PubKey().(cmted25519.PubKey)
	return PublicKey{raw: pub}, PrivateKey{raw: priv}
}

// GenerateKeyPairFromSeed derives a deterministic key pair from a seed
// of any length (hashed to 32 bytes first), useful for genesis fixtures
// and tests.
func GenerateKeyPairFromSeed(seed []byte) (PublicKey, PrivateKey) {
	digest := Hash(seed)
	priv := cmted25519.GenPrivKeyFromSecret(digest[:])
	pub, _ := priv.PubKey().(cmted25519.PubKey)
	return PublicKey{raw: pub}, PrivateKey{raw: priv}
}

// PublicKey derives the public key for this private key.
func (sk PrivateKey) PublicKey() PublicKey {
	pub, _ := sk.raw.PubKey().(cmted25519.PubKey)
	return PublicKey{raw: pub}
}

// Sign signs raw bytes (callers pass canonical bytes, never JSON).
func (sk PrivateKey) Sign(message []byte) ([]byte, error) {
	return sk.raw.Sign(message)
}

// Bytes returns the raw private key bytes.
func (sk PrivateKey) Bytes() []byte {
	return append([]byte(nil), sk.raw.Bytes()...)
}

// IsZero reports whether this is the zero-value PrivateKey (unset).
func (sk PrivateKey) IsZero() bool {
	return len(sk.raw) == 0
}

// VerifySignature checks sig against message under this public key.
func (pk PublicKey) VerifySignature(message, sig []byte) bool {
	return pk.raw.VerifySignature(message, sig)
}

// Bytes returns the raw public key bytes.
func (pk PublicKey) Bytes() []byte {
	return append([]byte(nil), pk.raw.Bytes()...)
}

// IsZero reports whether this is the zero-value PublicKey (unset).
func (pk PublicKey) IsZero() bool {
	return len(pk.raw) == 0
}

// Equal reports whether two public keys are the same key.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.raw.Equals(other.raw)
}

// String renders the public key as hex, for logs and member lookups.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk.Bytes())
}

// PrivateKeyFromBytes loads a private key from its raw 64-byte Ed25519
// encoding, the format a node persists its identity key in on disk.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	if len(b) != cmted25519.PrivKeySize {
		return PrivateKey{}, errInvalidKeyLength
	}
	var raw cmted25519.PrivKey
	raw = append(raw, b...)
	return PrivateKey{raw: raw}, nil
}

// PublicKeyFromHex parses a hex-encoded Ed25519 public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, err
	}
	if len(b) != cmted25519.PubKeySize {
		return PublicKey{}, errInvalidKeyLength
	}
	var raw cmted25519.PubKey
	raw = append(raw, b...)
	return PublicKey{raw: raw}, nil
}

// CanonicalEncode implements Canonicalizer.
func (pk PublicKey) CanonicalEncode(w *Writer) {
	w.WriteBytes(pk.Bytes())
}

func (pk PublicKey) ToHash256() Hash256 {
	return HashCanonical(pk)
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*pk = PublicKey{}
		return nil
	}
	parsed, err := PublicKeyFromHex(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// TypedSignature binds a signature and its signer's public key to the
// canonical bytes of a specific value of type T. Verify recomputes those
// bytes and checks the signature - it is the only way a TypedSignature
// is ever produced or checked, preventing cross-type signature reuse.
type TypedSignature[T Canonicalizer] struct {
	Signer    PublicKey `json:"signer"`
	Signature []byte    `json:"signature"`
}

// Sign produces a TypedSignature over the canonical bytes of value.
func Sign[T Canonicalizer](sk PrivateKey, value T) (TypedSignature[T], error) {
	sig, err := sk.Sign(Canonical(value))
	if err != nil {
		return TypedSignature[T]{}, err
	}
	return TypedSignature[T]{Signer: sk.PublicKey(), Signature: sig}, nil
}

// Verify recomputes the canonical bytes of value and checks the signature.
func (ts TypedSignature[T]) Verify(value T) bool {
	return ts.Signer.VerifySignature(Canonical(value), ts.Signature)
}
