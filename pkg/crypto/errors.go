// Copyright 2026 Simperby Authors

package crypto

import "errors"

var (
	errInvalidHashLength = errors.New("crypto: hash must be exactly 32 bytes")
	// ErrVerification is returned when a signature fails to verify against
	// its claimed signer and canonical bytes.
	ErrVerification = errors.New("crypto: signature verification failed")
	// ErrKeyMismatch is returned when a private/public key pair does not match.
	ErrKeyMismatch = errors.New("crypto: public/private key mismatch")
	// errInvalidKeyLength is returned when a key does not match its
	// expected wire encoding length.
	errInvalidKeyLength = errors.New("crypto: key has an unexpected length")
)
