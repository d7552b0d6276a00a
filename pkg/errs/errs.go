// Copyright 2026 Simperby Authors
//
// Package errs defines the error-kind taxonomy shared by every layer of
// the node: leaf ports return typed errors, and higher layers map
// whatever they see onto one of these kinds rather than inventing new
// ones per package.

package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	// Integrity: local state is inconsistent with invariants. Fatal;
	// surface to the operator; refuse further writes.
	Integrity Kind = "integrity"
	// Format: a stored or received commit cannot be decoded. Reject that
	// commit; continue.
	Format Kind = "format"
	// Verification: CSV rejected a commit or Vetomint rejected an event.
	// Reject; continue.
	Verification Kind = "verification"
	// Crypto: signature invalid or key mismatch. Reject the packet,
	// commit, or push.
	Crypto Kind = "crypto"
	// Storage: I/O failure. Retry at the task level; if persistent,
	// surface as Integrity.
	Storage Kind = "storage"
	// Network: RPC failure or timeout. Log and continue; never fatal.
	Network Kind = "network"
	// InvalidOperation: caller violated a contract. Programmer error;
	// surface.
	InvalidOperation Kind = "invalid_operation"
)

// Error wraps an underlying cause with a Kind and, where relevant, the
// hash or index of the offending commit or packet.
type Error struct {
	Kind    Kind
	Subject string // offending commit hash, packet hash, branch name, etc.
	Cause   error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a Kind-classified error.
func New(kind Kind, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: cause}
}

// Wrap is New with a formatted cause, mirroring fmt.Errorf("...: %w", …).
func Wrap(kind Kind, subject, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, defaulting to Integrity when err
// carries no Kind - an untyped error reaching this point is itself a
// bug, and Integrity is the conservative (halt-the-node) response.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Integrity
}

// IsFatal reports whether err should halt the node (Integrity, or a
// Storage error that has exhausted its retries and been re-kinded as
// Integrity by the caller).
func IsFatal(err error) bool {
	return KindOf(err) == Integrity
}
