// Copyright 2026 Simperby Authors

package ports

import "context"

// Storage is the durable key/value store for small append-mostly state
// the node keeps outside the Git repository itself.
type Storage interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	// Iterate calls fn for every key in [start, end) in ascending
	// order, stopping early if fn returns false.
	Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error
	Close() error
}
