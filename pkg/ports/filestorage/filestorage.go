// Copyright 2026 Simperby Authors
//
// Package filestorage is the concrete ports.Storage adapter: a
// goleveldb-backed key/value store (via cometbft-db) guarded by an
// on-disk advisory lock so two node processes can never open the same
// data directory at once.
package filestorage

import (
	"context"
	"fmt"
	"path/filepath"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/gofrs/flock"

	"github.com/simperby-go/simperby/pkg/errs"
	"github.com/simperby-go/simperby/pkg/ports"
)

// Storage implements ports.Storage over a single goleveldb directory.
type Storage struct {
	db   dbm.DB
	lock *flock.Flock
}

var _ ports.Storage = (*Storage)(nil)

// Open acquires the exclusive lock at dir/LOCK and opens (creating if
// absent) a goleveldb database at dir/<name>.db. It fails fast if another
// process already holds the lock rather than blocking - a node that
// finds its data directory busy has a configuration bug, not a
// transient condition to wait out.
func Open(dir, name string) (*Storage, error) {
	lockPath := filepath.Join(dir, "LOCK")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errs.Wrap(errs.Storage, dir, "acquire storage lock: %w", err)
	}
	if !locked {
		return nil, errs.New(errs.Storage, dir, fmt.Errorf("data directory is already locked by another process"))
	}

	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.Storage, dir, "open goleveldb: %w", err)
	}

	return &Storage{db: db, lock: lock}, nil
}

func (s *Storage) Get(ctx context.Context, key []byte) ([]byte, error) {
	v, err := s.db.Get(key)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, string(key), "get: %w", err)
	}
	return v, nil
}

func (s *Storage) Set(ctx context.Context, key, value []byte) error {
	if err := s.db.SetSync(key, value); err != nil {
		return errs.Wrap(errs.Storage, string(key), "set: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key []byte) error {
	if err := s.db.DeleteSync(key); err != nil {
		return errs.Wrap(errs.Storage, string(key), "delete: %w", err)
	}
	return nil
}

func (s *Storage) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	it, err := s.db.Iterator(start, end)
	if err != nil {
		return errs.Wrap(errs.Storage, "", "open iterator: %w", err)
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return it.Error()
}

func (s *Storage) Close() error {
	dbErr := s.db.Close()
	lockErr := s.lock.Unlock()
	if dbErr != nil {
		return errs.Wrap(errs.Storage, "", "close db: %w", dbErr)
	}
	if lockErr != nil {
		return errs.Wrap(errs.Storage, "", "release lock: %w", lockErr)
	}
	return nil
}
