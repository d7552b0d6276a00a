// Copyright 2026 Simperby Authors
//
// Optional durable backing for LightClient: the default store is the
// in-memory repositoryRoots/commitRoots slices in lightclient.go, which
// a restarted process loses. SQLStore persists the same per-height
// roots and the latest header to Postgres so a node can resume a light
// client across restarts instead of re-syncing from genesis.

package lightclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/errs"
)

// SQLStore persists a LightClient's per-height roots across restarts.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens a Postgres connection at databaseURL and ensures
// the backing table exists.
func OpenSQLStore(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errs.New(errs.Storage, databaseURL, fmt.Errorf("open: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.New(errs.Storage, databaseURL, fmt.Errorf("ping: %w", err))
	}
	store := &SQLStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS lightclient_headers (
	height BIGINT PRIMARY KEY,
	header_json TEXT NOT NULL,
	repository_root VARCHAR(64) NOT NULL,
	commit_root VARCHAR(64) NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errs.New(errs.Storage, "lightclient_headers", fmt.Errorf("create table: %w", err))
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveHeader persists header and the roots it committed to at its own
// height, upserting in case the same height is replayed.
func (s *SQLStore) SaveHeader(ctx context.Context, header domain.BlockHeader) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errs.New(errs.Format, header.ToHash256().String(), fmt.Errorf("marshal header: %w", err))
	}
	const upsert = `
INSERT INTO lightclient_headers (height, header_json, repository_root, commit_root)
VALUES ($1, $2, $3, $4)
ON CONFLICT (height) DO UPDATE SET
	header_json = EXCLUDED.header_json,
	repository_root = EXCLUDED.repository_root,
	commit_root = EXCLUDED.commit_root`
	_, err = s.db.ExecContext(ctx, upsert, header.Height, string(headerJSON),
		header.RepositoryMerkleRoot.String(), header.CommitMerkleRoot.String())
	if err != nil {
		return errs.New(errs.Storage, header.ToHash256().String(), fmt.Errorf("save header: %w", err))
	}
	return nil
}

// LoadLatest returns the highest-height header persisted so far, or
// ok=false if the store is empty (a fresh node has nothing to resume
// from and must be seeded with New instead).
func (s *SQLStore) LoadLatest(ctx context.Context) (header domain.BlockHeader, ok bool, err error) {
	const query = `SELECT header_json FROM lightclient_headers ORDER BY height DESC LIMIT 1`
	var headerJSON string
	switch scanErr := s.db.QueryRowContext(ctx, query).Scan(&headerJSON); scanErr {
	case sql.ErrNoRows:
		return domain.BlockHeader{}, false, nil
	case nil:
	default:
		return domain.BlockHeader{}, false, errs.New(errs.Storage, "", fmt.Errorf("load latest header: %w", scanErr))
	}
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return domain.BlockHeader{}, false, errs.New(errs.Format, "", fmt.Errorf("unmarshal header: %w", err))
	}
	return header, true, nil
}

// LoadRoots returns every persisted height's repository and commit
// roots, ordered by ascending height, along with the lowest height
// present - the same shape LightClient keeps in memory, so a restarted
// node can rehydrate repositoryRoots/commitRoots directly from it.
func (s *SQLStore) LoadRoots(ctx context.Context) (repositoryRoots, commitRoots []crypto.Hash256, heightOffset domain.BlockHeight, err error) {
	const query = `SELECT height, repository_root, commit_root FROM lightclient_headers ORDER BY height ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, 0, errs.New(errs.Storage, "", fmt.Errorf("load roots: %w", err))
	}
	defer rows.Close()

	first := true
	for rows.Next() {
		var height domain.BlockHeight
		var repoRootHex, commitRootHex string
		if err := rows.Scan(&height, &repoRootHex, &commitRootHex); err != nil {
			return nil, nil, 0, errs.New(errs.Storage, "", fmt.Errorf("scan root row: %w", err))
		}
		repoRoot, err := crypto.HashFromHex(repoRootHex)
		if err != nil {
			return nil, nil, 0, errs.New(errs.Format, repoRootHex, fmt.Errorf("decode repository root: %w", err))
		}
		commitRoot, err := crypto.HashFromHex(commitRootHex)
		if err != nil {
			return nil, nil, 0, errs.New(errs.Format, commitRootHex, fmt.Errorf("decode commit root: %w", err))
		}
		if first {
			heightOffset = height
			first = false
		}
		repositoryRoots = append(repositoryRoots, repoRoot)
		commitRoots = append(commitRoots, commitRoot)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, errs.New(errs.Storage, "", fmt.Errorf("iterate root rows: %w", err))
	}
	return repositoryRoots, commitRoots, heightOffset, nil
}

// NewFromSQLStore rehydrates a LightClient from everything store has
// persisted so far. Returns ok=false if store is empty, the same
// signal as LoadLatest - callers fall back to New with a trusted
// checkpoint header in that case.
func NewFromSQLStore(ctx context.Context, store *SQLStore) (lc *LightClient, ok bool, err error) {
	header, ok, err := store.LoadLatest(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	repositoryRoots, commitRoots, heightOffset, err := store.LoadRoots(ctx)
	if err != nil {
		return nil, false, err
	}
	return &LightClient{
		repositoryRoots: repositoryRoots,
		commitRoots:      commitRoots,
		heightOffset:     heightOffset,
		lastHeader:       header,
		store:            store,
	}, true, nil
}
