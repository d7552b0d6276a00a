// Copyright 2026 Simperby Authors
//
// Exercises SQLStore against a real Postgres instance, gated on
// SIMPERBY_TEST_DB - these tests are skipped, not failed, when no test
// database is configured.

package lightclient

import (
	"context"
	"os"
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
)

func testStore(t *testing.T) *SQLStore {
	t.Helper()
	connStr := os.Getenv("SIMPERBY_TEST_DB")
	if connStr == "" {
		t.Skip("SIMPERBY_TEST_DB not set, skipping Postgres-backed light client tests")
	}
	store, err := OpenSQLStore(context.Background(), connStr)
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testHeaderAt(height domain.BlockHeight) domain.BlockHeader {
	return domain.BlockHeader{
		Height:               height,
		RepositoryMerkleRoot: crypto.Hash([]byte{byte(height), 'r'}),
		CommitMerkleRoot:     crypto.Hash([]byte{byte(height), 'c'}),
		Version:              "test",
	}
}

func TestSQLStore_SaveAndLoadLatest(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadLatest(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	h1 := testHeaderAt(1)
	if err := store.SaveHeader(ctx, h1); err != nil {
		t.Fatalf("SaveHeader(1): %v", err)
	}
	h2 := testHeaderAt(2)
	if err := store.SaveHeader(ctx, h2); err != nil {
		t.Fatalf("SaveHeader(2): %v", err)
	}

	latest, ok, err := store.LoadLatest(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if latest.Height != 2 {
		t.Errorf("expected latest height 2, got %d", latest.Height)
	}
}

func TestSQLStore_LoadRootsOrdersByHeight(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for height := domain.BlockHeight(5); height <= 7; height++ {
		if err := store.SaveHeader(ctx, testHeaderAt(height)); err != nil {
			t.Fatalf("SaveHeader(%d): %v", height, err)
		}
	}

	repoRoots, commitRoots, offset, err := store.LoadRoots(ctx)
	if err != nil {
		t.Fatalf("LoadRoots: %v", err)
	}
	if offset != 5 {
		t.Errorf("expected heightOffset 5, got %d", offset)
	}
	if len(repoRoots) != 3 || len(commitRoots) != 3 {
		t.Fatalf("expected 3 roots each, got %d/%d", len(repoRoots), len(commitRoots))
	}
	if repoRoots[0] != testHeaderAt(5).RepositoryMerkleRoot {
		t.Errorf("roots out of height order")
	}
}

func TestNewFromSQLStore_RehydratesLightClient(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveHeader(ctx, testHeaderAt(10)); err != nil {
		t.Fatalf("SaveHeader: %v", err)
	}

	lc, ok, err := NewFromSQLStore(ctx, store)
	if err != nil || !ok {
		t.Fatalf("NewFromSQLStore: ok=%v err=%v", ok, err)
	}
	if lc.LastHeader().Height != 10 {
		t.Errorf("expected rehydrated height 10, got %d", lc.LastHeader().Height)
	}
}
