// Copyright 2026 Simperby Authors

package filestorage

import (
	"context"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, []byte("k1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "v1" {
		t.Errorf("expected v1, got %q", v)
	}

	if err := s.Delete(ctx, []byte("k1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	v, err = s.Get(ctx, []byte("k1"))
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil after delete, got %q", v)
	}
}

func TestIterate(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, []byte(k), []byte(k+"-value")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	var seen []string
	err = s.Iterate(ctx, []byte("a"), []byte("z"), func(key, value []byte) bool {
		seen = append(seen, string(key))
		return true
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 keys, got %v", seen)
	}
}

func TestOpen_RejectsSecondLockHolder(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := Open(dir, "test"); err == nil {
		t.Error("expected a second Open of the same directory to fail")
	}
}
