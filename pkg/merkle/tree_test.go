// Copyright 2026 Simperby Authors
//
// Merkle Tree Tests

package merkle

import (
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
)

func leaf(s string) crypto.Hash256 {
	return crypto.HashString(s)
}

func TestBuildTree_EmptyYieldsZeroRoot(t *testing.T) {
	tree, err := BuildTree(nil)
	if err != nil {
		t.Fatalf("failed to build empty tree: %v", err)
	}
	if tree.Root() != crypto.ZeroHash256 {
		t.Errorf("empty tree root mismatch: got %s, want zero", tree.Root())
	}
	if tree.LeafCount() != 0 {
		t.Errorf("leaf count mismatch: got %d, want 0", tree.LeafCount())
	}
}

func TestBuildTree_SingleLeaf(t *testing.T) {
	l := leaf("test data")
	tree, err := BuildTree([]crypto.Hash256{l})
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}

	// CometBFT's RFC 6962 tree hashes a lone leaf as SHA-256(0x00 || leaf).
	want := crypto.Hash(append([]byte{0x00}, l[:]...))
	if tree.Root() != want {
		t.Errorf("single leaf root mismatch: got %s, want %s", tree.Root(), want)
	}
	if tree.LeafCount() != 1 {
		t.Errorf("leaf count mismatch: got %d, want 1", tree.LeafCount())
	}
}

func TestBuildTree_FourLeaves(t *testing.T) {
	leaves := make([]crypto.Hash256, 4)
	for i := range leaves {
		leaves[i] = crypto.Hash([]byte{byte(i)})
	}

	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}

	if tree.LeafCount() != 4 {
		t.Errorf("leaf count mismatch: got %d, want 4", tree.LeafCount())
	}
	if tree.Root().IsZero() {
		t.Error("root is zero for non-empty tree")
	}
}

func TestBuildTree_OddLeaves(t *testing.T) {
	leaves := make([]crypto.Hash256, 3)
	for i := range leaves {
		leaves[i] = crypto.Hash([]byte{byte(i)})
	}

	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree with odd leaves: %v", err)
	}
	if tree.LeafCount() != 3 {
		t.Errorf("leaf count mismatch: got %d, want 3", tree.LeafCount())
	}
	if tree.Root().IsZero() {
		t.Error("root is zero for odd-leaf tree")
	}
}

func TestGenerateProof_RoundTrip(t *testing.T) {
	leaves := make([]crypto.Hash256, 5)
	for i := range leaves {
		leaves[i] = crypto.Hash([]byte{byte(i), byte(i)})
	}

	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}

	for i, l := range leaves {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			t.Fatalf("failed to generate proof for leaf %d: %v", i, err)
		}
		if err := VerifyProof(l, proof, tree.Root()); err != nil {
			t.Errorf("proof for leaf %d did not verify: %v", i, err)
		}
	}
}

func TestGenerateProof_ByHash(t *testing.T) {
	leaves := []crypto.Hash256{leaf("a"), leaf("b"), leaf("c")}
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}

	proof, err := tree.GenerateProofByHash(leaves[1])
	if err != nil {
		t.Fatalf("failed to generate proof by hash: %v", err)
	}
	if err := VerifyProof(leaves[1], proof, tree.Root()); err != nil {
		t.Errorf("proof by hash did not verify: %v", err)
	}

	if _, err := tree.GenerateProofByHash(leaf("not present")); err != ErrLeafNotFound {
		t.Errorf("expected ErrLeafNotFound, got %v", err)
	}
}

func TestVerifyProof_RejectsWrongRoot(t *testing.T) {
	leaves := []crypto.Hash256{leaf("a"), leaf("b"), leaf("c"), leaf("d")}
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}

	proof, err := tree.GenerateProof(2)
	if err != nil {
		t.Fatalf("failed to generate proof: %v", err)
	}

	if err := VerifyProof(leaves[2], proof, leaf("wrong root")); err == nil {
		t.Error("expected verification failure against wrong root")
	}
}
