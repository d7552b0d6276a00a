// Copyright 2026 Simperby Authors
//
// Merkle Tree Implementation for Commit Roots
//
// This implementation provides:
// - One-shot, write-once binary Merkle tree construction over commit hashes
// - Inclusion proof generation for any leaf
// - Verification of inclusion proofs
// - Thread-safe operations (built once, read concurrently afterward)
//
// The tree/proof arithmetic is delegated to CometBFT's crypto/merkle
// package rather than hand-rolled, which is also where this module's
// Ed25519 keys come from (see pkg/crypto/sig.go).

package merkle

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	cmtmerkle "github.com/cometbft/cometbft/crypto/merkle"

	"github.com/simperby-go/simperby/pkg/crypto"
)

// Common errors
var (
	ErrInvalidProof    = errors.New("invalid merkle proof")
	ErrLeafNotFound    = errors.New("leaf not found in tree")
	ErrInvalidLeafHash = errors.New("leaf hash must be 32 bytes")
)

// InclusionProof represents a complete Merkle inclusion proof, sufficient
// to verify that a leaf exists in a tree with a given root without
// holding the full tree.
type InclusionProof struct {
	LeafHash   string `json:"leaf_hash"`
	LeafIndex  int    `json:"leaf_index"`
	MerkleRoot string `json:"merkle_root"`
	TreeSize   int    `json:"tree_size"`

	raw *cmtmerkle.Proof
}

// Tree is a one-shot Merkle tree: built once from a fixed set of leaves,
// then only ever read. There is no incremental insert - a height's full
// transaction set is known before the tree is built.
type Tree struct {
	mu     sync.RWMutex
	leaves [][]byte
	root   []byte
	built  bool
}

// NewTree returns an empty, unbuilt tree. Root() on an empty tree yields
// the zero hash, matching the "previous hash of the first block"
// convention used throughout the commit graph.
func NewTree() *Tree {
	return &Tree{leaves: make([][]byte, 0)}
}

// BuildTree creates a new Merkle tree from the given leaf hashes. An
// empty slice is accepted and yields the zero root.
func BuildTree(leaves []crypto.Hash256) (*Tree, error) {
	t := &Tree{leaves: make([][]byte, len(leaves))}
	for i, leaf := range leaves {
		t.leaves[i] = leaf.Bytes()
	}
	t.build()
	return t, nil
}

func (t *Tree) build() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.leaves) == 0 {
		t.root = crypto.ZeroHash256.Bytes()
		t.built = true
		return
	}

	t.root = cmtmerkle.HashFromByteSlices(t.leaves)
	t.built = true
}

// Root returns the Merkle root.
func (t *Tree) Root() crypto.Hash256 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.built {
		return crypto.ZeroHash256
	}
	var h crypto.Hash256
	copy(h[:], t.root)
	return h
}

// LeafCount returns the number of leaves in the tree.
func (t *Tree) LeafCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.leaves)
}

// GetLeaf returns the leaf at the given index.
func (t *Tree) GetLeaf(index int) (crypto.Hash256, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= len(t.leaves) {
		return crypto.Hash256{}, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(t.leaves))
	}
	var h crypto.Hash256
	copy(h[:], t.leaves[index])
	return h, nil
}

// GenerateProof generates an inclusion proof for the leaf at the given index.
func (t *Tree) GenerateProof(leafIndex int) (*InclusionProof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.built {
		return nil, errors.New("merkle: tree not built")
	}
	if leafIndex < 0 || leafIndex >= len(t.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", leafIndex, len(t.leaves))
	}

	rootHash, proofs := cmtmerkle.ProofsFromByteSlices(t.leaves)
	proof := proofs[leafIndex]

	return &InclusionProof{
		LeafHash:   hex.EncodeToString(t.leaves[leafIndex]),
		LeafIndex:  leafIndex,
		MerkleRoot: hex.EncodeToString(rootHash),
		TreeSize:   len(t.leaves),
		raw:        proof,
	}, nil
}

// GenerateProofByHash generates an inclusion proof for a leaf by its hash.
func (t *Tree) GenerateProofByHash(leafHash crypto.Hash256) (*InclusionProof, error) {
	t.mu.RLock()
	target := leafHash.String()
	foundIndex := -1
	for i, leaf := range t.leaves {
		if hex.EncodeToString(leaf) == target {
			foundIndex = i
			break
		}
	}
	t.mu.RUnlock()

	if foundIndex == -1 {
		return nil, ErrLeafNotFound
	}
	return t.GenerateProof(foundIndex)
}

// VerifyProof verifies that a leaf is included in a tree with the given
// expected root.
func VerifyProof(leafHash crypto.Hash256, proof *InclusionProof, expectedRoot crypto.Hash256) error {
	if proof == nil || proof.raw == nil {
		return ErrInvalidProof
	}
	if proof.raw.Verify(expectedRoot.Bytes(), leafHash.Bytes()) != nil {
		return ErrInvalidProof
	}
	return nil
}
