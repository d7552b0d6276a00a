// Copyright 2026 Simperby Authors
//
// Package lightclient implements a minimal, storage-light verifier of
// the chain's finalized history: it holds only a header and the two
// running lists of per-height Merkle roots it needs to check inclusion
// proofs, and advances one block at a time as Update is fed a new
// header and its finalization proof.
package lightclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/errs"
	"github.com/simperby-go/simperby/pkg/merkle"
)

// LightClient tracks the finalized chain without holding the Git
// repository or the full commit set: just the roots committed to by
// each finalized header, addressed relative to heightOffset.
type LightClient struct {
	mu sync.RWMutex

	repositoryRoots []crypto.Hash256
	commitRoots     []crypto.Hash256
	heightOffset    domain.BlockHeight
	lastHeader      domain.BlockHeader

	// store is nil unless the client was built by NewFromSQLStore, in
	// which case Update also persists each accepted header there.
	store *SQLStore
}

// New initializes a light client pinned at initialHeader, trusting it
// without further verification - the caller is responsible for having
// obtained initialHeader out of band (genesis, or a trusted checkpoint).
func New(initialHeader domain.BlockHeader) *LightClient {
	return &LightClient{
		repositoryRoots: []crypto.Hash256{initialHeader.RepositoryMerkleRoot},
		commitRoots:     []crypto.Hash256{initialHeader.CommitMerkleRoot},
		heightOffset:    initialHeader.Height,
		lastHeader:      initialHeader,
	}
}

// LastHeader returns the most recently accepted header.
func (lc *LightClient) LastHeader() domain.BlockHeader {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.lastHeader
}

// Update advances the light client by one block: header must
// immediately follow the current last header, and proof must finalize
// it with more than 2/3 of header's own validator set's voting power.
func (lc *LightClient) Update(header domain.BlockHeader, proof domain.FinalizationProof) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if err := verifyHeaderToHeader(lc.lastHeader, header); err != nil {
		return err
	}
	if err := verifyFinalizationProof(header, proof); err != nil {
		return err
	}

	lc.repositoryRoots = append(lc.repositoryRoots, header.RepositoryMerkleRoot)
	lc.commitRoots = append(lc.commitRoots, header.CommitMerkleRoot)
	lc.lastHeader = header

	if lc.store != nil {
		if err := lc.store.SaveHeader(context.Background(), header); err != nil {
			return err
		}
	}
	return nil
}

// verifyHeaderToHeader checks that next is a legitimate direct
// successor of prev: it must sit exactly one height above prev, and
// name prev's hash as its previous-hash link. The validator set named
// in next is not re-derived here (that requires replaying reserved
// state through CSV, which the light client is explicitly built to
// avoid) - verifyFinalizationProof instead trusts next's own embedded
// ValidatorSet, the same way a header-chain light client trusts the
// header it is walking forward from.
func verifyHeaderToHeader(prev, next domain.BlockHeader) error {
	if next.Height != prev.Height+1 {
		return errs.New(errs.Verification, next.ToHash256().String(), fmt.Errorf("header height %d does not directly follow %d", next.Height, prev.Height))
	}
	if next.PreviousHash != prev.ToHash256() {
		return errs.New(errs.Verification, next.ToHash256().String(), fmt.Errorf("header previous_hash does not match the last accepted header"))
	}
	return nil
}

// verifyFinalizationProof checks proof finalizes header against
// header's own validator set.
func verifyFinalizationProof(header domain.BlockHeader, proof domain.FinalizationProof) error {
	target := domain.FinalizationSignTarget{BlockHash: header.ToHash256(), Round: proof.Round}
	var total uint64
	for _, v := range header.ValidatorSet {
		total += v.VotingPower
	}
	signed := proof.VotingPowerSum(target, header.ValidatorSet)
	if total == 0 || !(3*signed > 2*total) {
		return errs.New(errs.Verification, header.ToHash256().String(), fmt.Errorf("finalization proof covers %d/%d voting power, need >2/3", signed, total))
	}
	return nil
}

// heightIndex maps an absolute height to the corresponding index into
// repositoryRoots/commitRoots, or reports that height falls outside
// the range this light client currently holds.
func (lc *LightClient) heightIndex(height domain.BlockHeight) (int, bool) {
	if height < lc.heightOffset {
		return 0, false
	}
	idx := height - lc.heightOffset
	if idx >= uint64(len(lc.commitRoots)) {
		return 0, false
	}
	return int(idx), true
}

// VerifyTransactionCommitment checks that tx was committed at
// blockHeight by recomputing proof against that height's commit root.
func (lc *LightClient) VerifyTransactionCommitment(tx domain.Transaction, blockHeight domain.BlockHeight, proof *merkle.InclusionProof) bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	idx, ok := lc.heightIndex(blockHeight)
	if !ok {
		return false
	}
	return merkle.VerifyProof(tx.ToHash256(), proof, lc.commitRoots[idx]) == nil
}

// VerifyStateCommitment checks that a reserved/non-reserved repository
// state entry, addressed by its own canonical hash, was committed at
// blockHeight - the same pattern as VerifyTransactionCommitment, against
// repositoryRoots instead of commitRoots.
func (lc *LightClient) VerifyStateCommitment(entryHash crypto.Hash256, blockHeight domain.BlockHeight, proof *merkle.InclusionProof) bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	idx, ok := lc.heightIndex(blockHeight)
	if !ok {
		return false
	}
	return merkle.VerifyProof(entryHash, proof, lc.repositoryRoots[idx]) == nil
}
