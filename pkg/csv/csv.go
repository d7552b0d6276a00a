// Copyright 2026 Simperby Authors
//
// Package csv implements the Commit Sequence Verifier: the state
// machine that enforces the legal grammar of commits on a branch,
//
//	(Transaction | ChatLog)* Agenda AgendaProof ExtraAgendaTransaction* Block
//
// repeating after every Block, and the cryptographic invariants that go
// with each commit kind. apply_commit is atomic: on any check failure
// the verifier's state is left exactly as it was before the call.

package csv

import (
	"fmt"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/errs"
	"github.com/simperby-go/simperby/pkg/merkle"
	"github.com/simperby-go/simperby/pkg/reserved"
)

// Phase names where in the grammar the verifier currently sits.
type Phase int

const (
	// PhaseTransaction accepts zero or more Transaction/ChatLog commits,
	// or a single Agenda to advance.
	PhaseTransaction Phase = iota
	// PhaseAgendaProof accepts exactly one AgendaProof.
	PhaseAgendaProof
	// PhaseExtraAgenda accepts zero or more ExtraAgendaTransaction
	// commits, or a single Block to close the cycle.
	PhaseExtraAgenda
)

// AppliedHeader pairs a BlockHeader with its position in this
// Verifier's own appliedHeaders history (the seed header is index 0).
// Index is NOT a position within any caller's external commit list -
// it counts applied block headers only, not the non-block commits
// applied between them, so callers must not use Index to address
// their own commit/hash slices.
type AppliedHeader struct {
	Header domain.BlockHeader
	Index  int
}

// Verifier holds the state accumulated by successive apply_commit
// calls: the last applied header, the reserved state as of that
// header, and whatever partial grammar progress has been made toward
// the next block.
type Verifier struct {
	lastHeader    domain.BlockHeader
	reservedState domain.ReservedState
	phase         Phase

	pendingTransactions []domain.Transaction
	lastPhaseTimestamp  domain.Timestamp
	pendingAgenda       *domain.Agenda
	pendingAgendaProof  *domain.AgendaProof
	pendingReservedDiff *domain.ReservedState // accumulated reserved changes since last block

	commitsSinceBlock []domain.Commit
	appliedHeaders    []AppliedHeader
	totalCommits      int

	engine reserved.Engine
}

// New seeds a verifier with the last finalized header and the reserved
// state as of that header.
func New(lastHeader domain.BlockHeader, rs domain.ReservedState) *Verifier {
	return &Verifier{
		lastHeader:         lastHeader,
		reservedState:      rs,
		phase:              PhaseTransaction,
		lastPhaseTimestamp: lastHeader.Timestamp,
		appliedHeaders:     []AppliedHeader{{Header: lastHeader, Index: 0}},
	}
}

// GetBlockHeaders returns every applied header, including the seed, in
// application order.
func (v *Verifier) GetBlockHeaders() []AppliedHeader {
	out := make([]AppliedHeader, len(v.appliedHeaders))
	copy(out, v.appliedHeaders)
	return out
}

// GetTotalCommits returns the number of commits successfully applied
// (not counting the seed header).
func (v *Verifier) GetTotalCommits() int {
	return v.totalCommits
}

// LastHeader returns the most recently applied (or seed) header.
func (v *Verifier) LastHeader() domain.BlockHeader {
	return v.lastHeader
}

// ReservedState returns the reserved state as of the last applied header.
func (v *Verifier) ReservedState() domain.ReservedState {
	return v.reservedState
}

// ApplyCommit validates c against the current grammar position and
// cryptographic invariants, advancing state on success. On failure the
// verifier is left completely unchanged.
func (v *Verifier) ApplyCommit(c domain.Commit) error {
	switch v.phase {
	case PhaseTransaction:
		switch c.Kind {
		case domain.CommitTransaction:
			return v.applyTransaction(c)
		case domain.CommitChatLog:
			return v.applyChatLog(c)
		case domain.CommitAgenda:
			return v.applyAgenda(c)
		default:
			return v.grammarError(c)
		}
	case PhaseAgendaProof:
		if c.Kind != domain.CommitAgendaProof {
			return v.grammarError(c)
		}
		return v.applyAgendaProof(c)
	case PhaseExtraAgenda:
		switch c.Kind {
		case domain.CommitExtraAgendaTransaction:
			return v.applyExtraAgenda(c)
		case domain.CommitBlock:
			return v.applyBlock(c)
		default:
			return v.grammarError(c)
		}
	default:
		return errs.New(errs.InvalidOperation, "", fmt.Errorf("unknown phase %d", v.phase))
	}
}

func (v *Verifier) grammarError(c domain.Commit) error {
	return errs.New(errs.Verification, c.String(), fmt.Errorf("commit kind %s not legal in phase %d", c.Kind, v.phase))
}

func (v *Verifier) applyTransaction(c domain.Commit) error {
	tx := *c.Transaction
	if tx.Timestamp < v.lastPhaseTimestamp {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("transaction timestamp %d precedes phase timestamp %d", tx.Timestamp, v.lastPhaseTimestamp))
	}

	v.pendingTransactions = append(v.pendingTransactions, tx)
	v.lastPhaseTimestamp = tx.Timestamp
	v.commitsSinceBlock = append(v.commitsSinceBlock, c)
	v.totalCommits++
	return nil
}

func (v *Verifier) applyChatLog(c domain.Commit) error {
	cl := *c.ChatLog
	if cl.Timestamp < v.lastPhaseTimestamp {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("chat log timestamp %d precedes phase timestamp %d", cl.Timestamp, v.lastPhaseTimestamp))
	}

	v.lastPhaseTimestamp = cl.Timestamp
	v.commitsSinceBlock = append(v.commitsSinceBlock, c)
	v.totalCommits++
	return nil
}

func (v *Verifier) applyAgenda(c domain.Commit) error {
	a := *c.Agenda

	if a.Height != v.lastHeader.Height+1 {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda height %d != %d", a.Height, v.lastHeader.Height+1))
	}
	wantHash := domain.FoldTransactionsHash(v.pendingTransactions)
	if a.TransactionsHash != wantHash {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda transactions_hash mismatch"))
	}
	if _, ok := v.engine.QueryName(v.reservedState, a.Author); !ok {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda author is not a member"))
	}

	agenda := a
	v.pendingAgenda = &agenda
	v.commitsSinceBlock = append(v.commitsSinceBlock, c)
	v.totalCommits++
	v.phase = PhaseAgendaProof
	return nil
}

func (v *Verifier) applyAgendaProof(c domain.Commit) error {
	p := *c.AgendaProof

	if v.pendingAgenda == nil {
		return errs.New(errs.Integrity, c.String(), fmt.Errorf("agenda-proof phase reached without a pending agenda"))
	}
	if p.Height != v.pendingAgenda.Height {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda-proof height %d != agenda height %d", p.Height, v.pendingAgenda.Height))
	}
	if p.AgendaHash != v.pendingAgenda.ToHash256() {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda-proof does not match pending agenda"))
	}

	governance, err := v.engine.GetGovernanceSet(v.reservedState)
	if err != nil {
		return errs.New(errs.Integrity, c.String(), err)
	}
	var total, signed uint64
	for _, g := range governance {
		total += g.VotingPower
	}
	powerOf := make(map[string]domain.VotingPower, len(governance))
	for _, g := range governance {
		powerOf[g.PublicKey.String()] = g.VotingPower
	}
	seen := make(map[string]bool, len(p.Proof))
	for _, sig := range p.Proof {
		key := sig.Signer.String()
		if seen[key] {
			continue
		}
		power, ok := powerOf[key]
		if !ok || !sig.Verify(*v.pendingAgenda) {
			continue
		}
		seen[key] = true
		signed += power
	}
	if !(3*signed > 2*total) {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("agenda-proof signatures cover %d/%d governance power, need >2/3", signed, total))
	}

	proof := p
	v.pendingAgendaProof = &proof
	v.commitsSinceBlock = append(v.commitsSinceBlock, c)
	v.totalCommits++
	v.phase = PhaseExtraAgenda
	return nil
}

func (v *Verifier) applyExtraAgenda(c domain.Commit) error {
	e := *c.ExtraAgendaTransaction

	nextHeight := v.lastHeader.Height + 1
	switch e.Kind {
	case domain.ExtraAgendaDelegate:
		tx := e.Delegate
		if !tx.Proof.Signer.Equal(tx.Delegator) {
			return errs.New(errs.Crypto, c.String(), fmt.Errorf("delegate proof signer != declared delegator"))
		}
		if !tx.Proof.Verify(tx.Target(nextHeight)) {
			return errs.New(errs.Crypto, c.String(), fmt.Errorf("delegate proof does not verify"))
		}
		rs := v.pendingReservedState()
		updated, err := v.engine.ApplyDelegate(rs, *tx)
		if err != nil {
			return errs.New(errs.Verification, c.String(), err)
		}
		v.pendingReservedDiff = &updated
	case domain.ExtraAgendaUndelegate:
		tx := e.Undelegate
		if !tx.Proof.Signer.Equal(tx.Delegator) {
			return errs.New(errs.Crypto, c.String(), fmt.Errorf("undelegate proof signer != declared delegator"))
		}
		if !tx.Proof.Verify(tx.Target(nextHeight)) {
			return errs.New(errs.Crypto, c.String(), fmt.Errorf("undelegate proof does not verify"))
		}
		rs := v.pendingReservedState()
		updated, err := v.engine.ApplyUndelegate(rs, *tx)
		if err != nil {
			return errs.New(errs.Verification, c.String(), err)
		}
		v.pendingReservedDiff = &updated
	case domain.ExtraAgendaReport:
		// TxReport carries no verifiable proof in this model; the
		// grammar position alone (post agenda-proof) is the check.
	default:
		return errs.New(errs.Format, c.String(), fmt.Errorf("unknown extra-agenda-transaction kind %q", e.Kind))
	}

	v.commitsSinceBlock = append(v.commitsSinceBlock, c)
	v.totalCommits++
	return nil
}

func (v *Verifier) pendingReservedState() domain.ReservedState {
	if v.pendingReservedDiff != nil {
		return *v.pendingReservedDiff
	}
	return v.reservedState
}

func (v *Verifier) applyBlock(c domain.Commit) error {
	h := *c.Block

	if h.Height != v.lastHeader.Height+1 {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("block height %d != %d", h.Height, v.lastHeader.Height+1))
	}
	if h.PreviousHash != v.lastHeader.ToHash256() {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("block previous_hash mismatch"))
	}

	target := domain.FinalizationSignTarget{BlockHash: v.lastHeader.ToHash256(), Round: h.PrevBlockFinalizationProof.Round}
	var lastTotal uint64
	for _, e := range v.lastHeader.ValidatorSet {
		lastTotal += e.VotingPower
	}
	signed := h.PrevBlockFinalizationProof.VotingPowerSum(target, v.lastHeader.ValidatorSet)
	if lastTotal > 0 && !(3*signed > 2*lastTotal) {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("prev_block_finalization_proof covers %d/%d voting power, need >2/3", signed, lastTotal))
	}

	leaves := make([]crypto.Hash256, len(v.commitsSinceBlock))
	for i, cc := range v.commitsSinceBlock {
		leaves[i] = cc.ToHash256()
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return errs.New(errs.Integrity, c.String(), err)
	}
	if h.CommitMerkleRoot != tree.Root() {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("commit_merkle_root mismatch"))
	}

	nextReserved := v.pendingReservedState()
	wantValidators, err := v.engine.GetValidatorSet(nextReserved)
	if err != nil {
		return errs.New(errs.Integrity, c.String(), err)
	}
	if !sameValidatorSet(h.ValidatorSet, wantValidators) {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("validator_set does not match reserved-state derivation"))
	}

	if v.lastHeader.Version != "" && !versionGTE(h.Version, v.lastHeader.Version) {
		return errs.New(errs.Verification, c.String(), fmt.Errorf("version %q must be >= previous version %q", h.Version, v.lastHeader.Version))
	}

	// Commit all pending changes atomically.
	v.lastHeader = h
	v.reservedState = nextReserved
	v.phase = PhaseTransaction
	v.pendingTransactions = nil
	v.lastPhaseTimestamp = h.Timestamp
	v.pendingAgenda = nil
	v.pendingAgendaProof = nil
	v.pendingReservedDiff = nil
	v.commitsSinceBlock = nil
	v.appliedHeaders = append(v.appliedHeaders, AppliedHeader{Header: h, Index: len(v.appliedHeaders)})
	v.totalCommits++
	return nil
}

func sameValidatorSet(a, b []domain.ValidatorEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].PublicKey.Equal(b[i].PublicKey) || a[i].VotingPower != b[i].VotingPower {
			return false
		}
	}
	return true
}

// versionGTE does a component-wise numeric comparison of dotted
// version strings ("0.2.3" >= "0.2.2"); non-digit characters only
// separate numeric components and are otherwise ignored, and a missing
// component counts as 0.
func versionGTE(a, b string) bool {
	pa, pb := splitVersion(a), splitVersion(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var va, vb int
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va != vb {
			return va > vb
		}
	}
	return true
}

func splitVersion(s string) []int {
	var out []int
	cur := 0
	has := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur = cur*10 + int(r-'0')
			has = true
			continue
		}
		if has {
			out = append(out, cur)
		}
		cur, has = 0, false
	}
	if has {
		out = append(out, cur)
	}
	return out
}

// VerifyLastHeaderFinalization checks that proof finalizes the most
// recently applied block: its signatures must verify
// FinalizationSignTarget{hash(last applied block), proof.round} and sum
// to more than 2/3 of that block's validator set.
func (v *Verifier) VerifyLastHeaderFinalization(proof domain.FinalizationProof) error {
	target := domain.FinalizationSignTarget{BlockHash: v.lastHeader.ToHash256(), Round: proof.Round}
	var total uint64
	for _, e := range v.lastHeader.ValidatorSet {
		total += e.VotingPower
	}
	signed := proof.VotingPowerSum(target, v.lastHeader.ValidatorSet)
	if total > 0 && !(3*signed > 2*total) {
		return errs.New(errs.Verification, v.lastHeader.ToHash256().String(), fmt.Errorf("finalization proof covers %d/%d voting power, need >2/3", signed, total))
	}
	return nil
}
