// Copyright 2026 Simperby Authors
//
// Package repository implements the distributed repository protocol:
// the rules mapping a remote peer's Git branch tip into this node's
// commit graph, genesis bootstrap, and the push-eligibility check a
// pre-receive hook runs before accepting a push.
//
// The protocol itself never touches Git plumbing directly - it drives
// a ports.RawRepository and reasons only in terms of commit hashes and
// the domain's Commit grammar, the same separation the source material
// draws between its `receive.rs`/`interpret/push.rs` interpreters and
// `raw.rs`'s trait.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/csv"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/errs"
	"github.com/simperby-go/simperby/pkg/ports"
)

const (
	FinalizedBranch ports.Branch = "finalized"
	FPBranch        ports.Branch = "fp"
	WorkBranch      ports.Branch = "work"
	MainBranch      ports.Branch = "main"
)

// BranchNameHashDigits is how many hex digits of a commit's hash name
// an ephemeral a-/b- branch.
const BranchNameHashDigits = 8

// Repository drives the distributed repository protocol against a raw
// Git handle.
type Repository struct {
	raw ports.RawRepository
}

func New(raw ports.RawRepository) *Repository {
	return &Repository{raw: raw}
}

func (r *Repository) lastFinalizedHeader(ctx context.Context) (domain.BlockHeader, ports.CommitHash, error) {
	commit, err := r.raw.LocateBranch(ctx, FinalizedBranch)
	if err != nil {
		return domain.BlockHeader{}, "", errs.Wrap(errs.Storage, "repository.lastFinalizedHeader", "locate finalized branch: %w", err)
	}
	title, body, err := r.raw.ReadSemanticCommit(ctx, commit)
	if err != nil {
		return domain.BlockHeader{}, "", errs.Wrap(errs.Storage, "repository.lastFinalizedHeader", "read finalized commit: %w", err)
	}
	c, err := domain.FromSemanticCommit(domain.SemanticCommit{Title: title, Body: body})
	if err != nil {
		return domain.BlockHeader{}, "", errs.Wrap(errs.Format, "repository.lastFinalizedHeader", "decode finalized commit: %w", err)
	}
	if c.Kind != domain.CommitBlock {
		return domain.BlockHeader{}, "", errs.New(errs.Integrity, "repository.lastFinalizedHeader", fmt.Errorf("finalized branch does not point at a block commit"))
	}
	return *c.Block, commit, nil
}

func (r *Repository) reservedState(ctx context.Context, commit ports.CommitHash) (domain.ReservedState, error) {
	raw, err := r.raw.ReadReservedState(ctx, commit)
	if err != nil {
		return domain.ReservedState{}, errs.Wrap(errs.Storage, "repository.reservedState", "read reserved state: %w", err)
	}
	var rs domain.ReservedState
	if err := json.Unmarshal(raw, &rs); err != nil {
		return domain.ReservedState{}, errs.Wrap(errs.Format, "repository.reservedState", "decode reserved state: %w", err)
	}
	return rs, nil
}

func (r *Repository) readCommits(ctx context.Context, ancestor, descendant ports.CommitHash) ([]domain.Commit, []ports.CommitHash, error) {
	path, err := r.raw.QueryCommitPath(ctx, ancestor, descendant)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Storage, "repository.readCommits", "query commit path: %w", err)
	}
	commits := make([]domain.Commit, 0, len(path))
	for _, h := range path {
		title, body, err := r.raw.ReadSemanticCommit(ctx, h)
		if err != nil {
			return nil, nil, errs.Wrap(errs.Storage, "repository.readCommits", "read commit %s: %w", h, err)
		}
		c, err := domain.FromSemanticCommit(domain.SemanticCommit{Title: title, Body: body})
		if err != nil {
			return nil, nil, errs.Wrap(errs.Format, "repository.readCommits", "decode commit %s: %w", h, err)
		}
		commits = append(commits, c)
	}
	return commits, path, nil
}

func ephemeralBranchName(c domain.Commit) (ports.Branch, error) {
	switch c.Kind {
	case domain.CommitAgenda:
		return ports.Branch("a-" + c.ToHash256().Prefix(BranchNameHashDigits)), nil
	case domain.CommitAgendaProof:
		return ports.Branch("a-" + c.ToHash256().Prefix(BranchNameHashDigits)), nil
	case domain.CommitBlock:
		return ports.Branch("b-" + c.ToHash256().Prefix(BranchNameHashDigits)), nil
	default:
		return "", fmt.Errorf("commit sequence ends with a %s commit, not agenda/agenda-proof/block", c.Kind)
	}
}

// Receive evaluates a candidate branch tip (from a fetch or a push)
// against this node's finalized branch, either advancing `finalized`/
// `fp` (when the tip carries a valid finalization proof over an
// already-CSV-accepted block), creating an ephemeral a-/b- branch
// (when the tip's commit sequence replays cleanly through CSV but
// isn't finalized yet), or rejecting the tip with a reason. When such
// a replay completes two or more new blocks, `finalized`/`fp` also
// advance to the second-to-last of them before the branch is created.
func (r *Repository) Receive(ctx context.Context, tip ports.CommitHash) (accepted bool, reason string, err error) {
	lastHeader, lastCommit, err := r.lastFinalizedHeader(ctx)
	if err != nil {
		return false, "", err
	}
	reservedState, err := r.reservedState(ctx, lastCommit)
	if err != nil {
		return false, "", err
	}

	base, err := r.raw.FindMergeBase(ctx, lastCommit, tip)
	if err != nil {
		return false, "", errs.Wrap(errs.Storage, "repository.Receive", "find merge base: %w", err)
	}
	if base != lastCommit {
		return false, "the received branch tip is not a descendant of the last finalized block", nil
	}

	if title, body, ferr := r.raw.ReadSemanticCommit(ctx, tip); ferr == nil && domain.IsFinalizationProofTitle(title) {
		l, ferr := domain.FromFinalizationProofSemanticCommit(domain.SemanticCommit{Title: title, Body: body})
		if ferr != nil {
			return false, "fp commit body does not decode", nil
		}

		ancestors, aerr := r.raw.ListAncestors(ctx, tip, 1)
		if aerr != nil || len(ancestors) == 0 {
			return false, "", errs.Wrap(errs.Storage, "repository.Receive", "list ancestors: %w", aerr)
		}
		blockCommitHash := ancestors[0]
		if blockCommitHash == lastCommit {
			return false, "the received commit is already finalized", nil
		}

		verifier := csv.New(lastHeader, reservedState)
		commits, hashes, cerr := r.readCommits(ctx, lastCommit, blockCommitHash)
		if cerr != nil {
			return false, "", cerr
		}
		for i, c := range commits {
			if aerr := verifier.ApplyCommit(c); aerr != nil {
				return false, fmt.Sprintf("commit sequence verification failed: %v at %s", aerr, hashes[i]), nil
			}
		}
		last := commits[len(commits)-1]
		if last.Kind != domain.CommitBlock {
			return false, "fp commit must sit on top of a block commit", nil
		}
		if verr := verifier.VerifyLastHeaderFinalization(l.Proof); verr != nil {
			return false, "finalization proof is invalid for the last block", nil
		}
		if aerr := r.advanceFinalized(ctx, blockCommitHash, l); aerr != nil {
			return false, "", aerr
		}
		return true, "", nil
	}

	if tip == lastCommit {
		return false, "the received commit is already finalized", nil
	}

	verifier := csv.New(lastHeader, reservedState)
	commits, hashes, cerr := r.readCommits(ctx, lastCommit, tip)
	if cerr != nil {
		return false, "", cerr
	}
	for i, c := range commits {
		if aerr := verifier.ApplyCommit(c); aerr != nil {
			return false, fmt.Sprintf("commit sequence verification failed: %v at %s", aerr, hashes[i]), nil
		}
	}

	headers := verifier.GetBlockHeaders()
	if len(headers) > 2 {
		// headers[0] is the seed header (lastHeader), not a commit in
		// this call's own commits/hashes slice - AppliedHeader.Index
		// counts position within the verifier's own running history,
		// not position within commits, so it cannot index hashes
		// directly. Recover each completed block's own commit hash by
		// scanning commits for CommitBlock instead; one such commit
		// exists per non-seed entry in headers.
		var blockHashes []ports.CommitHash
		for i, c := range commits {
			if c.Kind == domain.CommitBlock {
				blockHashes = append(blockHashes, hashes[i])
			}
		}
		if len(blockHashes) != len(headers)-1 {
			return false, "", errs.New(errs.Integrity, string(tip), fmt.Errorf("applied %d block headers but found %d block commits", len(headers)-1, len(blockHashes)))
		}
		last := headers[len(headers)-1]
		secondToLast := headers[len(headers)-2]
		secondToLastCommit := blockHashes[len(blockHashes)-2]
		if aerr := r.advanceFinalized(ctx, secondToLastCommit, domain.LastFinalizationProof{
			Height: secondToLast.Header.Height,
			Proof:  last.Header.PrevBlockFinalizationProof,
		}); aerr != nil {
			return false, "", aerr
		}
	}

	branch, berr := ephemeralBranchName(commits[len(commits)-1])
	if berr != nil {
		return false, berr.Error(), nil
	}
	if _, lerr := r.raw.LocateBranch(ctx, branch); lerr == nil {
		return false, fmt.Sprintf("branch already exists: %s", branch), nil
	}
	if cerr := r.raw.CreateBranch(ctx, branch, tip); cerr != nil {
		return false, "", errs.Wrap(errs.Storage, "repository.Receive", "create branch %s: %w", branch, cerr)
	}
	return true, "", nil
}

func (r *Repository) advanceFinalized(ctx context.Context, blockCommit ports.CommitHash, proof domain.LastFinalizationProof) error {
	if err := r.raw.CheckoutClean(ctx); err != nil {
		return errs.Wrap(errs.Storage, "repository.advanceFinalized", "checkout clean: %w", err)
	}
	if err := r.raw.MoveBranch(ctx, FinalizedBranch, blockCommit); err != nil {
		return errs.Wrap(errs.Storage, "repository.advanceFinalized", "move finalized branch: %w", err)
	}
	if err := r.raw.MoveBranch(ctx, FPBranch, blockCommit); err != nil {
		return errs.Wrap(errs.Storage, "repository.advanceFinalized", "move fp branch: %w", err)
	}
	if err := r.raw.Checkout(ctx, FPBranch); err != nil {
		return errs.Wrap(errs.Storage, "repository.advanceFinalized", "checkout fp branch: %w", err)
	}
	sc, err := domain.ToFinalizationProofSemanticCommit(proof)
	if err != nil {
		return errs.Wrap(errs.Format, "repository.advanceFinalized", "encode fp commit: %w", err)
	}
	if err := r.raw.CreateSemanticCommit(ctx, FPBranch, sc.Title, sc.Body, nil); err != nil {
		return errs.Wrap(errs.Storage, "repository.advanceFinalized", "create fp commit: %w", err)
	}
	return nil
}

// Genesis bootstraps a brand-new repository: `finalized` at the
// genesis block commit, `fp` carrying the embedded genesis proof, and
// `main` tracking `finalized`.
func (r *Repository) Genesis(ctx context.Context, genesis domain.GenesisInfo) error {
	block := domain.BlockCommit(genesis.Header)
	sc, err := domain.ToSemanticCommit(block)
	if err != nil {
		return errs.Wrap(errs.Format, "repository.Genesis", "encode genesis block commit: %w", err)
	}
	if err := r.raw.CreateSemanticCommit(ctx, FinalizedBranch, sc.Title, sc.Body, nil); err != nil {
		return errs.Wrap(errs.Storage, "repository.Genesis", "create genesis commit: %w", err)
	}
	genesisCommit, err := r.raw.GetHead(ctx)
	if err != nil {
		return errs.Wrap(errs.Storage, "repository.Genesis", "read head after genesis commit: %w", err)
	}
	if err := r.advanceFinalized(ctx, genesisCommit, domain.LastFinalizationProof{Height: 0, Proof: genesis.GenesisProof}); err != nil {
		return err
	}
	if err := r.raw.CreateBranch(ctx, MainBranch, genesisCommit); err != nil {
		return errs.Wrap(errs.Storage, "repository.Genesis", "create main branch: %w", err)
	}
	return nil
}

// PushEligibilitySignTarget is what a pushing member signs to prove it
// authorized a particular push.
type PushEligibilitySignTarget struct {
	CommitHash ports.CommitHash
	Branch     ports.Branch
	Timestamp  int64
}

func (t PushEligibilitySignTarget) CanonicalEncode(w *crypto.Writer) {
	w.WriteString(string(t.CommitHash))
	w.WriteString(string(t.Branch))
	w.WriteI64(t.Timestamp)
}

func (t PushEligibilitySignTarget) ToHash256() crypto.Hash256 { return crypto.HashCanonical(t) }

// PushEligibilityThreshold bounds how far a push-option timestamp may
// drift from the receiving node's own clock before it is rejected as
// stale or forged-in-the-future.
const PushEligibilityThreshold = 60 // seconds

// TestPushEligibility implements the pre-receive hook: the signature
// must verify over (commit, branch, timestamp), the signer must be a
// current, non-expelled member, and the timestamp must fall within
// PushEligibilityThreshold seconds of nowUnix.
func TestPushEligibility(reservedState domain.ReservedState, target PushEligibilitySignTarget, sig crypto.TypedSignature[PushEligibilitySignTarget], nowUnix int64) bool {
	if !sig.Verify(target) {
		return false
	}
	if !isEligibleMember(reservedState, sig.Signer) {
		return false
	}
	drift := nowUnix - target.Timestamp
	if drift < 0 {
		drift = -drift
	}
	return drift <= PushEligibilityThreshold
}

func isEligibleMember(rs domain.ReservedState, pk crypto.PublicKey) bool {
	for _, m := range rs.Members {
		if m.PublicKey.Equal(pk) {
			return !m.Expelled
		}
	}
	return false
}
