// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// FinalizationSignTarget is the value validators sign to finalize a
// block: the block's hash together with the round finalization
// occurred in (finalization may happen in any round >= 0, so the round
// must be part of what is signed, not assumed to be 0).
type FinalizationSignTarget struct {
	BlockHash crypto.Hash256  `json:"block_hash"`
	Round     ConsensusRound  `json:"round"`
}

func (t FinalizationSignTarget) CanonicalEncode(w *crypto.Writer) {
	w.WriteHash(t.BlockHash)
	w.WriteU64(t.Round)
}

// FinalizationProof is a set of validator signatures over a
// FinalizationSignTarget totaling more than 2/3 of that block's
// validator voting power.
type FinalizationProof struct {
	Round      ConsensusRound                              `json:"round"`
	Signatures []crypto.TypedSignature[FinalizationSignTarget] `json:"signatures"`
}

func (p FinalizationProof) CanonicalEncode(w *crypto.Writer) {
	w.WriteU64(p.Round)
	writeSignatures(w, p.Signatures)
}

func writeSignatures[T crypto.Canonicalizer](w *crypto.Writer, sigs []crypto.TypedSignature[T]) {
	w.WriteU64(uint64(len(sigs)))
	for _, s := range sigs {
		w.WriteCanonical(s.Signer)
		w.WriteBytes(s.Signature)
	}
}

// GenesisFinalizationProof returns the empty-round-0 proof shape used
// before any signatures have been collected; genesis's own
// finalization proof is signed separately once all founding members
// have signed the genesis header.
func GenesisFinalizationProof() FinalizationProof {
	return FinalizationProof{Round: 0, Signatures: nil}
}

// VotingPowerSum verifies a proof against a target and a validator set,
// returning the total voting power of the signatures that verify. It
// does not itself decide whether that sum clears a quorum threshold -
// callers compare against their own 2f+1 computation (CSV and the
// light client both need the set they're verifying against, which
// differs: "last applied block" vs "a specific historical height").
func (p FinalizationProof) VotingPowerSum(target FinalizationSignTarget, validators []ValidatorEntry) uint64 {
	if p.Round != target.Round {
		return 0
	}
	powerByKey := make(map[string]VotingPower, len(validators))
	for _, v := range validators {
		powerByKey[v.PublicKey.String()] = v.VotingPower
	}

	seen := make(map[string]bool, len(p.Signatures))
	var sum uint64
	for _, sig := range p.Signatures {
		key := sig.Signer.String()
		if seen[key] {
			continue
		}
		power, ok := powerByKey[key]
		if !ok {
			continue
		}
		if !sig.Verify(target) {
			continue
		}
		seen[key] = true
		sum += power
	}
	return sum
}

// LastFinalizationProof is the special commit encoded as the tip of
// the `fp` branch: the height it finalizes, and the proof itself.
type LastFinalizationProof struct {
	Height BlockHeight        `json:"height"`
	Proof  FinalizationProof  `json:"proof"`
}

func (l LastFinalizationProof) CanonicalEncode(w *crypto.Writer) {
	w.WriteU64(l.Height)
	l.Proof.CanonicalEncode(w)
}

func (l LastFinalizationProof) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(l)
}
