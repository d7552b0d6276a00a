// Copyright 2026 Simperby Authors

package domain

import (
	"github.com/simperby-go/simperby/pkg/crypto"
)

// ValidatorEntry pairs a public key with its voting power in a
// validator set, in leader-rotation order.
type ValidatorEntry struct {
	PublicKey   crypto.PublicKey `json:"public_key"`
	VotingPower VotingPower      `json:"voting_power"`
}

func (v ValidatorEntry) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(v.PublicKey)
	w.WriteU64(v.VotingPower)
}

// BlockHeader closes a height: it names its author, links to the
// previous header, carries the previous block's finalization proof,
// and commits to every commit made since the previous block plus the
// repository's non-reserved state.
type BlockHeader struct {
	Author                     crypto.PublicKey  `json:"author"`
	PrevBlockFinalizationProof FinalizationProof  `json:"prev_block_finalization_proof"`
	PreviousHash               crypto.Hash256     `json:"previous_hash"`
	Height                     BlockHeight        `json:"height"`
	Timestamp                  Timestamp          `json:"timestamp"`
	CommitMerkleRoot           crypto.Hash256      `json:"commit_merkle_root"`
	RepositoryMerkleRoot       crypto.Hash256      `json:"repository_merkle_root"`
	ValidatorSet               []ValidatorEntry    `json:"validator_set"`
	Version                    string              `json:"version"`
}

func (h BlockHeader) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(h.Author)
	h.PrevBlockFinalizationProof.CanonicalEncode(w)
	w.WriteHash(h.PreviousHash)
	w.WriteU64(h.Height)
	w.WriteI64(h.Timestamp)
	w.WriteHash(h.CommitMerkleRoot)
	w.WriteHash(h.RepositoryMerkleRoot)
	crypto.WriteSlice(w, h.ValidatorSet)
	w.WriteString(h.Version)
}

func (h BlockHeader) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(h)
}

// IsGenesis reports whether h is the height-0 header.
func (h BlockHeader) IsGenesis() bool {
	return h.Height == 0
}
