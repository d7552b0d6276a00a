// Copyright 2026 Simperby Authors
//
// Package vetomint implements the Vetomint consensus core: a pure,
// deterministic Tendermint-variant BFT state machine. It performs no
// I/O and owns no clock - every notion of "now" arrives as a parameter
// to Progress, and every notion of cryptographic validity has already
// been checked by the caller before an event is constructed. A
// BlockIdentifier is therefore an opaque Hash256: Vetomint never
// inspects block content, only compares identifiers for equality.
package vetomint

import "github.com/simperby-go/simperby/pkg/crypto"

// ValidatorIndex indexes into a HeightInfo's validator list. The
// mapping from index to an actual public key is the caller's concern.
type ValidatorIndex = int

// BlockIdentifier names a proposed block. Vetomint treats it as opaque.
type BlockIdentifier = crypto.Hash256

// Round indexes a consensus round within a single height.
type Round = uint64

// Timestamp is a UNIX timestamp in milliseconds, supplied externally.
type Timestamp = int64

// ConsensusParams are the timing knobs for a height.
type ConsensusParams struct {
	// TimeoutMs is the base timeout for the propose/prevote/precommit
	// steps of a round.
	TimeoutMs int64
	// RepeatRoundForFirstLeader is how many leading rounds the first
	// leader (validator index 0) repeats before leader rotation begins
	// over the remaining validators.
	RepeatRoundForFirstLeader int
}

// HeightInfo is immutable for the lifetime of a single height's
// consensus instance.
type HeightInfo struct {
	// Validators is the voting power of each validator, indexed by
	// ValidatorIndex, in leader order.
	Validators []uint64
	// ThisNodeIndex is nil for an observer that does not vote.
	ThisNodeIndex *ValidatorIndex
	// Timestamp is when round 0 begins.
	Timestamp Timestamp
	Params    ConsensusParams
	// InitialBlockCandidate is what this node proposes if it leads
	// round 0 and has no valid_value yet.
	InitialBlockCandidate BlockIdentifier
}

func (h HeightInfo) totalVotingPower() uint64 {
	var total uint64
	for _, p := range h.Validators {
		total += p
	}
	return total
}

// leaderOf returns the leader index for a round: the first
// RepeatRoundForFirstLeader rounds are led by validator 0, after which
// leadership rotates round-robin over the remaining validators.
func (h HeightInfo) leaderOf(round Round) ValidatorIndex {
	n := len(h.Validators)
	if n == 0 {
		return 0
	}
	repeat := uint64(h.Params.RepeatRoundForFirstLeader)
	if round < repeat {
		return 0
	}
	if n == 1 {
		return 0
	}
	offset := (round - repeat) % uint64(n-1)
	return 1 + int(offset)
}

// quorumThreshold returns true if signed strictly exceeds 2/3 of total.
func quorumThreshold(signed, total uint64) bool {
	return total > 0 && 3*signed > 2*total
}
