// Copyright 2026 Simperby Authors
//
// Package domain holds the canonical data model of the ledger: headers,
// commits, reserved state, and finalization proofs. Every exported type
// here implements crypto.Canonicalizer and crypto.ToHash256, so its hash
// is stable across independently-built nodes.

package domain

// VotingPower is a member's weight in either the validator or the
// governance set.
type VotingPower = uint64

// Timestamp is a UNIX timestamp measured in milliseconds.
type Timestamp = int64

// BlockHeight indexes blocks; the genesis block is height 0.
type BlockHeight = uint64

// ConsensusRound indexes Vetomint rounds within a height.
type ConsensusRound = uint64

// MemberName is a human-readable, unique identifier for a member.
type MemberName = string
