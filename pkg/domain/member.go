// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// Member is a founding or later-admitted participant in the network.
// Delegation is transitive only one hop: a member names a delegatee by
// public key, but a delegatee's own delegation (if any) is not
// followed further when deriving the validator/governance sets - see
// pkg/reserved.
type Member struct {
	PublicKey              crypto.PublicKey  `json:"public_key"`
	Name                   MemberName        `json:"name"`
	GovernanceVotingPower  VotingPower       `json:"governance_voting_power"`
	ConsensusVotingPower   VotingPower       `json:"consensus_voting_power"`
	GovernanceDelegatee    *crypto.PublicKey `json:"governance_delegatee,omitempty"`
	ConsensusDelegatee     *crypto.PublicKey `json:"consensus_delegatee,omitempty"`
	// Expelled members contribute zero voting power to both derived sets
	// but remain listed so that historical blocks referencing them still
	// replay.
	Expelled bool `json:"expelled"`
}

func (m Member) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(m.PublicKey)
	w.WriteString(m.Name)
	w.WriteU64(m.GovernanceVotingPower)
	w.WriteU64(m.ConsensusVotingPower)
	writeOptionalKey(w, m.GovernanceDelegatee)
	writeOptionalKey(w, m.ConsensusDelegatee)
	w.WriteBool(m.Expelled)
}

func writeOptionalKey(w *crypto.Writer, k *crypto.PublicKey) {
	if k == nil {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	w.WriteCanonical(*k)
}

// GenesisInfo pins the header and proof the chain was founded with, plus
// a human-readable chain name.
type GenesisInfo struct {
	Header        BlockHeader        `json:"header"`
	GenesisProof  FinalizationProof  `json:"genesis_proof"`
	ChainName     string             `json:"chain_name"`
}

func (g GenesisInfo) CanonicalEncode(w *crypto.Writer) {
	g.Header.CanonicalEncode(w)
	g.GenesisProof.CanonicalEncode(w)
	w.WriteString(g.ChainName)
}

// ReservedState is the protected portion of chain state: genesis info,
// the member list, leader order, and protocol version. It lives under
// the repository's reserved/ directory; pkg/repository reads it as one
// JSON document through ports.RawRepository.ReadReservedState and does
// not write it.
type ReservedState struct {
	GenesisInfo             GenesisInfo  `json:"genesis_info"`
	Members                 []Member     `json:"members"`
	ConsensusLeaderOrder    []MemberName `json:"consensus_leader_order"`
	Version                 string       `json:"version"`
}

func (r ReservedState) CanonicalEncode(w *crypto.Writer) {
	r.GenesisInfo.CanonicalEncode(w)
	crypto.WriteSlice(w, r.Members)
	w.WriteU64(uint64(len(r.ConsensusLeaderOrder)))
	for _, name := range r.ConsensusLeaderOrder {
		w.WriteString(name)
	}
	w.WriteString(r.Version)
}

func (r ReservedState) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(r)
}
