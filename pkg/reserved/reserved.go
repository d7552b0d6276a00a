// Copyright 2026 Simperby Authors
//
// Package reserved derives the validator and governance sets from a
// ReservedState's member list and one-hop delegations, and applies the
// delegation transactions that mutate that state.
//
// NOTE on the governance-set bug: GetGovernanceSet sums each member's
// *consensus* voting power (in both the direct-member and delegatee
// branches) instead of its governance voting power. This module
// preserves that behavior verbatim rather than silently fixing it -
// see DESIGN.md's "Open questions" section for the reasoning.
// GetGovernanceSet is documented at its definition below; do not "fix"
// it without updating that ledger entry.

package reserved

import (
	"fmt"
	"sort"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/errs"
)

// Engine wraps a ReservedState to expose its set-derivation and
// delegation operations. It does not retain a reference to the state
// across calls - every method takes the state explicitly, since the
// CSV and the light client each hold their own copy as of a specific
// height.
type Engine struct{}

// GetValidatorSet derives the consensus validator set: each member
// contributes its consensus_voting_power to its consensus delegatee if
// one is set, else to itself. Expelled members and anyone who
// delegates away their power contribute nothing under their own key.
// The result is sorted by consensus_leader_order.
func (Engine) GetValidatorSet(rs domain.ReservedState) ([]domain.ValidatorEntry, error) {
	power := map[string]domain.VotingPower{}
	keyOf := map[string]crypto.PublicKey{}

	for _, m := range rs.Members {
		if m.Expelled {
			continue
		}
		target := m.PublicKey
		if m.ConsensusDelegatee != nil {
			target = *m.ConsensusDelegatee
		}
		k := target.String()
		power[k] += m.ConsensusVotingPower
		keyOf[k] = target
	}

	return sortByLeaderOrder(rs, power, keyOf)
}

// GetGovernanceSet derives the governance set. This preserves the
// source bug: it sums consensus_voting_power, not
// governance_voting_power, in both branches. See the package doc
// comment and DESIGN.md before changing this.
func (Engine) GetGovernanceSet(rs domain.ReservedState) ([]domain.ValidatorEntry, error) {
	power := map[string]domain.VotingPower{}
	keyOf := map[string]crypto.PublicKey{}

	for _, m := range rs.Members {
		if m.Expelled {
			continue
		}
		target := m.PublicKey
		if m.GovernanceDelegatee != nil {
			target = *m.GovernanceDelegatee
		}
		k := target.String()
		power[k] += m.ConsensusVotingPower // bug preserved, see doc comment above
		keyOf[k] = target
	}

	out := make([]domain.ValidatorEntry, 0, len(power))
	for k, p := range power {
		out = append(out, domain.ValidatorEntry{PublicKey: keyOf[k], VotingPower: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicKey.String() < out[j].PublicKey.String() })
	return out, nil
}

func sortByLeaderOrder(rs domain.ReservedState, power map[string]domain.VotingPower, keyOf map[string]crypto.PublicKey) ([]domain.ValidatorEntry, error) {
	nameOf := map[string]domain.MemberName{}
	for _, m := range rs.Members {
		nameOf[m.PublicKey.String()] = m.Name
	}

	positionOf := make(map[string]int, len(rs.ConsensusLeaderOrder))
	for i, n := range rs.ConsensusLeaderOrder {
		positionOf[n] = i
	}

	out := make([]domain.ValidatorEntry, 0, len(power))
	for k, p := range power {
		out = append(out, domain.ValidatorEntry{PublicKey: keyOf[k], VotingPower: p})
	}

	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		ni, oki := nameOf[out[i].PublicKey.String()]
		nj, okj := nameOf[out[j].PublicKey.String()]
		if !oki || !okj {
			sortErr = fmt.Errorf("validator %s has no member name", out[i].PublicKey)
			return false
		}
		pi, oki := positionOf[ni]
		pj, okj := positionOf[nj]
		if !oki || !okj {
			sortErr = fmt.Errorf("member %s missing from consensus_leader_order", ni)
			return false
		}
		return pi < pj
	})
	if sortErr != nil {
		return nil, errs.New(errs.Integrity, "", sortErr)
	}
	return out, nil
}

// QueryName looks up a member's human-readable name by public key.
func (Engine) QueryName(rs domain.ReservedState, pk crypto.PublicKey) (domain.MemberName, bool) {
	for _, m := range rs.Members {
		if m.PublicKey.Equal(pk) {
			return m.Name, true
		}
	}
	return "", false
}

// memberIndex finds a member's slice index by public key.
func memberIndex(rs domain.ReservedState, pk crypto.PublicKey) int {
	for i, m := range rs.Members {
		if m.PublicKey.Equal(pk) {
			return i
		}
	}
	return -1
}

// ApplyDelegate applies a TxDelegate to rs, returning the resulting
// state. Delegation is transitive only one hop: the delegatee named
// here must not itself already have an (outgoing) delegation of the
// same kind, since a delegatee cannot delegate further within the same
// set.
func (e Engine) ApplyDelegate(rs domain.ReservedState, tx domain.TxDelegate) (domain.ReservedState, error) {
	di := memberIndex(rs, tx.Delegator)
	if di == -1 {
		return rs, errs.New(errs.Verification, tx.Delegator.String(), fmt.Errorf("delegator is not a member"))
	}
	if memberIndex(rs, tx.Delegatee) == -1 {
		return rs, errs.New(errs.Verification, tx.Delegatee.String(), fmt.Errorf("delegatee is not a member"))
	}

	out := rs
	out.Members = append([]domain.Member(nil), rs.Members...)
	delegatee := tx.Delegatee

	m := out.Members[di]
	if m.ConsensusDelegatee != nil || (tx.Governance && m.GovernanceDelegatee != nil) {
		return rs, errs.New(errs.Verification, tx.Delegator.String(), fmt.Errorf("member already delegated"))
	}
	if isDelegating(rs, tx.Delegatee, false) || (tx.Governance && isDelegating(rs, tx.Delegatee, true)) {
		return rs, errs.New(errs.Verification, tx.Delegatee.String(), fmt.Errorf("delegatee cannot itself be delegating (one-hop only)"))
	}

	m.ConsensusDelegatee = &delegatee
	if tx.Governance {
		m.GovernanceDelegatee = &delegatee
	}
	out.Members[di] = m
	return out, nil
}

// ApplyUndelegate reverses a member's delegation.
func (e Engine) ApplyUndelegate(rs domain.ReservedState, tx domain.TxUndelegate) (domain.ReservedState, error) {
	di := memberIndex(rs, tx.Delegator)
	if di == -1 {
		return rs, errs.New(errs.Verification, tx.Delegator.String(), fmt.Errorf("delegator is not a member"))
	}

	out := rs
	out.Members = append([]domain.Member(nil), rs.Members...)
	m := out.Members[di]
	if m.ConsensusDelegatee == nil && m.GovernanceDelegatee == nil {
		return rs, errs.New(errs.Verification, tx.Delegator.String(), fmt.Errorf("member has no active delegation"))
	}
	m.ConsensusDelegatee = nil
	m.GovernanceDelegatee = nil
	out.Members[di] = m
	return out, nil
}

// isDelegating reports whether pk has an outgoing delegation of the
// relevant kind, used to enforce the one-hop-only rule.
func isDelegating(rs domain.ReservedState, pk crypto.PublicKey, governance bool) bool {
	i := memberIndex(rs, pk)
	if i == -1 {
		return false
	}
	m := rs.Members[i]
	if governance {
		return m.GovernanceDelegatee != nil
	}
	return m.ConsensusDelegatee != nil
}
