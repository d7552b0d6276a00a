// Copyright 2026 Simperby Authors

package reserved

import (
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
)

func member(seed string, govPower, consPower domain.VotingPower) domain.Member {
	pub, _ := crypto.GenerateKeyPairFromSeed([]byte(seed))
	return domain.Member{
		PublicKey:             pub,
		Name:                  seed,
		GovernanceVotingPower: govPower,
		ConsensusVotingPower:  consPower,
	}
}

func TestGetValidatorSet_Basic(t *testing.T) {
	m0 := member("member-0000", 1, 1)
	m1 := member("member-0001", 1, 1)

	rs := domain.ReservedState{
		Members:              []domain.Member{m0, m1},
		ConsensusLeaderOrder: []string{"member-0000", "member-0001"},
	}

	set, err := Engine{}.GetValidatorSet(rs)
	if err != nil {
		t.Fatalf("GetValidatorSet: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}
	if !set[0].PublicKey.Equal(m0.PublicKey) || !set[1].PublicKey.Equal(m1.PublicKey) {
		t.Errorf("validator order does not follow consensus_leader_order")
	}
}

func TestGetValidatorSet_Delegation(t *testing.T) {
	m0 := member("member-0000", 1, 1)
	m1 := member("member-0001", 1, 1)
	m2 := member("member-0002", 1, 1)
	delegatee := m2.PublicKey
	m0.ConsensusDelegatee = &delegatee

	rs := domain.ReservedState{
		Members:              []domain.Member{m0, m1, m2},
		ConsensusLeaderOrder: []string{"member-0001", "member-0002"},
	}

	set, err := Engine{}.GetValidatorSet(rs)
	if err != nil {
		t.Fatalf("GetValidatorSet: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2 (member-0000 should be absent)", len(set))
	}

	var m2Power domain.VotingPower
	for _, v := range set {
		if v.PublicKey.Equal(m2.PublicKey) {
			m2Power = v.VotingPower
		}
		if v.PublicKey.Equal(m0.PublicKey) {
			t.Errorf("delegated-away member-0000 must not appear in the validator set")
		}
	}
	if m2Power != 2 {
		t.Errorf("member-0002 voting power = %d, want 2", m2Power)
	}
}

func TestGetValidatorSet_ExpelledContributesNothing(t *testing.T) {
	m0 := member("member-0000", 1, 1)
	m0.Expelled = true
	m1 := member("member-0001", 1, 1)

	rs := domain.ReservedState{
		Members:              []domain.Member{m0, m1},
		ConsensusLeaderOrder: []string{"member-0001"},
	}

	set, err := Engine{}.GetValidatorSet(rs)
	if err != nil {
		t.Fatalf("GetValidatorSet: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("len(set) = %d, want 1 (expelled member must contribute nothing)", len(set))
	}

	govSet, err := Engine{}.GetGovernanceSet(rs)
	if err != nil {
		t.Fatalf("GetGovernanceSet: %v", err)
	}
	if len(govSet) != 1 {
		t.Fatalf("len(govSet) = %d, want 1", len(govSet))
	}
}

// TestGetGovernanceSet_PreservesSourceBug locks in the documented
// behavior: governance power is derived from ConsensusVotingPower, not
// GovernanceVotingPower, matching the upstream implementation. See
// DESIGN.md.
func TestGetGovernanceSet_PreservesSourceBug(t *testing.T) {
	m0 := member("member-0000", 100, 1)

	rs := domain.ReservedState{Members: []domain.Member{m0}}

	govSet, err := Engine{}.GetGovernanceSet(rs)
	if err != nil {
		t.Fatalf("GetGovernanceSet: %v", err)
	}
	if len(govSet) != 1 || govSet[0].VotingPower != 1 {
		t.Fatalf("governance power = %+v, want consensus_voting_power (1), not governance_voting_power (100)", govSet)
	}
}

func TestApplyDelegateThenUndelegate(t *testing.T) {
	m0 := member("member-0000", 1, 1)
	m1 := member("member-0001", 1, 1)
	rs := domain.ReservedState{Members: []domain.Member{m0, m1}}

	tx := domain.TxDelegate{Delegator: m0.PublicKey, Delegatee: m1.PublicKey, Governance: true}

	rs2, err := Engine{}.ApplyDelegate(rs, tx)
	if err != nil {
		t.Fatalf("ApplyDelegate: %v", err)
	}
	if rs2.Members[0].ConsensusDelegatee == nil || !rs2.Members[0].ConsensusDelegatee.Equal(m1.PublicKey) {
		t.Errorf("delegation not recorded")
	}

	undo := domain.TxUndelegate{Delegator: m0.PublicKey}
	rs3, err := Engine{}.ApplyUndelegate(rs2, undo)
	if err != nil {
		t.Fatalf("ApplyUndelegate: %v", err)
	}
	if rs3.Members[0].ConsensusDelegatee != nil {
		t.Errorf("undelegate did not clear delegation")
	}
}

func TestApplyDelegate_RejectsTwoHop(t *testing.T) {
	m0 := member("member-0000", 1, 1)
	m1 := member("member-0001", 1, 1)
	m2 := member("member-0002", 1, 1)
	toM2 := m2.PublicKey
	m1.ConsensusDelegatee = &toM2

	rs := domain.ReservedState{Members: []domain.Member{m0, m1, m2}}
	tx := domain.TxDelegate{Delegator: m0.PublicKey, Delegatee: m1.PublicKey}

	if _, err := (Engine{}).ApplyDelegate(rs, tx); err == nil {
		t.Error("expected rejection of two-hop delegation")
	}
}
