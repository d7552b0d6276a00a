// Copyright 2026 Simperby Authors

package vetomint

// Step is the per-round phase within a height's consensus instance.
type Step string

const (
	StepInitial   Step = "initial"
	StepPropose   Step = "propose"
	StepPrevote   Step = "prevote"
	StepPrecommit Step = "precommit"
)

// proposalRecord remembers everything Progress needs to know about a
// single proposed block: whether the proposer claims it valid, the
// round the proposer locked it in (if any), who proposed it, and
// whether the caller's application-level favor/veto check passed.
type proposalRecord struct {
	valid      bool
	validRound *Round
	round      Round
	proposer   ValidatorIndex
	favor      bool
}

// finalization records the terminal outcome of a height.
type finalization struct {
	proposal BlockIdentifier
	signers  []ValidatorIndex
	round    Round
}

// ConsensusState is the full mutable state of a single height's
// Vetomint instance. It is pure data: every transition happens inside
// Progress, and ConsensusState never reaches outside of itself for
// clocks, I/O, or cryptography.
type ConsensusState struct {
	height HeightInfo

	round Round
	step  Step

	lockedValue *BlockIdentifier
	lockedRound *Round
	validValue  *BlockIdentifier
	validRound  *Round

	// blockCandidate is this node's current best block to propose when
	// it is the leader and has no valid_value carried over from a
	// previous round.
	blockCandidate BlockIdentifier

	proposals map[BlockIdentifier]proposalRecord
	// proposalsByRound indexes proposal identifiers by the round in
	// which they were proposed, for quorum checks and equivocation
	// detection.
	proposalsByRound map[Round][]BlockIdentifier

	// prevotesBySigner/precommitsBySigner record at most one vote per
	// signer per round; a nil map value means a nil vote. A second,
	// differing vote from the same signer in the same round is
	// equivocation and is reported rather than recorded.
	prevotesBySigner   map[Round]map[ValidatorIndex]*BlockIdentifier
	precommitsBySigner map[Round]map[ValidatorIndex]*BlockIdentifier

	// proposedThisRound/prevotedThisRound/precommittedThisRound record
	// whether this node has already emitted its one broadcast of each
	// kind for the current round, so repeated Progress calls (e.g. on
	// a duplicate Timer) never double-broadcast.
	proposedThisRound     map[Round]bool
	prevotedThisRound     map[Round]bool
	precommittedThisRound map[Round]bool

	// lockedThisRound records the rounds in which this node locked a
	// value. A second BroadcastPrecommit is prevented by
	// precommittedThisRound and a second FinalizeBlock by finalized.
	lockedThisRound map[Round]bool

	// roundStartTime is when the current round's propose step began,
	// used to schedule the round's timeouts.
	roundStartTime Timestamp

	finalized *finalization
}

// NewConsensusState begins a fresh height at round 0 in the initial
// step (a Start event moves it to propose), with the given initial
// block candidate for when this node leads.
func NewConsensusState(height HeightInfo) *ConsensusState {
	return &ConsensusState{
		height:                height,
		round:                 0,
		step:                  StepInitial,
		blockCandidate:        height.InitialBlockCandidate,
		proposals:             make(map[BlockIdentifier]proposalRecord),
		proposalsByRound:      make(map[Round][]BlockIdentifier),
		prevotesBySigner:      make(map[Round]map[ValidatorIndex]*BlockIdentifier),
		precommitsBySigner:    make(map[Round]map[ValidatorIndex]*BlockIdentifier),
		proposedThisRound:     make(map[Round]bool),
		prevotedThisRound:     make(map[Round]bool),
		precommittedThisRound: make(map[Round]bool),
		lockedThisRound:       make(map[Round]bool),
		roundStartTime:        height.Timestamp,
	}
}

// Finalized reports the outcome of this height's consensus, if it has
// concluded: the finalized block, the round finalization occurred in,
// and the sorted set of validator indices whose precommits justify it.
func (s *ConsensusState) Finalized() (proposal BlockIdentifier, proofSigners []ValidatorIndex, round Round, ok bool) {
	if s.finalized == nil {
		return BlockIdentifier{}, nil, 0, false
	}
	return s.finalized.proposal, s.finalized.signers, s.finalized.round, true
}

// Round reports the current round number.
func (s *ConsensusState) Round() Round { return s.round }

// Step reports the current step within the round.
func (s *ConsensusState) Step() Step { return s.step }

func (s *ConsensusState) isThisNode(idx ValidatorIndex) bool {
	return s.height.ThisNodeIndex != nil && *s.height.ThisNodeIndex == idx
}

func (s *ConsensusState) votingPowerOf(idx ValidatorIndex) uint64 {
	if idx < 0 || idx >= len(s.height.Validators) {
		return 0
	}
	return s.height.Validators[idx]
}
