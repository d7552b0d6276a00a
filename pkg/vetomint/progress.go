// Copyright 2026 Simperby Authors

package vetomint

// Progress feeds a single event into the state machine at the given
// time and returns, in a fixed and deterministic order, every
// response the event produces. The same ConsensusState fed the same
// ordered sequence of (now, event) pairs always produces the same
// ordered sequence of responses: Progress reads only s and event, and
// every map it iterates is walked in a stable (validator-index or
// round-number) order before being turned into responses.
func (s *ConsensusState) Progress(now Timestamp, event Event) []Response {
	switch event.Kind {
	case EventStart:
		return s.onStart(now)
	case EventBlockProposalReceived:
		return s.onBlockProposalReceived(event)
	case EventBlockCandidateUpdated:
		s.blockCandidate = event.Proposal
		return nil
	case EventPrevote:
		return s.onPrevote(event)
	case EventPrecommit:
		return s.onPrecommit(event)
	case EventTimer:
		return s.onTimer(now, event)
	case EventSkipRound:
		return s.onSkipRound(now, event)
	default:
		return nil
	}
}

// onStart begins round 0. If this node leads round 0 it proposes
// immediately (its own valid_value if it carries one forward from a
// prior round, which is impossible at round 0, so always its block
// candidate) and casts its own prevote in the same step.
func (s *ConsensusState) onStart(now Timestamp) []Response {
	if s.round != 0 || s.step != StepInitial {
		return nil
	}
	s.step = StepPropose
	s.roundStartTime = now
	return s.maybePropose(0)
}

// maybePropose emits this node's BroadcastProposal and its own
// BroadcastPrevote for that proposal, if this node leads round and
// hasn't already proposed in it. A leader proposes its carried-over
// valid_value when one exists (from having been locked or seen a
// quorum in an earlier round), otherwise its current block candidate.
func (s *ConsensusState) maybePropose(round Round) []Response {
	if s.height.ThisNodeIndex == nil || s.height.leaderOf(round) != *s.height.ThisNodeIndex {
		return nil
	}
	if s.proposedThisRound[round] {
		return nil
	}
	s.proposedThisRound[round] = true

	var proposal BlockIdentifier
	var carriedRound *Round
	if s.validValue != nil {
		proposal = *s.validValue
		carriedRound = s.validRound
	} else {
		proposal = s.blockCandidate
	}

	s.recordProposal(proposal, round, *s.height.ThisNodeIndex, true, true, carriedRound)

	var out []Response
	out = append(out, broadcastProposal(proposal, carriedRound, round))
	out = append(out, s.castPrevote(round, proposal, true)...)
	return out
}

func (s *ConsensusState) recordProposal(id BlockIdentifier, round Round, proposer ValidatorIndex, valid, favor bool, validRound *Round) []Response {
	var violations []Response
	for _, existing := range s.proposalsByRound[round] {
		if existing != id {
			if rec, ok := s.proposals[existing]; ok && rec.proposer == proposer {
				violations = append(violations, violationReport(proposer, "multiple distinct block proposals in the same round"))
			}
		}
	}
	if _, known := s.proposals[id]; !known {
		s.proposalsByRound[round] = append(s.proposalsByRound[round], id)
	}
	s.proposals[id] = proposalRecord{valid: valid, validRound: validRound, round: round, proposer: proposer, favor: favor}
	return violations
}

// onBlockProposalReceived records an externally-delivered proposal
// and, if it is this round's and this node has not yet prevoted,
// decides and casts this node's prevote for it.
func (s *ConsensusState) onBlockProposalReceived(event Event) []Response {
	out := s.recordProposal(event.Proposal, event.Round, event.Proposer, event.Valid, event.Favor, event.ValidRound)
	if event.Round != s.round || s.step != StepPropose {
		return out
	}
	out = append(out, s.castPrevote(event.Round, event.Proposal, event.Valid && event.Favor)...)
	return out
}

// castPrevote applies the proposal-acceptance rule (favor, plus the
// locked-value rule: a node may only move off a locked value if the
// proposal carries a valid_round at least as recent as the lock, or
// is the locked value itself) and broadcasts the resulting prevote,
// once, for the current round.
func (s *ConsensusState) castPrevote(round Round, proposal BlockIdentifier, acceptable bool) []Response {
	if s.height.ThisNodeIndex == nil || s.prevotedThisRound[round] {
		return nil
	}

	vote := acceptable && s.satisfiesLock(proposal, s.proposals[proposal].validRound)

	s.prevotedThisRound[round] = true
	s.step = StepPrevote

	var ref *BlockIdentifier
	if vote {
		p := proposal
		ref = &p
	}
	out := []Response{broadcastPrevote(ref, round)}
	out = append(out, s.applyOwnPrevote(round, ref)...)
	return out
}

func (s *ConsensusState) satisfiesLock(proposal BlockIdentifier, proposalValidRound *Round) bool {
	if s.lockedValue == nil {
		return true
	}
	if *s.lockedValue == proposal {
		return true
	}
	if proposalValidRound != nil && s.lockedRound != nil && *s.lockedRound <= *proposalValidRound {
		return true
	}
	return false
}

func (s *ConsensusState) applyOwnPrevote(round Round, ref *BlockIdentifier) []Response {
	return s.recordVote(s.prevotesBySigner, round, *s.height.ThisNodeIndex, ref, s.checkPrevoteQuorum)
}

// onPrevote records a peer's prevote, reports equivocation if the
// signer already voted differently this round, and checks whether a
// quorum has now formed.
func (s *ConsensusState) onPrevote(event Event) []Response {
	return s.recordVote(s.prevotesBySigner, event.Round, event.Signer, event.ProposalRef, s.checkPrevoteQuorum)
}

func (s *ConsensusState) onPrecommit(event Event) []Response {
	return s.recordVote(s.precommitsBySigner, event.Round, event.Signer, event.ProposalRef, s.checkPrecommitQuorum)
}

// recordVote stores signer's vote for round in table unless the
// signer already has a differing vote recorded for that round (an
// equivocation, which is reported and otherwise ignored), then runs
// the caller-supplied quorum check for that round.
func (s *ConsensusState) recordVote(table map[Round]map[ValidatorIndex]*BlockIdentifier, round Round, signer ValidatorIndex, ref *BlockIdentifier, check func(Round) []Response) []Response {
	if table[round] == nil {
		table[round] = make(map[ValidatorIndex]*BlockIdentifier)
	}
	if existing, ok := table[round][signer]; ok {
		if !sameRef(existing, ref) {
			return []Response{violationReport(signer, "conflicting votes in the same round")}
		}
		return nil
	}
	table[round][signer] = ref
	return check(round)
}

func sameRef(a, b *BlockIdentifier) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// checkPrevoteQuorum inspects round's accumulated prevotes. On 2f+1
// for a single non-nil proposal, this node locks that value and
// precommits for it (once). On 2f+1 for nil, this node precommits nil.
// A split with no quorum leaves the node waiting for the round's
// timeout. Only acts on the current round and only once per round.
func (s *ConsensusState) checkPrevoteQuorum(round Round) []Response {
	if round != s.round || s.step != StepPrevote || s.precommittedThisRound[round] {
		return nil
	}

	total := s.height.totalVotingPower()
	power, nilPower := s.tallyVotes(s.prevotesBySigner[round])

	for _, id := range s.proposalsByRound[round] {
		if quorumThreshold(power[id], total) {
			return s.lockAndPrecommit(round, id)
		}
	}
	if quorumThreshold(nilPower, total) {
		return s.precommitNil(round)
	}
	return nil
}

func (s *ConsensusState) lockAndPrecommit(round Round, id BlockIdentifier) []Response {
	v := id
	s.lockedValue = &v
	r := round
	s.lockedRound = &r
	s.validValue = &v
	s.validRound = &r

	s.precommittedThisRound[round] = true
	s.lockedThisRound[round] = true
	s.step = StepPrecommit

	out := []Response{broadcastPrecommit(&v, round)}
	out = append(out, s.recordVote(s.precommitsBySigner, round, *s.height.ThisNodeIndex, &v, s.checkPrecommitQuorum)...)
	return out
}

func (s *ConsensusState) precommitNil(round Round) []Response {
	if s.height.ThisNodeIndex == nil || s.precommittedThisRound[round] {
		return nil
	}
	s.precommittedThisRound[round] = true
	s.step = StepPrecommit

	out := []Response{broadcastPrecommit(nil, round)}
	out = append(out, s.recordVote(s.precommitsBySigner, round, *s.height.ThisNodeIndex, nil, s.checkPrecommitQuorum)...)
	return out
}

// checkPrecommitQuorum inspects round's accumulated precommits. On
// 2f+1 for a single non-nil proposal, the height finalizes: the proof
// is the sorted set of signers behind that precommit.
func (s *ConsensusState) checkPrecommitQuorum(round Round) []Response {
	if s.finalized != nil {
		return nil
	}

	total := s.height.totalVotingPower()
	power, _ := s.tallyVotes(s.precommitsBySigner[round])

	for _, id := range s.proposalsByRound[round] {
		if quorumThreshold(power[id], total) {
			signers := s.signersFor(s.precommitsBySigner[round], &id)
			s.finalized = &finalization{proposal: id, signers: signers, round: round}
			return []Response{finalizeBlock(id, signers, round)}
		}
	}
	return nil
}

// tallyVotes sums voting power per non-nil proposal and separately
// for nil votes in votes.
func (s *ConsensusState) tallyVotes(votes map[ValidatorIndex]*BlockIdentifier) (power map[BlockIdentifier]uint64, nilPower uint64) {
	power = make(map[BlockIdentifier]uint64)
	for signer, ref := range votes {
		w := s.votingPowerOf(signer)
		if ref == nil {
			nilPower += w
			continue
		}
		power[*ref] += w
	}
	return power, nilPower
}

func (s *ConsensusState) signersFor(votes map[ValidatorIndex]*BlockIdentifier, id *BlockIdentifier) []ValidatorIndex {
	var out []ValidatorIndex
	for signer, ref := range votes {
		if sameRef(ref, id) {
			out = append(out, signer)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// onTimer advances the step (or the round) if enough time has
// elapsed since the current round began, and this node has not
// already moved past the step the timeout governs.
func (s *ConsensusState) onTimer(now Timestamp, event Event) []Response {
	if event.Time < s.roundStartTime+s.height.Params.TimeoutMs {
		return nil
	}
	switch s.step {
	case StepPropose:
		return s.precommitNilViaPrevote(s.round)
	case StepPrevote:
		return s.precommitNil(s.round)
	case StepPrecommit:
		return s.advanceRound(now, s.round+1)
	default:
		return nil
	}
}

// precommitNilViaPrevote handles a propose-step timeout: this node
// never received an acceptable proposal, so it prevotes nil, which in
// turn is eligible to contribute to a nil precommit quorum.
func (s *ConsensusState) precommitNilViaPrevote(round Round) []Response {
	if s.height.ThisNodeIndex == nil || s.prevotedThisRound[round] {
		return nil
	}
	s.prevotedThisRound[round] = true
	s.step = StepPrevote
	out := []Response{broadcastPrevote(nil, round)}
	out = append(out, s.applyOwnPrevote(round, nil)...)
	return out
}

// onSkipRound forces a round advance, used when the caller observes
// (e.g. via a higher round's messages arriving) that this round
// cannot conclude.
func (s *ConsensusState) onSkipRound(now Timestamp, event Event) []Response {
	if event.Round != s.round {
		return nil
	}
	return s.advanceRound(now, s.round+1)
}

func (s *ConsensusState) advanceRound(now Timestamp, round Round) []Response {
	if s.finalized != nil {
		return nil
	}
	s.round = round
	s.step = StepPropose
	s.roundStartTime = now
	return s.maybePropose(round)
}
