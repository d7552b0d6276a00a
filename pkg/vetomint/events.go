// Copyright 2026 Simperby Authors

package vetomint

// EventKind tags which arm of an Event is populated.
type EventKind string

const (
	EventStart                  EventKind = "start"
	EventBlockProposalReceived  EventKind = "block_proposal_received"
	EventBlockCandidateUpdated  EventKind = "block_candidate_updated"
	EventPrevote                EventKind = "prevote"
	EventPrecommit              EventKind = "precommit"
	EventTimer                  EventKind = "timer"
	EventSkipRound              EventKind = "skip_round"
)

// Event is the tagged union of every input Progress accepts.
type Event struct {
	Kind EventKind

	// BlockProposalReceived
	Proposal  BlockIdentifier
	Valid     bool
	ValidRound *Round
	Proposer  ValidatorIndex
	Round     Round
	Favor     bool

	// Prevote / Precommit: nil ProposalRef means a nil vote.
	ProposalRef *BlockIdentifier
	Signer      ValidatorIndex

	// Timer
	Time Timestamp
}

func StartEvent() Event { return Event{Kind: EventStart} }

func BlockProposalReceivedEvent(proposal BlockIdentifier, valid bool, validRound *Round, proposer ValidatorIndex, round Round, favor bool) Event {
	return Event{Kind: EventBlockProposalReceived, Proposal: proposal, Valid: valid, ValidRound: validRound, Proposer: proposer, Round: round, Favor: favor}
}

func BlockCandidateUpdatedEvent(proposal BlockIdentifier) Event {
	return Event{Kind: EventBlockCandidateUpdated, Proposal: proposal}
}

func PrevoteEvent(proposal *BlockIdentifier, signer ValidatorIndex, round Round) Event {
	return Event{Kind: EventPrevote, ProposalRef: proposal, Signer: signer, Round: round}
}

func PrecommitEvent(proposal *BlockIdentifier, signer ValidatorIndex, round Round) Event {
	return Event{Kind: EventPrecommit, ProposalRef: proposal, Signer: signer, Round: round}
}

func TimerEvent(time Timestamp) Event { return Event{Kind: EventTimer, Time: time} }

func SkipRoundEvent(round Round) Event { return Event{Kind: EventSkipRound, Round: round} }

// ResponseKind tags which arm of a Response is populated.
type ResponseKind string

const (
	ResponseBroadcastProposal  ResponseKind = "broadcast_proposal"
	ResponseBroadcastPrevote   ResponseKind = "broadcast_prevote"
	ResponseBroadcastPrecommit ResponseKind = "broadcast_precommit"
	ResponseFinalizeBlock      ResponseKind = "finalize_block"
	ResponseViolationReport    ResponseKind = "violation_report"
)

// Response is the tagged union of every output Progress can emit.
type Response struct {
	Kind ResponseKind

	Proposal    BlockIdentifier
	ProposalRef *BlockIdentifier // nil means a nil prevote/precommit
	ValidRound  *Round
	Round       Round

	Proof []ValidatorIndex

	Violator    ValidatorIndex
	Description string
}

func broadcastProposal(proposal BlockIdentifier, validRound *Round, round Round) Response {
	return Response{Kind: ResponseBroadcastProposal, Proposal: proposal, ValidRound: validRound, Round: round}
}

func broadcastPrevote(proposal *BlockIdentifier, round Round) Response {
	return Response{Kind: ResponseBroadcastPrevote, ProposalRef: proposal, Round: round}
}

func broadcastPrecommit(proposal *BlockIdentifier, round Round) Response {
	return Response{Kind: ResponseBroadcastPrecommit, ProposalRef: proposal, Round: round}
}

func finalizeBlock(proposal BlockIdentifier, proof []ValidatorIndex, round Round) Response {
	return Response{Kind: ResponseFinalizeBlock, Proposal: proposal, Proof: proof, Round: round}
}

func violationReport(violator ValidatorIndex, description string) Response {
	return Response{Kind: ResponseViolationReport, Violator: violator, Description: description}
}
