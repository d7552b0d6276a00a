// Copyright 2026 Simperby Authors

package domain

import (
	"github.com/google/uuid"

	"github.com/simperby-go/simperby/pkg/crypto"
)

// DelegationTarget is the tuple a TxDelegate's proof signs over:
// (delegator, delegatee, governance, height-at-which-this-was-issued).
type DelegationTarget struct {
	Delegator  crypto.PublicKey `json:"delegator"`
	Delegatee  crypto.PublicKey `json:"delegatee"`
	Governance bool             `json:"governance"`
	Height     BlockHeight      `json:"height"`
}

func (d DelegationTarget) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(d.Delegator)
	w.WriteCanonical(d.Delegatee)
	w.WriteBool(d.Governance)
	w.WriteU64(d.Height)
}

// TxDelegate delegates a member's voting power (and, if Governance is
// set, governance power too) to another member. Delegation is
// transitive only one hop - see pkg/reserved.
type TxDelegate struct {
	Delegator  crypto.PublicKey                        `json:"delegator"`
	Delegatee  crypto.PublicKey                        `json:"delegatee"`
	Governance bool                                    `json:"governance"`
	Proof      crypto.TypedSignature[DelegationTarget]  `json:"proof"`
	Timestamp  Timestamp                                `json:"timestamp"`
}

func (t TxDelegate) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(t.Delegator)
	w.WriteCanonical(t.Delegatee)
	w.WriteBool(t.Governance)
	w.WriteCanonical(t.Proof.Signer)
	w.WriteBytes(t.Proof.Signature)
	w.WriteI64(t.Timestamp)
}

func (t TxDelegate) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(t)
}

// Target reconstructs the DelegationTarget this transaction's proof
// must verify against.
func (t TxDelegate) Target(height BlockHeight) DelegationTarget {
	return DelegationTarget{Delegator: t.Delegator, Delegatee: t.Delegatee, Governance: t.Governance, Height: height}
}

// UndelegationTarget is the tuple a TxUndelegate's proof signs over.
type UndelegationTarget struct {
	Delegator crypto.PublicKey `json:"delegator"`
	Height    BlockHeight      `json:"height"`
}

func (u UndelegationTarget) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(u.Delegator)
	w.WriteU64(u.Height)
}

// TxUndelegate reverses a prior delegation.
type TxUndelegate struct {
	Delegator crypto.PublicKey                          `json:"delegator"`
	Proof     crypto.TypedSignature[UndelegationTarget]  `json:"proof"`
	Timestamp Timestamp                                  `json:"timestamp"`
}

func (t TxUndelegate) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(t.Delegator)
	w.WriteCanonical(t.Proof.Signer)
	w.WriteBytes(t.Proof.Signature)
	w.WriteI64(t.Timestamp)
}

func (t TxUndelegate) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(t)
}

func (t TxUndelegate) Target(height BlockHeight) UndelegationTarget {
	return UndelegationTarget{Delegator: t.Delegator, Height: height}
}

// TxReport carries a Vetomint ViolationReport onto the chain so that
// byzantine evidence survives the session that observed it. The report
// body is left as an opaque payload and the report carries no
// signature: the grammar this module enforces checks only where a
// report may appear in the commit sequence, not who wrote it or what
// it contains.
//
// ReportID is a caller-assigned UUID (RFC 4122), not derived from the
// report's content: two nodes independently observing and reporting the
// same violation still produce distinct evidence entries, since Vetomint
// itself stays clockless and I/O-free and cannot mint one.
type TxReport struct {
	ReportID string           `json:"report_id"`
	Reporter crypto.PublicKey `json:"reporter"`
	Payload  string           `json:"payload"`
}

// NewTxReport mints a fresh ReportID and wraps reporter/payload into a
// TxReport.
func NewTxReport(reporter crypto.PublicKey, payload string) TxReport {
	return TxReport{ReportID: uuid.New().String(), Reporter: reporter, Payload: payload}
}

func (t TxReport) CanonicalEncode(w *crypto.Writer) {
	w.WriteString(t.ReportID)
	w.WriteCanonical(t.Reporter)
	w.WriteString(t.Payload)
}

func (t TxReport) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(t)
}

// ExtraAgendaKind tags which arm of ExtraAgendaTransaction is populated.
type ExtraAgendaKind string

const (
	ExtraAgendaDelegate   ExtraAgendaKind = "delegate"
	ExtraAgendaUndelegate ExtraAgendaKind = "undelegate"
	ExtraAgendaReport     ExtraAgendaKind = "report"
)

// ExtraAgendaTransaction is a transaction admitted only after an
// AgendaProof: delegation changes and violation reports, which must
// not be subject to ordinary governance agenda approval.
type ExtraAgendaTransaction struct {
	Kind       ExtraAgendaKind `json:"kind"`
	Delegate   *TxDelegate     `json:"delegate,omitempty"`
	Undelegate *TxUndelegate   `json:"undelegate,omitempty"`
	Report     *TxReport       `json:"report,omitempty"`
}

func DelegateTx(tx TxDelegate) ExtraAgendaTransaction {
	return ExtraAgendaTransaction{Kind: ExtraAgendaDelegate, Delegate: &tx}
}

func UndelegateTx(tx TxUndelegate) ExtraAgendaTransaction {
	return ExtraAgendaTransaction{Kind: ExtraAgendaUndelegate, Undelegate: &tx}
}

func ReportTx(tx TxReport) ExtraAgendaTransaction {
	return ExtraAgendaTransaction{Kind: ExtraAgendaReport, Report: &tx}
}

func (e ExtraAgendaTransaction) CanonicalEncode(w *crypto.Writer) {
	switch e.Kind {
	case ExtraAgendaDelegate:
		e.Delegate.CanonicalEncode(w)
	case ExtraAgendaUndelegate:
		e.Undelegate.CanonicalEncode(w)
	case ExtraAgendaReport:
		e.Report.CanonicalEncode(w)
	}
}

func (e ExtraAgendaTransaction) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(e)
}

// Signer returns the public key that must have produced this
// transaction's proof, per the CSV rule that "the signer equals the
// declared delegator".
func (e ExtraAgendaTransaction) Signer() crypto.PublicKey {
	switch e.Kind {
	case ExtraAgendaDelegate:
		return e.Delegate.Proof.Signer
	case ExtraAgendaUndelegate:
		return e.Undelegate.Proof.Signer
	case ExtraAgendaReport:
		return e.Report.Reporter
	default:
		return crypto.PublicKey{}
	}
}
