// Copyright 2026 Simperby Authors

package domain

import (
	"fmt"

	"github.com/simperby-go/simperby/pkg/crypto"
)

// CommitKind tags which arm of a Commit is populated.
type CommitKind string

const (
	CommitBlock                  CommitKind = "block"
	CommitTransaction            CommitKind = "transaction"
	CommitAgenda                 CommitKind = "agenda"
	CommitAgendaProof            CommitKind = "agenda_proof"
	CommitExtraAgendaTransaction CommitKind = "extra_agenda_transaction"
	CommitChatLog                CommitKind = "chat_log"
)

// Commit is the tagged union of everything that can appear on a
// branch's commit sequence. Its canonical hash has no discriminator
// byte: it delegates entirely to the inner variant's own canonical
// hash, so e.g. Commit{Kind: CommitBlock, Block: &H}.ToHash256() ==
// H.ToHash256(). So the block hash a FinalizationSignTarget carries is
// also the hash of that block's Commit everywhere else in the
// repository graph.
type Commit struct {
	Kind                   CommitKind
	Block                  *BlockHeader
	Transaction            *Transaction
	Agenda                 *Agenda
	AgendaProof            *AgendaProof
	ExtraAgendaTransaction *ExtraAgendaTransaction
	ChatLog                *ChatLog
}

func BlockCommit(h BlockHeader) Commit                   { return Commit{Kind: CommitBlock, Block: &h} }
func TransactionCommit(t Transaction) Commit             { return Commit{Kind: CommitTransaction, Transaction: &t} }
func AgendaCommit(a Agenda) Commit                       { return Commit{Kind: CommitAgenda, Agenda: &a} }
func AgendaProofCommit(p AgendaProof) Commit             { return Commit{Kind: CommitAgendaProof, AgendaProof: &p} }
func ExtraAgendaTransactionCommit(e ExtraAgendaTransaction) Commit {
	return Commit{Kind: CommitExtraAgendaTransaction, ExtraAgendaTransaction: &e}
}
func ChatLogCommit(c ChatLog) Commit { return Commit{Kind: CommitChatLog, ChatLog: &c} }

func (c Commit) CanonicalEncode(w *crypto.Writer) {
	switch c.Kind {
	case CommitBlock:
		c.Block.CanonicalEncode(w)
	case CommitTransaction:
		c.Transaction.CanonicalEncode(w)
	case CommitAgenda:
		c.Agenda.CanonicalEncode(w)
	case CommitAgendaProof:
		c.AgendaProof.CanonicalEncode(w)
	case CommitExtraAgendaTransaction:
		c.ExtraAgendaTransaction.CanonicalEncode(w)
	case CommitChatLog:
		c.ChatLog.CanonicalEncode(w)
	}
}

func (c Commit) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(c)
}

// String renders the commit kind and a hash prefix, for logs and
// error messages.
func (c Commit) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.ToHash256().Prefix(8))
}
