// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// Agenda commits to the ordered list of transactions proposed for
// governance approval at a specific height, via a fold-hash over them
// rather than the transactions themselves.
type Agenda struct {
	Height           BlockHeight    `json:"height"`
	Author           crypto.PublicKey `json:"author"`
	Timestamp        Timestamp      `json:"timestamp"`
	TransactionsHash crypto.Hash256 `json:"transactions_hash"`
}

func (a Agenda) CanonicalEncode(w *crypto.Writer) {
	w.WriteU64(a.Height)
	w.WriteCanonical(a.Author)
	w.WriteI64(a.Timestamp)
	w.WriteHash(a.TransactionsHash)
}

func (a Agenda) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(a)
}

// FoldTransactionsHash computes `fold(zero, Hash256::hash ⊕ aggregate, txs)`:
// the running aggregate of each transaction's own hash, in order.
func FoldTransactionsHash(txs []Transaction) crypto.Hash256 {
	acc := crypto.ZeroHash256
	for _, tx := range txs {
		acc = crypto.Aggregate(acc, tx.ToHash256())
	}
	return acc
}

// AgendaProof is a set of governance signatures approving an Agenda;
// the signed payload is the Agenda's own canonical bytes (see
// DESIGN.md's resolution of the signed-payload open question).
type AgendaProof struct {
	Height    BlockHeight                         `json:"height"`
	AgendaHash crypto.Hash256                      `json:"agenda_hash"`
	Proof     []crypto.TypedSignature[Agenda]      `json:"proof"`
}

func (p AgendaProof) CanonicalEncode(w *crypto.Writer) {
	w.WriteU64(p.Height)
	w.WriteHash(p.AgendaHash)
	writeSignatures(w, p.Proof)
}

func (p AgendaProof) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(p)
}
