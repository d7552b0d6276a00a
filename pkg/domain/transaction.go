// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// Transaction is a single proposed change, named by a short `head` and
// a longer free-form `body`, carrying whatever state diff it implies.
type Transaction struct {
	Author    crypto.PublicKey `json:"author"`
	Timestamp Timestamp        `json:"timestamp"`
	Head      string           `json:"head"`
	Body      string           `json:"body"`
	Diff      Diff             `json:"diff"`
}

func (t Transaction) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(t.Author)
	w.WriteI64(t.Timestamp)
	w.WriteString(t.Head)
	w.WriteString(t.Body)
	t.Diff.CanonicalEncode(w)
}

func (t Transaction) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(t)
}
