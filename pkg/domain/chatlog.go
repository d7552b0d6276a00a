// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// ChatLog is an off-governance message attached to the commit graph
// for human record-keeping; it carries no state-transition semantics
// the CSV enforces beyond the grammar position it occupies.
type ChatLog struct {
	Author    crypto.PublicKey `json:"author"`
	Timestamp Timestamp        `json:"timestamp"`
	Message   string           `json:"message"`
}

func (c ChatLog) CanonicalEncode(w *crypto.Writer) {
	w.WriteCanonical(c.Author)
	w.WriteI64(c.Timestamp)
	w.WriteString(c.Message)
}

func (c ChatLog) ToHash256() crypto.Hash256 {
	return crypto.HashCanonical(c)
}
