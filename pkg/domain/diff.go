// Copyright 2026 Simperby Authors

package domain

import "github.com/simperby-go/simperby/pkg/crypto"

// DiffKind tags which arm of a Diff is populated.
type DiffKind string

const (
	DiffNone        DiffKind = "none"
	DiffReserved    DiffKind = "reserved"
	DiffNonReserved DiffKind = "non_reserved"
	DiffGeneral     DiffKind = "general"
)

// Diff is an abstracted description of a state change carried by a
// Transaction or a Block. The node only ever inspects the reserved
// portion of a diff; the non-reserved portion is opaque and identified
// only by its hash.
type Diff struct {
	Kind     DiffKind       `json:"kind"`
	Reserved *ReservedState `json:"reserved,omitempty"`
	Hash     crypto.Hash256 `json:"hash,omitempty"`
}

// NoneDiff is the empty diff, used by commits that change nothing.
func NoneDiff() Diff { return Diff{Kind: DiffNone} }

// ReservedDiff changes only the reserved area.
func ReservedDiff(rs ReservedState) Diff {
	return Diff{Kind: DiffReserved, Reserved: &rs}
}

// NonReservedDiff changes only the non-reserved area, identified by hash.
func NonReservedDiff(h crypto.Hash256) Diff {
	return Diff{Kind: DiffNonReserved, Hash: h}
}

// GeneralDiff changes both the reserved and non-reserved areas.
func GeneralDiff(rs ReservedState, h crypto.Hash256) Diff {
	return Diff{Kind: DiffGeneral, Reserved: &rs, Hash: h}
}

func (d Diff) CanonicalEncode(w *crypto.Writer) {
	w.WriteString(string(d.Kind))
	switch d.Kind {
	case DiffReserved:
		d.Reserved.CanonicalEncode(w)
	case DiffNonReserved:
		w.WriteHash(d.Hash)
	case DiffGeneral:
		d.Reserved.CanonicalEncode(w)
		w.WriteHash(d.Hash)
	}
}

// ReservedStateChange returns the reserved-state diff this Diff carries,
// if any (Reserved and General arms both carry one).
func (d Diff) ReservedStateChange() (ReservedState, bool) {
	if d.Reserved == nil {
		return ReservedState{}, false
	}
	return *d.Reserved, true
}
