// Copyright 2026 Simperby Authors
//
// SemanticCommit is how a Commit is actually stored as a Git commit:
// a title carrying a type tag, a JSON body carrying the commit's
// fields, and a diff describing what changed in the repository tree.
// JSON here is purely a storage/display format - it is never hashed or
// signed; every hash in this package goes through canonical encoding.

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/simperby-go/simperby/pkg/errs"
)

// SemanticCommit is the Git-native encoding of a Commit.
type SemanticCommit struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Diff  Diff   `json:"diff"`
}

const (
	tagBlock       = ">block"
	tagTransaction = ">transaction"
	tagAgenda      = ">agenda"
	tagAgendaProof = ">agenda-proof"
	tagExtraAgenda = ">extra-agenda-transaction"
	tagChatLog     = ">chat-log"
	tagFP          = ">fp"
)

// semanticBody is the JSON envelope carried in a SemanticCommit's body:
// `{"kind": ..., "body": <canonical-JSON value>}`.
type semanticBody struct {
	Kind CommitKind      `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// ToSemanticCommit encodes a Commit as a SemanticCommit. A Transaction
// commit's own Diff becomes the returned Diff; every other kind gets
// NoneDiff.
func ToSemanticCommit(c Commit) (SemanticCommit, error) {
	var title string
	var payload interface{}
	var diff Diff

	switch c.Kind {
	case CommitBlock:
		title = fmt.Sprintf("%s: %d", tagBlock, c.Block.Height)
		payload = c.Block
		diff = NoneDiff()
	case CommitTransaction:
		title = fmt.Sprintf("%s: %s", tagTransaction, c.Transaction.Head)
		payload = c.Transaction
		diff = c.Transaction.Diff
	case CommitAgenda:
		title = fmt.Sprintf("%s: %d/%s", tagAgenda, c.Agenda.Height, c.Agenda.ToHash256().Prefix(8))
		payload = c.Agenda
		diff = NoneDiff()
	case CommitAgendaProof:
		title = fmt.Sprintf("%s: %d", tagAgendaProof, c.AgendaProof.Height)
		payload = c.AgendaProof
		diff = NoneDiff()
	case CommitExtraAgendaTransaction:
		title = tagExtraAgenda
		payload = c.ExtraAgendaTransaction
		diff = NoneDiff()
	case CommitChatLog:
		title = tagChatLog
		payload = c.ChatLog
		diff = NoneDiff()
	default:
		return SemanticCommit{}, errs.New(errs.Format, "", fmt.Errorf("unknown commit kind %q", c.Kind))
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return SemanticCommit{}, errs.New(errs.Format, "", err)
	}
	envelope, err := json.Marshal(semanticBody{Kind: c.Kind, Body: raw})
	if err != nil {
		return SemanticCommit{}, errs.New(errs.Format, "", err)
	}

	return SemanticCommit{Title: title, Body: string(envelope), Diff: diff}, nil
}

// FromSemanticCommit decodes a SemanticCommit back into a Commit. This
// is the left inverse of ToSemanticCommit: from_semantic_commit(
// to_semantic_commit(c)) == c for every c this package produces.
func FromSemanticCommit(sc SemanticCommit) (Commit, error) {
	var env semanticBody
	if err := json.Unmarshal([]byte(sc.Body), &env); err != nil {
		return Commit{}, errs.New(errs.Format, "", err)
	}

	switch env.Kind {
	case CommitBlock:
		var h BlockHeader
		if err := json.Unmarshal(env.Body, &h); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		return BlockCommit(h), nil
	case CommitTransaction:
		var t Transaction
		if err := json.Unmarshal(env.Body, &t); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		// A SemanticCommit read back as title and body only carries no
		// Diff; the diff encoded in the body is kept in that case.
		if sc.Diff.Kind != "" {
			t.Diff = sc.Diff
		}
		return TransactionCommit(t), nil
	case CommitAgenda:
		var a Agenda
		if err := json.Unmarshal(env.Body, &a); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		return AgendaCommit(a), nil
	case CommitAgendaProof:
		var p AgendaProof
		if err := json.Unmarshal(env.Body, &p); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		return AgendaProofCommit(p), nil
	case CommitExtraAgendaTransaction:
		var e ExtraAgendaTransaction
		if err := json.Unmarshal(env.Body, &e); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		return ExtraAgendaTransactionCommit(e), nil
	case CommitChatLog:
		var cl ChatLog
		if err := json.Unmarshal(env.Body, &cl); err != nil {
			return Commit{}, errs.New(errs.Format, "", err)
		}
		return ChatLogCommit(cl), nil
	default:
		return Commit{}, errs.New(errs.Format, "", fmt.Errorf("unknown commit kind %q", env.Kind))
	}
}

// IsFinalizationProofTitle reports whether a raw commit title marks the
// tip of the `fp` branch.
func IsFinalizationProofTitle(title string) bool {
	return strings.HasPrefix(title, tagFP)
}

// ToFinalizationProofSemanticCommit encodes a LastFinalizationProof as
// the special `fp`-branch commit.
func ToFinalizationProofSemanticCommit(l LastFinalizationProof) (SemanticCommit, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return SemanticCommit{}, errs.New(errs.Format, "", err)
	}
	return SemanticCommit{
		Title: fmt.Sprintf("%s: %d", tagFP, l.Height),
		Body:  string(raw),
		Diff:  NoneDiff(),
	}, nil
}

// FromFinalizationProofSemanticCommit decodes the `fp`-branch tip.
func FromFinalizationProofSemanticCommit(sc SemanticCommit) (LastFinalizationProof, error) {
	if !IsFinalizationProofTitle(sc.Title) {
		return LastFinalizationProof{}, errs.New(errs.Format, sc.Title, fmt.Errorf("not an fp commit"))
	}
	var l LastFinalizationProof
	if err := json.Unmarshal([]byte(sc.Body), &l); err != nil {
		return LastFinalizationProof{}, errs.New(errs.Format, sc.Title, err)
	}
	return l, nil
}

// HeightFromBlockTitle extracts the height embedded in a `>block: N`
// title, used by CSV and the repository protocol to sanity-check a
// commit's declared height against its title before fully decoding it.
func HeightFromBlockTitle(title string) (BlockHeight, bool) {
	if !strings.HasPrefix(title, tagBlock+": ") {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(title, tagBlock+": "), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
