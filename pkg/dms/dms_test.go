// Copyright 2026 Simperby Authors

package dms

import (
	"fmt"
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
)

type chatMessage struct {
	Author string
	Body   string
}

func hashChat(m chatMessage) crypto.Hash256 {
	return crypto.Hash([]byte(m.Author + "|" + m.Body))
}

type rejectEmptyBody struct{}

func (rejectEmptyBody) Check(m chatMessage) error {
	if m.Body == "" {
		return errEmptyBody
	}
	return nil
}

var errEmptyBody = fmt.Errorf("empty chat body")

func newTestSet(t *testing.T, members ...crypto.PublicKey) *Set[chatMessage] {
	t.Helper()
	cfg := Config{DMSKey: Key("chat", crypto.ZeroHash256), Members: members}
	return New[chatMessage](cfg, hashChat, rejectEmptyBody{})
}

func TestCommitMessage_AcceptsAndDedupsCommitters(t *testing.T) {
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte("n0"))
	set := newTestSet(t, pub)

	m := chatMessage{Author: "alice", Body: "hello"}
	h := hashChat(m)
	proof, err := Commit(sk, set.cfg.DMSKey, h)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := set.CommitMessage(m, proof); err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if _, err := set.CommitMessage(m, proof); err != nil {
		t.Fatalf("CommitMessage (duplicate): %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", set.Len())
	}

	packets := set.ReadMessages()
	if len(packets) != 1 || len(packets[0].Commitments) != 1 {
		t.Fatalf("packets = %+v, want one packet with one commitment", packets)
	}
}

func TestCommitMessage_RejectsNonMember(t *testing.T) {
	member, _ := crypto.GenerateKeyPairFromSeed([]byte("member"))
	_, outsiderSk := crypto.GenerateKeyPairFromSeed([]byte("outsider"))
	set := newTestSet(t, member)

	m := chatMessage{Author: "eve", Body: "hi"}
	h := hashChat(m)
	proof, _ := Commit(outsiderSk, set.cfg.DMSKey, h)

	if _, err := set.CommitMessage(m, proof); err == nil {
		t.Fatal("expected rejection of a commitment from a non-member")
	}
}

func TestCommitMessage_RejectsFailedCheck(t *testing.T) {
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte("n0"))
	set := newTestSet(t, pub)

	m := chatMessage{Author: "alice", Body: ""}
	h := hashChat(m)
	proof, _ := Commit(sk, set.cfg.DMSKey, h)

	if _, err := set.CommitMessage(m, proof); err == nil {
		t.Fatal("expected rejection of an empty-body message")
	}
}

func TestSync_MergesRemoteSnapshot(t *testing.T) {
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte("n0"))
	a := newTestSet(t, pub)
	b := newTestSet(t, pub)

	m := chatMessage{Author: "alice", Body: "hello"}
	h := hashChat(m)
	proof, _ := Commit(sk, a.cfg.DMSKey, h)
	if _, err := a.CommitMessage(m, proof); err != nil {
		t.Fatalf("CommitMessage on a: %v", err)
	}

	b.Sync(a.ReadMessages())
	if b.Len() != 1 {
		t.Fatalf("b.Len() after Sync = %d, want 1", b.Len())
	}
}
