// Copyright 2026 Simperby Authors

package blscommit

import (
	"github.com/simperby-go/simperby/pkg/crypto"
	"testing"
)

func testCommitters(n int) ([]crypto.PublicKey, []PrivateKey, map[string]PublicKey) {
	ids := make([]crypto.PublicKey, n)
	blsSks := make([]PrivateKey, n)
	keys := make(map[string]PublicKey, n)
	for i := 0; i < n; i++ {
		id, _ := crypto.GenerateKeyPairFromSeed([]byte{byte(i), 'b', 'l', 's'})
		blsSk, blsPk := GenerateKeyFromSeed([]byte{byte(i), 'b', 'l', 's'})
		ids[i] = id
		blsSks[i] = blsSk
		keys[id.String()] = blsPk
	}
	return ids, blsSks, keys
}

func TestAggregateCommitment_SingleSigner(t *testing.T) {
	ids, sks, keys := testCommitters(1)
	msgHash := crypto.Hash([]byte("message-1"))

	agg := Sign(sks[0], ids[0], "dms-key", msgHash)
	if !Verify(agg, "dms-key", msgHash, keys) {
		t.Error("expected single-signer aggregate to verify")
	}
	if Verify(agg, "wrong-dms-key", msgHash, keys) {
		t.Error("expected verification to fail under a different dmsKey")
	}
}

func TestAggregateCommitment_CombineMultipleSigners(t *testing.T) {
	ids, sks, keys := testCommitters(3)
	msgHash := crypto.Hash([]byte("message-2"))

	agg := Sign(sks[0], ids[0], "dms-key", msgHash)
	for i := 1; i < 3; i++ {
		agg = Combine(agg, Sign(sks[i], ids[i], "dms-key", msgHash))
	}

	if !Verify(agg, "dms-key", msgHash, keys) {
		t.Error("expected combined 3-signer aggregate to verify")
	}
	if len(agg.Committers) != 3 {
		t.Errorf("expected 3 committers, got %d", len(agg.Committers))
	}
}

func TestAggregateCommitment_RejectsUnknownCommitter(t *testing.T) {
	ids, sks, keys := testCommitters(2)
	msgHash := crypto.Hash([]byte("message-3"))

	agg := Sign(sks[0], ids[0], "dms-key", msgHash)
	delete(keys, ids[0].String())

	if Verify(agg, "dms-key", msgHash, keys) {
		t.Error("expected verification to fail when the committer's key is unknown")
	}
}

func TestAggregateCommitment_RejectsWrongMessage(t *testing.T) {
	ids, sks, keys := testCommitters(1)
	agg := Sign(sks[0], ids[0], "dms-key", crypto.Hash([]byte("real message")))

	if Verify(agg, "dms-key", crypto.Hash([]byte("other message")), keys) {
		t.Error("expected verification to fail for a different message hash")
	}
}

func TestAggregateCommitment_RejectsEmptyCommitters(t *testing.T) {
	var agg AggregateCommitment
	if Verify(agg, "dms-key", crypto.Hash([]byte("x")), map[string]PublicKey{}) {
		t.Error("expected empty-committer aggregate to fail verification")
	}
}
