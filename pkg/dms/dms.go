// Copyright 2026 Simperby Authors
//
// Package dms implements the Distributed Message Set: a gossip-based,
// content-addressed, per-height replicated set of application messages.
// Every message kind that wants DMS replication (agendas, chat lines,
// extra-agenda transactions) instantiates a Set[M] parameterized by its
// own message type and a static tag; Set itself never inspects message
// content beyond what Checker requires.
package dms

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/errs"
)

// Checker validates a candidate message before it is accepted into the
// set, independent of signature/commitment validity.
type Checker[M any] interface {
	Check(m M) error
}

// Config identifies one DMS instance: its key (binding it to a tag and
// a finalized height) and the members entitled to commit into it.
type Config struct {
	// DMSKey is "<tag>-<hex last_finalized_header_hash>".
	DMSKey  string
	Members []crypto.PublicKey
}

// Key derives a Config's DMSKey from a tag and the last finalized
// header's hash.
func Key(tag string, lastFinalizedHeaderHash crypto.Hash256) string {
	return fmt.Sprintf("%s-%s", tag, hex.EncodeToString(lastFinalizedHeaderHash[:]))
}

// MessageCommitmentProof is a committer's non-repudiable attestation
// that it has accepted a message into the set. The default scheme
// signs hash(message) aggregated with hash(dms_key), which binds the
// commitment to both the message and the height/tag it was made for.
type MessageCommitmentProof struct {
	Committer crypto.PublicKey `json:"committer"`
	Signature []byte           `json:"signature"`
}

func commitmentTarget(dmsKey string, messageHash crypto.Hash256) crypto.Hash256 {
	return crypto.Aggregate(messageHash, crypto.Hash([]byte(dmsKey)))
}

// Commit produces a MessageCommitmentProof for messageHash under the
// given DMS key.
func Commit(sk crypto.PrivateKey, dmsKey string, messageHash crypto.Hash256) (MessageCommitmentProof, error) {
	sig, err := sk.Sign(commitmentTarget(dmsKey, messageHash)[:])
	if err != nil {
		return MessageCommitmentProof{}, errs.Wrap(errs.Crypto, "dms.Commit", "sign commitment: %w", err)
	}
	return MessageCommitmentProof{Committer: sk.PublicKey(), Signature: sig}, nil
}

// VerifyCommitment checks that proof is a valid commitment to
// messageHash under dmsKey.
func VerifyCommitment(proof MessageCommitmentProof, dmsKey string, messageHash crypto.Hash256) bool {
	target := commitmentTarget(dmsKey, messageHash)
	return proof.Committer.VerifySignature(target[:], proof.Signature)
}

// Packet is one stored entry: a message and the commitments collected
// for it so far, content-addressed by the hash of the message bytes.
type Packet[M any] struct {
	Message     M
	MessageHash crypto.Hash256
	Commitments []MessageCommitmentProof
}

// Hasher converts a message to the Hash256 identifying it in the set.
type Hasher[M any] func(m M) crypto.Hash256

// Set is one height's replicated message pool for a single message
// kind. It is safe for concurrent use.
type Set[M any] struct {
	mu sync.RWMutex

	cfg     Config
	hash    Hasher[M]
	checker Checker[M]

	packets map[crypto.Hash256]*Packet[M]
}

// New creates an empty Set for the given configuration.
func New[M any](cfg Config, hash Hasher[M], checker Checker[M]) *Set[M] {
	return &Set[M]{
		cfg:     cfg,
		hash:    hash,
		checker: checker,
		packets: make(map[crypto.Hash256]*Packet[M]),
	}
}

func (s *Set[M]) isMember(pk crypto.PublicKey) bool {
	for _, m := range s.cfg.Members {
		if m.Equal(pk) {
			return true
		}
	}
	return false
}

// CommitMessage validates and inserts a new message into the set, or -
// if the message is already present - adds proof as an additional
// commitment to it. It returns the message's content address.
func (s *Set[M]) CommitMessage(m M, proof MessageCommitmentProof) (crypto.Hash256, error) {
	if !s.isMember(proof.Committer) {
		return crypto.Hash256{}, errs.New(errs.Verification, "dms.CommitMessage", fmt.Errorf("committer %s is not a member of %s", proof.Committer, s.cfg.DMSKey))
	}

	h := s.hash(m)
	if !VerifyCommitment(proof, s.cfg.DMSKey, h) {
		return crypto.Hash256{}, errs.New(errs.Crypto, "dms.CommitMessage", fmt.Errorf("commitment does not verify for message %s", h))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.packets[h]
	if !ok {
		if s.checker != nil {
			if err := s.checker.Check(m); err != nil {
				return crypto.Hash256{}, errs.Wrap(errs.Verification, "dms.CommitMessage", "rejected: %w", err)
			}
		}
		s.packets[h] = &Packet[M]{Message: m, MessageHash: h, Commitments: []MessageCommitmentProof{proof}}
		return h, nil
	}

	for _, c := range existing.Commitments {
		if c.Committer.Equal(proof.Committer) {
			return h, nil
		}
	}
	existing.Commitments = append(existing.Commitments, proof)
	return h, nil
}

// ReadMessages returns every message currently held, in content-address
// order, so repeated calls against an unchanged set agree byte-for-byte.
func (s *Set[M]) ReadMessages() []Packet[M] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Packet[M], 0, len(s.packets))
	for _, p := range s.packets {
		out = append(out, *p)
	}
	sortPacketsByHash(out)
	return out
}

// Fetch returns the packet for a specific message hash, if present.
func (s *Set[M]) Fetch(h crypto.Hash256) (Packet[M], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packets[h]
	if !ok {
		return Packet[M]{}, false
	}
	return *p, true
}

// Sync merges a remote snapshot into this set, re-validating every
// commitment it had not already accepted. It is the counterpart to
// ReadMessages on the gossip path: eventual consistency between two
// nodes is achieved by each periodically calling Sync with the
// other's ReadMessages output.
func (s *Set[M]) Sync(remote []Packet[M]) {
	for _, p := range remote {
		for _, c := range p.Commitments {
			// CommitMessage re-derives the hash and re-verifies the
			// commitment itself, so a byzantine peer cannot inject an
			// unverified packet through Sync.
			s.CommitMessage(p.Message, c)
		}
	}
}

// Len reports how many distinct messages are currently held.
func (s *Set[M]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.packets)
}

func sortPacketsByHash[M any](packets []Packet[M]) {
	for i := 1; i < len(packets); i++ {
		for j := i; j > 0 && less(packets[j].MessageHash, packets[j-1].MessageHash); j-- {
			packets[j-1], packets[j] = packets[j], packets[j-1]
		}
	}
}

func less(a, b crypto.Hash256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
