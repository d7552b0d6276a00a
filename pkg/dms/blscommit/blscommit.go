// Copyright 2026 Simperby Authors
//
// Package blscommit is an optional alternate backend for
// dms.MessageCommitmentProof: instead of one Ed25519 signature per
// committer accumulating in a Packet's Commitments list, a DMS
// deployment that opts in can compact many committers' attestations to
// the same message into a single BLS12-381 aggregate signature -
// scoped to DMS commitment proofs. It is never the default: dms.Set[M] still uses
// per-committer Ed25519 commitments unless a caller explicitly builds
// and checks an AggregateCommitment alongside it.
package blscommit

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/errs"
)

const domainTag = "SIMPERBY_DMS_COMMITMENT_V1"

var g1Gen, g2Gen = generators()

func generators() (bls12381.G1Affine, bls12381.G2Affine) {
	_, _, g1, g2 := bls12381.Generators()
	return g1, g2
}

// PrivateKey is a committer's BLS12-381 signing scalar, published
// alongside its Ed25519 identity for peers that opt into aggregate
// commitments.
type PrivateKey struct{ scalar fr.Element }

// PublicKey is a committer's BLS12-381 G2 point.
type PublicKey struct{ point bls12381.G2Affine }

// GenerateKeyFromSeed derives a deterministic BLS key pair.
func GenerateKeyFromSeed(seed []byte) (PrivateKey, PublicKey) {
	h := sha256.Sum256(seed)
	var sk fr.Element
	sk.SetBytes(h[:])
	var skBig big.Int
	sk.BigInt(&skBig)
	var pk bls12381.G2Affine
	pk.ScalarMultiplication(&g2Gen, &skBig)
	return PrivateKey{scalar: sk}, PublicKey{point: pk}
}

func message(dmsKey string, messageHash crypto.Hash256) []byte {
	h := sha256.New()
	h.Write([]byte(domainTag))
	h.Write([]byte(dmsKey))
	h.Write(messageHash.Bytes())
	return h.Sum(nil)
}

// AggregateCommitment compacts one or more committers' attestations to
// the same (dmsKey, messageHash) pair into a single G1 signature.
type AggregateCommitment struct {
	Committers []crypto.PublicKey // Ed25519 identity of each contributing committer
	signature  bls12381.G1Affine
}

// Sign produces this committer's contribution. Combine merges
// contributions from multiple committers before Verify is called.
func Sign(sk PrivateKey, committer crypto.PublicKey, dmsKey string, messageHash crypto.Hash256) AggregateCommitment {
	h := hashToG1(message(dmsKey, messageHash))
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	var sig bls12381.G1Affine
	sig.ScalarMultiplication(&h, &skBig)
	return AggregateCommitment{Committers: []crypto.PublicKey{committer}, signature: sig}
}

// Combine merges two contributions into one aggregate commitment.
func Combine(a, b AggregateCommitment) AggregateCommitment {
	var aggJac bls12381.G1Jac
	aggJac.FromAffine(&a.signature)
	var bJac bls12381.G1Jac
	bJac.FromAffine(&b.signature)
	aggJac.AddAssign(&bJac)
	var agg bls12381.G1Affine
	agg.FromJacobian(&aggJac)
	return AggregateCommitment{
		Committers: append(append([]crypto.PublicKey{}, a.Committers...), b.Committers...),
		signature:  agg,
	}
}

// Verify checks that every committer named in agg has a known BLS key
// and that the aggregate signature verifies against the aggregate of
// those keys for (dmsKey, messageHash). A committer with no entry in
// keys fails the whole check - a partial-verification pass would let
// an unknown identity ride along inside an otherwise-valid aggregate.
func Verify(agg AggregateCommitment, dmsKey string, messageHash crypto.Hash256, keys map[string]PublicKey) bool {
	if len(agg.Committers) == 0 {
		return false
	}
	points := make([]bls12381.G2Affine, 0, len(agg.Committers))
	for _, c := range agg.Committers {
		k, ok := keys[c.String()]
		if !ok {
			return false
		}
		points = append(points, k.point)
	}

	aggPk, err := aggregateG2(points)
	if err != nil {
		return false
	}
	h := hashToG1(message(dmsKey, messageHash))

	var negPk bls12381.G2Affine
	negPk.Neg(&aggPk)
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{agg.signature, h},
		[]bls12381.G2Affine{g2Gen, negPk},
	)
	return err == nil && ok
}

func aggregateG2(keys []bls12381.G2Affine) (bls12381.G2Affine, error) {
	if len(keys) == 0 {
		return bls12381.G2Affine{}, errs.New(errs.InvalidOperation, "blscommit.aggregateG2", errNoKeys)
	}
	var aggJac bls12381.G2Jac
	aggJac.FromAffine(&keys[0])
	for i := 1; i < len(keys); i++ {
		var jac bls12381.G2Jac
		jac.FromAffine(&keys[i])
		aggJac.AddAssign(&jac)
	}
	var agg bls12381.G2Affine
	agg.FromJacobian(&aggJac)
	return agg, nil
}

var errNoKeys = errNoKeysErr{}

type errNoKeysErr struct{}

func (errNoKeysErr) Error() string { return "no public keys to aggregate" }

// hashToG1 hashes a message to a point on G1 via hash-and-increment.
func hashToG1(msg []byte) bls12381.G1Affine {
	h := sha256.New()
	h.Write([]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_"))
	h.Write(msg)
	base := h.Sum(nil)

	for counter := uint64(0); counter < 1000; counter++ {
		h2 := sha256.New()
		h2.Write(base)
		var counterBytes [8]byte
		binary.BigEndian.PutUint64(counterBytes[:], counter)
		h2.Write(counterBytes[:])
		candidate := h2.Sum(nil)

		var point bls12381.G1Affine
		if _, err := point.SetBytes(candidate); err == nil && !point.IsInfinity() {
			return point
		}

		var scalar fr.Element
		scalar.SetBytes(candidate)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)
		var result bls12381.G1Affine
		result.ScalarMultiplication(&g1Gen, &scalarBig)
		if !result.IsInfinity() {
			return result
		}
	}
	return g1Gen
}
