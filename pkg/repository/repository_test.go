// Copyright 2026 Simperby Authors

package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/simperby-go/simperby/pkg/crypto"
	"github.com/simperby-go/simperby/pkg/domain"
	"github.com/simperby-go/simperby/pkg/merkle"
	"github.com/simperby-go/simperby/pkg/ports"
)

// memRepo is a minimal in-memory ports.RawRepository sufficient to
// drive Receive/Genesis: a linear commit DAG with parent pointers, a
// branch table, and per-commit semantic title/body storage.
type memRepo struct {
	commits  map[ports.CommitHash]memCommit
	parents  map[ports.CommitHash]ports.CommitHash
	branches map[ports.Branch]ports.CommitHash
	head     ports.Branch
	reserved []byte
	seq      int
}

type memCommit struct {
	title, body string
}

func newMemRepo(reserved domain.ReservedState) *memRepo {
	raw, _ := json.Marshal(reserved)
	return &memRepo{
		commits:  make(map[ports.CommitHash]memCommit),
		parents:  make(map[ports.CommitHash]ports.CommitHash),
		branches: make(map[ports.Branch]ports.CommitHash),
		reserved: raw,
	}
}

func (m *memRepo) newHash() ports.CommitHash {
	m.seq++
	h := sha256.Sum256([]byte(fmt.Sprintf("commit-%d", m.seq)))
	return ports.CommitHash(hex.EncodeToString(h[:]))
}

func (m *memRepo) ListBranches(ctx context.Context) ([]ports.Branch, error) {
	var out []ports.Branch
	for b := range m.branches {
		out = append(out, b)
	}
	return out, nil
}

func (m *memRepo) CreateBranch(ctx context.Context, branch ports.Branch, commit ports.CommitHash) error {
	if _, ok := m.branches[branch]; ok {
		return fmt.Errorf("branch exists: %s", branch)
	}
	m.branches[branch] = commit
	return nil
}

func (m *memRepo) LocateBranch(ctx context.Context, branch ports.Branch) (ports.CommitHash, error) {
	c, ok := m.branches[branch]
	if !ok {
		return "", fmt.Errorf("no such branch: %s", branch)
	}
	return c, nil
}

func (m *memRepo) MoveBranch(ctx context.Context, branch ports.Branch, commit ports.CommitHash) error {
	m.branches[branch] = commit
	return nil
}

func (m *memRepo) DeleteBranch(ctx context.Context, branch ports.Branch) error {
	delete(m.branches, branch)
	return nil
}

func (m *memRepo) ListTags(ctx context.Context) ([]ports.Tag, error) { return nil, nil }
func (m *memRepo) CreateTag(ctx context.Context, tag ports.Tag, commit ports.CommitHash) error {
	return nil
}
func (m *memRepo) LocateTag(ctx context.Context, tag ports.Tag) (ports.CommitHash, error) {
	return "", fmt.Errorf("not found")
}
func (m *memRepo) TagsOn(ctx context.Context, commit ports.CommitHash) ([]ports.Tag, error) {
	return nil, nil
}
func (m *memRepo) RemoveTag(ctx context.Context, tag ports.Tag) error { return nil }

func (m *memRepo) CreateSemanticCommit(ctx context.Context, branch ports.Branch, title, body string, diff map[string]string) error {
	parent := m.branches[branch]
	h := m.newHash()
	m.commits[h] = memCommit{title: title, body: body}
	m.parents[h] = parent
	m.branches[branch] = h
	m.head = branch
	return nil
}

func (m *memRepo) ReadSemanticCommit(ctx context.Context, commit ports.CommitHash) (string, string, error) {
	c, ok := m.commits[commit]
	if !ok {
		return "", "", fmt.Errorf("no such commit: %s", commit)
	}
	return c.title, c.body, nil
}

func (m *memRepo) CheckoutClean(ctx context.Context) error                       { return nil }
func (m *memRepo) Checkout(ctx context.Context, branch ports.Branch) error       { m.head = branch; return nil }
func (m *memRepo) CheckoutDetached(ctx context.Context, commit ports.CommitHash) error { return nil }

func (m *memRepo) GetHead(ctx context.Context) (ports.CommitHash, error) {
	return m.branches[m.head], nil
}

func (m *memRepo) GetInitialCommit(ctx context.Context) (ports.CommitHash, error) {
	return "", fmt.Errorf("unused")
}

func (m *memRepo) ListAncestors(ctx context.Context, commit ports.CommitHash, max int) ([]ports.CommitHash, error) {
	var out []ports.CommitHash
	cur := commit
	for len(out) < max {
		p, ok := m.parents[cur]
		if !ok || p == "" {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out, nil
}

func (m *memRepo) FindMergeBase(ctx context.Context, a, b ports.CommitHash) (ports.CommitHash, error) {
	ancestorsOfB := map[ports.CommitHash]bool{b: true}
	for cur := b; cur != ""; cur = m.parents[cur] {
		ancestorsOfB[cur] = true
	}
	if ancestorsOfB[a] {
		return a, nil
	}
	return "", fmt.Errorf("no common ancestor")
}

func (m *memRepo) QueryCommitPath(ctx context.Context, ancestor, descendant ports.CommitHash) ([]ports.CommitHash, error) {
	var path []ports.CommitHash
	for cur := descendant; cur != ancestor; cur = m.parents[cur] {
		if cur == "" {
			return nil, fmt.Errorf("ancestor not found on path")
		}
		path = append([]ports.CommitHash{cur}, path...)
	}
	return path, nil
}

func (m *memRepo) ReadReservedState(ctx context.Context, commit ports.CommitHash) ([]byte, error) {
	return m.reserved, nil
}

func (m *memRepo) AddRemote(ctx context.Context, name, url string) error    { return nil }
func (m *memRepo) RemoveRemote(ctx context.Context, name string) error     { return nil }
func (m *memRepo) FetchAll(ctx context.Context) error                     { return nil }
func (m *memRepo) ListRemotes(ctx context.Context) ([]string, error)      { return nil, nil }
func (m *memRepo) PushOption(ctx context.Context, remote string, branch ports.Branch, option string) error {
	return nil
}

func testGenesis(t *testing.T) (domain.GenesisInfo, crypto.PrivateKey) {
	t.Helper()
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte("genesis-node"))
	header := domain.BlockHeader{
		Author:               pub,
		PreviousHash:         crypto.ZeroHash256,
		Height:               0,
		ValidatorSet:         []domain.ValidatorEntry{{PublicKey: pub, VotingPower: 1}},
		CommitMerkleRoot:     crypto.ZeroHash256,
		RepositoryMerkleRoot: crypto.ZeroHash256,
		Version:              "0.1.0",
	}
	target := domain.FinalizationSignTarget{BlockHash: header.ToHash256(), Round: 0}
	sig, _ := crypto.Sign(sk, target)
	return domain.GenesisInfo{
		Header:       header,
		GenesisProof: domain.FinalizationProof{Round: 0, Signatures: []crypto.TypedSignature[domain.FinalizationSignTarget]{sig}},
		ChainName:    "test-chain",
	}, sk
}

func TestGenesis_SetsUpBranches(t *testing.T) {
	genesis, _ := testGenesis(t)
	rs := domain.ReservedState{
		GenesisInfo:          genesis,
		Members:              []domain.Member{{PublicKey: genesis.Header.Author, Name: "a", GovernanceVotingPower: 1, ConsensusVotingPower: 1}},
		ConsensusLeaderOrder: []string{"a"},
		Version:              "0.1.0",
	}
	raw := newMemRepo(rs)
	repo := New(raw)

	if err := repo.Genesis(context.Background(), genesis); err != nil {
		t.Fatalf("Genesis: %v", err)
	}

	if _, err := raw.LocateBranch(context.Background(), FinalizedBranch); err != nil {
		t.Errorf("finalized branch missing: %v", err)
	}
	if _, err := raw.LocateBranch(context.Background(), FPBranch); err != nil {
		t.Errorf("fp branch missing: %v", err)
	}
	if _, err := raw.LocateBranch(context.Background(), MainBranch); err != nil {
		t.Errorf("main branch missing: %v", err)
	}
}

func TestTestPushEligibility(t *testing.T) {
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte("pusher"))
	rs := domain.ReservedState{Members: []domain.Member{{PublicKey: pub, Name: "a"}}}

	target := PushEligibilitySignTarget{CommitHash: "abc", Branch: "b-deadbeef", Timestamp: 1000}
	sig, err := crypto.Sign(sk, target)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !TestPushEligibility(rs, target, sig, 1030) {
		t.Error("expected eligible push within threshold")
	}
	if TestPushEligibility(rs, target, sig, 1000+PushEligibilityThreshold+1) {
		t.Error("expected ineligible push past threshold")
	}

	expelled := domain.ReservedState{Members: []domain.Member{{PublicKey: pub, Name: "a", Expelled: true}}}
	if TestPushEligibility(expelled, target, sig, 1000) {
		t.Error("expected ineligible push from an expelled member")
	}
}

// receiveFixtureNode is a signer used only to drive the two-block
// Receive scenario below.
type receiveFixtureNode struct {
	pub crypto.PublicKey
	sk  crypto.PrivateKey
}

func newReceiveFixtureNode(seed string) receiveFixtureNode {
	pub, sk := crypto.GenerateKeyPairFromSeed([]byte(seed))
	return receiveFixtureNode{pub: pub, sk: sk}
}

// TestReceive_AdvancesFinalizedToSecondToLastBlockAcrossTwoCycles drives
// a single Receive call across a commit sequence containing two
// complete agenda->agendaproof->block cycles: a replay that crosses
// two block boundaries at once must still finalize in the right
// place. It pins down that `finalized`/`fp` land on the first
// new block's own commit hash, not on whatever non-block commit
// happens to share that block's position in the verifier's own applied
// header count.
func TestReceive_AdvancesFinalizedToSecondToLastBlockAcrossTwoCycles(t *testing.T) {
	ctx := context.Background()
	nodes := []receiveFixtureNode{
		newReceiveFixtureNode("rn0"), newReceiveFixtureNode("rn1"),
		newReceiveFixtureNode("rn2"), newReceiveFixtureNode("rn3"),
	}

	members := make([]domain.Member, len(nodes))
	order := make([]string, len(nodes))
	validators := make([]domain.ValidatorEntry, len(nodes))
	for i, n := range nodes {
		name := string(rune('a' + i))
		members[i] = domain.Member{PublicKey: n.pub, Name: name, GovernanceVotingPower: 1, ConsensusVotingPower: 1}
		order[i] = name
		validators[i] = domain.ValidatorEntry{PublicKey: n.pub, VotingPower: 1}
	}

	signHeader := func(header domain.BlockHeader, round domain.ConsensusRound) domain.FinalizationProof {
		target := domain.FinalizationSignTarget{BlockHash: header.ToHash256(), Round: round}
		sigs := make([]crypto.TypedSignature[domain.FinalizationSignTarget], len(nodes))
		for i, n := range nodes {
			sig, _ := crypto.Sign(n.sk, target)
			sigs[i] = sig
		}
		return domain.FinalizationProof{Round: round, Signatures: sigs}
	}

	genesisHeader := domain.BlockHeader{
		Author:               nodes[0].pub,
		PreviousHash:         crypto.ZeroHash256,
		Height:               0,
		ValidatorSet:         validators,
		CommitMerkleRoot:     crypto.ZeroHash256,
		RepositoryMerkleRoot: crypto.ZeroHash256,
		Version:              "0.1.0",
	}
	genesis := domain.GenesisInfo{
		Header:       genesisHeader,
		GenesisProof: signHeader(genesisHeader, 0),
		ChainName:    "test-chain",
	}
	rs := domain.ReservedState{
		GenesisInfo:          genesis,
		Members:              members,
		ConsensusLeaderOrder: order,
		Version:              "0.1.0",
	}

	raw := newMemRepo(rs)
	repo := New(raw)
	if err := repo.Genesis(ctx, genesis); err != nil {
		t.Fatalf("Genesis: %v", err)
	}

	genesisCommit, err := raw.LocateBranch(ctx, FinalizedBranch)
	if err != nil {
		t.Fatalf("locate finalized branch: %v", err)
	}
	const candidateBranch ports.Branch = "candidate"
	if err := raw.CreateBranch(ctx, candidateBranch, genesisCommit); err != nil {
		t.Fatalf("create candidate branch: %v", err)
	}

	commitOn := func(c domain.Commit) ports.CommitHash {
		sc, err := domain.ToSemanticCommit(c)
		if err != nil {
			t.Fatalf("ToSemanticCommit: %v", err)
		}
		if err := raw.CreateSemanticCommit(ctx, candidateBranch, sc.Title, sc.Body, nil); err != nil {
			t.Fatalf("CreateSemanticCommit: %v", err)
		}
		h, err := raw.LocateBranch(ctx, candidateBranch)
		if err != nil {
			t.Fatalf("locate candidate branch: %v", err)
		}
		return h
	}

	buildCycle := func(prevHeader domain.BlockHeader, height domain.BlockHeight) domain.BlockHeader {
		tx := domain.Transaction{Author: nodes[0].pub, Timestamp: int64(height)*10 + 1, Head: "do it", Body: "", Diff: domain.NoneDiff()}
		commitOn(domain.TransactionCommit(tx))

		agenda := domain.Agenda{Height: height, Author: nodes[0].pub, Timestamp: int64(height)*10 + 2, TransactionsHash: domain.FoldTransactionsHash([]domain.Transaction{tx})}
		commitOn(domain.AgendaCommit(agenda))

		agendaSigs := make([]crypto.TypedSignature[domain.Agenda], len(nodes))
		for i, n := range nodes {
			sig, _ := crypto.Sign(n.sk, agenda)
			agendaSigs[i] = sig
		}
		proof := domain.AgendaProof{Height: height, AgendaHash: agenda.ToHash256(), Proof: agendaSigs}
		commitOn(domain.AgendaProofCommit(proof))

		leaves := []crypto.Hash256{
			domain.TransactionCommit(tx).ToHash256(),
			domain.AgendaCommit(agenda).ToHash256(),
			domain.AgendaProofCommit(proof).ToHash256(),
		}
		tree, err := merkle.BuildTree(leaves)
		if err != nil {
			t.Fatalf("BuildTree: %v", err)
		}

		header := domain.BlockHeader{
			Author:                     nodes[0].pub,
			PrevBlockFinalizationProof: signHeader(prevHeader, 0),
			PreviousHash:               prevHeader.ToHash256(),
			Height:                     height,
			Timestamp:                  int64(height)*10 + 3,
			CommitMerkleRoot:           tree.Root(),
			RepositoryMerkleRoot:       crypto.ZeroHash256,
			ValidatorSet:               validators,
			Version:                    "0.1.0",
		}
		commitOn(domain.BlockCommit(header))
		return header
	}

	block1 := buildCycle(genesisHeader, 1)
	block1Commit, err := raw.LocateBranch(ctx, candidateBranch)
	if err != nil {
		t.Fatalf("locate candidate branch after block 1: %v", err)
	}
	buildCycle(block1, 2)
	tip, err := raw.LocateBranch(ctx, candidateBranch)
	if err != nil {
		t.Fatalf("locate candidate branch after block 2: %v", err)
	}

	accepted, reason, err := repo.Receive(ctx, tip)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !accepted {
		t.Fatalf("Receive rejected the sequence: %s", reason)
	}

	finalizedCommit, err := raw.LocateBranch(ctx, FinalizedBranch)
	if err != nil {
		t.Fatalf("locate finalized branch: %v", err)
	}
	if finalizedCommit != block1Commit {
		t.Errorf("expected finalized branch to advance to block 1's own commit %s, got %s", block1Commit, finalizedCommit)
	}

	header, _, err := repo.lastFinalizedHeader(ctx)
	if err != nil {
		t.Fatalf("lastFinalizedHeader: %v", err)
	}
	if header.Height != block1.Height {
		t.Errorf("expected finalized header at height %d, got %d", block1.Height, header.Height)
	}
}
