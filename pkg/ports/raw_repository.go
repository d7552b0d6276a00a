// Copyright 2026 Simperby Authors
//
// Package ports defines the boundary interfaces the node depends on
// but does not implement: the raw Git plumbing, the network transport,
// and the durable key/value store. Concrete adapters for each live in
// sibling packages (ports/filestorage, ports/httpnetwork); nothing in
// this module's core - CSV, Vetomint, DMS, the repository protocol -
// imports an adapter directly, only these interfaces.
package ports

import (
	"context"

	"github.com/simperby-go/simperby/pkg/crypto"
)

// CommitHash identifies a Git commit. It is distinct from the domain's
// content-addressed crypto.Hash256: a commit hash is assigned by Git,
// not derived from a Commit's canonical encoding.
type CommitHash string

// Branch and Tag are ref names, without the "refs/heads/"/"refs/tags/"
// prefix.
type Branch string
type Tag string

// RawRepository is the minimal Git plumbing the distributed repository
// protocol drives. It has no notion of Simperby's commit grammar - it
// moves refs and reads trees, nothing more.
type RawRepository interface {
	ListBranches(ctx context.Context) ([]Branch, error)
	CreateBranch(ctx context.Context, branch Branch, commit CommitHash) error
	LocateBranch(ctx context.Context, branch Branch) (CommitHash, error)
	MoveBranch(ctx context.Context, branch Branch, commit CommitHash) error
	DeleteBranch(ctx context.Context, branch Branch) error

	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, tag Tag, commit CommitHash) error
	LocateTag(ctx context.Context, tag Tag) (CommitHash, error)
	TagsOn(ctx context.Context, commit CommitHash) ([]Tag, error)
	RemoveTag(ctx context.Context, tag Tag) error

	// CreateSemanticCommit commits title/body (and, when diff is
	// non-empty, overwrites the reserved-state working tree with it)
	// onto branch.
	CreateSemanticCommit(ctx context.Context, branch Branch, title, body string, diff map[string]string) error
	ReadSemanticCommit(ctx context.Context, commit CommitHash) (title, body string, err error)

	CheckoutClean(ctx context.Context) error
	Checkout(ctx context.Context, branch Branch) error
	CheckoutDetached(ctx context.Context, commit CommitHash) error

	GetHead(ctx context.Context) (CommitHash, error)
	GetInitialCommit(ctx context.Context) (CommitHash, error)
	ListAncestors(ctx context.Context, commit CommitHash, max int) ([]CommitHash, error)
	FindMergeBase(ctx context.Context, a, b CommitHash) (CommitHash, error)

	// QueryCommitPath lists every commit strictly after ancestor up to
	// and including descendant, in ancestor-to-descendant order. It
	// fails if ancestor is not an ancestor of descendant.
	QueryCommitPath(ctx context.Context, ancestor, descendant CommitHash) ([]CommitHash, error)

	// ReadReservedState reads the reserved-state directory tree
	// checked out at commit into a domain.ReservedState. Declared in
	// terms of raw bytes here (the reserved-state JSON tree) to avoid
	// this port depending on pkg/domain; callers decode the result.
	ReadReservedState(ctx context.Context, commit CommitHash) ([]byte, error)

	AddRemote(ctx context.Context, name, url string) error
	RemoveRemote(ctx context.Context, name string) error
	FetchAll(ctx context.Context) error
	ListRemotes(ctx context.Context) ([]string, error)

	// PushOption pushes branch to the named remote, attaching a single
	// git push-option string (the external-interface push protocol
	// encodes the push-eligibility signature in this option).
	PushOption(ctx context.Context, remote string, branch Branch, option string) error
}

// MemberLookup is the subset of the reserved state a push-eligibility
// check needs: whether a public key currently belongs to a
// non-expelled member.
type MemberLookup interface {
	IsEligibleMember(pk crypto.PublicKey) bool
}
