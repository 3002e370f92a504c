package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/gitstamp/pkg/dlogger"
	"github.com/oneconcern/gitstamp/pkg/graph"
	"github.com/oneconcern/gitstamp/pkg/ledger"
	"github.com/oneconcern/gitstamp/pkg/model"
	"github.com/oneconcern/gitstamp/pkg/tsp/tsptest"
)

type fixture struct {
	repo      *graph.Repo
	authority *tsptest.Authority
	ledger    *ledger.Ledger
}

func tickingClock() func() time.Time {
	t0 := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t0 = t0.Add(time.Minute)
		return t0
	}
}

func newFixture(t testing.TB, opts ...ledger.Option) *fixture {
	t.Helper()

	repo, err := graph.NewMemory(graph.Signature("tests", "tests@oneconcern.com"), graph.Clock(tickingClock()))
	require.NoError(t, err)
	authority := tsptest.New(t)

	return &fixture{
		repo:      repo,
		authority: authority,
		ledger:    newLedger(t, repo, authority, opts...),
	}
}

func newLedger(t testing.TB, repo *graph.Repo, authority *tsptest.Authority, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	all := append([]ledger.Option{
		ledger.Anchor(authority.Anchor()),
		ledger.Logger(dlogger.MustGetLogger(dlogger.LogLevelDebug)),
	}, opts...)
	l, err := ledger.New(repo, authority, all...)
	require.NoError(t, err)
	return l
}

// commit adds a commit on a branch, with the given parents, and moves the branch to it
func (f *fixture) commit(t testing.TB, branch, content string, parents ...plumbing.Hash) plumbing.Hash {
	t.Helper()
	blob, err := f.repo.WriteBlob([]byte(content))
	require.NoError(t, err)
	tree, err := f.repo.WriteTree([]graph.TreeEntry{graph.File("README.md", blob)})
	require.NoError(t, err)
	id, err := f.repo.CreateCommit(tree, content+"\n", parents...)
	require.NoError(t, err)
	f.forceBranch(t, branch, id)
	return id
}

// forceBranch moves a branch, as git reset --hard or a rebase would
func (f *fixture) forceBranch(t testing.TB, branch string, id plumbing.Hash) {
	t.Helper()
	old, _, err := f.repo.ResolveRef(graph.BranchRef(branch))
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateRef(graph.BranchRef(branch), id, old))
}

func (f *fixture) ledgerHead(t testing.TB, branch string) (plumbing.Hash, bool) {
	t.Helper()
	id, found, err := f.repo.ResolveRef(graph.BranchRef(model.LedgerBranch(model.DefaultLedgerPrefix, branch)))
	require.NoError(t, err)
	return id, found
}

func (f *fixture) append(t testing.TB) *ledger.AppendResult {
	t.Helper()
	res, err := f.ledger.Append(context.Background())
	require.NoError(t, err)
	return res
}

// entryFor finds the ledger entry timestamping a commit
func (f *fixture) entryFor(t testing.TB, branch string, id plumbing.Hash) plumbing.Hash {
	t.Helper()
	head, found := f.ledgerHead(t, branch)
	require.True(t, found)
	entry, found, err := f.repo.FindAncestorByTrailer(head, model.TrailerCommitID, id.String())
	require.NoError(t, err)
	require.True(t, found, "no entry for %s", id)
	return entry
}
