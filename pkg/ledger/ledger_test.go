package ledger_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/gitstamp/pkg/errors"
	"github.com/oneconcern/gitstamp/pkg/graph"
	graphstatus "github.com/oneconcern/gitstamp/pkg/graph/status"
	"github.com/oneconcern/gitstamp/pkg/ledger"
	"github.com/oneconcern/gitstamp/pkg/ledger/status"
	"github.com/oneconcern/gitstamp/pkg/model"
	tspstatus "github.com/oneconcern/gitstamp/pkg/tsp/status"
	"github.com/oneconcern/gitstamp/pkg/tsp/tsptest"
)

func TestGenesis(t *testing.T) {
	f := newFixture(t)
	head := f.commit(t, "master", "first")

	res := f.append(t)
	assert.True(t, res.Bootstrapped)
	assert.False(t, res.Approximate)
	assert.Equal(t, "master", res.Branch)
	assert.Equal(t, "timestamps/master", res.LedgerBranch)
	assert.Equal(t, head, res.Head)

	ledgerHead, found := f.ledgerHead(t, "master")
	require.True(t, found)
	assert.Equal(t, res.Entry, ledgerHead)

	entry, err := f.repo.Commit(ledgerHead)
	require.NoError(t, err)
	require.Len(t, entry.Parents, 2)
	assert.Equal(t, head, entry.Parents[1])
	assert.Equal(t, res.Parents, entry.Parents)
	assert.Equal(t, "Timestamp for commit "+head.String(), entry.Subject())
	v, ok := entry.Trailers.Get(model.TrailerCommitID)
	require.True(t, ok)
	assert.Equal(t, head.String(), v)
	v, ok = entry.Trailers.Get(model.TrailerURL)
	require.True(t, ok)
	assert.Equal(t, f.authority.URL(), v)

	genesis, err := f.repo.Commit(entry.Parents[0])
	require.NoError(t, err)
	assert.True(t, genesis.IsRoot())
	assert.True(t, genesis.Trailers.Has(model.TrailerInitialCommit, "true"))
	assert.Equal(t, model.GenesisSubject, genesis.Subject())

	// genesis only holds the anchor and the url
	cert, err := f.repo.ReadPathAtCommit(genesis.ID, "timestamp/cacert.pem")
	require.NoError(t, err)
	assert.Equal(t, f.authority.Anchor(), cert)
	url, err := f.repo.ReadPathAtCommit(genesis.ID, "timestamp/url")
	require.NoError(t, err)
	assert.Equal(t, f.authority.URL(), string(url))
	_, err = f.repo.ReadPathAtCommit(genesis.ID, "timestamp/payload")
	assert.True(t, errors.Is(err, graphstatus.ErrPathNotFound))

	// the entry holds all five artifacts
	for _, file := range []string{"payload", "request.tsq", "reply.tsr", "cacert.pem", "url"} {
		data, err := f.repo.ReadPathAtCommit(ledgerHead, "timestamp/"+file)
		require.NoError(t, err, file)
		assert.NotEmpty(t, data, file)
	}

	log, err := f.repo.FirstParentLog(ledgerHead, 0)
	require.NoError(t, err)
	assert.Len(t, log, 2, "genesis and one entry")
}

func TestLinearHistory(t *testing.T) {
	f := newFixture(t)

	const n = 6
	var commits []plumbing.Hash
	var parent []plumbing.Hash
	for i := 0; i < n; i++ {
		id := f.commit(t, "master", "commit "+string(rune('a'+i)), parent...)
		commits = append(commits, id)
		parent = []plumbing.Hash{id}

		res := f.append(t)
		assert.Equal(t, i == 0, res.Bootstrapped)
		assert.False(t, res.Approximate)
	}
	assert.Equal(t, n, f.authority.Requests())

	entries, err := f.ledger.Entries(context.Background(), "master", 0)
	require.NoError(t, err)
	require.Len(t, entries, n+1)
	assert.True(t, entries[n].Genesis)

	// oldest first
	stamped := make([]plumbing.Hash, 0, n)
	for i := n - 1; i >= 0; i-- {
		require.False(t, entries[i].Genesis)
		require.Len(t, entries[i].Parents, 2)
		assert.Equal(t, entries[i].Commit, entries[i].Parents[1])
		assert.Equal(t, entries[i+1].ID, entries[i].Parents[0])
		stamped = append(stamped, plumbing.NewHash(entries[i].Commit))
	}
	assert.Equal(t, commits, stamped)

	limited, err := f.ledger.Entries(context.Background(), "timestamps/master", 2)
	require.NoError(t, err)
	assert.Equal(t, entries[:2], limited)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.commit(t, "master", "a")
	f.append(t)
	b := f.commit(t, "master", "b", a)
	res := f.append(t)

	for _, id := range []plumbing.Hash{a, b} {
		report, err := f.ledger.Verify(context.Background(), id.String(), "master")
		require.NoError(t, err)
		assert.True(t, report.Passed, "%+v", report.Checks)
		assert.Equal(t, string(model.Payload(id.String())), report.Payload)
		assert.Equal(t, len(model.Payload(id.String())), report.PayloadSize)
		assert.Len(t, report.PayloadSHA256, 64)
		assert.Equal(t, id.String(), report.Commit)
		assert.Equal(t, f.authority.URL(), report.URL)
		assert.False(t, report.Time.IsZero())
		assert.Contains(t, report.Query, "sha-256")
		assert.Contains(t, report.Reply, "Granted")
		require.Len(t, report.Checks, 4)
		for _, c := range report.Checks {
			assert.True(t, c.Passed, c.Name)
			assert.Empty(t, c.Error)
		}
	}

	// commit-ish and current branch
	report, err := f.ledger.Verify(context.Background(), "HEAD", "")
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.Equal(t, res.Entry.String(), report.Entry)
	assert.Equal(t, "master", report.Branch)
	assert.Equal(t, "timestamps/master", report.LedgerBranch)
}

func TestCASSafety(t *testing.T) {
	f := newFixture(t)
	a := f.commit(t, "master", "a")
	f.append(t)
	f.commit(t, "master", "b", a)

	before, _ := f.ledgerHead(t, "master")
	competitor := newLedger(t, f.repo, f.authority)

	// the competitor submits to the same authority: only the first query lets it run
	var (
		fired  bool
		winner *ledger.AppendResult
	)
	f.authority.OnSubmit(func([]byte) {
		if fired {
			return
		}
		fired = true
		var err error
		winner, err = competitor.Append(context.Background())
		require.NoError(t, err)
	})

	requests := f.authority.Requests()
	_, err := f.ledger.Append(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, graphstatus.ErrRefConflict), "got: %v", err)
	assert.True(t, fired)
	assert.Equal(t, requests+2, f.authority.Requests(), "one query per contender")

	require.NotNil(t, winner)
	after, _ := f.ledgerHead(t, "master")
	assert.NotEqual(t, before, after)
	assert.Equal(t, winner.Entry, after, "the ledger holds exactly the winner's entry")

	entry, err := f.repo.Commit(after)
	require.NoError(t, err)
	assert.Equal(t, before, entry.Parents[0])

	// starting over succeeds: the head is already timestamped by the winner
	f.authority.OnSubmit(nil)
	res := f.append(t)
	assert.True(t, res.UpToDate)
	final, _ := f.ledgerHead(t, "master")
	assert.Equal(t, after, final)
}

func TestRebaseReattachment(t *testing.T) {
	f := newFixture(t)

	// A -> B -> C, each timestamped
	a := f.commit(t, "master", "A")
	f.append(t)
	b := f.commit(t, "master", "B", a)
	f.append(t)
	c := f.commit(t, "master", "C", b)
	f.append(t)
	entryA := f.entryFor(t, "master", a)
	entryC := f.entryFor(t, "master", c)

	// amend B into B', rebase C onto C'
	b2 := f.commit(t, "master", "B amended", a)
	c2 := f.commit(t, "master", "C rebased", b2)
	require.NotEqual(t, b, b2)

	res := f.append(t)
	assert.False(t, res.Approximate)
	assert.Equal(t, entryA, res.Anchor)
	assert.Equal(t, []plumbing.Hash{entryA, c2}, res.Parents)

	head, _ := f.ledgerHead(t, "master")
	assert.Equal(t, res.Entry, head)
	entry, err := f.repo.Commit(head)
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{entryA, c2}, entry.Parents)
	assert.NotEqual(t, entryC, entry.Parents[0])

	// the ledger follows the surviving history
	entries, err := f.ledger.Entries(context.Background(), "master", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, c2.String(), entries[0].Commit)
	assert.Equal(t, a.String(), entries[1].Commit)
	assert.True(t, entries[2].Genesis)

	report, err := f.ledger.Verify(context.Background(), c2.String(), "master")
	require.NoError(t, err)
	assert.True(t, report.Passed)

	_, err = f.ledger.Verify(context.Background(), b.String(), "master")
	assert.True(t, errors.Is(err, status.ErrArtifactNotFound))
}

func TestApproximateReattachment(t *testing.T) {
	f := newFixture(t)

	// R is never timestamped
	r := f.commit(t, "master", "R")
	a := f.commit(t, "master", "A", r)
	first := f.append(t)

	// A is rewritten: the merge base R has no ledger entry
	a2 := f.commit(t, "master", "A amended", r)
	res := f.append(t)
	assert.True(t, res.Approximate)
	assert.Equal(t, first.Entry, res.Anchor)
	assert.Equal(t, []plumbing.Hash{first.Entry, a2}, res.Parents)
	assert.NotEqual(t, a, a2)
}

func TestUnrelatedHistory(t *testing.T) {
	f := newFixture(t)
	f.commit(t, "master", "A")
	f.append(t)
	before, _ := f.ledgerHead(t, "master")

	// an unrelated history which is not a root commit
	y, err := f.repo.CreateCommit(mustTree(t, f.repo), "Y\n")
	require.NoError(t, err)
	z := f.commit(t, "master", "Z", y)

	_, err = f.ledger.Append(context.Background())
	assert.True(t, errors.Is(err, status.ErrUnrelatedHistory))
	after, _ := f.ledgerHead(t, "master")
	assert.Equal(t, before, after)

	// a root commit is tolerated
	f.forceBranch(t, "master", y)
	res := f.append(t)
	assert.Equal(t, []plumbing.Hash{before, y}, res.Parents)
	assert.NotEqual(t, z, y)
}

func mustTree(t testing.TB, repo *graph.Repo) plumbing.Hash {
	blob, err := repo.WriteBlob([]byte("unrelated"))
	require.NoError(t, err)
	tree, err := repo.WriteTree([]graph.TreeEntry{graph.File("other.txt", blob)})
	require.NoError(t, err)
	return tree
}

func TestTamperDetection(t *testing.T) {
	f := newFixture(t)
	head := f.commit(t, "master", "a")
	res := f.append(t)

	// rewrite the entry with one byte of the reply mutated
	original, err := f.repo.Commit(res.Entry)
	require.NoError(t, err)
	files := make([]graph.TreeEntry, 0, 5)
	for _, name := range []string{"payload", "request.tsq", "reply.tsr", "cacert.pem", "url"} {
		data, err := f.repo.ReadPathAtCommit(res.Entry, "timestamp/"+name)
		require.NoError(t, err)
		if name == "reply.tsr" {
			data = tsptest.FlipLastByte(data)
		}
		id, err := f.repo.WriteBlob(data)
		require.NoError(t, err)
		files = append(files, graph.File(name, id))
	}
	sub, err := f.repo.WriteTree(files)
	require.NoError(t, err)
	root, err := f.repo.WriteTree([]graph.TreeEntry{graph.Dir("timestamp", sub)})
	require.NoError(t, err)
	forged, err := f.repo.CreateCommit(root, original.Message, original.Parents...)
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateRef(graph.BranchRef("timestamps/master"), forged, res.Entry))

	for i := 0; i < 3; i++ {
		report, err := f.ledger.Verify(context.Background(), head.String(), "master")
		require.NoError(t, err, "a failed verification is a report, not an error")
		assert.False(t, report.Passed)
		assert.Equal(t, forged.String(), report.Entry)

		checks := make(map[string]ledger.Check, len(report.Checks))
		for _, c := range report.Checks {
			checks[c.Name] = c
		}
		assert.False(t, checks[ledger.CheckQuery].Passed)
		assert.False(t, checks[ledger.CheckPayload].Passed)
		assert.Contains(t, checks[ledger.CheckQuery].Error, "signature")
		assert.True(t, checks[ledger.CheckCommit].Passed)
		assert.True(t, checks[ledger.CheckAnchor].Passed)
	}
}

func TestVerifyBeforeCommit(t *testing.T) {
	f := newFixture(t)
	a := f.commit(t, "master", "a")
	f.append(t)
	f.commit(t, "master", "b", a)
	before, _ := f.ledgerHead(t, "master")

	f.authority.Tamper(tsptest.FlipLastByte)
	_, err := f.ledger.Append(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUntrustedReply))
	assert.True(t, errors.Is(err, tspstatus.ErrSignature))
	after, _ := f.ledgerHead(t, "master")
	assert.Equal(t, before, after)

	// an authority signing with a key the anchor does not trust
	stranger := tsptest.New(t)
	l := newLedger(t, f.repo, f.authority, ledger.Anchor(stranger.Anchor()))
	f.authority.Tamper(nil)
	_, err = l.Append(context.Background())
	assert.True(t, errors.Is(err, status.ErrUntrustedReply))
	after, _ = f.ledgerHead(t, "master")
	assert.Equal(t, before, after)
}

func TestGuardedContexts(t *testing.T) {
	t.Run("detached head", func(t *testing.T) {
		f := newFixture(t)
		a := f.commit(t, "master", "a")
		require.NoError(t, f.repo.DetachHead(a))

		_, err := f.ledger.Append(context.Background())
		assert.True(t, errors.Is(err, graphstatus.ErrDetachedHead))
		_, found := f.ledgerHead(t, "master")
		assert.False(t, found)
		assert.Equal(t, 0, f.authority.Requests())
	})

	t.Run("ledger branch", func(t *testing.T) {
		f := newFixture(t)
		f.commit(t, "master", "a")
		f.append(t)
		before, _ := f.ledgerHead(t, "master")

		require.NoError(t, f.repo.SetHeadBranch("timestamps/master"))
		_, err := f.ledger.Append(context.Background())
		assert.True(t, errors.Is(err, status.ErrReentrancy))

		after, _ := f.ledgerHead(t, "master")
		assert.Equal(t, before, after)
		_, found := f.ledgerHead(t, "timestamps/master")
		assert.False(t, found)
		assert.Equal(t, 1, f.authority.Requests())
	})
}

func TestInterruptedBootstrap(t *testing.T) {
	f := newFixture(t)

	// no commit yet: the ledger is bootstrapped, nothing is stamped
	res, err := f.ledger.Append(context.Background())
	assert.True(t, errors.Is(err, status.ErrNoCommits))
	require.NotNil(t, res)
	assert.True(t, res.Bootstrapped)
	genesis, found := f.ledgerHead(t, "master")
	require.True(t, found)

	head := f.commit(t, "master", "a")
	res = f.append(t)
	assert.False(t, res.Bootstrapped)
	assert.Equal(t, []plumbing.Hash{genesis, head}, res.Parents)
}

func TestUpToDate(t *testing.T) {
	f := newFixture(t)
	f.commit(t, "master", "a")
	first := f.append(t)

	again := f.append(t)
	assert.True(t, again.UpToDate)
	assert.Equal(t, first.Entry, again.Entry)
	assert.Equal(t, 1, f.authority.Requests())
}

func TestVerifyLookupFailures(t *testing.T) {
	f := newFixture(t)
	a := f.commit(t, "master", "a")
	b := f.commit(t, "master", "b", a)

	_, err := f.ledger.Verify(context.Background(), b.String(), "master")
	assert.True(t, errors.Is(err, graphstatus.ErrRefNotFound), "no ledger yet")

	f.append(t)

	_, err = f.ledger.Verify(context.Background(), a.String(), "master")
	assert.True(t, errors.Is(err, status.ErrArtifactNotFound), "a was never stamped")

	_, err = f.ledger.Verify(context.Background(), "no-such-rev", "master")
	assert.True(t, errors.Is(err, graphstatus.ErrRefResolution))

	_, err = f.ledger.Verify(context.Background(), b.String(), "develop")
	assert.True(t, errors.Is(err, graphstatus.ErrRefNotFound))

	_, err = f.ledger.Entries(context.Background(), "develop", 0)
	assert.True(t, errors.Is(err, graphstatus.ErrRefNotFound))
}

func TestVerifyWithAnotherAnchor(t *testing.T) {
	f := newFixture(t)
	head := f.commit(t, "master", "a")
	f.append(t)

	stranger := tsptest.New(t)
	l, err := ledger.New(f.repo, nil, ledger.Anchor(stranger.Anchor()))
	require.NoError(t, err)

	report, err := l.Verify(context.Background(), head.String(), "master")
	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.True(t, report.AnchorPinned)
	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, ledger.CheckAnchor, last.Name)
	assert.False(t, last.Passed)

	// without a configured anchor, the stored one is trusted
	l, err = ledger.New(f.repo, nil)
	require.NoError(t, err)
	report, err = l.Verify(context.Background(), head.String(), "master")
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.False(t, report.AnchorPinned)
	assert.Len(t, report.Checks, 3)
}

func TestNew(t *testing.T) {
	repo, err := graph.NewMemory()
	require.NoError(t, err)

	_, err = ledger.New(nil, nil)
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	_, err = ledger.New(repo, nil, ledger.Prefix(""))
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	_, err = ledger.New(repo, nil, ledger.Anchor([]byte("garbage")))
	assert.True(t, errors.Is(err, status.ErrConfiguration))

	l, err := ledger.New(repo, nil, ledger.Prefix("stamps/"))
	require.NoError(t, err)
	assert.Equal(t, "stamps/", l.Prefix())

	_, err = l.Append(context.Background())
	assert.True(t, errors.Is(err, status.ErrConfiguration))
}

func TestCustomPrefix(t *testing.T) {
	f := newFixture(t, ledger.Prefix("stamps-"))
	f.commit(t, "master", "a")
	res := f.append(t)
	assert.Equal(t, "stamps-master", res.LedgerBranch)

	id, found, err := f.repo.ResolveRef(graph.BranchRef("stamps-master"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Entry, id)
}
