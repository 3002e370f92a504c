package ledger

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/oneconcern/gitstamp/pkg/graph"
	graphstatus "github.com/oneconcern/gitstamp/pkg/graph/status"
	"github.com/oneconcern/gitstamp/pkg/ledger/status"
	"github.com/oneconcern/gitstamp/pkg/model"
	"github.com/oneconcern/gitstamp/pkg/tsp"
)

// Accessor is the commit graph the ledger is stored in
type Accessor interface {
	CurrentBranch() (string, error)
	ResolveRef(plumbing.ReferenceName) (plumbing.Hash, bool, error)
	ResolveRevision(string) (plumbing.Hash, error)
	Commit(plumbing.Hash) (*graph.Commit, error)

	WriteBlob([]byte) (plumbing.Hash, error)
	WriteTree([]graph.TreeEntry) (plumbing.Hash, error)
	CreateCommit(tree plumbing.Hash, message string, parents ...plumbing.Hash) (plumbing.Hash, error)
	UpdateRef(name plumbing.ReferenceName, next, expected plumbing.Hash) error

	MergeBase(a, b plumbing.Hash) (plumbing.Hash, bool, error)
	FindAncestorByTrailer(head plumbing.Hash, key, value string) (plumbing.Hash, bool, error)
	FirstParentLog(head plumbing.Hash, limit int) ([]*graph.Commit, error)
	ReadPathAtCommit(id plumbing.Hash, path string) ([]byte, error)
}

// Authority delivers timestamp replies
type Authority interface {
	URL() string
	Submit(ctx context.Context, query []byte) ([]byte, error)
}

var (
	_ Accessor  = &graph.Repo{}
	_ Authority = &tsp.Client{}
)

// Ledger synchronizes the ledger branches of a repository
type Ledger struct {
	repo      Accessor
	authority Authority
	anchor    []byte
	prefix    string
	l         *zap.Logger
}

// New ledger on a repository.
//
// The authority may be nil when only verifying or listing entries.
func New(repo Accessor, authority Authority, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		repo:      repo,
		authority: authority,
		prefix:    model.DefaultLedgerPrefix,
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(l)
	}

	if repo == nil {
		return nil, status.ErrConfiguration.Wrapf("a repository is required")
	}
	if err := model.ValidatePrefix(l.prefix); err != nil {
		return nil, status.ErrConfiguration.Wrapf("prefix %q: %v", l.prefix, err)
	}
	if len(l.anchor) > 0 {
		if _, err := tsp.ParseAnchor(l.anchor); err != nil {
			return nil, status.ErrConfiguration.Wrap(err)
		}
	}
	return l, nil
}

// Prefix of the ledger branches
func (l *Ledger) Prefix() string {
	return l.prefix
}

// branches resolves the main and ledger branch names for an operation on an existing ledger.
//
// An empty name stands for the current branch. A ledger branch name designates itself.
func (l *Ledger) branches(branch string) (main, ledger string, err error) {
	if branch == "" {
		if branch, err = l.repo.CurrentBranch(); err != nil {
			return "", "", err
		}
	}
	if name, ok := model.MainBranch(l.prefix, branch); ok {
		return name, branch, nil
	}
	return branch, model.LedgerBranch(l.prefix, branch), nil
}

func (l *Ledger) requireBranch(branch string) (plumbing.Hash, error) {
	id, found, err := l.repo.ResolveRef(graph.BranchRef(branch))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if !found {
		return plumbing.ZeroHash, graphstatus.ErrRefNotFound.Wrapf("branch %q", branch)
	}
	return id, nil
}

// writeEntry stores the artifacts under the artifacts subtree and commits them
func (l *Ledger) writeEntry(artifacts model.Artifacts, message string, parents ...plumbing.Hash) (plumbing.Hash, error) {
	files := artifacts.Files()
	entries := make([]graph.TreeEntry, 0, len(files))
	for _, f := range files {
		id, err := l.repo.WriteBlob(f.Data)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, graph.File(f.Name, id))
	}

	sub, err := l.repo.WriteTree(entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	root, err := l.repo.WriteTree([]graph.TreeEntry{graph.Dir(model.ArtifactsDir, sub)})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return l.repo.CreateCommit(root, message, parents...)
}
