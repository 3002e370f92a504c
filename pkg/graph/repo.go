package graph

import (
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/oneconcern/gitstamp/pkg/graph/status"
)

const (
	defaultName  = "gitstamp"
	defaultEmail = "gitstamp@localhost"
)

// Option is a functor to configure a Repo
type Option func(*Repo)

// Signature sets the author and committer identity used on commits created by this Repo
func Signature(name, email string) Option {
	return func(r *Repo) {
		if name != "" {
			r.name = name
		}
		if email != "" {
			r.email = email
		}
	}
}

// Clock sets the time source used to date commits. It defaults to time.Now.
func Clock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

// Repo gives access to the commit graph of a git repository
type Repo struct {
	repo  *git.Repository
	name  string
	email string
	now   func() time.Time
	path  string

	// serializes compare-and-swap updates within this process
	refMu sync.Mutex
}

func newRepo(r *git.Repository, path string, opts ...Option) *Repo {
	repo := &Repo{
		repo:  r,
		name:  defaultName,
		email: defaultEmail,
		now:   time.Now,
		path:  path,
	}
	for _, apply := range opts {
		apply(repo)
	}
	return repo
}

// Open the git repository at path, or in any of its parent directories
func Open(path string, opts ...Option) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, status.ErrOpenRepository.Wrapf("%s: %v", path, err)
	}
	return newRepo(r, path, opts...), nil
}

// NewMemory initializes an empty repository held in memory.
//
// HEAD points to the (unborn) master branch.
func NewMemory(opts ...Option) (*Repo, error) {
	r, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		return nil, status.ErrOpenRepository.Wrap(err)
	}
	return newRepo(r, "", opts...), nil
}

// GitDir is the path of the git directory of an on-disk repository
func (r *Repo) GitDir() (string, error) {
	fs, ok := r.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", status.ErrOpenRepository.Wrapf("%s has no git directory", r)
	}
	return fs.Filesystem().Root(), nil
}

func (r *Repo) String() string {
	if r.path == "" {
		return "memory"
	}
	return "git@" + r.path
}
