package graph

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/oneconcern/gitstamp/pkg/graph/status"
)

// MergeBase returns the most recent common ancestor of two commits.
//
// found is false when the histories are unrelated. When several best common
// ancestors exist (criss-cross merges), the first one reported by go-git is used.
func (r *Repo) MergeBase(a, b plumbing.Hash) (base plumbing.Hash, found bool, err error) {
	ca, err := object.GetCommit(r.repo.Storer, a)
	if err != nil {
		return plumbing.ZeroHash, false, status.ErrNotACommit.Wrapf("%s: %v", a, err)
	}
	cb, err := object.GetCommit(r.repo.Storer, b)
	if err != nil {
		return plumbing.ZeroHash, false, status.ErrNotACommit.Wrapf("%s: %v", b, err)
	}

	bases, err := ca.MergeBase(cb)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, false, nil
	}
	return bases[0].Hash, true, nil
}

// FindAncestorByTrailer walks the first-parent ancestry of head, most recent first,
// and returns the first commit carrying a trailer with this key and value
func (r *Repo) FindAncestorByTrailer(head plumbing.Hash, key, value string) (id plumbing.Hash, found bool, err error) {
	err = r.walkFirstParent(head, func(c *Commit) bool {
		if c.Trailers.Has(key, value) {
			id, found = c.ID, true
			return false
		}
		return true
	})
	return id, found, err
}

// FirstParentLog lists up to limit commits along the first-parent ancestry of head,
// most recent first. A limit of 0 or less lists the whole ancestry.
func (r *Repo) FirstParentLog(head plumbing.Hash, limit int) ([]*Commit, error) {
	var commits []*Commit
	err := r.walkFirstParent(head, func(c *Commit) bool {
		commits = append(commits, c)
		return limit <= 0 || len(commits) < limit
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

func (r *Repo) walkFirstParent(head plumbing.Hash, visit func(*Commit) bool) error {
	seen := make(map[plumbing.Hash]struct{})
	for id := head; !id.IsZero(); {
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}

		c, err := r.Commit(id)
		if err != nil {
			return err
		}
		if !visit(c) {
			return nil
		}

		parent, ok := c.FirstParent()
		if !ok {
			return nil
		}
		id = parent
	}
	return nil
}
