package graph

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"

	"github.com/oneconcern/gitstamp/pkg/errors"
	"github.com/oneconcern/gitstamp/pkg/graph/status"
)

// BranchRef is the full reference name of a branch
func BranchRef(branch string) plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(branch)
}

// ResolveRef resolves a reference to a commit id.
//
// A missing reference is not an error: found is false.
func (r *Repo) ResolveRef(name plumbing.ReferenceName) (id plumbing.Hash, found bool, err error) {
	ref, err := r.repo.Reference(name, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, status.ErrRefResolution.Wrapf("%s: %v", name, err)
	}
	return ref.Hash(), true, nil
}

// RequireRef resolves a reference which must exist
func (r *Repo) RequireRef(name plumbing.ReferenceName) (plumbing.Hash, error) {
	id, found, err := r.ResolveRef(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if !found {
		return plumbing.ZeroHash, status.ErrRefNotFound.Wrapf("%s", name)
	}
	return id, nil
}

// ResolveRevision resolves a commit-ish (branch, tag, full or abbreviated hash, with ~ and ^ suffixes)
func (r *Repo) ResolveRevision(rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, status.ErrRefResolution.Wrapf("empty revision")
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, status.ErrRefResolution.Wrapf("%q: %v", rev, err)
	}
	if _, err := object.GetCommit(r.repo.Storer, *h); err != nil {
		return plumbing.ZeroHash, status.ErrRefResolution.Wrapf("%q does not name a commit: %v", rev, err)
	}
	return *h, nil
}

// CurrentBranch returns the short name of the branch HEAD points to
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", status.ErrRefResolution.Wrapf("HEAD: %v", err)
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", status.ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// UpdateRef moves a reference to next, provided it still points to expected.
//
// A zero expected id means that the reference must not exist yet. Any mismatch
// yields status.ErrRefConflict and leaves the reference untouched.
func (r *Repo) UpdateRef(name plumbing.ReferenceName, next, expected plumbing.Hash) error {
	r.refMu.Lock()
	defer r.refMu.Unlock()

	current, err := r.repo.Storer.Reference(name)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		if !expected.IsZero() {
			return status.ErrRefConflict.Wrapf("%s: expected %s, found no reference", name, expected)
		}
		// go-git writes a new reference without locking against a concurrent creator:
		// creation is only exclusive within this process, under refMu
		current = nil
	case err != nil:
		return status.ErrRefResolution.Wrapf("%s: %v", name, err)
	case current.Type() != plumbing.HashReference:
		return status.ErrRefConflict.Wrapf("%s is a symbolic reference", name)
	case expected.IsZero():
		return status.ErrRefConflict.Wrapf("%s: expected no reference, found %s", name, current.Hash())
	case current.Hash() != expected:
		return status.ErrRefConflict.Wrapf("%s: expected %s, found %s", name, expected, current.Hash())
	}

	err = r.repo.Storer.CheckAndSetReference(plumbing.NewHashReference(name, next), current)
	if errors.Is(err, storage.ErrReferenceHasChanged) {
		return status.ErrRefConflict.Wrapf("%s: %v", name, err)
	}
	return err
}

// SetHeadBranch points HEAD to a branch, which may not exist yet
func (r *Repo) SetHeadBranch(branch string) error {
	return r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, BranchRef(branch)))
}

// DetachHead points HEAD directly to a commit
func (r *Repo) DetachHead(id plumbing.Hash) error {
	return r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, id))
}
