package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/oneconcern/gitstamp/pkg/graph/status"
)

// Commit is an immutable node of the commit graph
type Commit struct {
	ID       plumbing.Hash
	Tree     plumbing.Hash
	Parents  []plumbing.Hash
	Message  string
	Trailers Trailers
	When     time.Time
}

// FirstParent of this commit, if any
func (c *Commit) FirstParent() (plumbing.Hash, bool) {
	if len(c.Parents) == 0 {
		return plumbing.ZeroHash, false
	}
	return c.Parents[0], true
}

// IsRoot tells if this commit has no parent
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// Subject line of the commit message
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// TreeEntry describes a named object in a tree
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	ID   plumbing.Hash
}

// File builds a tree entry for a regular file
func File(name string, id plumbing.Hash) TreeEntry {
	return TreeEntry{Name: name, Mode: filemode.Regular, ID: id}
}

// Dir builds a tree entry for a subtree
func Dir(name string, id plumbing.Hash) TreeEntry {
	return TreeEntry{Name: name, Mode: filemode.Dir, ID: id}
}

// git orders tree entries as if directory names had a trailing slash
func (e TreeEntry) sortKey() string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func (r *Repo) store(encode func(plumbing.EncodedObject) error) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	if err := encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}

	// objects are content-addressed: an existing object is never rewritten
	id := obj.Hash()
	if r.repo.Storer.HasEncodedObject(id) == nil {
		return id, nil
	}
	return r.repo.Storer.SetEncodedObject(obj)
}

// WriteBlob stores bytes as a blob and returns its id
func (r *Repo) WriteBlob(data []byte) (plumbing.Hash, error) {
	return r.store(func(obj plumbing.EncodedObject) error {
		obj.SetType(plumbing.BlobObject)
		w, err := obj.Writer()
		if err != nil {
			return err
		}
		if _, err = w.Write(data); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
}

// WriteTree stores a tree made of the given entries and returns its id.
//
// Entries are sorted in git's canonical order; names must be unique and may not contain a slash.
func (r *Repo) WriteTree(entries []TreeEntry) (plumbing.Hash, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].sortKey() < sorted[j].sortKey()
	})

	tree := &object.Tree{Entries: make([]object.TreeEntry, 0, len(sorted))}
	for i, e := range sorted {
		if e.Name == "" || strings.ContainsRune(e.Name, '/') {
			return plumbing.ZeroHash, fmt.Errorf("invalid tree entry name %q", e.Name)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return plumbing.ZeroHash, fmt.Errorf("duplicate tree entry %q", e.Name)
		}
		if err := r.repo.Storer.HasEncodedObject(e.ID); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("tree entry %q refers to %s: %w", e.Name, e.ID, err)
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.ID})
	}

	return r.store(tree.Encode)
}

// CreateCommit stores a commit with this tree, message and ordered parents, and returns its id.
//
// No reference is updated.
func (r *Repo) CreateCommit(tree plumbing.Hash, message string, parents ...plumbing.Hash) (plumbing.Hash, error) {
	if _, err := object.GetTree(r.repo.Storer, tree); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("commit tree %s: %w", tree, err)
	}
	for _, parent := range parents {
		if _, err := r.Commit(parent); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	sig := object.Signature{Name: r.name, Email: r.email, When: r.now()}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	return r.store(commit.Encode)
}

// Commit reads a commit by id
func (r *Repo) Commit(id plumbing.Hash) (*Commit, error) {
	c, err := object.GetCommit(r.repo.Storer, id)
	if err != nil {
		return nil, status.ErrNotACommit.Wrapf("%s: %v", id, err)
	}
	return toCommit(c), nil
}

func toCommit(c *object.Commit) *Commit {
	parents := make([]plumbing.Hash, len(c.ParentHashes))
	copy(parents, c.ParentHashes)
	return &Commit{
		ID:       c.Hash,
		Tree:     c.TreeHash,
		Parents:  parents,
		Message:  c.Message,
		Trailers: ParseTrailers(c.Message),
		When:     c.Committer.When,
	}
}

// ReadPathAtCommit resolves a slash-separated path through the tree of a commit and
// returns the content of the blob it designates
func (r *Repo) ReadPathAtCommit(id plumbing.Hash, path string) ([]byte, error) {
	c, err := object.GetCommit(r.repo.Storer, id)
	if err != nil {
		return nil, status.ErrNotACommit.Wrapf("%s: %v", id, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	f, err := tree.File(path)
	if err != nil {
		return nil, status.ErrPathNotFound.Wrapf("%s at %s: %v", path, id, err)
	}
	rdr, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	return io.ReadAll(rdr)
}
