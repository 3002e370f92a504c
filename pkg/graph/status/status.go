// Package status declares error constants returned by
// the commit graph accessor.
//
// NOTE: such constants are located in a separate package so that callers
// can match errors without importing the go-git backed implementation.
package status

import "github.com/oneconcern/gitstamp/pkg/errors"

var (
	// ErrRefResolution indicates that a reference or commit-ish could not be resolved to a commit
	ErrRefResolution = errors.New("cannot resolve reference")

	// ErrRefNotFound indicates that a required reference does not exist
	ErrRefNotFound = ErrRefResolution.Extend("reference not found")

	// ErrDetachedHead indicates that HEAD does not point to a named branch
	ErrDetachedHead = errors.New("HEAD is detached: not on a named branch")

	// ErrRefConflict indicates that a compare-and-swap reference update lost the race:
	// the current value of the reference differs from the expected one
	ErrRefConflict = errors.New("reference update conflict")

	// ErrPathNotFound indicates that a path does not resolve to a blob in a commit tree
	ErrPathNotFound = errors.New("path not found in commit")

	// ErrNotACommit indicates that an object id does not designate a commit
	ErrNotACommit = errors.New("object is not a commit")

	// ErrOpenRepository indicates that the git repository could not be opened
	ErrOpenRepository = errors.New("cannot open git repository")
)
