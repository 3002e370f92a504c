// Package status exports errors produced by the ledger synchronizer.
package status

import (
	"github.com/oneconcern/gitstamp/pkg/errors"
)

var (
	// ErrReentrancy indicates that an append was attempted from a ledger branch
	ErrReentrancy = errors.New("cannot timestamp a ledger branch")

	// ErrUnrelatedHistory indicates that a branch and its ledger share no history,
	// outside of the tolerated case of a root commit
	ErrUnrelatedHistory = errors.New("branch and ledger have unrelated histories")

	// ErrArtifactNotFound indicates that no ledger entry, or no stored artifact, exists for a commit
	ErrArtifactNotFound = errors.New("no timestamp found")

	// ErrNoCommits indicates that the branch to timestamp has no commit yet
	ErrNoCommits = errors.New("branch has no commits")

	// ErrUntrustedReply indicates that a timestamp reply failed verification before being recorded
	ErrUntrustedReply = errors.New("timestamp reply failed verification: nothing recorded")

	// ErrConfiguration indicates that the ledger is missing some setting to carry out an operation
	ErrConfiguration = errors.New("invalid ledger configuration")
)
