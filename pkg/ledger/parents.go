package ledger

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/oneconcern/gitstamp/pkg/ledger/status"
	"github.com/oneconcern/gitstamp/pkg/model"
)

type attachment struct {
	// anchor is the ledger entry the new entry attaches to
	anchor      plumbing.Hash
	approximate bool
	upToDate    bool
}

// resolveParents finds where the entry for head attaches to the ledger.
//
//   - right after bootstrap, the ledger head is the genesis entry and the new entry attaches to it
//   - otherwise, the anchor is the ledger entry which timestamps the merge base of head and the
//     ledger head. When the branch was rewritten, this rewinds the ledger to the last commit which
//     survived the rewrite
//   - when no entry timestamps the merge base, the new entry attaches to the ledger head, flagged
//     as approximate: this is not sound for merge-heavy histories
//   - a branch unrelated to its ledger is only accepted when head is a root commit
func (l *Ledger) resolveParents(head, ledgerHead plumbing.Hash) (attachment, error) {
	tip, err := l.repo.Commit(ledgerHead)
	if err != nil {
		return attachment{}, err
	}
	if tip.IsRoot() {
		return attachment{anchor: ledgerHead}, nil
	}

	base, found, err := l.repo.MergeBase(head, ledgerHead)
	if err != nil {
		return attachment{}, err
	}
	if !found {
		commit, err := l.repo.Commit(head)
		if err != nil {
			return attachment{}, err
		}
		if !commit.IsRoot() {
			return attachment{}, status.ErrUnrelatedHistory.Wrapf("no common ancestor between %s and ledger head %s", head, ledgerHead)
		}
		return attachment{anchor: ledgerHead}, nil
	}

	anchor, found, err := l.repo.FindAncestorByTrailer(ledgerHead, model.TrailerCommitID, base.String())
	if err != nil {
		return attachment{}, err
	}
	if !found {
		return attachment{anchor: ledgerHead, approximate: true}, nil
	}

	if anchor == ledgerHead && base == head {
		return attachment{anchor: anchor, upToDate: true}, nil
	}
	return attachment{anchor: anchor}, nil
}
