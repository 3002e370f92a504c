package ledger

import (
	"context"
	"time"

	"github.com/oneconcern/gitstamp/pkg/model"
)

// Entry summarizes a ledger commit
type Entry struct {
	ID      string    `json:"id" yaml:"id"`
	Commit  string    `json:"commit,omitempty" yaml:"commit,omitempty"`
	URL     string    `json:"url,omitempty" yaml:"url,omitempty"`
	Genesis bool      `json:"genesis" yaml:"genesis"`
	Time    time.Time `json:"time" yaml:"time"`
	Parents []string  `json:"parents" yaml:"parents"`
}

// Entries lists the entries of the ledger of a branch, most recent first, following first parents.
//
// An empty branch stands for the current branch. A limit of 0 or less lists all entries.
func (l *Ledger) Entries(ctx context.Context, branch string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, ledgerBranch, err := l.branches(branch)
	if err != nil {
		return nil, err
	}
	head, err := l.requireBranch(ledgerBranch)
	if err != nil {
		return nil, err
	}

	commits, err := l.repo.FirstParentLog(head, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(commits))
	for _, c := range commits {
		e := Entry{
			ID:      c.ID.String(),
			Time:    c.When,
			Parents: make([]string, 0, len(c.Parents)),
		}
		for _, p := range c.Parents {
			e.Parents = append(e.Parents, p.String())
		}
		e.Commit, _ = c.Trailers.Get(model.TrailerCommitID)
		e.URL, _ = c.Trailers.Get(model.TrailerURL)
		e.Genesis = c.Trailers.Has(model.TrailerInitialCommit, model.InitialCommitValue)
		entries = append(entries, e)
	}
	return entries, nil
}
