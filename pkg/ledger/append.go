package ledger

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/gitstamp/pkg/errors"
	"github.com/oneconcern/gitstamp/pkg/graph"
	"github.com/oneconcern/gitstamp/pkg/graph/status"
	ledgerstatus "github.com/oneconcern/gitstamp/pkg/ledger/status"
	"github.com/oneconcern/gitstamp/pkg/model"
	"github.com/oneconcern/gitstamp/pkg/tsp"
	tspstatus "github.com/oneconcern/gitstamp/pkg/tsp/status"
)

// AppendResult describes the outcome of an append
type AppendResult struct {
	Branch       string
	LedgerBranch string
	Head         plumbing.Hash
	Entry        plumbing.Hash
	Parents      []plumbing.Hash

	// Bootstrapped is set when the ledger branch was created by this append
	Bootstrapped bool

	// UpToDate is set when the head was already timestamped by the ledger head: nothing was appended
	UpToDate bool

	// Approximate is set when no ledger entry matched the merge base of the branch
	// and the ledger: the entry was attached to the ledger head as a best effort
	Approximate bool

	// Anchor is the ledger entry the new entry is attached to
	Anchor plumbing.Hash
}

// Append timestamps the head of the current branch and records the proof on its ledger branch.
//
// The ledger branch is bootstrapped when it does not exist yet. The reply of the authority is
// verified against the query and the payload before anything is written. The ledger reference
// is moved only if it did not change meanwhile: otherwise status.ErrRefConflict is returned and
// the caller may start over.
func (l *Ledger) Append(ctx context.Context) (*AppendResult, error) {
	if l.authority == nil {
		return nil, ledgerstatus.ErrConfiguration.Wrapf("a timestamp authority is required to append")
	}
	if len(l.anchor) == 0 {
		return nil, ledgerstatus.ErrConfiguration.Wrapf("a trust anchor is required to append")
	}

	branch, err := l.repo.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if model.IsLedgerBranch(l.prefix, branch) {
		return nil, ledgerstatus.ErrReentrancy.Wrapf("current branch %q is a ledger branch", branch)
	}

	result := &AppendResult{
		Branch:       branch,
		LedgerBranch: model.LedgerBranch(l.prefix, branch),
	}
	logger := l.l.With(zap.String("branch", result.Branch), zap.String("ledger", result.LedgerBranch))
	ledgerRef := graph.BranchRef(result.LedgerBranch)

	ledgerHead, found, err := l.repo.ResolveRef(ledgerRef)
	if err != nil {
		return nil, err
	}
	if !found {
		if ledgerHead, err = l.bootstrap(ledgerRef); err != nil {
			return nil, err
		}
		result.Bootstrapped = true
		logger.Info("ledger initialized", zap.Stringer("genesis", ledgerHead))
	}

	head, found, err := l.repo.ResolveRef(graph.BranchRef(branch))
	if err != nil {
		return nil, err
	}
	if !found {
		return result, ledgerstatus.ErrNoCommits.Wrapf("%s", branch)
	}
	result.Head = head
	logger = logger.With(zap.Stringer("head", head))

	res, err := l.resolveParents(head, ledgerHead)
	if err != nil {
		return result, err
	}
	result.Anchor, result.Approximate = res.anchor, res.approximate
	if res.upToDate {
		result.UpToDate, result.Entry = true, ledgerHead
		logger.Info("head already timestamped", zap.Stringer("entry", ledgerHead))
		return result, nil
	}
	if res.approximate {
		logger.Warn("no ledger entry for the merge base: attaching to the ledger head",
			zap.Stringer("anchor", res.anchor))
	}
	result.Parents = []plumbing.Hash{res.anchor, head}

	artifacts, err := l.stamp(ctx, head)
	if err != nil {
		return result, err
	}

	message := graph.FormatMessage(model.EntrySubject(head.String()), graph.Trailers{
		{Key: model.TrailerCommitID, Value: head.String()},
		{Key: model.TrailerURL, Value: artifacts.URL},
	})
	entry, err := l.writeEntry(artifacts, message, result.Parents...)
	if err != nil {
		return result, err
	}

	if err = l.repo.UpdateRef(ledgerRef, entry, ledgerHead); err != nil {
		if errors.Is(err, status.ErrRefConflict) {
			logger.Warn("ledger moved during append: nothing recorded", zap.Stringer("entry", entry))
		}
		return result, err
	}
	result.Entry = entry

	logger.Info("timestamp recorded",
		zap.Stringer("entry", entry),
		zap.Stringers("parents", result.Parents),
	)
	return result, nil
}

// bootstrap creates the genesis entry of a ledger branch
func (l *Ledger) bootstrap(ledgerRef plumbing.ReferenceName) (plumbing.Hash, error) {
	message := graph.FormatMessage(model.GenesisSubject, graph.Trailers{
		{Key: model.TrailerInitialCommit, Value: model.InitialCommitValue},
	})
	genesis, err := l.writeEntry(model.Artifacts{CACert: l.anchor, URL: l.authority.URL()}, message)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err = l.repo.UpdateRef(ledgerRef, genesis, plumbing.ZeroHash); err != nil {
		return plumbing.ZeroHash, err
	}
	return genesis, nil
}

// stamp obtains a timestamp for a commit, and only returns artifacts which passed verification
func (l *Ledger) stamp(ctx context.Context, head plumbing.Hash) (model.Artifacts, error) {
	payload := model.Payload(head.String())
	query, err := tsp.BuildQuery(payload)
	if err != nil {
		return model.Artifacts{}, err
	}

	reply, err := l.authority.Submit(ctx, query)
	if err != nil {
		if !errors.Is(err, tspstatus.ErrProtocol) {
			err = tspstatus.ErrTransport.Wrap(err)
		}
		return model.Artifacts{}, err
	}

	if err = gate(reply, query, payload, l.anchor); err != nil {
		return model.Artifacts{}, ledgerstatus.ErrUntrustedReply.Wrap(err)
	}

	artifacts := model.Artifacts{
		Payload: payload,
		Query:   query,
		Reply:   reply,
		CACert:  l.anchor,
		URL:     l.authority.URL(),
	}
	return artifacts, artifacts.Validate()
}

// gate checks that a reply binds to both the query and the raw payload
func gate(reply, query, payload, anchor []byte) error {
	_, errQuery := tsp.Verify(reply, anchor, tsp.MatchQuery(query))
	_, errPayload := tsp.Verify(reply, anchor, tsp.MatchPayload(payload))
	return multierr.Combine(errQuery, errPayload)
}
