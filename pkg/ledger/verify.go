package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/oneconcern/gitstamp/pkg/errors"
	graphstatus "github.com/oneconcern/gitstamp/pkg/graph/status"
	"github.com/oneconcern/gitstamp/pkg/ledger/status"
	"github.com/oneconcern/gitstamp/pkg/model"
	"github.com/oneconcern/gitstamp/pkg/tsp"
)

// Names of the checks carried out by Verify
const (
	CheckQuery   = "reply matches query"
	CheckPayload = "reply matches payload"
	CheckCommit  = "payload names commit"
	CheckAnchor  = "stored anchor matches configured anchor"
)

// Check is the outcome of one verification step
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report of the verification of a commit's timestamp
type Report struct {
	Branch        string    `json:"branch" yaml:"branch"`
	LedgerBranch  string    `json:"ledgerBranch" yaml:"ledgerBranch"`
	Commit        string    `json:"commit" yaml:"commit"`
	Entry         string    `json:"entry" yaml:"entry"`
	URL           string    `json:"url" yaml:"url"`
	PayloadSize   int       `json:"payloadSize" yaml:"payloadSize"`
	PayloadSHA256 string    `json:"payloadSha256" yaml:"payloadSha256"`
	Payload       string    `json:"payload" yaml:"payload"`
	Query         string    `json:"query" yaml:"query"`
	Reply         string    `json:"reply" yaml:"reply"`
	Time          time.Time `json:"time,omitempty" yaml:"time,omitempty"`
	// AnchorPinned is false when no trust anchor was configured: the reply was then
	// only checked against the certificate stored in the entry
	AnchorPinned bool    `json:"anchorPinned" yaml:"anchorPinned"`
	Checks       []Check `json:"checks" yaml:"checks"`
	Passed       bool    `json:"passed" yaml:"passed"`
}

func (r *Report) check(name string, err error) {
	c := Check{Name: name, Passed: err == nil}
	if err != nil {
		c.Error = err.Error()
	}
	r.Checks = append(r.Checks, c)
}

// Verify checks the timestamp recorded for a commit on the ledger of a branch.
//
// An empty branch stands for the current branch. Failing to locate the branches, the commit,
// its ledger entry or the stored artifacts is an error. A failed verification is not:
// the report then has Passed set to false and tells which checks failed.
func (l *Ledger) Verify(ctx context.Context, commitish, branch string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mainBranch, ledgerBranch, err := l.branches(branch)
	if err != nil {
		return nil, err
	}
	if _, err = l.requireBranch(mainBranch); err != nil {
		return nil, err
	}
	ledgerHead, err := l.requireBranch(ledgerBranch)
	if err != nil {
		return nil, err
	}

	id, err := l.repo.ResolveRevision(commitish)
	if err != nil {
		return nil, err
	}

	entry, found, err := l.repo.FindAncestorByTrailer(ledgerHead, model.TrailerCommitID, id.String())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, status.ErrArtifactNotFound.Wrapf("commit %s has no entry on %s", id, ledgerBranch)
	}

	artifacts, err := l.loadArtifacts(entry)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(artifacts.Payload)
	report := &Report{
		Branch:        mainBranch,
		LedgerBranch:  ledgerBranch,
		Commit:        id.String(),
		Entry:         entry.String(),
		URL:           artifacts.URL,
		PayloadSize:   len(artifacts.Payload),
		PayloadSHA256: hex.EncodeToString(digest[:]),
		Payload:       string(artifacts.Payload),
		Query:         renderOrError(tsp.RenderQuery(artifacts.Query)),
		Reply:         renderOrError(tsp.RenderReply(artifacts.Reply)),
	}

	ts, err := tsp.Verify(artifacts.Reply, artifacts.CACert, tsp.MatchQuery(artifacts.Query))
	report.check(CheckQuery, err)
	if ts != nil {
		report.Time = ts.Time
	}
	_, err = tsp.Verify(artifacts.Reply, artifacts.CACert, tsp.MatchPayload(artifacts.Payload))
	report.check(CheckPayload, err)

	named, err := model.ParsePayload(artifacts.Payload)
	if err == nil && named != id.String() {
		err = fmt.Errorf("payload names commit %s", named)
	}
	report.check(CheckCommit, err)

	report.AnchorPinned = len(l.anchor) > 0
	if report.AnchorPinned {
		same, err := tsp.SameAnchor(l.anchor, artifacts.CACert)
		if err == nil && !same {
			err = errors.New("the entry was verified with a different trust anchor")
		}
		report.check(CheckAnchor, err)
	}

	report.Passed = true
	for _, c := range report.Checks {
		report.Passed = report.Passed && c.Passed
	}

	l.l.Info("verified timestamp",
		zap.String("commit", report.Commit),
		zap.String("entry", report.Entry),
		zap.Bool("passed", report.Passed),
	)
	return report, nil
}

func (l *Ledger) loadArtifacts(entry plumbing.Hash) (model.Artifacts, error) {
	read := func(file string) ([]byte, error) {
		data, err := l.repo.ReadPathAtCommit(entry, model.ArtifactPath(file))
		if errors.Is(err, graphstatus.ErrPathNotFound) {
			return nil, status.ErrArtifactNotFound.Wrap(err)
		}
		return data, err
	}

	var (
		artifacts model.Artifacts
		url       []byte
	)
	for _, f := range []struct {
		name string
		dest *[]byte
	}{
		{name: model.PayloadFile, dest: &artifacts.Payload},
		{name: model.QueryFile, dest: &artifacts.Query},
		{name: model.ReplyFile, dest: &artifacts.Reply},
		{name: model.CACertFile, dest: &artifacts.CACert},
		{name: model.URLFile, dest: &url},
	} {
		data, err := read(f.name)
		if err != nil {
			return model.Artifacts{}, err
		}
		*f.dest = data
	}
	artifacts.URL = string(url)

	if err := artifacts.Validate(); err != nil {
		return model.Artifacts{}, status.ErrArtifactNotFound.Wrap(err)
	}
	return artifacts, nil
}

func renderOrError(text string, err error) string {
	if err != nil {
		return "cannot decode: " + err.Error()
	}
	return text
}
