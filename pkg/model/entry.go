package model

import "fmt"

// Trailer keys of ledger entries
const (
	TrailerCommitID       = "Timestamp-Commit-ID"
	TrailerURL            = "Timestamp-URL"
	TrailerInitialCommit  = "Timestamp-Initial-Commit"
	InitialCommitValue    = "true"
	GenesisSubject        = "Initialize timestamp ledger"
	entrySubjectFormatter = "Timestamp for commit %s"
)

// EntrySubject is the subject line of the entry timestamping a commit
func EntrySubject(commitID string) string {
	return fmt.Sprintf(entrySubjectFormatter, commitID)
}

// ArtifactFile is a named artifact, as stored in the subtree of an entry
type ArtifactFile struct {
	Name string
	Data []byte
}

// Artifacts stored by a ledger entry.
//
// A genesis entry only holds the certificate and the URL.
type Artifacts struct {
	Payload []byte `json:"-" yaml:"-"`
	Query   []byte `json:"-" yaml:"-"`
	Reply   []byte `json:"-" yaml:"-"`
	CACert  []byte `json:"-" yaml:"-"`
	URL     string `json:"url" yaml:"url"`
}

func (a Artifacts) all() []ArtifactFile {
	return []ArtifactFile{
		{Name: PayloadFile, Data: a.Payload},
		{Name: QueryFile, Data: a.Query},
		{Name: ReplyFile, Data: a.Reply},
		{Name: CACertFile, Data: a.CACert},
		{Name: URLFile, Data: []byte(a.URL)},
	}
}

// Files lists the artifacts to store, skipping the ones which are not set
func (a Artifacts) Files() []ArtifactFile {
	files := make([]ArtifactFile, 0, 5)
	for _, f := range a.all() {
		if len(f.Data) > 0 {
			files = append(files, f)
		}
	}
	return files
}

// Validate that all the artifacts of an append entry are present
func (a Artifacts) Validate() error {
	for _, f := range a.all() {
		if len(f.Data) == 0 {
			return fmt.Errorf("%w: %s", MissingArtifact, f.Name)
		}
	}
	return nil
}
