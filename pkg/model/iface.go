package model

type errorString string

func (e errorString) Error() string {
	return string(e)
}

const (
	// PrefixIsRequired error whenever a ledger prefix is expected but not provided
	PrefixIsRequired errorString = "ledger prefix is required"

	// InvalidPrefix when a ledger prefix cannot be part of a branch name
	InvalidPrefix errorString = "ledger prefix is not a valid branch name component"

	// MalformedPayload when a stored payload does not name a commit
	MalformedPayload errorString = "malformed timestamp payload"

	// MissingArtifact when an entry does not hold all its artifacts
	MissingArtifact errorString = "missing timestamp artifact"
)
