package model

import (
	"path"
	"regexp"
	"strings"
)

const (
	// DefaultLedgerPrefix is prepended to a branch name to get its ledger branch
	DefaultLedgerPrefix = "timestamps/"

	// ArtifactsDir is the subtree of a ledger entry holding the artifacts
	ArtifactsDir = "timestamp"

	// artifact files
	PayloadFile = "payload"
	QueryFile   = "request.tsq"
	ReplyFile   = "reply.tsr"
	CACertFile  = "cacert.pem"
	URLFile     = "url"
)

var payloadRe = regexp.MustCompile(`^git commit ([0-9a-f]{40})\n$`)

// LedgerBranch yields the name of the ledger branch paired with a branch
func LedgerBranch(prefix, branch string) string {
	return prefix + branch
}

// IsLedgerBranch tells if a branch name follows the ledger naming convention
func IsLedgerBranch(prefix, branch string) bool {
	return prefix != "" && strings.HasPrefix(branch, prefix)
}

// MainBranch strips the ledger prefix from a ledger branch name
func MainBranch(prefix, ledger string) (string, bool) {
	if !IsLedgerBranch(prefix, ledger) || len(ledger) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(ledger, prefix), true
}

// ValidatePrefix checks that a ledger prefix may be used to build branch names
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return PrefixIsRequired
	case strings.ContainsAny(prefix, " ~^:?*[\\") || strings.Contains(prefix, ".."):
		return InvalidPrefix
	case strings.HasPrefix(prefix, "/") || strings.HasPrefix(prefix, "-"):
		return InvalidPrefix
	}
	return nil
}

// ArtifactPath is the path of an artifact file relative to the root tree of an entry
func ArtifactPath(file string) string {
	return path.Join(ArtifactsDir, file)
}

// Payload is the message signed by the timestamp authority for a commit
func Payload(commitID string) []byte {
	return []byte("git commit " + commitID + "\n")
}

// ParsePayload extracts the commit id named by a payload
func ParsePayload(payload []byte) (string, error) {
	m := payloadRe.FindSubmatch(payload)
	if m == nil {
		return "", MalformedPayload
	}
	return string(m[1]), nil
}
