package tsp

import (
	"bytes"
	"crypto"

	// registers SHA-256 for crypto.Hash
	_ "crypto/sha256"

	"github.com/digitorus/timestamp"

	"github.com/oneconcern/gitstamp/pkg/tsp/status"
)

// DigestAlgorithm is the hash algorithm used to build queries
const DigestAlgorithm = crypto.SHA256

// BuildQuery builds the DER-encoded timestamp query for a payload.
//
// The query carries the SHA-256 digest of the payload, no nonce, and requests
// the authority to embed its certificate in the reply. The same payload always
// yields the same query.
func BuildQuery(payload []byte) ([]byte, error) {
	query, err := timestamp.CreateRequest(bytes.NewReader(payload), &timestamp.RequestOptions{
		Hash:         DigestAlgorithm,
		Certificates: true,
	})
	if err != nil {
		return nil, status.ErrMalformedQuery.Wrap(err)
	}
	return query, nil
}

// ParseQuery decodes a DER-encoded timestamp query
func ParseQuery(query []byte) (*timestamp.Request, error) {
	req, err := timestamp.ParseRequest(query)
	if err != nil {
		return nil, status.ErrMalformedQuery.Wrap(err)
	}
	return req, nil
}
