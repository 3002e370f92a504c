// Package status exports errors produced by the timestamp protocol client.
package status

import (
	"github.com/oneconcern/gitstamp/pkg/errors"
)

var (
	// ErrProtocol is the family of all timestamp protocol failures
	ErrProtocol = errors.New("timestamp protocol error")

	// ErrTransport indicates that the timestamp authority could not be reached or did not answer properly
	ErrTransport = ErrProtocol.Extend("timestamp authority transport error")

	// ErrMalformedQuery indicates that a timestamp query could not be built or decoded
	ErrMalformedQuery = ErrProtocol.Extend("malformed timestamp query")

	// ErrMalformedReply indicates that a timestamp reply could not be decoded, or was not granted
	ErrMalformedReply = ErrProtocol.Extend("malformed timestamp reply")

	// ErrSignature indicates that the signature or the certificate chain of a reply does not check out
	ErrSignature = ErrProtocol.Extend("timestamp signature verification failed")

	// ErrDigestMismatch indicates that a reply does not bind to the expected query or payload
	ErrDigestMismatch = ErrProtocol.Extend("timestamp digest mismatch")

	// ErrBadAnchor indicates that the trust anchor holds no usable certificate
	ErrBadAnchor = ErrProtocol.Extend("invalid trust anchor")
)
