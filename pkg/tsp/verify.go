package tsp

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"math/big"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"

	"github.com/oneconcern/gitstamp/pkg/tsp/status"
)

// PKIStatus values of a TimeStampResp (RFC 3161, section 2.4.2)
const (
	statusGranted         = 0
	statusGrantedWithMods = 1
)

type pkiStatusInfo struct {
	Status       int
	StatusString asn1.RawValue `asn1:"optional"`
	FailInfo     asn1.RawValue `asn1:"optional"`
}

type timeStampResp struct {
	Status         pkiStatusInfo
	TimeStampToken asn1.RawValue `asn1:"optional"`
}

type matchKind uint8

const (
	matchQuery matchKind = iota
	matchPayload
)

// Target is what a reply must bind to: the query it answers, or the raw payload
type Target struct {
	kind matchKind
	data []byte
}

// MatchQuery requires the reply to answer this DER-encoded query:
// same hash algorithm, same digest and same nonce.
func MatchQuery(query []byte) Target {
	return Target{kind: matchQuery, data: query}
}

// MatchPayload requires the reply to carry the digest of this raw payload
func MatchPayload(payload []byte) Target {
	return Target{kind: matchPayload, data: payload}
}

func (t Target) String() string {
	if t.kind == matchQuery {
		return "query"
	}
	return "payload"
}

// Verify checks a DER-encoded TimeStampResp against a PEM trust anchor and a target.
//
// The reply must be granted, its CMS signature must be valid, and the signer must
// chain up to the anchor and be entitled to sign timestamps. Its message imprint
// must then bind to the target. Any failure is a status.ErrProtocol.
func Verify(reply, anchor []byte, target Target) (*timestamp.Timestamp, error) {
	pool, err := AnchorPool(anchor)
	if err != nil {
		return nil, err
	}

	token, err := grantedToken(reply)
	if err != nil {
		return nil, err
	}

	p7, err := pkcs7.Parse(token)
	if err != nil {
		return nil, status.ErrMalformedReply.Wrap(err)
	}
	if err = p7.VerifyWithChain(pool); err != nil {
		return nil, status.ErrSignature.Wrap(err)
	}
	signer := p7.GetOnlySigner()
	if signer == nil {
		return nil, status.ErrSignature.Wrapf("reply must have exactly one signer")
	}
	if !canTimestamp(signer) {
		return nil, status.ErrSignature.Wrapf("signer %q is not a timestamping certificate", signer.Subject)
	}

	ts, err := timestamp.Parse(token)
	if err != nil {
		return nil, status.ErrMalformedReply.Wrap(err)
	}

	if err = target.match(ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// ParseReply decodes a reply without any trust decision.
//
// The result is suitable for display only.
func ParseReply(reply []byte) (*timestamp.Timestamp, error) {
	token, err := grantedToken(reply)
	if err != nil {
		return nil, err
	}
	ts, err := timestamp.Parse(token)
	if err != nil {
		return nil, status.ErrMalformedReply.Wrap(err)
	}
	return ts, nil
}

func grantedToken(reply []byte) ([]byte, error) {
	var resp timeStampResp
	rest, err := asn1.Unmarshal(reply, &resp)
	if err != nil {
		return nil, status.ErrMalformedReply.Wrap(err)
	}
	if len(rest) > 0 {
		return nil, status.ErrMalformedReply.Wrapf("%d trailing bytes after reply", len(rest))
	}
	if resp.Status.Status != statusGranted && resp.Status.Status != statusGrantedWithMods {
		return nil, status.ErrMalformedReply.Wrapf("request rejected by authority with status %d", resp.Status.Status)
	}
	if len(resp.TimeStampToken.FullBytes) == 0 {
		return nil, status.ErrMalformedReply.Wrapf("granted reply carries no token")
	}
	return resp.TimeStampToken.FullBytes, nil
}

func canTimestamp(cert *x509.Certificate) bool {
	for _, usage := range cert.ExtKeyUsage {
		if usage == x509.ExtKeyUsageTimeStamping {
			return true
		}
	}
	return false
}

func (t Target) match(ts *timestamp.Timestamp) error {
	switch t.kind {
	case matchQuery:
		req, err := ParseQuery(t.data)
		if err != nil {
			return err
		}
		if req.HashAlgorithm != ts.HashAlgorithm {
			return status.ErrDigestMismatch.Wrapf("hash algorithm: query uses %v, reply uses %v", req.HashAlgorithm, ts.HashAlgorithm)
		}
		if !bytes.Equal(req.HashedMessage, ts.HashedMessage) {
			return status.ErrDigestMismatch.Wrapf("reply does not timestamp the digest of the query")
		}
		if !sameNonce(req.Nonce, ts.Nonce) {
			return status.ErrDigestMismatch.Wrapf("nonce: query has %v, reply has %v", req.Nonce, ts.Nonce)
		}
		return nil

	default:
		if !ts.HashAlgorithm.Available() {
			return status.ErrDigestMismatch.Wrapf("unsupported hash algorithm in reply: %v", ts.HashAlgorithm)
		}
		h := ts.HashAlgorithm.New()
		_, _ = h.Write(t.data)
		if !bytes.Equal(h.Sum(nil), ts.HashedMessage) {
			return status.ErrDigestMismatch.Wrapf("reply does not timestamp the digest of the payload")
		}
		return nil
	}
}

func sameNonce(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}
