package tsp

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"

	"github.com/oneconcern/gitstamp/pkg/tsp/status"
)

// ParseAnchor decodes the PEM-encoded certificates of a trust anchor.
//
// Blocks other than certificates are ignored; at least one certificate is required.
func ParseAnchor(anchor []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for rest := anchor; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, status.ErrBadAnchor.Wrap(err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, status.ErrBadAnchor.Wrapf("no PEM certificate found")
	}
	return certs, nil
}

// AnchorPool builds the pool of trusted roots from a PEM trust anchor
func AnchorPool(anchor []byte) (*x509.CertPool, error) {
	certs, err := ParseAnchor(anchor)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}

// SameAnchor tells if two PEM trust anchors hold the same certificates, in the same order
func SameAnchor(a, b []byte) (bool, error) {
	left, err := ParseAnchor(a)
	if err != nil {
		return false, err
	}
	right, err := ParseAnchor(b)
	if err != nil {
		return false, err
	}
	if len(left) != len(right) {
		return false, nil
	}
	for i := range left {
		if !bytes.Equal(left[i].Raw, right[i].Raw) {
			return false, nil
		}
	}
	return true, nil
}
