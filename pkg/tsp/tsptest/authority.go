// Package tsptest provides an in-process RFC 3161 timestamp authority for tests.
//
// The authority owns a self-signed root and a timestamping certificate issued by it.
// It answers queries over a TLS httptest server, or directly through Submit.
package tsptest

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/digitorus/timestamp"
	"github.com/stretchr/testify/require"
)

// Policy is the TSA policy OID set on all tokens
var Policy = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 4146, 2, 3}

var (
	oidExtKeyUsage  = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidTimeStamping = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 8}
)

// Authority is a timestamp authority for tests
type Authority struct {
	server  *httptest.Server
	caCert  *x509.Certificate
	caPEM   []byte
	tsaCert *x509.Certificate
	tsaKey  *ecdsa.PrivateKey

	mu       sync.Mutex
	serial   int64
	requests int
	onSubmit func(query []byte)
	tamper   func(reply []byte) []byte
}

// New starts an authority, shut down when the test completes
func New(t testing.TB) *Authority {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	now := time.Now()
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "gitstamp test root", Organization: []string{"One Concern"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, caKey.Public(), caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	tsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	// RFC 3161 requires the timestamping usage to be the only, critical, extended key usage
	eku, err := asn1.Marshal([]asn1.ObjectIdentifier{oidTimeStamping})
	require.NoError(t, err)
	tsaTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "gitstamp test TSA", Organization: []string{"One Concern"}},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtraExtensions: []pkix.Extension{
			{Id: oidExtKeyUsage, Critical: true, Value: eku},
		},
	}
	tsaDER, err := x509.CreateCertificate(rand.Reader, tsaTemplate, caCert, tsaKey.Public(), caKey)
	require.NoError(t, err)
	tsaCert, err := x509.ParseCertificate(tsaDER)
	require.NoError(t, err)

	a := &Authority{
		caCert:  caCert,
		caPEM:   pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER}),
		tsaCert: tsaCert,
		tsaKey:  tsaKey,
	}
	a.server = httptest.NewTLSServer(http.HandlerFunc(a.serveHTTP))
	t.Cleanup(a.server.Close)

	return a
}

// URL of the authority's https endpoint
func (a *Authority) URL() string {
	return a.server.URL
}

// HTTPClient trusts the TLS certificate of the authority's endpoint
func (a *Authority) HTTPClient() *http.Client {
	return a.server.Client()
}

// Anchor is the PEM-encoded root certificate of the authority
func (a *Authority) Anchor() []byte {
	out := make([]byte, len(a.caPEM))
	copy(out, a.caPEM)
	return out
}

// Requests counts the queries answered so far
func (a *Authority) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// OnSubmit installs a hook called with each query, before the reply is signed
func (a *Authority) OnSubmit(fn func(query []byte)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSubmit = fn
}

// Tamper installs a function altering each reply before it is returned
func (a *Authority) Tamper(fn func(reply []byte) []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tamper = fn
}

// Submit answers a query without going through http
func (a *Authority) Submit(ctx context.Context, query []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.answer(query)
}

// Sign builds a granted reply for a query, ignoring hooks
func (a *Authority) Sign(query []byte) ([]byte, error) {
	req, err := timestamp.ParseRequest(query)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.serial++
	serial := a.serial
	a.mu.Unlock()

	ts := timestamp.Timestamp{
		HashAlgorithm:     req.HashAlgorithm,
		HashedMessage:     req.HashedMessage,
		Time:              time.Now().UTC().Truncate(time.Second),
		Accuracy:          time.Second,
		SerialNumber:      big.NewInt(serial),
		Policy:            Policy,
		Nonce:             req.Nonce,
		AddTSACertificate: req.Certificates,
	}
	return ts.CreateResponseWithOpts(a.tsaCert, a.tsaKey, crypto.SHA256)
}

func (a *Authority) answer(query []byte) ([]byte, error) {
	a.mu.Lock()
	a.requests++
	hook, tamper := a.onSubmit, a.tamper
	a.mu.Unlock()

	if hook != nil {
		hook(query)
	}
	reply, err := a.Sign(query)
	if err != nil {
		return nil, err
	}
	if tamper != nil {
		reply = tamper(reply)
	}
	return reply, nil
}

func (a *Authority) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("Content-Type") != "application/timestamp-query" {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}
	query, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reply, err := a.answer(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/timestamp-reply")
	_, _ = w.Write(reply)
}

// FlipLastByte returns a copy of data with its last byte inverted.
//
// The last bytes of a reply belong to the signature of its token.
func FlipLastByte(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	if len(out) > 0 {
		out[len(out)-1] ^= 0xff
	}
	return out
}
