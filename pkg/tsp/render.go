package tsp

import (
	"crypto"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gosuri/uitable"
)

const renderColWidth = 100

// RenderQuery decodes a DER-encoded query as human-readable text
func RenderQuery(query []byte) (string, error) {
	req, err := ParseQuery(query)
	if err != nil {
		return "", err
	}

	table := newTable()
	table.AddRow("Hash Algorithm:", hashName(req.HashAlgorithm))
	table.AddRow("Message Digest:", hex.EncodeToString(req.HashedMessage))
	table.AddRow("Policy OID:", oidOrNone(req.TSAPolicyOID))
	table.AddRow("Nonce:", hexOrNone(req.Nonce))
	table.AddRow("Certificate Required:", yesNo(req.Certificates))
	table.AddRow("Extensions:", len(req.Extensions))
	return table.String() + "\n", nil
}

// RenderReply decodes a DER-encoded reply as human-readable text.
//
// Rendering makes no trust decision.
func RenderReply(reply []byte) (string, error) {
	ts, err := ParseReply(reply)
	if err != nil {
		return "", err
	}

	table := newTable()
	table.AddRow("Status:", "Granted")
	table.AddRow("Policy OID:", oidOrNone(ts.Policy))
	table.AddRow("Hash Algorithm:", hashName(ts.HashAlgorithm))
	table.AddRow("Message Digest:", hex.EncodeToString(ts.HashedMessage))
	table.AddRow("Serial Number:", hexOrNone(ts.SerialNumber))
	table.AddRow("Time Stamp:", ts.Time.UTC().Format(time.RFC3339Nano))
	table.AddRow("Accuracy:", accuracy(ts.Accuracy))
	table.AddRow("Ordering:", yesNo(ts.Ordering))
	table.AddRow("Nonce:", hexOrNone(ts.Nonce))
	for i, cert := range ts.Certificates {
		label := ""
		if i == 0 {
			label = "Certificates:"
		}
		table.AddRow(label, cert.Subject.String())
	}
	return table.String() + "\n", nil
}

func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = renderColWidth
	table.Wrap = true
	return table
}

func hashName(h crypto.Hash) string {
	if !h.Available() {
		return fmt.Sprintf("unknown (%d)", h)
	}
	return strings.ToLower(h.String())
}

func oidOrNone(oid asn1.ObjectIdentifier) string {
	if len(oid) == 0 {
		return "unspecified"
	}
	return oid.String()
}

func hexOrNone(n *big.Int) string {
	if n == nil {
		return "unspecified"
	}
	return "0x" + n.Text(16)
}

func accuracy(d time.Duration) string {
	if d == 0 {
		return "unspecified"
	}
	return d.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
