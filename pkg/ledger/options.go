package ledger

import "go.uber.org/zap"

// Option is a functor to build a Ledger with some options
type Option func(*Ledger)

// Logger for the ledger
func Logger(l *zap.Logger) Option {
	return func(ledger *Ledger) {
		if l != nil {
			ledger.l = l
		}
	}
}

// Anchor defines the PEM-encoded trust anchor of the timestamp authority.
//
// It is required to append entries. When verifying, it is compared with the anchor stored in the entry.
func Anchor(pem []byte) Option {
	return func(ledger *Ledger) {
		ledger.anchor = pem
	}
}

// Prefix defines the prefix of ledger branch names
func Prefix(prefix string) Option {
	return func(ledger *Ledger) {
		ledger.prefix = prefix
	}
}
