// Package model describes the objects stored on a timestamp ledger.
//
// The object model of gitstamp is composed of:
//
//	Ledger branch:
//	  An append-only branch shadowing a main branch. Its name is the main branch name
//	  with a fixed prefix, e.g. "timestamps/master" for "master".
//
//	Genesis entry:
//	  The first commit of a ledger branch. It has no parent, carries the
//	  "Timestamp-Initial-Commit: true" trailer and stores the trust anchor and authority URL.
//
//	Entry:
//	  A ledger commit recording the RFC 3161 proof for one main branch commit.
//	  Its first parent is the previous ledger state, its second parent is the timestamped commit.
//	  The "Timestamp-Commit-ID" and "Timestamp-URL" trailers identify the proof.
//
//	Artifacts:
//	  The files stored under the "timestamp/" subtree of an entry: the signed payload,
//	  the raw query and reply, the trust anchor certificate and the authority URL.
package model
