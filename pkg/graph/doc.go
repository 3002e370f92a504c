// Package graph provides read and write primitives over a git object database.
//
// Objects (blobs, trees, commits) are immutable and content-addressed: their id
// is the SHA-1 of their canonical git encoding, so writing the same content twice
// yields the same id and never fails half-way. References are the only mutable
// state, and they are only ever updated with a compare-and-swap against the value
// the caller last observed.
//
// The package is backed by go-git, either on an on-disk repository (Open) or on
// an in-memory storage (NewMemory).
package graph
