// Package event provides the core calendar domain model: raw scraped records,
// canonical events, and immutable snapshots.
//
// Each event carries a deterministic SHA1-based identity derived from its
// source anchor and normalized title, so the same underlying lecture keeps the
// same ID across refresh cycles even when the source HTML changes cosmetically.
// A Snapshot is a fully-built, ordered, duplicate-free set of events plus
// generation metadata; it is never mutated after construction.
package event
