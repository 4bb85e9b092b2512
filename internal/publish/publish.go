// Package publish holds the current snapshot and swaps it atomically.
//
// The publisher is the only shared mutable state between the background
// refresh cycle and feed-serving readers. Readers never block a publish and a
// publish never blocks readers; a reader always observes a complete snapshot,
// either the old one or the new one.
package publish

import (
	"errors"
	"sync/atomic"

	"ianua-caldav/internal/event"
)

// ErrNotReady is returned by Current before the first successful publish.
// There is no implicit empty calendar: clients must not be told a real,
// populated calendar is empty.
var ErrNotReady = errors.New("publish: no snapshot published yet")

// Publisher owns the current-snapshot reference.
type Publisher struct {
	current atomic.Pointer[event.Snapshot]
}

// New creates a Publisher in the not-ready state.
func New() *Publisher {
	return &Publisher{}
}

// Current returns the latest published snapshot. It never blocks on a refresh
// in progress; while a refresh is in flight or after one failed, the previous
// snapshot is returned unchanged.
func (p *Publisher) Current() (*event.Snapshot, error) {
	snap := p.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Publish atomically replaces the current snapshot. Readers that already hold
// the previous snapshot keep seeing it for the rest of their request.
func (p *Publisher) Publish(snap *event.Snapshot) {
	p.current.Store(snap)
}

// Ready reports whether a snapshot has been published.
func (p *Publisher) Ready() bool {
	return p.current.Load() != nil
}
