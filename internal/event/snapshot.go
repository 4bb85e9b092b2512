package event

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"
)

// Snapshot is an immutable, fully-built set of events plus generation
// metadata. It is the unit published to feed readers: created once per
// successful refresh cycle, never mutated, superseded by the next cycle.
type Snapshot struct {
	Events            []*Event  `json:"events"` // ordered by (Start, ID)
	GeneratedAt       time.Time `json:"generated_at"`
	SourceFingerprint string    `json:"source_fingerprint"`
}

// Fingerprint returns the SHA256 hex digest of the raw page bytes a snapshot
// was built from. Equal fingerprints mean the source content did not change.
func Fingerprint(html []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(html))
}

// BuildSnapshot assembles events into a Snapshot: sorts by (Start, ID) and
// records the source fingerprint and generation time.
//
// Duplicate IDs are a programming error (Normalize guarantees uniqueness
// within a cycle), so they panic rather than surface to feed consumers.
func BuildSnapshot(events []*Event, html []byte, cycleTime time.Time) *Snapshot {
	sorted := make([]*Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].ID < sorted[j].ID
	})

	seen := make(map[string]bool, len(sorted))
	for _, evt := range sorted {
		if seen[evt.ID] {
			panic(fmt.Sprintf("event: duplicate ID %s in snapshot", evt.ID))
		}
		seen[evt.ID] = true
	}

	return &Snapshot{
		Events:            sorted,
		GeneratedAt:       cycleTime,
		SourceFingerprint: Fingerprint(html),
	}
}

// Calendars returns the distinct calendar names present in the snapshot,
// sorted. Events without a calendar are excluded.
func (s *Snapshot) Calendars() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, evt := range s.Events {
		if evt.Calendar == "" || seen[evt.Calendar] {
			continue
		}
		seen[evt.Calendar] = true
		names = append(names, evt.Calendar)
	}
	sort.Strings(names)
	return names
}

// ByCalendar returns the events belonging to the named calendar, preserving
// snapshot order.
func (s *Snapshot) ByCalendar(name string) []*Event {
	out := make([]*Event, 0)
	for _, evt := range s.Events {
		if evt.Calendar == name {
			out = append(out, evt)
		}
	}
	return out
}
