// Package filter narrows the events of a snapshot before encoding.
//
// Feeds accept filter criteria as query parameters, so a subscriber can
// follow just part of the timetable:
//   - Date ranges (from/to dates)
//   - Title keywords (substring matching, case-insensitive)
//   - Locations (substring matching, case-insensitive)
//   - Calendars (exact name or slug)
//
// An empty filter matches every event.
package filter

import (
	"strings"
	"time"

	"ianua-caldav/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering; events starting outside the range are dropped.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Title keyword filtering (case-insensitive substring match, any may match)
	Titles []string `json:"titles,omitempty"`

	// Location filtering (case-insensitive substring match)
	Locations []string `json:"locations,omitempty"`

	// Calendar filtering (exact display name or slug)
	Calendars []string `json:"calendars,omitempty"`
}

// New creates an empty filter. It matches all events until criteria are
// added.
func New() *Filter {
	return &Filter{}
}

// IsEmpty reports whether no criteria are set.
func (f *Filter) IsEmpty() bool {
	return f == nil ||
		(f.DateFrom == nil && f.DateTo == nil &&
			len(f.Titles) == 0 && len(f.Locations) == 0 && len(f.Calendars) == 0)
}

// Apply returns the events matching the filter, preserving the input order.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}
	matched := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			matched = append(matched, evt)
		}
	}
	return matched
}

// Matches reports whether a single event satisfies every set criterion.
func (f *Filter) Matches(evt *event.Event) bool {
	if f == nil {
		return true
	}
	if f.DateFrom != nil && evt.Start.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && evt.Start.After(*f.DateTo) {
		return false
	}
	if len(f.Titles) > 0 && !matchesAnySubstring(evt.Title, f.Titles) {
		return false
	}
	if len(f.Locations) > 0 && !matchesAnySubstring(evt.Location, f.Locations) {
		return false
	}
	if len(f.Calendars) > 0 && !matchesAnyExact(evt.Calendar, f.Calendars) {
		return false
	}
	return true
}

// Describe returns a human-readable summary of the active criteria.
func (f *Filter) Describe() string {
	if f.IsEmpty() {
		return "all events"
	}
	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, "from "+f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		parts = append(parts, "to "+f.DateTo.Format("2006-01-02"))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, "title contains "+strings.Join(f.Titles, "|"))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, "location contains "+strings.Join(f.Locations, "|"))
	}
	if len(f.Calendars) > 0 {
		parts = append(parts, "calendar "+strings.Join(f.Calendars, "|"))
	}
	return strings.Join(parts, ", ")
}

func matchesAnySubstring(value string, needles []string) bool {
	value = strings.ToLower(value)
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(value, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// matchesAnyExact accepts a calendar either by display name
// (case-insensitive) or by its slug, so ?calendar=isb-2025 selects the same
// feed as /calendar/isb-2025.ics.
func matchesAnyExact(value string, names []string) bool {
	slug := Slugify(value)
	for _, name := range names {
		if strings.EqualFold(value, name) || slug == Slugify(name) {
			return true
		}
	}
	return false
}

// Slugify converts a calendar name to a URL path segment. Letters and digits
// are lowercased, every other run of characters becomes a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
