package cli

import (
	"sort"
	"strings"

	"ianua-caldav/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByCalendar SortOrder = "calendar"
	SortByTitle    SortOrder = "title"
)

// sortEvents returns the events sorted by the given order. The input slice
// is left untouched; callers may pass a snapshot's event list directly.
func sortEvents(in []*event.Event, sortOrder SortOrder) []*event.Event {
	events := append([]*event.Event(nil), in...)
	switch sortOrder {
	case SortByDate:
		sort.Slice(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByCalendar:
		sort.Slice(events, func(i, j int) bool {
			if events[i].Calendar != events[j].Calendar {
				return events[i].Calendar < events[j].Calendar
			}
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.Slice(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByDate(events[i], events[j])
		})
	}
	return events
}

// compareByDate reports whether event i should come before event j
func compareByDate(i, j *event.Event) bool {
	if !i.Start.Equal(j.Start) {
		return i.Start.Before(j.Start)
	}
	if i.Calendar != j.Calendar {
		return i.Calendar < j.Calendar
	}
	return i.ID < j.ID
}
