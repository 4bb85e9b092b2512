package event

import (
	"time"

	"ianua-caldav/internal/logger"
)

// Normalize converts raw records into canonical Events. Records that cannot be
// normalized (missing title, unparseable date, end before start) are skipped
// and logged; a bad record never aborts the cycle.
//
// Deduplication policy: when two records resolve to the same ID within one
// cycle, the later one in document order wins. The source site lists the
// canonical entry last on overwrite-style updates, so last-wins keeps the
// freshest data. Every returned event has LastSeenAt set to cycleTime.
func Normalize(records []RawRecord, cycleTime time.Time, loc *time.Location) []*Event {
	if loc == nil {
		loc = time.UTC
	}

	events := make([]*Event, 0, len(records))
	byID := make(map[string]int, len(records))

	for i, rec := range records {
		if NormalizeTitle(rec.Title) == "" {
			logger.Warn("skipping record without title", logger.Fields{
				"index":  i,
				"anchor": rec.SourceAnchor,
			})
			continue
		}

		start, end, allDay, err := ParseWhen(rec.RawWhen, loc)
		if err != nil {
			logger.Warn("skipping record with unusable date", logger.Fields{
				"index": i,
				"title": rec.Title,
				"when":  rec.RawWhen,
			})
			continue
		}

		evt := &Event{
			ID:          GenerateID(rec.SourceAnchor, rec.Title),
			Title:       rec.Title,
			Start:       start,
			End:         end,
			AllDay:      allDay,
			Location:    rec.RawLocation,
			Description: rec.Description,
			Calendar:    rec.Calendar,
			URL:         rec.URL,
			LastSeenAt:  cycleTime,
		}

		if pos, seen := byID[evt.ID]; seen {
			// Last in document order wins.
			events[pos] = evt
			continue
		}
		byID[evt.ID] = len(events)
		events = append(events, evt)
	}

	return events
}
