package event

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts is the ordered list of accepted date formats. The first match
// wins. The source site writes dd/mm/yyyy; the rest are fallbacks observed
// during markup drift.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2006-01-02",
	"02/01/06",
}

const clockLayout = "15:04"

// ParseWhen resolves raw date/time text into absolute instants in loc.
//
// Accepted shapes:
//
//	"17/10/2025"                 -> all-day event
//	"17/10/2025 09:00 - 13:00"   -> timed event with start and end
//	"17/10/2025 09:00"           -> point-in-time event (no end)
//
// An empty string, an unrecognized date, or an end before start is an error;
// callers treat that as a per-record skip, never a cycle failure.
func ParseWhen(raw string, loc *time.Location) (start, end time.Time, allDay bool, err error) {
	if loc == nil {
		loc = time.UTC
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, time.Time{}, false, fmt.Errorf("empty date text")
	}

	day, err := parseDay(fields[0], loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	rest := strings.Join(fields[1:], " ")
	if rest == "" {
		return day, time.Time{}, true, nil
	}

	from, to, err := parseClockRange(rest)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	// Build wall-clock instants rather than adding durations to midnight:
	// on DST transition days the day is 23 or 25 hours long, and an offset
	// from midnight would land an hour off.
	start = atClock(day, from, loc)
	if to.IsZero() {
		return start, time.Time{}, false, nil
	}

	end = atClock(day, to, loc)
	if end.Before(start) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("end %s before start %s", to.Format(clockLayout), from.Format(clockLayout))
	}
	return start, end, false, nil
}

// atClock combines a day with a wall-clock time in loc.
func atClock(day, clock time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

// parseDay tries each accepted date layout in order.
func parseDay(text string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

// parseClockRange parses "09:00 - 13:00", "09:00-13:00" or a lone "09:00".
// The second return value is zero when no end time is present.
func parseClockRange(text string) (from, to time.Time, err error) {
	text = strings.ReplaceAll(text, " ", "")
	// Some pages use an en dash between times.
	text = strings.ReplaceAll(text, "–", "-")

	parts := strings.Split(text, "-")
	from, err = time.Parse(clockLayout, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized time %q", parts[0])
	}
	if len(parts) == 1 {
		return from, time.Time{}, nil
	}

	to, err = time.Parse(clockLayout, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized time %q", parts[1])
	}
	return from, to, nil
}
