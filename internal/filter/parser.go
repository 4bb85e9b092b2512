package filter

import (
	"fmt"
	"net/url"
	"time"
)

// Query parameter names recognized by FromQuery.
const (
	paramFrom     = "from"
	paramTo       = "to"
	paramTitle    = "title"
	paramLocation = "location"
	paramCalendar = "calendar"
)

// dateLayouts accepted for the from/to parameters. ISO dates first, then the
// dd/mm/yyyy format the source page itself uses.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// FromQuery builds a Filter from URL query parameters. Unknown parameters
// are ignored; a malformed date or an inverted range is an error.
func FromQuery(q url.Values, loc *time.Location) (*Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := New()

	if raw := q.Get(paramFrom); raw != "" {
		from, err := parseDate(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid %q date: %w", paramFrom, err)
		}
		f.DateFrom = &from
	}
	if raw := q.Get(paramTo); raw != "" {
		to, err := parseDate(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid %q date: %w", paramTo, err)
		}
		// "to" is inclusive: extend to the end of the named day.
		to = to.AddDate(0, 0, 1).Add(-time.Second)
		f.DateTo = &to
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, fmt.Errorf("%q must not be after %q", paramFrom, paramTo)
	}

	f.Titles = nonEmpty(q[paramTitle])
	f.Locations = nonEmpty(q[paramLocation])
	f.Calendars = nonEmpty(q[paramCalendar])

	return f, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, use YYYY-MM-DD", raw)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
