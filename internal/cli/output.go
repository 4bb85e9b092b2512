package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"ianua-caldav/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time                 `json:"checked_at"`
	Source     string                    `json:"source"`
	Calendars  []string                  `json:"calendars"`
	Events     []*event.Event            `json:"events"`
	EventCount int                       `json:"event_count"`
	ByCalendar map[string][]*event.Event `json:"by_calendar,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text, grouped by calendar
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	if len(result.ByCalendar) > 0 {
		calendars := make([]string, 0, len(result.ByCalendar))
		for name := range result.ByCalendar {
			calendars = append(calendars, name)
		}
		sort.Strings(calendars)

		for _, name := range calendars {
			events := result.ByCalendar[name]
			if len(events) == 0 {
				continue
			}

			fmt.Fprintf(w, "\n%s (%d events):\n", name, len(events))
			for _, evt := range events {
				writeEventLine(w, evt, "  ", verbose)
			}
		}
		fmt.Fprintf(w, "\nTotal: %d events across %d calendars\n", result.EventCount, len(result.ByCalendar))
	} else {
		for _, evt := range result.Events {
			writeEventLine(w, evt, "", verbose)
		}
		fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	}

	return nil
}

func writeEventLine(w io.Writer, evt *event.Event, indent string, verbose bool) {
	when := evt.Start.Format("2006-01-02")
	if !evt.AllDay {
		when = evt.Start.Format("2006-01-02 15:04")
		if !evt.End.IsZero() {
			when += evt.End.Format(" - 15:04")
		}
	}
	fmt.Fprintf(w, "%s%s  %s\n", indent, when, evt.Title)
	if verbose {
		fmt.Fprintf(w, "%s     ID: %s\n", indent, evt.ID)
		if evt.Location != "" {
			fmt.Fprintf(w, "%s     Location: %s\n", indent, evt.Location)
		}
		if evt.URL != "" {
			fmt.Fprintf(w, "%s     URL: %s\n", indent, evt.URL)
		}
	}
}
