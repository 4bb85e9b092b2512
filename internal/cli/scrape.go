package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ianua-caldav/internal/event"
	"ianua-caldav/internal/ics"
	"ianua-caldav/internal/locandina"
	"ianua-caldav/internal/scrape"
)

var (
	flagFormat   string
	flagCalendar string
	flagSort     string
	flagVerbose  bool
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the timetable once and print the extracted events",
		RunE:  runScrape,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&flagCalendar, "calendar", "", "Only show events from this calendar")
	cmd.Flags().StringVar(&flagSort, "sort", "date", "Sort order: date, calendar or title")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON && format != FormatICS {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", flagFormat)
	}

	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByDate && order != SortByCalendar && order != SortByTitle {
		return fmt.Errorf("invalid sort order: %s (must be 'date', 'calendar' or 'title')", flagSort)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "Fetching %s\n", cfg.SourceURL)
	}

	site := scrape.NewSite(cfg.SourceURL, time.Duration(cfg.FetchTimeout))
	html, err := site.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching timetable: %w", err)
	}

	records, err := scrape.NewTimetable(cfg.SourceURL).Extract(html)
	if err != nil {
		return fmt.Errorf("extracting events: %w", err)
	}

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "Extracted %d raw records\n", len(records))
	}

	if !cfg.SkipLocandine {
		records = locandina.New(time.Duration(cfg.FetchTimeout)).Enrich(cmd.Context(), records)
	}

	now := time.Now().UTC()
	events := event.Normalize(records, now, loc)
	snap := event.BuildSnapshot(events, html, now)

	matched := ""
	if flagCalendar != "" {
		for _, name := range snap.Calendars() {
			if strings.EqualFold(name, flagCalendar) {
				events = snap.ByCalendar(name)
				matched = name
				break
			}
		}
		if matched == "" {
			return fmt.Errorf("no calendar named %q (have: %s)", flagCalendar, strings.Join(snap.Calendars(), ", "))
		}
	} else {
		events = snap.Events
	}

	if format == FormatICS {
		body := ics.Encode(snap, cfg.CalendarName)
		if matched != "" {
			body = ics.EncodeSubset(snap, matched, events)
		}
		_, err := os.Stdout.Write(body)
		return err
	}

	events = sortEvents(events, order)

	result := &OutputResult{
		CheckedAt:  now,
		Source:     cfg.SourceURL,
		Calendars:  snap.Calendars(),
		Events:     events,
		EventCount: len(events),
	}
	if flagCalendar == "" && order == SortByCalendar {
		byCal := make(map[string][]*event.Event)
		for _, evt := range events {
			byCal[evt.Calendar] = append(byCal[evt.Calendar], evt)
		}
		result.ByCalendar = byCal
	}

	return WriteOutput(os.Stdout, result, format, flagVerbose)
}
