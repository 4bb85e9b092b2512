package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ianua-caldav/internal/event"
	"ianua-caldav/internal/logger"
)

// ParseError indicates total structural failure: the page contained no
// recognizable timetable sections at all. Anything less (a single malformed
// row) is a per-record skip, not a ParseError.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "scrape: " + e.Reason
}

// Extractor locates event-like fragments in raw HTML and yields raw records.
// Implementations are site-specific strategies; the rest of the pipeline only
// depends on this contract.
type Extractor interface {
	Extract(html []byte) ([]event.RawRecord, error)
}

// Timetable extracts records from IANUA-style lecture timetable pages: each
// calendar is an h2 heading followed by a table whose rows carry a date cell
// (left blank when the previous row's date repeats), a time-range cell, the
// module title, the lecturer, and an optional details link.
type Timetable struct {
	base *url.URL
}

// NewTimetable creates a Timetable extractor. baseURL is used to absolutize
// relative links found in detail cells; it may be empty.
func NewTimetable(baseURL string) *Timetable {
	t := &Timetable{}
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			t.base = u
		}
	}
	return t
}

// Column layout of the source tables. The site renders narrow spacer columns
// between the data columns, so data sits at every other index.
const (
	colDate     = 0
	colTime     = 2
	colTitle    = 4
	colLecturer = 6
	colDetails  = 8
	minColumns  = 9
)

// Extract parses the page and returns one RawRecord per usable table row.
func (t *Timetable) Extract(html []byte) ([]event.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("parsing HTML: %v", err)}
	}

	records := make([]event.RawRecord, 0)
	sections := 0

	doc.Find("h2").Each(func(_ int, heading *goquery.Selection) {
		calendar := strings.TrimSpace(heading.Text())
		if calendar == "" {
			return
		}

		table := tableAfter(heading)
		if table.Length() == 0 {
			return
		}
		sections++

		// Dates are carried forward: a blank date cell means "same day as
		// the previous row".
		currentDate := ""

		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() == 0 {
				// Header row (th only).
				return
			}
			if cells.Length() < minColumns {
				logger.Warn("skipping short timetable row", logger.Fields{
					"calendar": calendar,
					"row":      rowIdx,
					"cells":    cells.Length(),
				})
				return
			}

			if date := strings.TrimSpace(cells.Eq(colDate).Text()); date != "" {
				currentDate = date
			}

			title := strings.TrimSpace(cells.Eq(colTitle).Text())
			timeRange := strings.TrimSpace(cells.Eq(colTime).Text())
			if currentDate == "" || title == "" {
				logger.Warn("skipping incomplete timetable row", logger.Fields{
					"calendar": calendar,
					"row":      rowIdx,
				})
				return
			}

			rec := event.RawRecord{
				Title:        title,
				RawWhen:      strings.TrimSpace(currentDate + " " + timeRange),
				Calendar:     calendar,
				SourceAnchor: calendar + "|" + currentDate + "|" + timeRange,
				Description:  describeRow(cells),
				URL:          t.detailsLink(cells),
			}
			records = append(records, rec)
		})
	})

	if sections == 0 {
		return nil, &ParseError{Reason: "no timetable sections found"}
	}

	return records, nil
}

// tableAfter returns the first table between a heading and the next heading.
func tableAfter(heading *goquery.Selection) *goquery.Selection {
	between := heading.NextUntil("h2")
	if table := between.Filter("table").First(); table.Length() > 0 {
		return table
	}
	// The table may be wrapped in a container element.
	return between.Find("table").First()
}

// describeRow folds the lecturer and any free-text details into a description.
func describeRow(cells *goquery.Selection) string {
	parts := make([]string, 0, 2)
	if lecturer := strings.TrimSpace(cells.Eq(colLecturer).Text()); lecturer != "" {
		parts = append(parts, "Responsabile: "+lecturer)
	}
	if details := strings.TrimSpace(cells.Eq(colDetails).Text()); details != "" {
		parts = append(parts, details)
	}
	return strings.Join(parts, "\n")
}

// detailsLink extracts and absolutizes the link in the details cell, if any.
func (t *Timetable) detailsLink(cells *goquery.Selection) string {
	href, ok := cells.Eq(colDetails).Find("a").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return absolutize(href, t.base)
}
