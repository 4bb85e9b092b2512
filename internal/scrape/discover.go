package scrape

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CalendarLink is a per-course calendar page discovered on the index page.
type CalendarLink struct {
	Course string // course code embedded in the link, e.g. "ISB"
	Title  string // link text
	URL    string // absolute page URL
}

// calendarLinkMarker identifies links to per-course calendar pages on the
// index page.
const calendarLinkMarker = "caratterizzanti"

// DiscoverCalendars finds the per-course calendar pages linked from an index
// page. An empty result means the page links no calendars; callers treat the
// page itself as a calendar page then.
func DiscoverCalendars(html []byte, base *url.URL) ([]CalendarLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &ParseError{Reason: "parsing index page: " + err.Error()}
	}

	links := make([]CalendarLink, 0)
	seen := make(map[string]bool)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, calendarLinkMarker) {
			return
		}

		abs := absolutize(href, base)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true

		links = append(links, CalendarLink{
			Course: courseFromHref(href),
			Title:  strings.TrimSpace(a.Text()),
			URL:    abs,
		})
	})

	return links, nil
}

// courseFromHref pulls the course code out of a calendar link, e.g.
// "/calendari-ISB-caratterizzanti-25-26" yields "ISB".
func courseFromHref(href string) string {
	name := href
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func absolutize(href string, base *url.URL) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		return base.ResolveReference(ref).String()
	}
	return ref.String()
}
