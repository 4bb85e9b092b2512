package scrape

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"ianua-caldav/internal/fetch"
	"ianua-caldav/internal/logger"
)

// Site fetches the whole timetable in two levels: the configured URL is
// treated as an index page, every calendar page it links is fetched, and the
// pages are returned as one concatenated document. When the index links no
// calendar pages the page itself is assumed to be a calendar page and is
// returned as-is, so a source URL pointing directly at a timetable keeps
// working.
//
// Site implements fetch.Fetcher, so the refresh cycle's retry policy and
// change detection apply to the whole crawl.
type Site struct {
	index fetch.Fetcher
	base  *url.URL

	// pageFetcher builds the fetcher for a discovered page.
	pageFetcher func(url string) fetch.Fetcher
}

// NewSite creates a Site crawler rooted at indexURL.
func NewSite(indexURL string, timeout time.Duration) *Site {
	s := &Site{
		index: fetch.NewHTTP(indexURL, timeout),
		pageFetcher: func(u string) fetch.Fetcher {
			return fetch.NewHTTP(u, timeout)
		},
	}
	if u, err := url.Parse(indexURL); err == nil {
		s.base = u
	}
	return s
}

// Fetch retrieves the index page and every calendar page it links. A failed
// page fetch fails the whole crawl; a partial timetable would silently drop
// calendars, while a failed cycle keeps the previous snapshot intact.
func (s *Site) Fetch(ctx context.Context) ([]byte, error) {
	indexHTML, err := s.index.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	links, err := DiscoverCalendars(indexHTML, s.base)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return indexHTML, nil
	}

	logger.Debug("discovered calendar pages", logger.Fields{"count": len(links)})

	var buf bytes.Buffer
	for _, link := range links {
		page, err := s.pageFetcher(link.URL).Fetch(ctx)
		if err != nil {
			return nil, err
		}
		buf.Write(page)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
