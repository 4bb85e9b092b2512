// Package locandina enriches scraped records with details that only appear
// in the seminar flyer PDFs ("locandine") linked from the timetable: the
// venue and the invited speaker. Extraction is strictly best-effort; a
// missing or unreadable flyer leaves the record as scraped.
package locandina

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"ianua-caldav/internal/event"
	"ianua-caldav/internal/fetch"
	"ianua-caldav/internal/logger"
)

// DefaultTimeout bounds a single flyer download.
const DefaultTimeout = 30 * time.Second

// maxPDFSize caps how much of a flyer is read. Locandine are one-page
// posters; anything larger is not worth parsing.
const maxPDFSize = 10 << 20

// Extractor downloads flyer PDFs and pulls venue and speaker details out of
// their text.
type Extractor struct {
	client *http.Client
}

// New creates an Extractor. A non-positive timeout falls back to
// DefaultTimeout.
func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

// Enrich fills in location and speaker details for every record whose URL
// points at a PDF. Each distinct flyer is downloaded once per call. Records
// without a flyer, and flyers that cannot be fetched or parsed, pass through
// unchanged.
func (e *Extractor) Enrich(ctx context.Context, records []event.RawRecord) []event.RawRecord {
	texts := make(map[string]string)

	for i := range records {
		rec := &records[i]
		if !isPDF(rec.URL) {
			continue
		}

		text, seen := texts[rec.URL]
		if !seen {
			var err error
			text, err = e.fetchText(ctx, rec.URL)
			if err != nil {
				logger.Warn("skipping flyer", logger.Fields{
					"url":   rec.URL,
					"error": err.Error(),
				})
			}
			texts[rec.URL] = text
		}
		if text == "" {
			continue
		}

		if rec.RawLocation == "" {
			rec.RawLocation = ParseLocation(text)
		}
		if speaker := ParseSpeaker(text); speaker != "" && !strings.Contains(rec.Description, speaker) {
			if rec.Description != "" {
				rec.Description += "\n"
			}
			rec.Description += "Speaker: " + speaker
		}
	}
	return records
}

// fetchText downloads a flyer and extracts its plain text.
func (e *Extractor) fetchText(ctx context.Context, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetch.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return pdfText(body)
}

// pdfText is swappable in tests; real flyers are not checked in.
var pdfText = extractText

// extractText pulls the plain text out of a PDF. The parser panics on some
// malformed files, so a recover turns those into ordinary extraction errors.
func extractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return buf.String(), nil
}

// timeLine matches the flyer line announcing the seminar hours, e.g.
// "Dalle ore 09:00 alle 13:00". The venue is printed on the lines below it.
var timeLine = regexp.MustCompile(`(?i)dalle ore\s.*\balle\b`)

// ParseLocation returns the venue printed below the hours line of a flyer,
// up to three lines, stopping at a blank line or the abstract.
func ParseLocation(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !timeLine.MatchString(line) {
			continue
		}
		loc := make([]string, 0, 3)
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" || strings.Contains(strings.ToUpper(next), "ABSTRACT") {
				break
			}
			loc = append(loc, next)
			if len(loc) == 3 {
				break
			}
		}
		return strings.Join(loc, "\n")
	}
	return ""
}

// speakerTitles mark a line as naming a person rather than describing the
// venue or the programme.
var speakerTitles = []string{"Prof", "Dott", "Dr ", "Dr.", "Direzione"}

// ParseSpeaker returns the speaker named on a flyer, if one can be found.
// Flyers put the speaker between the all-caps title block and the date line.
func ParseSpeaker(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Title block and section headings are all caps.
		if line == strings.ToUpper(line) && len(line) > 10 {
			continue
		}
		// The date line ends the header; the hours and venue follow it.
		if line[0] >= '0' && line[0] <= '9' {
			return ""
		}
		if timeLine.MatchString(line) {
			return ""
		}
		for _, title := range speakerTitles {
			if strings.Contains(line, title) {
				return line
			}
		}
	}
	return ""
}

// isPDF reports whether a record's detail link points at a flyer PDF.
func isPDF(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
