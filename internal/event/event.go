package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// RawRecord is the transient output of an extractor, consumed by Normalize.
// Only Title is required; everything else degrades gracefully.
type RawRecord struct {
	Title        string
	RawWhen      string // unparsed date/time text, e.g. "17/10/2025 09:00 - 13:00"
	RawLocation  string
	Description  string
	SourceAnchor string // extractor-assigned stable token used for identity
	Calendar     string // heading the record was found under on the source page
	URL          string
}

// Event represents a single canonical calendar event. Events are immutable
// once produced by Normalize.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitzero"`
	AllDay      bool      `json:"all_day,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Calendar    string    `json:"calendar,omitempty"`
	URL         string    `json:"url,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// NormalizeTitle collapses runs of whitespace and case-folds a title. Identity
// derivation uses the normalized form so cosmetic HTML drift (extra spaces,
// casing) does not change an event's ID.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// GenerateID creates a deterministic ID from an event's source anchor and
// normalized title. Re-scraping the same underlying event reproduces the same
// ID; a semantic change to anchor or title yields a new one.
func GenerateID(sourceAnchor, title string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join(strings.Fields(sourceAnchor), " ") + "|" + NormalizeTitle(title)))
	return fmt.Sprintf("%x", h.Sum(nil))
}
