// Package ics serializes snapshots into iCalendar (RFC 5545) feeds.
//
// Encoding is pure and deterministic: the same snapshot always produces
// byte-identical output, because DTSTAMP comes from the snapshot's own
// generation time rather than the wall clock.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"ianua-caldav/internal/event"
)

const (
	// ProdID identifies this service in generated calendars.
	ProdID = "-//ianua-caldav//calendar feed//EN"

	// uidDomain suffixes event IDs to form globally unique UIDs.
	uidDomain = "ianua-caldav"
)

// Encode serializes a complete snapshot into calendar-feed bytes. name is the
// calendar display name shown by subscribing clients.
func Encode(snap *event.Snapshot, name string) []byte {
	return encode(snap.Events, snap.GeneratedAt, name)
}

// EncodeSubset serializes a subset of a snapshot's events, for per-calendar
// feeds. The subset must preserve snapshot order for deterministic output.
func EncodeSubset(snap *event.Snapshot, name string, events []*event.Event) []byte {
	return encode(events, snap.GeneratedAt, name)
}

func encode(events []*event.Event, generatedAt time.Time, name string) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProdID)
	cal.SetCalscale("GREGORIAN")
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, evt := range events {
		ve := cal.AddEvent(evt.ID + "@" + uidDomain)
		ve.SetDtStampTime(generatedAt.UTC())
		ve.SetSummary(sanitizeText(evt.Title))

		switch {
		case evt.AllDay:
			// DTEND is exclusive for all-day events.
			ve.SetAllDayStartAt(evt.Start)
			ve.SetAllDayEndAt(evt.Start.AddDate(0, 0, 1))
		case evt.End.IsZero():
			// Point-in-time event: start only.
			ve.SetStartAt(evt.Start.UTC())
		default:
			ve.SetStartAt(evt.Start.UTC())
			ve.SetEndAt(evt.End.UTC())
		}

		if evt.Description != "" {
			ve.SetDescription(sanitizeText(evt.Description))
		}
		if evt.Location != "" {
			ve.SetLocation(sanitizeText(evt.Location))
		}
		if evt.URL != "" {
			ve.SetURL(evt.URL)
		}
		ve.SetStatus(ical.ObjectStatusConfirmed)
		ve.SetTimeTransparency(ical.TransparencyOpaque)
	}

	// The library's default line ending follows the build platform; feeds
	// must be CRLF regardless of where they are served from.
	return []byte(cal.Serialize(ical.WithNewLineWindows))
}

// sanitizeText prepares free text for a TEXT property: control characters
// with no iCalendar representation are stripped. RFC 5545 escaping of
// backslash, comma, semicolon and newline is done by the library when it
// serializes TEXT-typed properties. Events are never dropped over bad text;
// they are cleaned.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
