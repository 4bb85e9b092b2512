package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"ianua-caldav/internal/event"
)

func buildSnapshot(t *testing.T, events ...*event.Event) *event.Snapshot {
	t.Helper()
	return event.BuildSnapshot(events, []byte("<html/>"), time.Date(2025, 10, 1, 6, 0, 0, 0, time.UTC))
}

func TestEncode(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, &event.Event{
		ID:          "abc123",
		Title:       "Biologia Molecolare",
		Start:       start,
		End:         start.Add(4 * time.Hour),
		Location:    "Aula 3",
		Description: "Responsabile: Rossi",
		URL:         "https://ianua.example.edu/locandine/bio.pdf",
	})

	out := string(Encode(snap, "IANUA Lectures"))

	required := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProdID,
		"METHOD:PUBLISH",
		"CALSCALE:GREGORIAN",
		"X-WR-CALNAME:IANUA Lectures",
		"BEGIN:VEVENT",
		"UID:abc123@ianua-caldav",
		"DTSTAMP:20251001T060000Z",
		"DTSTART:20251017T090000Z",
		"DTEND:20251017T130000Z",
		"SUMMARY:Biologia Molecolare",
		"DESCRIPTION:Responsabile: Rossi",
		"LOCATION:Aula 3",
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, field := range required {
		if !strings.Contains(out, field) {
			t.Errorf("encoded feed missing %q", field)
		}
	}

	if !strings.Contains(out, "\r\n") {
		t.Error("feed should use \\r\\n line endings")
	}
}

func TestEncode_Deterministic(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t,
		&event.Event{ID: "a", Title: "First", Start: start, End: start.Add(time.Hour)},
		&event.Event{ID: "b", Title: "Second", Start: start.Add(2 * time.Hour)},
	)

	out1 := Encode(snap, "IANUA")
	out2 := Encode(snap, "IANUA")
	if !bytes.Equal(out1, out2) {
		t.Error("encoding the same snapshot twice must be byte-identical")
	}
}

func TestEncode_AllDayEvent(t *testing.T) {
	day := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, &event.Event{
		ID:     "allday1",
		Title:  "Orientation Day",
		Start:  day,
		AllDay: true,
	})

	out := string(Encode(snap, ""))

	if !strings.Contains(out, "DTSTART;VALUE=DATE:20251017") {
		t.Errorf("all-day event should use a DATE-valued DTSTART, got:\n%s", out)
	}
	if !strings.Contains(out, "DTEND;VALUE=DATE:20251018") {
		t.Errorf("all-day event should end on the following day, got:\n%s", out)
	}
}

func TestEncode_PointInTimeEvent(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, &event.Event{
		ID:    "pt1",
		Title: "Kickoff",
		Start: start,
	})

	out := string(Encode(snap, ""))

	if !strings.Contains(out, "DTSTART:20251017T090000Z") {
		t.Error("expected DTSTART for point-in-time event")
	}
	if strings.Contains(out, "DTEND") {
		t.Error("point-in-time event should not carry a DTEND")
	}
}

func TestEncode_EscapesSpecialCharacters(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, &event.Event{
		ID:       "esc1",
		Title:    "Seminar; With, Special\\Chars",
		Start:    start,
		Location: "Aula 1, piano 2",
	})

	out := string(Encode(snap, ""))

	if !strings.Contains(out, `SUMMARY:Seminar\; With\, Special\\Chars`) {
		t.Errorf("summary not escaped per RFC 5545, got:\n%s", out)
	}
	if !strings.Contains(out, `LOCATION:Aula 1\, piano 2`) {
		t.Errorf("location not escaped, got:\n%s", out)
	}
}

func TestEncode_ControlCharactersStrippedNotDropped(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t, &event.Event{
		ID:    "ctrl1",
		Title: "Bad\x00Title\x07 Here",
		Start: start,
	})

	out := string(Encode(snap, ""))

	if !strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatal("event with control characters must still be encoded")
	}
	if !strings.Contains(out, "SUMMARY:BadTitle Here") {
		t.Errorf("control characters should be stripped, got:\n%s", out)
	}
}

func TestEncodeSubset(t *testing.T) {
	start := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	snap := buildSnapshot(t,
		&event.Event{ID: "a", Title: "ISB Lecture", Start: start, Calendar: "ISB 2025"},
		&event.Event{ID: "b", Title: "MDP Lecture", Start: start.Add(time.Hour), Calendar: "MDP 2025"},
	)

	out := string(EncodeSubset(snap, "ISB 2025", snap.ByCalendar("ISB 2025")))

	if !strings.Contains(out, "SUMMARY:ISB Lecture") {
		t.Error("subset should contain the ISB event")
	}
	if strings.Contains(out, "SUMMARY:MDP Lecture") {
		t.Error("subset should not contain events from other calendars")
	}
}
