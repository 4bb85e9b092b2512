package event

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cycleTime := time.Date(2025, 10, 1, 6, 0, 0, 0, time.UTC)

	records := []RawRecord{
		{
			Title:        "Molecular Biology",
			RawWhen:      "17/10/2025 09:00 - 13:00",
			RawLocation:  "Aula 3",
			Description:  "Responsabile: Rossi",
			SourceAnchor: "ISB 2025#1",
			Calendar:     "ISB 2025",
		},
		{
			Title:        "Organic Chemistry",
			RawWhen:      "18/10/2025",
			SourceAnchor: "ISB 2025#2",
			Calendar:     "ISB 2025",
		},
	}

	events := Normalize(records, cycleTime, time.UTC)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Title != "Molecular Biology" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Location != "Aula 3" {
		t.Errorf("unexpected location %q", first.Location)
	}
	if first.End.Sub(first.Start) != 4*time.Hour {
		t.Errorf("expected 4h duration, got %v", first.End.Sub(first.Start))
	}
	if first.AllDay {
		t.Error("timed event should not be all-day")
	}

	second := events[1]
	if !second.AllDay {
		t.Error("date-only record should normalize to an all-day event")
	}
	if !second.End.IsZero() {
		t.Errorf("all-day event should have zero End, got %v", second.End)
	}

	for _, evt := range events {
		if evt.ID == "" {
			t.Error("event ID should not be empty")
		}
		if !evt.LastSeenAt.Equal(cycleTime) {
			t.Errorf("LastSeenAt = %v, want cycle time %v", evt.LastSeenAt, cycleTime)
		}
	}
}

func TestNormalize_SkipsBadRecords(t *testing.T) {
	records := []RawRecord{
		{Title: "Good One", RawWhen: "17/10/2025 09:00 - 11:00", SourceAnchor: "a#1"},
		{Title: "", RawWhen: "17/10/2025", SourceAnchor: "a#2"},
		{Title: "No Date", RawWhen: "", SourceAnchor: "a#3"},
		{Title: "Bad Date", RawWhen: "soonish", SourceAnchor: "a#4"},
		{Title: "Inverted Range", RawWhen: "17/10/2025 13:00 - 09:00", SourceAnchor: "a#5"},
		{Title: "Good Two", RawWhen: "18/10/2025", SourceAnchor: "a#6"},
	}

	events := Normalize(records, time.Now().UTC(), time.UTC)
	if len(events) != 2 {
		t.Fatalf("expected only the 2 good records to survive, got %d", len(events))
	}
	if events[0].Title != "Good One" || events[1].Title != "Good Two" {
		t.Errorf("unexpected surviving events: %q, %q", events[0].Title, events[1].Title)
	}
}

func TestNormalize_DedupLastInDocumentOrderWins(t *testing.T) {
	records := []RawRecord{
		{Title: "Seminar", RawWhen: "17/10/2025 09:00 - 11:00", RawLocation: "Aula 1", SourceAnchor: "ISB#7"},
		{Title: "Another", RawWhen: "18/10/2025", SourceAnchor: "ISB#8"},
		// Same anchor + title as the first record: same ID, updated room.
		{Title: "Seminar", RawWhen: "17/10/2025 09:00 - 11:00", RawLocation: "Aula 5", SourceAnchor: "ISB#7"},
	}

	events := Normalize(records, time.Now().UTC(), time.UTC)
	if len(events) != 2 {
		t.Fatalf("expected duplicates to collapse to 2 events, got %d", len(events))
	}
	if events[0].Location != "Aula 5" {
		t.Errorf("expected later duplicate to win, got location %q", events[0].Location)
	}
}

func TestNormalize_IdentityStableAcrossWhitespaceAndCase(t *testing.T) {
	cycleTime := time.Now().UTC()

	run1 := Normalize([]RawRecord{
		{Title: "Molecular Biology", RawWhen: "17/10/2025", SourceAnchor: "ISB#1"},
	}, cycleTime, time.UTC)
	run2 := Normalize([]RawRecord{
		{Title: "  MOLECULAR  biology ", RawWhen: "17/10/2025", SourceAnchor: "ISB#1"},
	}, cycleTime, time.UTC)

	if len(run1) != 1 || len(run2) != 1 {
		t.Fatalf("expected one event per run, got %d and %d", len(run1), len(run2))
	}
	if run1[0].ID != run2[0].ID {
		t.Errorf("event ID changed under whitespace/case drift: %s vs %s", run1[0].ID, run2[0].ID)
	}
}
