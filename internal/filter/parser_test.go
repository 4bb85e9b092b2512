package filter

import (
	"net/url"
	"testing"
	"time"
)

func TestFromQuery(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("empty query", func(t *testing.T) {
		f, err := FromQuery(url.Values{}, rome)
		if err != nil {
			t.Fatalf("FromQuery() error = %v", err)
		}
		if !f.IsEmpty() {
			t.Error("expected empty filter")
		}
	})

	t.Run("full query", func(t *testing.T) {
		q := url.Values{
			"from":     {"2025-10-01"},
			"to":       {"2025-10-31"},
			"title":    {"algebra", "analisi"},
			"location": {"aula"},
			"calendar": {"ISB"},
		}
		f, err := FromQuery(q, rome)
		if err != nil {
			t.Fatalf("FromQuery() error = %v", err)
		}
		if f.DateFrom == nil || !f.DateFrom.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, rome)) {
			t.Errorf("DateFrom = %v", f.DateFrom)
		}
		// "to" is inclusive through the end of the day.
		wantTo := time.Date(2025, 10, 31, 23, 59, 59, 0, rome)
		if f.DateTo == nil || !f.DateTo.Equal(wantTo) {
			t.Errorf("DateTo = %v, want %v", f.DateTo, wantTo)
		}
		if len(f.Titles) != 2 || len(f.Locations) != 1 || len(f.Calendars) != 1 {
			t.Errorf("criteria = %+v", f)
		}
	})

	t.Run("source date format", func(t *testing.T) {
		f, err := FromQuery(url.Values{"from": {"17/10/2025"}}, rome)
		if err != nil {
			t.Fatalf("FromQuery() error = %v", err)
		}
		if !f.DateFrom.Equal(time.Date(2025, 10, 17, 0, 0, 0, 0, rome)) {
			t.Errorf("DateFrom = %v", f.DateFrom)
		}
	})

	t.Run("nil location defaults to UTC", func(t *testing.T) {
		f, err := FromQuery(url.Values{"from": {"2025-10-01"}}, nil)
		if err != nil {
			t.Fatalf("FromQuery() error = %v", err)
		}
		if f.DateFrom.Location() != time.UTC {
			t.Errorf("location = %v, want UTC", f.DateFrom.Location())
		}
	})

	t.Run("bad date", func(t *testing.T) {
		if _, err := FromQuery(url.Values{"from": {"next tuesday"}}, rome); err == nil {
			t.Fatal("expected error for malformed date")
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		q := url.Values{"from": {"2025-11-01"}, "to": {"2025-10-01"}}
		if _, err := FromQuery(q, rome); err == nil {
			t.Fatal("expected error for inverted range")
		}
	})

	t.Run("blank values ignored", func(t *testing.T) {
		f, err := FromQuery(url.Values{"title": {"", ""}}, rome)
		if err != nil {
			t.Fatalf("FromQuery() error = %v", err)
		}
		if !f.IsEmpty() {
			t.Errorf("expected empty filter, got %+v", f)
		}
	})
}
