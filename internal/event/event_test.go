package event

import (
	"testing"
)

func TestGenerateID_Deterministic(t *testing.T) {
	id1 := GenerateID("ISB 2025#12", "Molecular Biology Seminar")
	id2 := GenerateID("ISB 2025#12", "Molecular Biology Seminar")

	if id1 != id2 {
		t.Errorf("GenerateID should be deterministic, got %s vs %s", id1, id2)
	}
	if len(id1) != 40 { // SHA1 produces 40 hex characters
		t.Errorf("expected ID length of 40, got %d", len(id1))
	}
}

func TestGenerateID_StableAcrossCosmeticChanges(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		title  string
	}{
		{"extra whitespace in title", "ISB 2025#12", "Molecular  Biology \n Seminar"},
		{"case drift in title", "ISB 2025#12", "MOLECULAR biology SEMINAR"},
		{"leading/trailing space", "ISB 2025#12", "  Molecular Biology Seminar  "},
		{"whitespace drift in anchor", "ISB  2025#12 ", "Molecular Biology Seminar"},
	}

	want := GenerateID("ISB 2025#12", "Molecular Biology Seminar")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateID(tt.anchor, tt.title); got != want {
				t.Errorf("ID changed under cosmetic drift: got %s, want %s", got, want)
			}
		})
	}
}

func TestGenerateID_ChangesOnSemanticChange(t *testing.T) {
	base := GenerateID("ISB 2025#12", "Molecular Biology Seminar")

	if GenerateID("ISB 2025#13", "Molecular Biology Seminar") == base {
		t.Error("expected different ID for a different anchor")
	}
	if GenerateID("ISB 2025#12", "Organic Chemistry Seminar") == base {
		t.Error("expected different ID for a different title")
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Molecular Biology", "molecular biology"},
		{"  Molecular \t Biology \n", "molecular biology"},
		{"MOLECULAR BIOLOGY", "molecular biology"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
