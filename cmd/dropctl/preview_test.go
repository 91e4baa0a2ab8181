package main

import (
	"testing"
	"time"
)

func TestWindowForParsesDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	w, err := windowFor("2024-06-01", loc)
	if err != nil {
		t.Fatalf("windowFor: %v", err)
	}
	wantStart := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	if !w.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", w.Start, wantStart)
	}
	if got := w.End.Sub(w.Start); got != 24*time.Hour {
		t.Errorf("window width = %v", got)
	}
}

func TestWindowForEmptyMeansToday(t *testing.T) {
	w, err := windowFor("", time.UTC)
	if err != nil {
		t.Fatalf("windowFor: %v", err)
	}
	if !w.Contains(time.Now().UTC()) {
		t.Errorf("today's window %v does not contain now", w)
	}
}

func TestWindowForRejectsGarbage(t *testing.T) {
	for _, day := range []string{"june first", "2024-13-01", "01-06-2024"} {
		if _, err := windowFor(day, time.UTC); err == nil {
			t.Errorf("windowFor(%q) accepted", day)
		}
	}
}

func TestOptFormattingPlaceholders(t *testing.T) {
	if got := optStr(nil, "%.2f"); got != "n/a" {
		t.Errorf("optStr(nil) = %q", got)
	}
	v := 3.14159
	if got := optStr(&v, "%.2f"); got != "3.14" {
		t.Errorf("optStr = %q", got)
	}
	if got := optIntStr(nil); got != "n/a" {
		t.Errorf("optIntStr(nil) = %q", got)
	}
	n := int64(7)
	if got := optIntStr(&n); got != "7" {
		t.Errorf("optIntStr = %q", got)
	}

	yes, no := true, false
	if fixStr(nil) != "?" || fixStr(&yes) != "ok" || fixStr(&no) != "no" {
		t.Errorf("fixStr tri-state broken: %q %q %q", fixStr(nil), fixStr(&yes), fixStr(&no))
	}
}
