package domain

import (
	"errors"
	"testing"
	"time"
)

func TestResolveWindowMonthLeapYear(t *testing.T) {
	ref := time.Date(2024, time.February, 15, 10, 30, 0, 0, time.UTC)
	w, err := ResolveWindow(FilterMonth, ref)
	if err != nil {
		t.Fatalf("resolve month: %v", err)
	}
	if got := w.Start; got.Year() != 2024 || got.Month() != time.February || got.Day() != 1 {
		t.Fatalf("unexpected start: %v", got)
	}
	if got := w.End; got.Year() != 2024 || got.Month() != time.February || got.Day() != 29 {
		t.Fatalf("expected leap-year end Feb 29, got %v", got)
	}
}

func TestResolveWindowMonthNonLeapYear(t *testing.T) {
	ref := time.Date(2023, time.February, 15, 0, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(FilterMonth, ref)
	if err != nil {
		t.Fatalf("resolve month: %v", err)
	}
	if got := w.End; got.Day() != 28 {
		t.Fatalf("expected end Feb 28, got %v", got)
	}
}

func TestResolveWindowMonthDecember(t *testing.T) {
	ref := time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(FilterMonth, ref)
	if err != nil {
		t.Fatalf("resolve month: %v", err)
	}
	if w.End.Month() != time.December || w.End.Day() != 31 {
		t.Fatalf("expected Dec 31, got %v", w.End)
	}
}

func TestResolveWindowWeekWednesday(t *testing.T) {
	// 2024-03-13 is a Wednesday.
	ref := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(FilterWeek, ref)
	if err != nil {
		t.Fatalf("resolve week: %v", err)
	}
	if w.Start.Day() != 11 || w.Start.Weekday() != time.Monday {
		t.Fatalf("expected Monday Mar 11 start, got %v", w.Start)
	}
	if w.End.Day() != 17 || w.End.Weekday() != time.Sunday {
		t.Fatalf("expected Sunday Mar 17 end, got %v", w.End)
	}
	if !w.ContainsDate(w.Start) || !w.ContainsDate(w.End) {
		t.Fatal("expected both endpoints to be inclusive")
	}
}

func TestResolveWindowWeekSundayIsLastDay(t *testing.T) {
	// 2024-03-17 is a Sunday; it must resolve as day 7, not day 0.
	ref := time.Date(2024, time.March, 17, 8, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(FilterWeek, ref)
	if err != nil {
		t.Fatalf("resolve week: %v", err)
	}
	if w.Start.Day() != 11 {
		t.Fatalf("expected start Mar 11, got %v", w.Start)
	}
	if w.End.Day() != 17 {
		t.Fatalf("expected end Mar 17, got %v", w.End)
	}
}

func TestResolveWindowToday(t *testing.T) {
	ref := time.Date(2024, time.June, 2, 15, 4, 5, 0, time.UTC)
	w, err := ResolveWindow(FilterToday, ref)
	if err != nil {
		t.Fatalf("resolve today: %v", err)
	}
	if w.Start.Hour() != 0 || w.Start.Minute() != 0 || w.Start.Second() != 0 || w.Start.Nanosecond() != 0 {
		t.Fatalf("unexpected start of day: %v", w.Start)
	}
	if w.End.Hour() != 23 || w.End.Minute() != 59 || w.End.Second() != 59 {
		t.Fatalf("unexpected end of day: %v", w.End)
	}
	if w.End.Nanosecond() != int(999*time.Millisecond) {
		t.Fatalf("expected 999ms end-of-day fraction, got %d", w.End.Nanosecond())
	}
	if !w.Contains(ref) {
		t.Fatal("expected reference instant inside its own day window")
	}
}

func TestResolveWindowInvalidFilter(t *testing.T) {
	if _, err := ResolveWindow("fortnight", time.Now()); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestWindowContainsEndpoints(t *testing.T) {
	w := Window{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	}
	if !w.Contains(w.Start) || !w.Contains(w.End) {
		t.Fatal("expected inclusive endpoints")
	}
	if w.Contains(w.End.Add(time.Nanosecond)) {
		t.Fatal("expected instant after end to be excluded")
	}
}
