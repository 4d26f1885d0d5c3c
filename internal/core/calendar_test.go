package core

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
)

func TestParseMonthKey(t *testing.T) {
	k, err := ParseMonthKey("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != (MonthKey{Year: 2024, Month: time.March}) {
		t.Fatalf("unexpected key %+v", k)
	}
	if k.String() != "2024-03" {
		t.Fatalf("String() should round-trip, got %s", k.String())
	}

	for _, bad := range []string{"", "2024", "2024-13", "2024-3", "24-03", "abcd-01", "2024/03"} {
		if _, err := ParseMonthKey(bad); !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("%q: expected ErrInvalidMonthKey, got %v", bad, err)
		}
	}
}

func TestMonthKeyArithmetic(t *testing.T) {
	jan := MonthKey{Year: 2024, Month: time.January}

	if got := jan.AddMonths(-1); got != (MonthKey{Year: 2023, Month: time.December}) {
		t.Fatalf("AddMonths(-1) = %v", got)
	}
	if got := jan.AddMonths(14); got != (MonthKey{Year: 2025, Month: time.March}) {
		t.Fatalf("AddMonths(14) = %v", got)
	}
	if got := jan.MonthsBetween(MonthKey{Year: 2026, Month: time.December}); got != 35 {
		t.Fatalf("MonthsBetween = %d, want 35", got)
	}
	if !jan.Before(jan.AddMonths(1)) {
		t.Fatal("Before should follow calendar order")
	}

	feb := MonthKey{Year: 2024, Month: time.February}
	r := feb.Range()
	if r.From != (civil.Date{Year: 2024, Month: 2, Day: 1}) || r.To != (civil.Date{Year: 2024, Month: 2, Day: 29}) {
		t.Fatalf("leap-year February range wrong: %v", r)
	}
}

func TestMonthKeyText(t *testing.T) {
	var k MonthKey
	if err := k.UnmarshalText([]byte("2023-11")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := k.MarshalText()
	if string(b) != "2023-11" {
		t.Fatalf("unexpected text %s", b)
	}
	if err := k.UnmarshalText([]byte("nope")); err == nil {
		t.Fatal("expected error for invalid text")
	}
}

func TestCalendarParseDate(t *testing.T) {
	cal, err := NewCalendar("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	cases := []struct {
		in   string
		want civil.Date
		err  error
	}{
		{"2024-01-15", civil.Date{Year: 2024, Month: 1, Day: 15}, nil},
		{" 2024-01-15 ", civil.Date{Year: 2024, Month: 1, Day: 15}, nil},
		// 01:30 UTC is still the previous day in São Paulo (UTC-3).
		{"2024-03-01T01:30:00Z", civil.Date{Year: 2024, Month: 2, Day: 29}, nil},
		{"2024-03-01T01:30:00-03:00", civil.Date{Year: 2024, Month: 3, Day: 1}, nil},
		{"2024-03-01T23:00:00", civil.Date{Year: 2024, Month: 3, Day: 1}, nil},
		{"", civil.Date{}, ErrMissingDate},
		{"   ", civil.Date{}, ErrMissingDate},
		{"not-a-date", civil.Date{}, ErrInvalidDate},
		{"2024-02-30", civil.Date{}, ErrInvalidDate},
	}
	for _, tc := range cases {
		got, err := cal.ParseDate(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestCalendarToday(t *testing.T) {
	cal, _ := NewCalendar("America/Sao_Paulo")
	cal.Now = func() time.Time { return time.Date(2024, 4, 1, 2, 0, 0, 0, time.UTC) }

	if got := cal.Today(); got != (civil.Date{Year: 2024, Month: 3, Day: 31}) {
		t.Fatalf("Today() = %v, want 2024-03-31", got)
	}
	if got := cal.CurrentMonth(); got != (MonthKey{Year: 2024, Month: time.March}) {
		t.Fatalf("CurrentMonth() = %v", got)
	}
}

func TestNewCalendarUnknownZone(t *testing.T) {
	cal, err := NewCalendar("Mars/Olympus_Mons")
	if err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if cal.Location != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", cal.Location)
	}
}
