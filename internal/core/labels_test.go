package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthLabelerFormat(t *testing.T) {
	mar := MonthKey{Year: 2024, Month: time.March}
	cases := []struct {
		locale string
		want   string
	}{
		{"en", "Mar 2024"},
		{"en-GB", "Mar 2024"},
		{"pt-BR", "mar 2024"},
		{"pt", "mar 2024"},
		{"", "Mar 2024"},
		{"klingon!", "Mar 2024"},
	}
	for _, tc := range cases {
		if got := NewMonthLabeler(tc.locale).Format(mar); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.locale, tc.want, got)
		}
	}
	if got := NewMonthLabeler("en").Format(MonthKey{}); got != "" {
		t.Fatalf("invalid key should format empty, got %q", got)
	}
}

func TestMonthLabelerRoundTrip(t *testing.T) {
	for _, locale := range []string{LocaleEnglish, LocalePortuguese} {
		l := NewMonthLabeler(locale)
		start := MonthKey{Year: 2023, Month: time.January}
		for i := 0; i < 24; i++ {
			k := start.AddMonths(i)
			got, err := l.Parse(l.Format(k))
			if err != nil || got != k {
				t.Fatalf("%s: %v did not round-trip (got %v, err=%v)", locale, k, got, err)
			}
		}
	}
}

func TestMonthLabelerParse(t *testing.T) {
	pt := NewMonthLabeler(LocalePortuguese)
	for _, label := range []string{"MAR 2024", "Mar. 2024", "mar/2024"} {
		k, err := pt.Parse(label)
		if err != nil || k != (MonthKey{Year: 2024, Month: time.March}) {
			t.Fatalf("%q: got %v, %v", label, k, err)
		}
	}

	en := NewMonthLabeler(LocaleEnglish)
	for _, label := range []string{"", "Mar", "Foo 2024", "Mar twenty", "Mar 2024 extra", "fev 2024"} {
		if _, err := en.Parse(label); !errors.Is(err, ErrUnparseableLabel) {
			t.Fatalf("%q: expected ErrUnparseableLabel, got %v", label, err)
		}
	}
}

func TestMonthLabelerZeroValue(t *testing.T) {
	var l MonthLabeler
	if got := l.Format(MonthKey{Year: 2024, Month: time.May}); got != "May 2024" {
		t.Fatalf("zero labeler should format in English, got %q", got)
	}
	if l.Locale() != "en" {
		t.Fatalf("zero labeler locale = %s", l.Locale())
	}
}
