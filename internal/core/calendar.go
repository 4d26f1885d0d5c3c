package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultZone is the reference timezone when none is configured.
const DefaultZone = "America/Sao_Paulo"

// MonthKey identifies a calendar month independently of its display label.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the key of the month containing d.
func MonthOf(d civil.Date) MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// ParseMonthKey parses the "YYYY-MM" form produced by MonthKey.String.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	year, month, ok := strings.Cut(s, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey{Year: y, Month: time.Month(m)}, nil
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

func (k MonthKey) IsValid() bool {
	return k.Year > 0 && k.Month >= time.January && k.Month <= time.December
}

// Index is a monotonically increasing ordinal: year*12 + month-1.
func (k MonthKey) Index() int {
	return k.Year*12 + int(k.Month) - 1
}

func (k MonthKey) Before(o MonthKey) bool {
	return k.Index() < o.Index()
}

// AddMonths moves the key by n calendar months (n may be negative).
func (k MonthKey) AddMonths(n int) MonthKey {
	idx := k.Index() + n
	return MonthKey{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// MonthsBetween returns the number of whole months from k to o.
func (k MonthKey) MonthsBetween(o MonthKey) int {
	return o.Index() - k.Index()
}

func (k MonthKey) FirstDay() civil.Date {
	return civil.Date{Year: k.Year, Month: k.Month, Day: 1}
}

func (k MonthKey) LastDay() civil.Date {
	last := time.Date(k.Year, k.Month+1, 0, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(last)
}

// Range returns the inclusive range spanning the whole month.
func (k MonthKey) Range() DateRange {
	return DateRange{From: k.FirstDay(), To: k.LastDay()}
}

// Calendar centralizes every conversion between instants and calendar days
// in the reference timezone.
type Calendar struct {
	Location *time.Location
	Now      func() time.Time
}

// NewCalendar loads the named zone. An empty name selects DefaultZone.
func NewCalendar(zone string) (Calendar, error) {
	if strings.TrimSpace(zone) == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{Location: time.UTC, Now: time.Now}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return Calendar{Location: loc, Now: time.Now}, nil
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Instant is the current time as seen by the calendar's clock.
func (c Calendar) Instant() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Today is the current calendar day in the reference zone.
func (c Calendar) Today() civil.Date {
	return c.DateOf(c.Instant())
}

// CurrentMonth is the key of the month containing Today.
func (c Calendar) CurrentMonth() MonthKey {
	return MonthOf(c.Today())
}

// DateOf converts an instant to its calendar day in the reference zone.
func (c Calendar) DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(c.location()))
}

// StartOfDay returns midnight of d in the reference zone.
func (c Calendar) StartOfDay(d civil.Date) time.Time {
	return d.In(c.location())
}

// ParseDate strictly parses a date string. Plain dates (YYYY-MM-DD) are
// taken as calendar days; timestamps carrying an offset are converted to
// the reference zone first so mixed-offset sources agree on the day.
func (c Calendar) ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, ErrMissingDate
	}
	if d, err := civil.ParseDate(s); err == nil {
		if !d.IsValid() {
			return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return d, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		t, err := time.ParseInLocation(layout, s, c.location())
		if err == nil {
			return c.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
