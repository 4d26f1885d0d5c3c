package timeseries

import (
	"log/slog"

	"painel/internal/core"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Builder derives the ordered, zero-valued month buckets spanning a set of
// transactions.
type Builder struct {
	calendar core.Calendar
	labeler  core.MonthLabeler
	spanCap  int
	logger   *slog.Logger
}

// NewBuilder creates a builder. A spanCap of zero or less selects
// DefaultSpanCap.
func NewBuilder(cal core.Calendar, labeler core.MonthLabeler, spanCap int, logger *slog.Logger) *Builder {
	if spanCap <= 0 {
		spanCap = DefaultSpanCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{calendar: cal, labeler: labeler, spanCap: spanCap, logger: logger}
}

func (b *Builder) SpanCap() int { return b.spanCap }

func (b *Builder) Labeler() core.MonthLabeler { return b.labeler }

// Build returns one bucket per calendar month between the earliest and the
// latest valid transaction date, clamped to the most recent SpanCap months.
// Transactions without a valid date are ignored. With no valid dates at all
// the result is a single zero bucket for the current month.
func (b *Builder) Build(txs []core.Transaction) []MonthBucket {
	dates := make([]civil.Date, 0, len(txs))
	for _, tx := range txs {
		if tx.OccurredOn.IsValid() {
			dates = append(dates, tx.OccurredOn)
		}
	}
	return b.buildFromDates(dates)
}

// BuildRaw is Build for records that have not been normalized. Dates are
// parsed with the builder's calendar; unparseable ones are ignored silently
// since reporting them belongs to normalization.
func (b *Builder) BuildRaw(raws []core.RawTransaction) []MonthBucket {
	dates := make([]civil.Date, 0, len(raws))
	for _, raw := range raws {
		if d, err := b.calendar.ParseDate(raw.Date); err == nil {
			dates = append(dates, d)
		}
	}
	return b.buildFromDates(dates)
}

// Window returns the first and last month the builder would emit for the
// given dates, and whether the span was clamped.
func (b *Builder) Window(dates []civil.Date) (first, last core.MonthKey, clamped bool) {
	var minDate, maxDate civil.Date
	for _, d := range dates {
		if !d.IsValid() {
			continue
		}
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}
	if minDate.IsZero() {
		current := b.calendar.CurrentMonth()
		return current, current, false
	}

	first, last = core.MonthOf(minDate), core.MonthOf(maxDate)
	if first.MonthsBetween(last)+1 > b.spanCap {
		first = last.AddMonths(-(b.spanCap - 1))
		clamped = true
	}
	return first, last, clamped
}

func (b *Builder) buildFromDates(dates []civil.Date) []MonthBucket {
	first, last, clamped := b.Window(dates)
	if clamped {
		b.logger.Debug("month span clamped",
			"first_month", first.String(),
			"last_month", last.String(),
			"span_cap", b.spanCap,
		)
	}
	return b.enumerate(first, last)
}

func (b *Builder) enumerate(first, last core.MonthKey) []MonthBucket {
	n := first.MonthsBetween(last) + 1
	buckets := make([]MonthBucket, 0, n)
	for k := first; !last.Before(k); k = k.AddMonths(1) {
		buckets = append(buckets, MonthBucket{
			Key:          k,
			Label:        b.labeler.Format(k),
			InflowTotal:  decimal.Zero,
			OutflowTotal: decimal.Zero,
		})
	}
	return buckets
}
