// Package timeseries turns transactions into a gap-free monthly series of
// inflow and outflow totals.
package timeseries

import (
	"painel/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultSpanCap bounds how many months a single series may cover.
const DefaultSpanCap = 24

// MonthBucket accumulates the totals of one calendar month. Key is the
// stable identity; Label is for display only.
type MonthBucket struct {
	Key          core.MonthKey   `json:"key"`
	Label        string          `json:"label"`
	InflowTotal  decimal.Decimal `json:"inflowTotal"`
	OutflowTotal decimal.Decimal `json:"outflowTotal"`
}

// Net is inflow minus outflow.
func (b MonthBucket) Net() decimal.Decimal {
	return b.InflowTotal.Sub(b.OutflowTotal)
}

// Result is the outcome of one aggregation run. Buckets is always complete
// even when some records were skipped.
type Result struct {
	Buckets []MonthBucket `json:"buckets"`
	// Succeeded counts transactions added to a bucket.
	Succeeded int `json:"succeeded"`
	// Skipped counts records that failed and are listed in Errors.
	Skipped int `json:"skipped"`
	// Excluded counts valid transactions older than the span cap.
	Excluded int                `json:"excluded"`
	Errors   []core.RecordError `json:"-"`
}

// Totals sums every bucket.
func (r Result) Totals() (inflow, outflow decimal.Decimal) {
	inflow, outflow = decimal.Zero, decimal.Zero
	for _, b := range r.Buckets {
		inflow = inflow.Add(b.InflowTotal)
		outflow = outflow.Add(b.OutflowTotal)
	}
	return inflow, outflow
}
