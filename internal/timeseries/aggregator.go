package timeseries

import (
	"context"
	"fmt"
	"log/slog"

	"painel/internal/core"
)

// Aggregator folds transactions into the buckets produced by a Builder.
type Aggregator struct {
	builder    *Builder
	normalizer *core.Normalizer
	logger     *slog.Logger
}

func NewAggregator(builder *Builder, normalizer *core.Normalizer, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{builder: builder, normalizer: normalizer, logger: logger}
}

// Aggregate sums normalized transactions per month. Records that cannot be
// placed are logged and reported in Result.Errors; they never abort the run.
// Indexes in Result.Errors refer to positions in txs.
func (a *Aggregator) Aggregate(ctx context.Context, txs []core.Transaction) Result {
	buckets := a.builder.Build(txs)
	index := make(map[core.MonthKey]int, len(buckets))
	for i, b := range buckets {
		index[b.Key] = i
	}
	first := buckets[0].Key

	res := Result{Buckets: buckets}
	for i, tx := range txs {
		if !tx.OccurredOn.IsValid() {
			a.skip(ctx, &res, i, tx, "invalid date", core.ErrInvalidDate)
			continue
		}
		if !tx.Kind.IsValid() {
			a.skip(ctx, &res, i, tx, "unknown kind", fmt.Errorf("%w: %q", core.ErrUnknownKind, tx.Kind))
			continue
		}

		key := core.MonthOf(tx.OccurredOn)
		pos, ok := index[key]
		if !ok {
			if key.Before(first) {
				res.Excluded++
				continue
			}
			a.skip(ctx, &res, i, tx, "no bucket for month "+key.String(), core.ErrUnmappedBucket)
			continue
		}

		amount := tx.Amount.Abs()
		switch tx.Kind {
		case core.Inflow:
			res.Buckets[pos].InflowTotal = res.Buckets[pos].InflowTotal.Add(amount)
		case core.Outflow:
			res.Buckets[pos].OutflowTotal = res.Buckets[pos].OutflowTotal.Add(amount)
		}
		res.Succeeded++
	}

	if res.Excluded > 0 {
		a.logger.DebugContext(ctx, "transactions outside month window",
			"excluded", res.Excluded,
			"first_month", first.String(),
		)
	}
	a.logger.DebugContext(ctx, "aggregation complete",
		"buckets", len(res.Buckets),
		"succeeded", res.Succeeded,
		"skipped", res.Skipped,
	)
	return res
}

// AggregateRaw normalizes raw records and aggregates the survivors.
// Normalization failures are reported once, with indexes into raws.
func (a *Aggregator) AggregateRaw(ctx context.Context, raws []core.RawTransaction) Result {
	txs, dropped := a.normalizer.NormalizeAll(ctx, raws)
	res := a.Aggregate(ctx, txs)
	if len(dropped) > 0 {
		res.Errors = append(dropped, res.Errors...)
		res.Skipped += len(dropped)
	}
	return res
}

func (a *Aggregator) skip(ctx context.Context, res *Result, i int, tx core.Transaction, reason string, err error) {
	res.Skipped++
	res.Errors = append(res.Errors, core.RecordError{Index: i, ID: tx.ID, Reason: reason, Err: err})
	a.logger.WarnContext(ctx, "skipping transaction",
		"index", i,
		"transaction_id", tx.ID,
		"reason", reason,
	)
}
