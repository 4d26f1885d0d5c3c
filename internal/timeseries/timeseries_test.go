package timeseries

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"painel/internal/core"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// recordingHandler counts records per level.
type recordingHandler struct {
	mu     sync.Mutex
	counts map[slog.Level]int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{counts: make(map[slog.Level]int)}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[r.Level]++
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[level]
}

func testCalendar(t *testing.T) core.Calendar {
	t.Helper()
	cal, err := core.NewCalendar("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	cal.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return cal
}

func newTestAggregator(t *testing.T, spanCap int) (*Aggregator, *recordingHandler) {
	t.Helper()
	h := newRecordingHandler()
	logger := slog.New(h)
	cal := testCalendar(t)
	b := NewBuilder(cal, core.NewMonthLabeler("en"), spanCap, logger)
	return NewAggregator(b, core.NewNormalizer(cal, logger), logger), h
}

func tx(id, date string, kind core.Kind, amount int64) core.Transaction {
	d, err := civil.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, OccurredOn: d, Kind: kind, Amount: decimal.NewFromInt(amount)}
}

func mustEqual(t *testing.T, what string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s: expected %d, got %s", what, want, got)
	}
}

func TestAggregateScenario(t *testing.T) {
	agg, _ := newTestAggregator(t, 0)
	txs := []core.Transaction{
		{ID: "1", OccurredOn: civil.Date{Year: 2024, Month: 1, Day: 15}, Kind: core.Outflow, Category: "food", Amount: decimal.NewFromInt(100)},
		{ID: "2", OccurredOn: civil.Date{Year: 2024, Month: 3, Day: 2}, Kind: core.Inflow, Amount: decimal.NewFromInt(500)},
	}
	res := agg.Aggregate(context.Background(), txs)

	if len(res.Buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(res.Buckets))
	}
	labels := []string{"Jan 2024", "Feb 2024", "Mar 2024"}
	for i, b := range res.Buckets {
		if b.Label != labels[i] {
			t.Fatalf("bucket %d: expected %s, got %s", i, labels[i], b.Label)
		}
	}
	mustEqual(t, "Jan outflow", res.Buckets[0].OutflowTotal, 100)
	mustEqual(t, "Jan inflow", res.Buckets[0].InflowTotal, 0)
	mustEqual(t, "Feb outflow", res.Buckets[1].OutflowTotal, 0)
	mustEqual(t, "Feb inflow", res.Buckets[1].InflowTotal, 0)
	mustEqual(t, "Mar inflow", res.Buckets[2].InflowTotal, 500)
	if res.Succeeded != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
}

func TestAggregateRawDropsBadDateWithOneWarning(t *testing.T) {
	agg, logs := newTestAggregator(t, 0)
	raws := []core.RawTransaction{
		{ID: "1", Date: "2024-01-15", Kind: "outflow", Category: "food", Amount: 100},
		{ID: "2", Date: "not-a-date", Kind: "outflow", Amount: 999},
		{ID: "3", Date: "2024-03-02", Kind: "inflow", Amount: "500"},
	}
	res := agg.AggregateRaw(context.Background(), raws)

	in, out := res.Totals()
	mustEqual(t, "inflow", in, 500)
	mustEqual(t, "outflow", out, 100)
	if res.Succeeded != 2 || res.Skipped != 1 || len(res.Errors) != 1 || res.Errors[0].Index != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := logs.count(slog.LevelWarn); got != 1 {
		t.Fatalf("expected exactly one warning, got %d", got)
	}
}

func TestBuildNoGaps(t *testing.T) {
	b := NewBuilder(testCalendar(t), core.NewMonthLabeler("en"), 0, nil)
	txs := []core.Transaction{
		tx("a", "2023-11-30", core.Inflow, 1),
		tx("b", "2022-12-01", core.Outflow, 1),
		tx("c", "2023-05-17", core.Outflow, 1),
	}
	buckets := b.Build(txs)

	first := core.MonthKey{Year: 2022, Month: time.December}
	last := core.MonthKey{Year: 2023, Month: time.November}
	if want := first.MonthsBetween(last) + 1; len(buckets) != want {
		t.Fatalf("expected %d buckets, got %d", want, len(buckets))
	}
	seen := make(map[core.MonthKey]bool)
	for i, bucket := range buckets {
		if bucket.Key != first.AddMonths(i) {
			t.Fatalf("bucket %d: expected %v, got %v", i, first.AddMonths(i), bucket.Key)
		}
		if seen[bucket.Key] {
			t.Fatalf("duplicate key %v", bucket.Key)
		}
		seen[bucket.Key] = true
		if !bucket.InflowTotal.IsZero() || !bucket.OutflowTotal.IsZero() {
			t.Fatalf("builder must emit zero buckets, got %+v", bucket)
		}
	}
}

func TestBuildEmptyFallsBackToCurrentMonth(t *testing.T) {
	b := NewBuilder(testCalendar(t), core.NewMonthLabeler("en"), 0, nil)
	for _, txs := range [][]core.Transaction{nil, {{ID: "no-date", Kind: core.Inflow}}} {
		buckets := b.Build(txs)
		if len(buckets) != 1 {
			t.Fatalf("expected one fallback bucket, got %d", len(buckets))
		}
		if buckets[0].Key != (core.MonthKey{Year: 2024, Month: time.June}) || buckets[0].Label != "Jun 2024" {
			t.Fatalf("unexpected fallback bucket %+v", buckets[0])
		}
	}

	if got := b.BuildRaw([]core.RawTransaction{{Date: "garbage"}}); len(got) != 1 {
		t.Fatalf("raw fallback expected one bucket, got %d", len(got))
	}
}

func TestBuildRawToleratesMixedInput(t *testing.T) {
	b := NewBuilder(testCalendar(t), core.NewMonthLabeler("pt-BR"), 0, nil)
	buckets := b.BuildRaw([]core.RawTransaction{
		{Date: "2024-02-10"},
		{Date: ""},
		{Date: "2024-04-01T10:00:00-03:00"},
	})
	if len(buckets) != 3 || buckets[0].Label != "fev 2024" || buckets[2].Label != "abr 2024" {
		t.Fatalf("unexpected buckets %+v", buckets)
	}
}

func TestWindowCap(t *testing.T) {
	agg, logs := newTestAggregator(t, 24)

	start := civil.Date{Year: 2021, Month: 1, Day: 10}
	var txs []core.Transaction
	for i := 0; i < 36; i++ {
		txs = append(txs, core.Transaction{
			ID:         "m",
			OccurredOn: start.AddMonths(i),
			Kind:       core.Outflow,
			Amount:     decimal.NewFromInt(1),
		})
	}
	res := agg.Aggregate(context.Background(), txs)

	if len(res.Buckets) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(res.Buckets))
	}
	lastKey := core.MonthKey{Year: 2023, Month: time.December}
	if res.Buckets[23].Key != lastKey {
		t.Fatalf("window must end at the latest month, got %v", res.Buckets[23].Key)
	}
	if res.Buckets[0].Key != lastKey.AddMonths(-23) {
		t.Fatalf("window starts at %v", res.Buckets[0].Key)
	}
	if res.Excluded != 12 || res.Succeeded != 24 || res.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if logs.count(slog.LevelWarn) != 0 {
		t.Fatal("windowed-out transactions are not warnings")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg, _ := newTestAggregator(t, 0)
	txs := []core.Transaction{
		tx("1", "2024-01-31", core.Outflow, 10),
		tx("2", "2024-01-01", core.Inflow, 20),
		tx("3", "2024-02-29", core.Outflow, 30),
	}
	a := agg.Aggregate(context.Background(), txs)
	b := agg.Aggregate(context.Background(), txs)
	if len(a.Buckets) != len(b.Buckets) {
		t.Fatal("bucket count differs between runs")
	}
	for i := range a.Buckets {
		x, y := a.Buckets[i], b.Buckets[i]
		if x.Key != y.Key || !x.InflowTotal.Equal(y.InflowTotal) || !x.OutflowTotal.Equal(y.OutflowTotal) {
			t.Fatalf("bucket %d differs: %+v vs %+v", i, x, y)
		}
	}
}

func TestAggregateSkipsUnusableTransactions(t *testing.T) {
	agg, logs := newTestAggregator(t, 0)
	txs := []core.Transaction{
		tx("ok", "2024-01-10", core.Outflow, 5),
		{ID: "bad-kind", OccurredOn: civil.Date{Year: 2024, Month: 1, Day: 2}, Kind: "transfer", Amount: decimal.NewFromInt(7)},
		{ID: "no-date", Kind: core.Inflow, Amount: decimal.NewFromInt(3)},
	}
	res := agg.Aggregate(context.Background(), txs)
	if res.Succeeded != 1 || res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	mustEqual(t, "outflow", res.Buckets[0].OutflowTotal, 5)
	if logs.count(slog.LevelWarn) != 2 {
		t.Fatalf("expected 2 warnings, got %d", logs.count(slog.LevelWarn))
	}
}

func TestSortChronological(t *testing.T) {
	buckets := []MonthBucket{
		{Key: core.MonthKey{Year: 2025, Month: time.January}, Label: "Jan 2025"},
		{Key: core.MonthKey{Year: 2024, Month: time.December}, Label: "Dec 2024"},
		{Key: core.MonthKey{Year: 2024, Month: time.January}, Label: "Jan 2024"},
		{Key: core.MonthKey{Year: 2024, Month: time.April}, Label: "Apr 2024"},
	}
	SortChronological(buckets)
	want := []string{"Jan 2024", "Apr 2024", "Dec 2024", "Jan 2025"}
	for i, b := range buckets {
		if b.Label != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], b.Label)
		}
	}
}

func TestSortByLabel(t *testing.T) {
	buckets := []MonthBucket{
		{Label: "jan 2025"},
		{Label: "dez 2024"},
		{Label: "???"},
		{Label: "abr 2024"},
	}
	SortByLabel(buckets, core.NewMonthLabeler("pt-BR"))
	want := []string{"???", "abr 2024", "dez 2024", "jan 2025"}
	for i, b := range buckets {
		if b.Label != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], b.Label)
		}
	}
}
