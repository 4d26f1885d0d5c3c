package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/filter"
	"painel/internal/goals"
	applog "painel/internal/log"
	"painel/internal/source"
	"painel/internal/timeseries"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Query selects what a dashboard snapshot covers. A nil Range disables the
// date filter; an empty Category selects every category.
type Query struct {
	OwnerID  string
	Range    *core.DateRange
	Category string
}

type Totals struct {
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// Dashboard is one computed view: the monthly series plus goal cards.
type Dashboard struct {
	OwnerID     string               `json:"ownerId"`
	Range       *core.DateRange      `json:"range,omitempty"`
	Category    string               `json:"category,omitempty"`
	Series      timeseries.Result    `json:"series"`
	Totals      Totals               `json:"totals"`
	Goals       []goals.GoalProgress `json:"goals"`
	Categories  []string             `json:"categories"`
	Period      core.PeriodKey       `json:"period"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// DashboardService computes dashboard snapshots and caches them per owner.
// Writes invalidate an owner by bumping its generation.
type DashboardService struct {
	transactions source.TransactionSource
	goals        source.GoalSource
	engine       Engine
	snapshots    *cache.LRUCache[*Dashboard]
	logger       *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

func NewDashboardService(txs source.TransactionSource, gs source.GoalSource, engine Engine, snapshots *cache.LRUCache[*Dashboard], logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		transactions: txs,
		goals:        gs,
		engine:       engine,
		snapshots:    snapshots,
		logger:       logger,
		generations:  make(map[string]uint64),
	}
}

func (s *DashboardService) Engine() Engine { return s.engine }

// Snapshot fetches the owner's data and computes the series and goal
// progress for q. Per-record problems are reported in Series.Errors; only
// source failures and a missing owner return an error.
func (s *DashboardService) Snapshot(ctx context.Context, q Query) (*Dashboard, error) {
	if strings.TrimSpace(q.OwnerID) == "" {
		return nil, core.ErrInvalidOwner
	}
	if s.transactions == nil || s.goals == nil {
		return nil, errors.New("dashboard sources not configured")
	}
	if q.Range != nil {
		ordered := q.Range.Ordered()
		q.Range = &ordered
	}

	key := s.cacheKey(q)
	if s.snapshots != nil {
		if d, ok := s.snapshots.Get(key); ok {
			return d, nil
		}
	}

	period := s.periodFor(q.Range)

	var (
		raws     []core.RawTransaction
		goalList []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = s.transactions.ListTransactions(gctx, q.OwnerID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goalList, err = s.goals.ListGoals(gctx, q.OwnerID, period)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := s.compute(ctx, q, period, raws, goalList)
	if s.snapshots != nil {
		s.snapshots.Set(key, d)
	}
	return d, nil
}

func (s *DashboardService) compute(ctx context.Context, q Query, period core.PeriodKey, raws []core.RawTransaction, goalList []core.Goal) *Dashboard {
	txs, dropped := s.engine.Normalizer.NormalizeAll(ctx, raws)
	inRange := filter.ByDateRange(txs, q.Range)

	series := s.engine.Aggregator.Aggregate(ctx, inRange)
	if len(dropped) > 0 {
		series.Errors = append(dropped, series.Errors...)
		series.Skipped += len(dropped)
	}
	timeseries.SortChronological(series.Buckets)

	selected := filter.ByCategory(inRange, q.Category)
	progress := make([]goals.GoalProgress, 0, len(goalList))
	for _, goal := range goalList {
		if q.Range != nil {
			progress = append(progress, s.engine.Calculator.Progress(goal, selected))
		} else {
			progress = append(progress, s.engine.Calculator.ProgressInPeriod(ctx, goal, selected))
		}
	}

	inflow, outflow := series.Totals()
	fields := applog.NewFields().
		WithAggregation(len(series.Buckets), series.Succeeded, series.Skipped, series.Excluded)
	fields[applog.FieldOwnerID] = q.OwnerID
	fields["goals"] = len(progress)
	s.logger.DebugContext(ctx, "dashboard computed", fields.ToSlice()...)

	return &Dashboard{
		OwnerID:     q.OwnerID,
		Range:       q.Range,
		Category:    q.Category,
		Series:      series,
		Totals:      Totals{Inflow: inflow, Outflow: outflow, Net: inflow.Sub(outflow)},
		Goals:       progress,
		Categories:  filter.Categories(inRange),
		Period:      period,
		GeneratedAt: s.engine.Calendar.Instant().UTC(),
	}
}

// periodFor picks the goal period of the month the range ends in, or the
// current month without a range.
func (s *DashboardService) periodFor(r *core.DateRange) core.PeriodKey {
	if r != nil && r.From.IsValid() {
		return goals.PeriodKeyFor(core.MonthOf(r.End()))
	}
	return goals.PeriodKeyFor(s.engine.Calendar.CurrentMonth())
}

// Invalidate drops every cached snapshot of the owner.
func (s *DashboardService) Invalidate(ownerID string) {
	s.mu.Lock()
	s.generations[ownerID]++
	s.mu.Unlock()
}

func (s *DashboardService) cacheKey(q Query) string {
	s.mu.Lock()
	gen := s.generations[q.OwnerID]
	s.mu.Unlock()

	rng := "all"
	if q.Range != nil {
		rng = q.Range.String()
	}
	return fmt.Sprintf("%s|%d|%s|%s", q.OwnerID, gen, rng, core.FoldKey(q.Category))
}
