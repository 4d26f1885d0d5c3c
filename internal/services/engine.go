package services

import (
	"log/slog"

	"painel/internal/core"
	"painel/internal/goals"
	"painel/internal/timeseries"
)

// Engine bundles the pure dashboard components sharing one calendar and
// one label locale.
type Engine struct {
	Calendar   core.Calendar
	Labeler    core.MonthLabeler
	Normalizer *core.Normalizer
	Builder    *timeseries.Builder
	Aggregator *timeseries.Aggregator
	Calculator *goals.Calculator
}

func NewEngine(cal core.Calendar, labeler core.MonthLabeler, spanCap int, thresholds goals.Thresholds, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	normalizer := core.NewNormalizer(cal, logger.With("component", "normalizer"))
	builder := timeseries.NewBuilder(cal, labeler, spanCap, logger.With("component", "builder"))
	return Engine{
		Calendar:   cal,
		Labeler:    labeler,
		Normalizer: normalizer,
		Builder:    builder,
		Aggregator: timeseries.NewAggregator(builder, normalizer, logger.With("component", "aggregator")),
		Calculator: goals.NewCalculator(thresholds, logger.With("component", "goals")),
	}
}
