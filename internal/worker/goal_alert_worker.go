// Package worker reacts to transaction events outside the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/goals"
	"painel/internal/services"
	"painel/internal/source"
)

// AlertStore records an alert once per goal, period and status.
type AlertStore interface {
	RecordGoalAlert(ctx context.Context, goalID, periodKey, status string) (bool, error)
}

// Alert is a goal that newly reached the exceeded status.
type Alert struct {
	Progress goals.GoalProgress
	Period   core.DateRange
}

// GoalAlertWorker recomputes an owner's goals when their transactions change
// and records a one-time alert for every goal that is exceeded.
type GoalAlertWorker struct {
	transactions source.TransactionSource
	goals        source.GoalSource
	alerts       AlertStore
	engine       services.Engine
	logger       *slog.Logger
}

func NewGoalAlertWorker(txs source.TransactionSource, gs source.GoalSource, alerts AlertStore, engine services.Engine, logger *slog.Logger) *GoalAlertWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalAlertWorker{
		transactions: txs,
		goals:        gs,
		alerts:       alerts,
		engine:       engine,
		logger:       logger,
	}
}

// HandleTransactionChanged processes a single event from AMQP. An error
// makes the consumer nack the delivery.
func (w *GoalAlertWorker) HandleTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	_, err := w.Evaluate(ctx, msg.OwnerID, msg.MonthKey)
	return err
}

// Evaluate checks the owner's goals active in month and returns the alerts
// recorded by this call.
func (w *GoalAlertWorker) Evaluate(ctx context.Context, ownerID string, month core.MonthKey) ([]Alert, error) {
	if w.alerts == nil {
		return nil, errors.New("alert store not configured")
	}

	active, err := w.goals.ListGoals(ctx, ownerID, goals.PeriodKeyFor(month))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if len(active) == 0 {
		w.logger.DebugContext(ctx, "No goals for period", "owner_id", ownerID, "month_key", month.String())
		return nil, nil
	}

	raws, err := w.transactions.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs, _ := w.engine.Normalizer.NormalizeAll(ctx, raws)

	var recorded []Alert
	for _, g := range active {
		window, err := goals.Window(g)
		if err != nil {
			w.logger.WarnContext(ctx, "Skipping goal with unresolved period", "goal_id", g.ID, "error", err)
			continue
		}
		p := w.engine.Calculator.ProgressInPeriod(ctx, g, txs)
		if p.Status != goals.StatusExceeded {
			continue
		}

		inserted, err := w.alerts.RecordGoalAlert(ctx, g.ID, window.String(), string(p.Status))
		if err != nil {
			return recorded, fmt.Errorf("record alert for goal %s: %w", g.ID, err)
		}
		if !inserted {
			continue
		}
		recorded = append(recorded, Alert{Progress: p, Period: window})
		w.logger.WarnContext(ctx, "Goal exceeded",
			"owner_id", ownerID,
			"goal_id", g.ID,
			"category", g.Category,
			"period", window.String(),
			"target", g.TargetAmount.String(),
			"spent", p.CurrentAmount.String())
	}
	return recorded, nil
}
