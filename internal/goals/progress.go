// Package goals computes spending progress against per-category targets.
package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"painel/internal/core"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusLow      Status = "low"
	StatusMedium   Status = "medium"
	StatusHigh     Status = "high"
	StatusExceeded Status = "exceeded"
)

// Rank orders statuses from low (0) to exceeded (3).
func (s Status) Rank() int {
	switch s {
	case StatusMedium:
		return 1
	case StatusHigh:
		return 2
	case StatusExceeded:
		return 3
	default:
		return 0
	}
}

type ThresholdMode string

const (
	// Inclusive classifies a ratio equal to a threshold into the upper
	// status (ratio 1.0 is exceeded).
	Inclusive ThresholdMode = "inclusive"
	// Exclusive requires the ratio to be strictly above the medium and high
	// thresholds.
	Exclusive ThresholdMode = "exclusive"
)

func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch ThresholdMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Inclusive:
		return Inclusive, nil
	case Exclusive:
		return Exclusive, nil
	default:
		return "", fmt.Errorf("unknown threshold mode %q", s)
	}
}

// Thresholds are the ascending lower bounds of medium, high and exceeded.
type Thresholds struct {
	Medium   decimal.Decimal
	High     decimal.Decimal
	Exceeded decimal.Decimal
	Mode     ThresholdMode
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Medium:   decimal.RequireFromString("0.5"),
		High:     decimal.RequireFromString("0.75"),
		Exceeded: decimal.NewFromInt(1),
		Mode:     Inclusive,
	}
}

func (t Thresholds) reached(ratio, bound decimal.Decimal) bool {
	if t.Mode == Exclusive {
		return ratio.GreaterThan(bound)
	}
	return ratio.GreaterThanOrEqual(bound)
}

// Classify maps a progress ratio to its status. Spending the whole target is
// exceeded in either mode; Mode only moves the medium and high boundaries.
func (t Thresholds) Classify(ratio decimal.Decimal) Status {
	switch {
	case ratio.GreaterThanOrEqual(t.Exceeded):
		return StatusExceeded
	case t.reached(ratio, t.High):
		return StatusHigh
	case t.reached(ratio, t.Medium):
		return StatusMedium
	default:
		return StatusLow
	}
}

// Classify uses the default, inclusive thresholds.
func Classify(ratio decimal.Decimal) Status {
	return DefaultThresholds().Classify(ratio)
}

type GoalProgress struct {
	Goal          core.Goal       `json:"goal"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Ratio         decimal.Decimal `json:"ratio"`
	Status        Status          `json:"status"`
}

// Remaining is what can still be spent before the target; never negative.
func (p GoalProgress) Remaining() decimal.Decimal {
	left := p.Goal.TargetAmount.Sub(p.CurrentAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Calculator evaluates goals against a transaction snapshot. It never
// modifies goals or transactions.
type Calculator struct {
	thresholds Thresholds
	logger     *slog.Logger
}

func NewCalculator(thresholds Thresholds, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{thresholds: thresholds, logger: logger}
}

func (c *Calculator) Thresholds() Thresholds { return c.thresholds }

// Progress sums the outflows whose category equals the goal's exactly and
// compares the sum with the target. A zero target yields ratio 0.
func (c *Calculator) Progress(goal core.Goal, txs []core.Transaction) GoalProgress {
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Kind != core.Outflow || tx.Category != goal.Category {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}

	ratio := decimal.Zero
	if goal.TargetAmount.IsPositive() {
		ratio = spent.Div(goal.TargetAmount)
	}
	return GoalProgress{
		Goal:          goal,
		CurrentAmount: spent,
		Ratio:         ratio,
		Status:        c.thresholds.Classify(ratio),
	}
}

// ProgressAll evaluates every goal independently, in input order.
func (c *Calculator) ProgressAll(goals []core.Goal, txs []core.Transaction) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, c.Progress(g, txs))
	}
	return out
}

// ProgressInPeriod restricts txs to the goal's own period window before
// computing progress. Goals whose period cannot be resolved are evaluated
// against txs as given.
func (c *Calculator) ProgressInPeriod(ctx context.Context, goal core.Goal, txs []core.Transaction) GoalProgress {
	window, err := Window(goal)
	if err != nil {
		c.logger.WarnContext(ctx, "goal period unresolved, using full window",
			"goal_id", goal.ID,
			"error", err,
		)
		return c.Progress(goal, txs)
	}
	inPeriod := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if window.Contains(tx.OccurredOn) {
			inPeriod = append(inPeriod, tx)
		}
	}
	return c.Progress(goal, inPeriod)
}
