package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"painel/internal/core"
	"painel/internal/source"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ source.TransactionSource = (*SQLiteRepository)(nil)
	_ source.GoalSource        = (*SQLiteRepository)(nil)
	_ source.TransactionWriter = (*SQLiteRepository)(nil)
	_ source.GoalWriter        = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *slog.Logger
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions returns the stored rows untouched so the normalizer sees
// exactly what was written.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.RawTransaction, error) {
	rows, err := r.queries.ListTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.RawTransaction, len(rows))
	for i, row := range rows {
		out[i] = core.RawTransaction{
			ID:          row.ID,
			OwnerID:     row.OwnerID,
			Date:        row.OccurredOn,
			Kind:        row.Kind,
			Category:    row.Category,
			Amount:      row.Amount,
			Description: row.Description,
		}
	}
	return out, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	raw := tx.Raw()
	err := r.queries.CreateTransaction(ctx, Transaction{
		ID:          raw.ID,
		OwnerID:     raw.OwnerID,
		OccurredOn:  raw.Date,
		Kind:        raw.Kind,
		Category:    raw.Category,
		Amount:      tx.Amount.String(),
		Description: raw.Description,
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"kind", tx.Kind,
		"amount", tx.Amount.String(),
		"date", raw.Date)

	return tx.ID, nil
}

// ListGoals returns the owner's goals matching key. Rows with an unreadable
// target are skipped with a warning.
func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string, key core.PeriodKey) ([]core.Goal, error) {
	rows, err := r.queries.ListGoalsByOwnerYear(ctx, ListGoalsByOwnerYearParams{
		OwnerID:       ownerID,
		ReferenceYear: int64(key.Year),
	})
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var out []core.Goal
	for _, row := range rows {
		target, err := decimal.NewFromString(row.TargetAmount)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping goal with unreadable target", "goal_id", row.ID, "target", row.TargetAmount)
			continue
		}
		g := core.Goal{
			ID:             row.ID,
			OwnerID:        row.OwnerID,
			Category:       row.Category,
			TargetAmount:   target,
			Period:         core.GoalPeriod(row.Period),
			ReferenceMonth: int(row.ReferenceMonth),
			ReferenceYear:  int(row.ReferenceYear),
		}
		if g.Matches(key) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	err := r.queries.UpsertGoal(ctx, Goal{
		ID:             g.ID,
		OwnerID:        g.OwnerID,
		Category:       g.Category,
		TargetAmount:   g.TargetAmount.String(),
		Period:         string(g.Period),
		ReferenceMonth: int64(g.ReferenceMonth),
		ReferenceYear:  int64(g.ReferenceYear),
	})
	if err != nil {
		return "", fmt.Errorf("upsert goal: %w", err)
	}

	r.logger.InfoContext(ctx, "Goal saved to SQLite", "id", g.ID, "category", g.Category, "period", g.Period)
	return g.ID, nil
}

// RecordGoalAlert stores an alert for the goal in the given period once.
// It reports false when the same alert was already recorded.
func (r *SQLiteRepository) RecordGoalAlert(ctx context.Context, goalID, periodKey, status string) (bool, error) {
	n, err := r.queries.InsertGoalAlert(ctx, InsertGoalAlertParams{
		GoalID:    goalID,
		PeriodKey: periodKey,
		Status:    status,
	})
	if err != nil {
		return false, fmt.Errorf("insert goal alert: %w", err)
	}
	return n > 0, nil
}

// CountGoalAlerts returns how many alerts were recorded for a goal.
func (r *SQLiteRepository) CountGoalAlerts(ctx context.Context, goalID string) (int, error) {
	n, err := r.queries.CountGoalAlerts(ctx, goalID)
	if err != nil {
		return 0, fmt.Errorf("count goal alerts: %w", err)
	}
	return int(n), nil
}
