package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Transaction struct {
	ID          string
	OwnerID     string
	OccurredOn  string
	Kind        string
	Category    string
	Amount      string
	Description string
}

type Goal struct {
	ID             string
	OwnerID        string
	Category       string
	TargetAmount   string
	Period         string
	ReferenceMonth int64
	ReferenceYear  int64
}

const createTransaction = `
INSERT INTO transactions (id, owner_id, occurred_on, kind, category, amount, description)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.OwnerID,
		arg.OccurredOn,
		arg.Kind,
		arg.Category,
		arg.Amount,
		arg.Description,
	)
	return err
}

const listTransactionsByOwner = `
SELECT id, owner_id, occurred_on, kind, category, amount, description
FROM transactions
WHERE owner_id = ?
ORDER BY occurred_on, created_at
`

func (q *Queries) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.OccurredOn,
			&i.Kind,
			&i.Category,
			&i.Amount,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertGoal = `
INSERT INTO goals (id, owner_id, category, target_amount, period, reference_month, reference_year)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id = excluded.owner_id,
    category = excluded.category,
    target_amount = excluded.target_amount,
    period = excluded.period,
    reference_month = excluded.reference_month,
    reference_year = excluded.reference_year,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertGoal(ctx context.Context, arg Goal) error {
	_, err := q.db.ExecContext(ctx, upsertGoal,
		arg.ID,
		arg.OwnerID,
		arg.Category,
		arg.TargetAmount,
		arg.Period,
		arg.ReferenceMonth,
		arg.ReferenceYear,
	)
	return err
}

const listGoalsByOwnerYear = `
SELECT id, owner_id, category, target_amount, period, reference_month, reference_year
FROM goals
WHERE owner_id = ? AND reference_year = ?
ORDER BY category, id
`

type ListGoalsByOwnerYearParams struct {
	OwnerID       string
	ReferenceYear int64
}

func (q *Queries) ListGoalsByOwnerYear(ctx context.Context, arg ListGoalsByOwnerYearParams) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoalsByOwnerYear, arg.OwnerID, arg.ReferenceYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		var i Goal
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Category,
			&i.TargetAmount,
			&i.Period,
			&i.ReferenceMonth,
			&i.ReferenceYear,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertGoalAlert = `
INSERT OR IGNORE INTO goal_alerts (goal_id, period_key, status)
VALUES (?, ?, ?)
`

type InsertGoalAlertParams struct {
	GoalID    string
	PeriodKey string
	Status    string
}

func (q *Queries) InsertGoalAlert(ctx context.Context, arg InsertGoalAlertParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertGoalAlert, arg.GoalID, arg.PeriodKey, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countGoalAlerts = `
SELECT COUNT(*) FROM goal_alerts WHERE goal_id = ?
`

func (q *Queries) CountGoalAlerts(ctx context.Context, goalID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countGoalAlerts, goalID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
