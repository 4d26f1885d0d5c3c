// Package source defines the read and write ports through which the
// dashboard reaches transaction and goal stores, and the tabular row format
// shared by the CSV and spreadsheet adapters.
package source

import (
	"context"

	"painel/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionSource returns an owner's transactions in no particular
	// order. Callers treat the result as a snapshot and never modify it.
	TransactionSource interface {
		ListTransactions(ctx context.Context, ownerID string) ([]core.RawTransaction, error)
	}

	// GoalSource returns the goals of an owner active in the given period.
	GoalSource interface {
		ListGoals(ctx context.Context, ownerID string, key core.PeriodKey) ([]core.Goal, error)
	}

	// TransactionWriter persists a validated transaction and returns a
	// store-specific reference to it.
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (ref string, err error)
	}

	// GoalWriter creates or replaces a goal by ID.
	GoalWriter interface {
		SaveGoal(ctx context.Context, g core.Goal) (ref string, err error)
	}
)
