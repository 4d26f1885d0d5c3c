package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/storage"

	"github.com/google/uuid"
)

// Publisher announces transaction changes to downstream consumers.
type Publisher interface {
	PublishTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error
	Close() error
}

// SQLiteAdapter pairs the SQLite repository with an optional event
// publisher so every stored transaction is announced to the alert worker.
type SQLiteAdapter struct {
	*storage.SQLiteRepository
	publisher Publisher
	logger    *slog.Logger
}

func NewSQLiteAdapter(repo *storage.SQLiteRepository, publisher Publisher, logger *slog.Logger) *SQLiteAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteAdapter{
		SQLiteRepository: repo,
		publisher:        publisher,
		logger:           logger,
	}
}

// AppendTransaction saves locally first; a failed publish is logged and
// does not fail the write.
func (a *SQLiteAdapter) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	ref, err := a.SQLiteRepository.AppendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	if a.publisher == nil {
		a.logger.DebugContext(ctx, "AMQP client not available, skipping transaction event")
		return ref, nil
	}
	msg := amqp.NewTransactionChangedMessage(tx.OwnerID, tx.ID, core.MonthOf(tx.OccurredOn))
	if err := a.publisher.PublishTransactionChanged(ctx, msg); err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", tx.ID,
			"owner_id", tx.OwnerID,
			"error", err)
	}
	return ref, nil
}

// Close closes both storage and AMQP connections
func (a *SQLiteAdapter) Close() error {
	var errs []error
	if a.SQLiteRepository != nil {
		if err := a.SQLiteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
