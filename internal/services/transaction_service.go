package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"painel/internal/core"
	"painel/internal/source"

	"github.com/google/uuid"
)

// TransactionInput is a transaction as submitted by a client.
type TransactionInput struct {
	OwnerID     string `json:"ownerId"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      any    `json:"amount"`
	Description string `json:"description"`
}

// Validate converts the input into a canonical transaction. Unlike batch
// normalization every problem is an error here.
func (in TransactionInput) Validate(cal core.Calendar) (core.Transaction, error) {
	var errs []error
	if strings.TrimSpace(in.OwnerID) == "" {
		errs = append(errs, core.ErrInvalidOwner)
	}
	date, err := cal.ParseDate(in.Date)
	if err != nil {
		errs = append(errs, err)
	}
	kind, ok := core.NormalizeKind(in.Kind)
	if !ok {
		errs = append(errs, fmt.Errorf("%w: %q", core.ErrUnknownKind, in.Kind))
	}
	amount, err := core.ParseAmountStrict(in.Amount)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return core.Transaction{}, errors.Join(errs...)
	}
	return core.Transaction{
		OwnerID:     strings.TrimSpace(in.OwnerID),
		OccurredOn:  date,
		Kind:        kind,
		Category:    strings.TrimSpace(in.Category),
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
	}, nil
}

// Invalidator drops cached views of an owner.
type Invalidator interface {
	Invalidate(ownerID string)
}

// TransactionService validates and stores transactions.
type TransactionService struct {
	writer   source.TransactionWriter
	calendar core.Calendar
	cache    Invalidator
	logger   *slog.Logger
}

func NewTransactionService(writer source.TransactionWriter, cal core.Calendar, cache Invalidator, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{writer: writer, calendar: cal, cache: cache, logger: logger}
}

// CreateTransaction validates in, assigns an id and persists it.
func (s *TransactionService) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := in.Validate(s.calendar)
	if err != nil {
		return core.Transaction{}, err
	}
	if s.writer == nil {
		return core.Transaction{}, errors.New("transaction writer not configured")
	}
	tx.ID = uuid.NewString()

	if _, err := s.writer.AppendTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(tx.OwnerID)
	}

	s.logger.DebugContext(ctx, "Transaction stored",
		"transaction_id", tx.ID,
		"owner_id", tx.OwnerID,
		"kind", tx.Kind,
		"category", tx.Category,
		"amount", tx.Amount.String())
	return tx, nil
}
