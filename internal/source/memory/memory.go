// Package memory is an in-process transaction and goal store, optionally
// seeded from CSV files.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"painel/internal/core"
	"painel/internal/source"

	"github.com/google/uuid"
)

const (
	TransactionsSeedFile = "seed_transactions.csv"
	GoalsSeedFile        = "seed_goals.csv"
)

// Ensure interface conformance
var (
	_ source.TransactionSource = (*Store)(nil)
	_ source.GoalSource        = (*Store)(nil)
	_ source.TransactionWriter = (*Store)(nil)
	_ source.GoalWriter        = (*Store)(nil)
)

type Store struct {
	mu    sync.RWMutex
	txs   []core.RawTransaction
	goals []core.Goal
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds a store from the CSV files in dir. Missing files are
// fine; malformed goal rows are skipped with a warning.
func NewFromFiles(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := New()

	rows, err := readCSV(filepath.Join(dir, TransactionsSeedFile))
	if err != nil {
		return nil, err
	}
	txs, err := source.ParseTransactionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TransactionsSeedFile, err)
	}
	s.txs = txs

	rows, err = readCSV(filepath.Join(dir, GoalsSeedFile))
	if err != nil {
		return nil, err
	}
	goals, bad, err := source.ParseGoalRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", GoalsSeedFile, err)
	}
	for _, rerr := range bad {
		logger.Warn("skipping seed goal", "row", rerr.Index, "goal_id", rerr.ID, "reason", rerr.Reason)
	}
	s.goals = goals

	logger.Info("memory store seeded", "dir", dir, "transactions", len(s.txs), "goals", len(s.goals))
	return s, nil
}

// ListTransactions returns a copy of the owner's transactions.
func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RawTransaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) ListGoals(_ context.Context, ownerID string, key core.PeriodKey) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.OwnerID == ownerID && g.Matches(key) {
			out = append(out, g)
		}
	}
	return out, nil
}

// AppendTransaction stores tx, assigning an ID when it has none, and
// returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx.Raw())
	return fmt.Sprintf("mem:%d", len(s.txs)), nil
}

func (s *Store) SaveGoal(_ context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g
			return "mem:goal:" + g.ID, nil
		}
	}
	s.goals = append(s.goals, g)
	return "mem:goal:" + g.ID, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
