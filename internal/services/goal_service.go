package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"painel/internal/core"
	"painel/internal/source"

	"github.com/google/uuid"
)

// GoalInput is a goal as submitted by a client.
type GoalInput struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	Category       string `json:"category"`
	TargetAmount   any    `json:"targetAmount"`
	Period         string `json:"period"`
	ReferenceMonth int    `json:"referenceMonth"`
	ReferenceYear  int    `json:"referenceYear"`
}

// Goal converts the input, rejecting goals missing a mandatory field.
func (in GoalInput) Goal() (core.Goal, error) {
	if in.TargetAmount == nil {
		return core.Goal{}, fmt.Errorf("%w: missing target amount", core.ErrInvalidAmount)
	}
	if negative(in.TargetAmount) {
		return core.Goal{}, core.ErrNegativeTarget
	}
	target, err := core.ParseAmountStrict(in.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		ID:             strings.TrimSpace(in.ID),
		OwnerID:        strings.TrimSpace(in.OwnerID),
		Category:       strings.TrimSpace(in.Category),
		TargetAmount:   target,
		Period:         core.GoalPeriod(strings.ToLower(strings.TrimSpace(in.Period))),
		ReferenceMonth: in.ReferenceMonth,
		ReferenceYear:  in.ReferenceYear,
	}
	if g.Period == core.Yearly {
		g.ReferenceMonth = 0
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// negative reports a leading minus sign, which ParseAmountStrict would
// otherwise drop.
func negative(v any) bool {
	switch x := v.(type) {
	case string:
		return strings.HasPrefix(strings.TrimSpace(x), "-")
	case json.Number:
		return strings.HasPrefix(x.String(), "-")
	case float64:
		return x < 0
	case int:
		return x < 0
	default:
		return false
	}
}

// GoalService validates and stores goals.
type GoalService struct {
	writer source.GoalWriter
	cache  Invalidator
	logger *slog.Logger
}

func NewGoalService(writer source.GoalWriter, cache Invalidator, logger *slog.Logger) *GoalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalService{writer: writer, cache: cache, logger: logger}
}

// CreateGoal creates a goal, or replaces it when in.ID names an existing one.
func (s *GoalService) CreateGoal(ctx context.Context, in GoalInput) (core.Goal, error) {
	g, err := in.Goal()
	if err != nil {
		return core.Goal{}, err
	}
	if s.writer == nil {
		return core.Goal{}, errors.New("goal writer not configured")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if _, err := s.writer.SaveGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(g.OwnerID)
	}

	s.logger.InfoContext(ctx, "Goal saved",
		"goal_id", g.ID,
		"owner_id", g.OwnerID,
		"category", g.Category,
		"period", g.Period,
		"target", g.TargetAmount.String())
	return g, nil
}
