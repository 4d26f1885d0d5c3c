package http

import (
	"net/http"

	"painel/internal/core"
	applog "painel/internal/log"
	"painel/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var in services.TransactionInput
	if p.IsJSON() {
		if err := p.Decode(&in); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	} else {
		in = services.TransactionInput{
			OwnerID:     p.Get("ownerId"),
			Date:        p.Get("date"),
			Kind:        p.Get("kind"),
			Category:    p.Get("category"),
			Description: p.Get("description"),
		}
		if p.Has("amount") {
			in.Amount = p.Get("amount")
		}
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	tx, err := s.transactions.CreateTransaction(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransactionCreated(r.Context(),
		tx.OwnerID, tx.ID, string(tx.Kind), tx.Category, tx.Amount.String())

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerTransactionCreated(tx.OwnerID, core.MonthOf(tx.OccurredOn)).
		TriggerSuccessNotification("Transaction saved").
		JSON(tx).
		Write(w)
}

// handleCreateGoal creates a goal, or replaces it when the body carries the
// id of an existing one.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var in services.GoalInput
	if p.IsJSON() {
		if err := p.Decode(&in); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	} else {
		month, err := p.GetInt("referenceMonth")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		year, err := p.GetInt("referenceYear")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		in = services.GoalInput{
			ID:             p.Get("id"),
			OwnerID:        p.Get("ownerId"),
			Category:       p.Get("category"),
			Period:         p.Get("period"),
			ReferenceMonth: month,
			ReferenceYear:  year,
		}
		if p.Has("targetAmount") {
			in.TargetAmount = p.Get("targetAmount")
		}
	}
	in.Category = sanitizeInput(in.Category)

	g, err := s.goals.CreateGoal(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerGoalSaved(g.OwnerID, g.ID).
		TriggerSuccessNotification("Goal saved").
		JSON(g).
		Write(w)
}
