package http

import (
	"net/http"

	"painel/internal/core"
	"painel/internal/drilldown"
	applog "painel/internal/log"
)

type drilldownView struct {
	SessionID string              `json:"sessionId"`
	Selection drilldown.Selection `json:"selection"`
	Range     *core.DateRange     `json:"range,omitempty"`
}

func viewOf(sess *drilldown.Session, sel drilldown.Selection) drilldownView {
	return drilldownView{
		SessionID: sess.ID,
		Selection: sel,
		Range:     sess.Range.CurrentRange(),
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *drilldown.Session {
	return s.sessions.Get(ensureSessionID(w, r))
}

func (s *Server) handleDrilldownState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	NewHTMXResponse().JSON(viewOf(sess, sess.Controller.Selection())).Write(w)
}

// handleSelectMonth toggles a month picked by key ("2024-03") or, when no
// key is sent, by its rendered label.
func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var action drilldown.Action
	switch key, label := p.Get("key"), p.Get("label"); {
	case key != "":
		mk, err := core.ParseMonthKey(key)
		if err != nil {
			UnprocessableEntityError("invalid month key", err.Error()).Write(w)
			return
		}
		action = drilldown.SelectMonth{Key: mk, Label: label}
	case label != "":
		action = drilldown.SelectMonthLabel{Label: label}
	default:
		BadRequestError("key or label is required").Write(w)
		return
	}
	s.dispatch(w, r, action)
}

func (s *Server) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.dispatch(w, r, drilldown.SelectCategory{Category: p.Get("category")})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, drilldown.ClearAll{})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, action drilldown.Action) {
	sess := s.session(w, r)
	ctx := r.Context()

	sel, effects, err := sess.Controller.Dispatch(ctx, action)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("selection unchanged", err.Error()).Write(w)
			return
		}
		s.writeServiceError(w, r, applog.OpSelect, err)
		return
	}

	applog.FromContext(ctx).DebugContext(ctx, "Drill-down selection changed",
		applog.FieldSessionID, sess.ID,
		"selection", sel.String())

	NewHTMXResponse().
		TriggerEffects(effects).
		JSON(viewOf(sess, sel)).
		Write(w)
}
