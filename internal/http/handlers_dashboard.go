package http

import (
	"net/http"

	"painel/internal/core"
	"painel/internal/goals"
	applog "painel/internal/log"
	"painel/internal/services"
	"painel/internal/timeseries"
)

type seriesView struct {
	timeseries.Result
	Errors []recordErrorView `json:"errors"`
}

type dashboardView struct {
	*services.Dashboard
	Series seriesView `json:"series"`
}

type goalsView struct {
	OwnerID string               `json:"ownerId"`
	Period  core.PeriodKey       `json:"period"`
	Goals   []goals.GoalProgress `json:"goals"`
}

// dashboardQuery builds the snapshot query from the request. Range and
// category fall back to the caller's drill-down session when the query
// string does not set them.
func (s *Server) dashboardQuery(r *http.Request) (services.Query, bool) {
	owner := ownerFromQuery(r)
	if owner == "" {
		return services.Query{}, false
	}
	q := services.Query{OwnerID: owner}
	params := r.URL.Query()

	rng, hasRange := rangeFromQuery(s.calendar, params)
	category, hasCategory := categoryFromQuery(params)

	if (!hasRange || !hasCategory) && s.sessions != nil {
		if id := sessionID(r); id != "" {
			if sess, ok := s.sessions.Lookup(id); ok {
				if !hasRange {
					rng = sess.Range.CurrentRange()
				}
				if !hasCategory {
					category = sess.Controller.Selection().Category
				}
			}
		}
	}
	q.Range = rng
	q.Category = category
	return q, true
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*services.Dashboard, bool) {
	q, ok := s.dashboardQuery(r)
	if !ok {
		BadRequestError("missing owner").Write(w)
		return nil, false
	}
	d, err := s.dashboard.Snapshot(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, applog.OpAggregate, err)
		return nil, false
	}
	return d, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().JSON(dashboardView{
		Dashboard: d,
		Series:    seriesView{Result: d.Series, Errors: recordErrorViews(d.Series.Errors)},
	}).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().JSON(seriesView{
		Result: d.Series,
		Errors: recordErrorViews(d.Series.Errors),
	}).Write(w)
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	d, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().JSON(goalsView{
		OwnerID: d.OwnerID,
		Period:  d.Period,
		Goals:   d.Goals,
	}).Write(w)
}
