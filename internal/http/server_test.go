package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/drilldown"
	"painel/internal/goals"
	applog "painel/internal/log"
	"painel/internal/services"
	"painel/internal/source/memory"
)

func testCalendar() core.Calendar {
	return core.Calendar{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) },
	}
}

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	logger := applog.New(applog.Config{
		Level:     slog.LevelDebug,
		Component: "test",
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
	cal := testCalendar()
	labeler := core.NewMonthLabeler(core.LocaleEnglish)
	engine := services.NewEngine(cal, labeler, 24, goals.DefaultThresholds(), logger.Slog())

	store := memory.New()
	dash := services.NewDashboardService(store, store, engine, cache.NewLRUCache[*services.Dashboard](16, time.Minute), logger.Slog())
	deps := Deps{
		Dashboard:       dash,
		Transactions:    services.NewTransactionService(store, cal, dash, logger.Slog()),
		Goals:           services.NewGoalService(store, dash, logger.Slog()),
		Sessions:        drilldown.NewSessions(drilldown.Env{Calendar: cal, Labeler: labeler}, 16, time.Minute, logger.Slog()),
		Calendar:        cal,
		Logger:          logger,
		WritesPerMinute: 100,
	}
	if mutate != nil {
		mutate(&deps)
	}
	s := NewServer("127.0.0.1:0", deps)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &testServer{Server: s, store: store}
}

func (ts *testServer) do(t *testing.T, method, target, contentType, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "203.0.113.10:4000"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %q", raw)
	}
	return out
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

type dashboardResponse struct {
	OwnerID  string          `json:"ownerId"`
	Range    *core.DateRange `json:"range"`
	Category string          `json:"category"`
	Series   struct {
		Buckets []struct {
			Key          string `json:"key"`
			Label        string `json:"label"`
			InflowTotal  string `json:"inflowTotal"`
			OutflowTotal string `json:"outflowTotal"`
		} `json:"buckets"`
		Succeeded int               `json:"succeeded"`
		Skipped   int               `json:"skipped"`
		Errors    []recordErrorView `json:"errors"`
	} `json:"series"`
	Goals []struct {
		CurrentAmount string `json:"currentAmount"`
		Status        string `json:"status"`
	} `json:"goals"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	down := newTestServer(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("database is locked") }
	})
	rec := down.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "database is locked") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff")
	}
	if !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestDashboardRequiresOwner(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/api/dashboard", "/api/series", "/api/goals"} {
		if rec := ts.do(t, http.MethodGet, path, "", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s without owner = %d, want 400", path, rec.Code)
		}
	}
}

func TestCreateTransactionThenDashboard(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "application/json",
		`{"ownerId":"o1","date":"2024-01-15","kind":"saída","category":"food","amount":"100,50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := triggers(t, rec)[EventTransactionCreated]; !ok {
		t.Errorf("missing %s trigger: %v", EventTransactionCreated, rec.Header())
	}

	form := url.Values{"ownerId": {"o1"}, "date": {"2024-03-02"}, "kind": {"entrada"}, "category": {"salary"}, "amount": {"500"}}
	rec = ts.do(t, http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusCreated {
		t.Fatalf("form create = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/dashboard?owner=o1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard = %d: %s", rec.Code, rec.Body.String())
	}
	d := decode[dashboardResponse](t, rec)
	if len(d.Series.Buckets) != 3 {
		t.Fatalf("buckets = %d, want 3 (Jan..Mar)", len(d.Series.Buckets))
	}
	if d.Series.Buckets[0].Key != "2024-01" || d.Series.Buckets[0].OutflowTotal != "100.5" {
		t.Errorf("first bucket = %+v", d.Series.Buckets[0])
	}
	if d.Series.Buckets[2].InflowTotal != "500" {
		t.Errorf("last bucket = %+v", d.Series.Buckets[2])
	}
	if d.Series.Succeeded != 2 || len(d.Series.Errors) != 0 {
		t.Errorf("succeeded = %d errors = %v", d.Series.Succeeded, d.Series.Errors)
	}

	rec = ts.do(t, http.MethodGet, "/api/series?owner=o1&from=2024-03-01&to=2024-03-31", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("series = %d", rec.Code)
	}
	series := decode[struct {
		Buckets []json.RawMessage `json:"buckets"`
	}](t, rec)
	if len(series.Buckets) != 1 {
		t.Errorf("ranged buckets = %d, want 1", len(series.Buckets))
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"malformed json", "application/json", `{"ownerId":`, http.StatusBadRequest},
		{"wrong field type", "application/json", `{"ownerId": 7}`, http.StatusBadRequest},
		{"validation", "application/json", `{"ownerId":"o1","date":"2024-02-30","kind":"transfer","amount":"x"}`, http.StatusUnprocessableEntity},
		{"missing owner", "application/x-www-form-urlencoded", "date=2024-01-01&kind=inflow&amount=1", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/transactions", tt.contentType, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := ts.do(t, http.MethodPost, "/api/transactions", "application/json",
		`{"ownerId":"o1","date":"2024-02-30","kind":"transfer","amount":"x"}`)
	body := decode[errorBody](t, rec)
	if len(body.Details) != 3 {
		t.Errorf("details = %v, want one per invalid field", body.Details)
	}
}

func TestCreateGoal(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/goals", "application/json",
		`{"ownerId":"o1","category":"food","targetAmount":200,"period":"monthly","referenceMonth":3,"referenceYear":2024}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := triggers(t, rec)[EventGoalSaved]; !ok {
		t.Error("missing goal:saved trigger")
	}

	ts.do(t, http.MethodPost, "/api/transactions", "application/json",
		`{"ownerId":"o1","date":"2024-03-05","kind":"outflow","category":"food","amount":150}`)

	rec = ts.do(t, http.MethodGet, "/api/goals?owner=o1", "", "")
	got := decode[struct {
		Goals []struct {
			CurrentAmount string `json:"currentAmount"`
			Status        string `json:"status"`
		} `json:"goals"`
	}](t, rec)
	if len(got.Goals) != 1 || got.Goals[0].CurrentAmount != "150" || got.Goals[0].Status != string(goals.StatusHigh) {
		t.Errorf("goals = %+v", got.Goals)
	}

	form := url.Values{"ownerId": {"o1"}, "category": {"food"}, "targetAmount": {"10"}, "period": {"weekly"}, "referenceYear": {"2024"}}
	rec = ts.do(t, http.MethodPost, "/api/goals", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid period = %d", rec.Code)
	}

	form.Set("referenceYear", "twenty")
	rec = ts.do(t, http.MethodPost, "/api/goals", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric year = %d", rec.Code)
	}
}

func TestDrilldownMonth(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/transactions", "application/json",
		`{"ownerId":"o1","date":"2024-01-10","kind":"outflow","category":"food","amount":10}`)
	ts.do(t, http.MethodPost, "/api/transactions", "application/json",
		`{"ownerId":"o1","date":"2024-03-10","kind":"outflow","category":"rent","amount":20}`)

	rec := ts.do(t, http.MethodPost, "/api/drilldown/month", "application/json", `{"key":"2024-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select month = %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	var changed map[string]string
	if err := json.Unmarshal(triggers(t, rec)[EventRangeChanged], &changed); err != nil {
		t.Fatalf("range:changed payload: %v", err)
	}
	if changed["from"] != "2024-01-01" || changed["to"] != "2024-01-31" {
		t.Errorf("range:changed = %v", changed)
	}

	rec = ts.do(t, http.MethodGet, "/api/dashboard?owner=o1", "", "", cookie)
	d := decode[dashboardResponse](t, rec)
	if d.Range == nil || d.Range.From.String() != "2024-01-01" {
		t.Fatalf("dashboard range = %v, want the session's January", d.Range)
	}
	if len(d.Series.Buckets) != 1 || d.Series.Buckets[0].Key != "2024-01" {
		t.Errorf("buckets = %+v", d.Series.Buckets)
	}

	// An explicit range in the query wins over the session.
	rec = ts.do(t, http.MethodGet, "/api/dashboard?owner=o1&from=2024-03-01", "", "", cookie)
	if d := decode[dashboardResponse](t, rec); d.Range == nil || d.Range.From.String() != "2024-03-01" {
		t.Errorf("explicit range = %v", d.Range)
	}

	// Selecting the same month again toggles back to the current month.
	rec = ts.do(t, http.MethodPost, "/api/drilldown/month", "application/x-www-form-urlencoded", "label=Jan+2024", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d", rec.Code)
	}
	_ = json.Unmarshal(triggers(t, rec)[EventRangeChanged], &changed)
	if changed["from"] != "2024-03-01" {
		t.Errorf("toggle range:changed = %v", changed)
	}
	view := decode[drilldownView](t, rec)
	if view.Selection.HasMonth() {
		t.Errorf("selection = %v, want no month", view.Selection)
	}
}

func TestDrilldownInvalidInputKeepsSelection(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/api/drilldown/month", "application/json", `{"key":"2024-02"}`)
	cookie := sessionCookie(t, rec)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad key", `{"key":"2024-13"}`, http.StatusUnprocessableEntity},
		{"bad label", `{"label":"Smarch 2024"}`, http.StatusUnprocessableEntity},
		{"nothing", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/drilldown/month", "application/json", tt.body, cookie)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Header().Get("HX-Trigger") != "" && strings.Contains(rec.Header().Get("HX-Trigger"), EventRangeChanged) {
				t.Error("a failed transition must not announce a range change")
			}
		})
	}

	rec = ts.do(t, http.MethodGet, "/api/drilldown", "", "", cookie)
	view := decode[drilldownView](t, rec)
	if !view.Selection.HasMonth() || view.Selection.Month.String() != "2024-02" {
		t.Errorf("selection = %v, want February kept", view.Selection)
	}
}

func TestDrilldownCategoryAndClear(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/goals", "application/json",
		`{"ownerId":"o1","category":"food","targetAmount":100,"period":"monthly","referenceMonth":3,"referenceYear":2024}`)
	ts.do(t, http.MethodPost, "/api/goals", "application/json",
		`{"ownerId":"o1","category":"rent","targetAmount":900,"period":"monthly","referenceMonth":3,"referenceYear":2024}`)

	rec := ts.do(t, http.MethodPost, "/api/drilldown/category", "application/x-www-form-urlencoded", "category=Food")
	if rec.Code != http.StatusOK {
		t.Fatalf("select category = %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	var changed map[string]string
	_ = json.Unmarshal(triggers(t, rec)[EventCategoryChanged], &changed)
	if changed["category"] != "Food" {
		t.Errorf("category:changed = %v", changed)
	}

	rec = ts.do(t, http.MethodGet, "/api/dashboard?owner=o1", "", "", cookie)
	d := decode[dashboardResponse](t, rec)
	if d.Category != "Food" || len(d.Goals) != 2 {
		t.Errorf("category = %q goals = %d, want the session category and both goals", d.Category, len(d.Goals))
	}

	rec = ts.do(t, http.MethodPost, "/api/drilldown/clear", "", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear = %d", rec.Code)
	}
	trig := triggers(t, rec)
	if _, ok := trig[EventRangeChanged]; !ok {
		t.Error("clear must reset the range")
	}
	_ = json.Unmarshal(trig[EventCategoryChanged], &changed)
	if changed["category"] != "" {
		t.Errorf("clear category:changed = %v", changed)
	}
}

func TestWriteRateLimit(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.WritesPerMinute = 1 })
	body := `{"ownerId":"o1","date":"2024-03-01","kind":"inflow","amount":1}`
	if rec := ts.do(t, http.MethodPost, "/api/transactions", "application/json", body); rec.Code != http.StatusCreated {
		t.Fatalf("first write = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/api/transactions", "application/json", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second write = %d, want 429", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/dashboard?owner=o1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rec.Code)
	}
}

func TestBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"ownerId":"` + strings.Repeat("a", DefaultMaxBodyBytes) + `"}`
	if rec := ts.do(t, http.MethodPost, "/api/transactions", "application/json", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
