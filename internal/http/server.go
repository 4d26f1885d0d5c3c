// Package http exposes the dashboard, drill-down and write operations as a
// JSON API for an HTMX front end.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"painel/internal/core"
	"painel/internal/drilldown"
	applog "painel/internal/log"
	"painel/internal/middleware/ratelimit"
	"painel/internal/middleware/security"
	"painel/internal/middleware/trace"
	"painel/internal/services"
)

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(context.Context) error

// Deps are the services the server routes to. Ready may be nil.
type Deps struct {
	Dashboard    *services.DashboardService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Sessions     *drilldown.Sessions
	Calendar     core.Calendar
	Ready        ReadyFunc
	Logger       *applog.Logger

	// WritesPerMinute caps write requests per client address.
	WritesPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are honoured.
	TrustedProxies []string
}

type Server struct {
	http.Server

	dashboard    *services.DashboardService
	transactions *services.TransactionService
	goals        *services.GoalService
	sessions     *drilldown.Sessions
	calendar     core.Calendar
	ready        ReadyFunc

	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	maxBodyBytes int64
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Slog().Handler(), slog.LevelError),
		},
		dashboard:    deps.Dashboard,
		transactions: deps.Transactions,
		goals:        deps.Goals,
		sessions:     deps.Sessions,
		calendar:     deps.Calendar,
		ready:        deps.Ready,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WritesPerMinute}),
		detector:     security.NewDetector(logger.WithComponent(applog.ComponentSecurity).Slog()),
		started:      time.Now(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger.WithComponent(applog.ComponentTrace).Slog())

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/goals", s.handleGoals)

	mux.HandleFunc("GET /api/drilldown", s.handleDrilldownState)
	mux.HandleFunc("POST /api/drilldown/month", s.handleSelectMonth)
	mux.HandleFunc("POST /api/drilldown/category", s.handleSelectCategory)
	mux.HandleFunc("POST /api/drilldown/clear", s.handleClearSelection)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.WritesOnly, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	var h http.Handler = mux
	h = limited(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(s.logger)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

// Shutdown stops background goroutines and drains the HTTP server. It is
// safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
