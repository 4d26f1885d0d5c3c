package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	applog "painel/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the backing store when it can be pinged.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	status, code := "ready", http.StatusOK

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	NewHTMXResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

// writeServiceError maps a service error to a response: client mistakes
// become 422, anything else is logged and reported as 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch {
	case isValidationError(err):
		applog.FromContext(ctx).InfoContext(ctx, "Rejected invalid input",
			applog.FieldOperation, op,
			applog.FieldError, err)
		UnprocessableEntityError("invalid input", validationDetails(err)...).Write(w)
	case errors.Is(err, context.Canceled):
		// The client is gone; nothing useful can be written.
	default:
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err, applog.ComponentHTTP, op, applog.NewFields())
		InternalServerError("internal error").Write(w)
	}
}
