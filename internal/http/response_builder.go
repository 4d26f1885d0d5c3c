package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"painel/internal/core"
	"painel/internal/drilldown"
)

// Events sent to the front end through HX-Trigger.
const (
	EventRangeChanged       = "range:changed"
	EventCategoryChanged    = "category:changed"
	EventTransactionCreated = "transaction:created"
	EventGoalSaved          = "goal:saved"
	EventNotification       = "show-notification"
)

// HTMXResponseBuilder builds a JSON response whose side effects are
// announced to HTMX clients in the HX-Trigger header.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	headers    map[string]string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to HX-Trigger.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

// TriggerRangeChanged announces the range the date controls must show.
func (b *HTMXResponseBuilder) TriggerRangeChanged(r core.DateRange) *HTMXResponseBuilder {
	return b.Trigger(EventRangeChanged, map[string]string{
		"from": r.From.String(),
		"to":   r.End().String(),
	})
}

// TriggerCategoryChanged announces the selected category; empty means
// cleared.
func (b *HTMXResponseBuilder) TriggerCategoryChanged(category string) *HTMXResponseBuilder {
	return b.Trigger(EventCategoryChanged, map[string]string{"category": category})
}

// TriggerEffects translates drill-down effects into events.
func (b *HTMXResponseBuilder) TriggerEffects(effects []drilldown.Effect) *HTMXResponseBuilder {
	for _, e := range effects {
		switch e := e.(type) {
		case drilldown.RangeChanged:
			b.TriggerRangeChanged(e.Range)
		case drilldown.CategoryChanged:
			b.TriggerCategoryChanged(e.Category)
		}
	}
	return b
}

func (b *HTMXResponseBuilder) TriggerTransactionCreated(ownerID string, month core.MonthKey) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionCreated, map[string]string{"ownerId": ownerID, "month": month.String()})
}

func (b *HTMXResponseBuilder) TriggerGoalSaved(ownerID, goalID string) *HTMXResponseBuilder {
	return b.Trigger(EventGoalSaved, map[string]string{"ownerId": ownerID, "id": goalID})
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
)

func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *HTMXResponseBuilder) JSON(v any) *HTMXResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A body that fails to encode becomes a 500.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	var payload []byte
	if b.body != nil {
		var err error
		payload, err = json.Marshal(b.body)
		if err != nil {
			slog.Error("Response encoding failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	if payload != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}

	w.WriteHeader(b.statusCode)
	if payload != nil {
		payload = append(payload, '\n')
		_, _ = w.Write(payload)
	}
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ErrorResponse is the standard JSON error payload.
func ErrorResponse(statusCode int, message string, details ...string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		JSON(errorBody{Error: message, Details: details})
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string, details ...string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, details...).
		TriggerErrorNotification(message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func ServiceUnavailableError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}
