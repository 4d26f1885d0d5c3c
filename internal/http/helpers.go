package http

import (
	"errors"
	"net/http"
	"strings"

	"painel/internal/core"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "painel_session"
	sessionCookieAge  = 30 * 24 * 60 * 60
)

var validationErrors = []error{
	core.ErrInvalidOwner,
	core.ErrMissingDate,
	core.ErrInvalidDate,
	core.ErrUnknownKind,
	core.ErrInvalidAmount,
	core.ErrEmptyCategory,
	core.ErrNegativeTarget,
	core.ErrInvalidPeriod,
	core.ErrInvalidReference,
	core.ErrInvalidMonthKey,
	core.ErrUnparseableLabel,
}

// isValidationError reports whether err was caused by client input rather
// than by a failing dependency.
func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validationDetails splits a joined error into one message per cause.
func validationDetails(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sessionID returns the drill-down session id carried by r, or "" when the
// cookie is missing or malformed.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// ensureSessionID returns the request's session id, issuing a new cookie
// when there is none.
func ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	if id := sessionID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionCookieAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type recordErrorView struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func recordErrorViews(errs []core.RecordError) []recordErrorView {
	out := make([]recordErrorView, 0, len(errs))
	for _, e := range errs {
		out = append(out, recordErrorView{Index: e.Index, ID: e.ID, Reason: e.Reason})
	}
	return out
}
