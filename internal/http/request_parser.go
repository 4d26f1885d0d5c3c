package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"painel/internal/core"
	"painel/internal/filter"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a body once and serves it as JSON or as
// form-encoded values, the two shapes HTMX and API clients send.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBytes of r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request, maxBytes int64) *RequestBodyParser {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(p.err, &tooLarge) {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body. JSON is recognised by content type or by a
// leading brace; anything else is read as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.looksJSON(trimmed) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("invalid form body: %w", p.err)
	}
	return p.err
}

func (p *RequestBodyParser) looksJSON(body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(p.contentType); err == nil && mediaType == "application/json" {
		return true
	}
	return body[0] == '{'
}

// Decode unmarshals a JSON body into v, keeping numbers as json.Number.
func (p *RequestBodyParser) Decode(v any) error {
	if err := p.Parse(); err != nil {
		return err
	}
	if !p.IsJSON() {
		return errors.New("body is not JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(p.body)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// Get returns a trimmed, sanitized value from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// GetInt reads key as an integer; an absent key yields 0.
func (p *RequestBodyParser) GetInt(key string) (int, error) {
	s := p.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, s)
	}
	return n, nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ownerFromQuery reads the owner from the query string or the X-Owner-ID
// header.
func ownerFromQuery(r *http.Request) string {
	if owner := sanitizeInput(r.URL.Query().Get("owner")); owner != "" {
		return owner
	}
	return sanitizeInput(r.Header.Get("X-Owner-ID"))
}

// rangeFromQuery parses from/to. ok is false when neither parameter was
// sent, letting the caller fall back to the session range.
func rangeFromQuery(cal core.Calendar, q url.Values) (r *core.DateRange, ok bool) {
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" && to == "" {
		return nil, false
	}
	return filter.ParseRange(cal, from, to), true
}

// categoryFromQuery reads the category filter; ok is false when the
// parameter is absent.
func categoryFromQuery(q url.Values) (category string, ok bool) {
	if !q.Has("category") {
		return "", false
	}
	return sanitizeInput(q.Get("category")), true
}
