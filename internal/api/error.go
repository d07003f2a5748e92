package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/meditrade/storefront/internal/errs"
)

// APIError is the normalized failure shape for every non-2xx response.
// Detail is a best-effort human-readable message extracted from the body.
type APIError struct {
	Status int
	Detail string

	err error // optional sentinel for errors.Is branching
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

func (e *APIError) Unwrap() error { return e.err }

// StatusOf returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// newAPIError builds the normalized error, tagging well-known statuses with
// sentinels so callers can branch with errors.Is.
func newAPIError(status int, detail string) *APIError {
	e := &APIError{Status: status, Detail: detail}
	switch status {
	case http.StatusUnauthorized:
		e.err = errs.ErrUnauthorized
	case http.StatusNotFound:
		e.err = errs.ErrNotFound
	}
	return e
}

// sessionExpiredError is the 401 raised after a failed refresh; it carries
// errs.ErrSessionExpired so callers can distinguish "log in again" from an
// ordinary unauthorized response.
func sessionExpiredError() *APIError {
	return &APIError{
		Status: http.StatusUnauthorized,
		Detail: "Session expired. Please sign in again.",
		err:    errs.ErrSessionExpired,
	}
}

// normalizeDetail extracts a message from an error body: detail, then
// error_description/error (token endpoint), then non_field_errors, then
// per-field error arrays, then the raw body.
func normalizeDetail(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "request failed"
	}

	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return raw
	}

	if d, ok := m["detail"].(string); ok && d != "" {
		return d
	}
	if d, ok := m["error_description"].(string); ok && d != "" {
		return d
	}
	if d, ok := m["error"].(string); ok && d != "" {
		return d
	}
	if msgs := stringList(m["non_field_errors"]); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}

	// Per-field validation errors: "field: message" lines in stable order.
	var fields []string
	for k, v := range m {
		if msgs := stringList(v); len(msgs) > 0 {
			fields = append(fields, k+": "+strings.Join(msgs, "; "))
		}
	}
	if len(fields) > 0 {
		sort.Strings(fields)
		return strings.Join(fields, "; ")
	}
	return raw
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
