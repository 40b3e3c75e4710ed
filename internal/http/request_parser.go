package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/services"
)

const (
	maxBodyBytes   = 1 << 20  // 1MB
	maxImportBytes = 10 << 20 // 10MB
)

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON value", errMalformedBody)
	}
	return nil
}

// Window is the inclusive date range of a forecast or occurrence query.
type Window struct {
	From core.Date
	To   core.Date
}

// ParseWindow reads from and to (YYYY-MM-DD). A missing from is today and a
// missing to is from plus the horizon, inclusive.
func ParseWindow(query url.Values, today core.Date, horizonDays int) (Window, error) {
	w := Window{}
	from, to := services.DefaultWindow(today, horizonDays)

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return w, fmt.Errorf("from: %w", err)
		}
		from = d
		_, to = services.DefaultWindow(d, horizonDays)
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return w, fmt.Errorf("to: %w", err)
		}
		to = d
	}
	if to.Before(from) {
		return w, services.ErrInvalidWindow
	}
	w.From, w.To = from, to
	return w, nil
}

// ParseMode reads the forecast mode, defaulting to detailed.
func ParseMode(query url.Values) (core.Mode, error) {
	v := strings.ToLower(strings.TrimSpace(query.Get("mode")))
	if v == "" {
		return core.Detailed, nil
	}
	m := core.Mode(v)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", services.ErrInvalidMode, v)
	}
	return m, nil
}

// ParseOccurrenceTarget reads the date and scope of an occurrence edit.
func ParseOccurrenceTarget(query url.Values) (core.Date, services.EditScope, error) {
	date, err := core.ParseDate(query.Get("date"))
	if err != nil {
		return core.Date{}, "", fmt.Errorf("date: %w", err)
	}
	scope, err := services.ParseScope(strings.ToLower(strings.TrimSpace(query.Get("scope"))))
	if err != nil {
		return core.Date{}, "", err
	}
	return date, scope, nil
}
