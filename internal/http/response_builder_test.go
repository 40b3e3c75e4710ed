package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	"github.com/jc9677/budget-app-2/internal/services"
	"github.com/jc9677/budget-app-2/internal/storage"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/1").
		Data(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Location"); got != "/api/accounts/1" {
		t.Errorf("Location = %q, want /api/accounts/1", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":"1"}` {
		t.Errorf("Body = %q, want {\"id\":\"1\"}", got)
	}
}

func TestJSONResponseBuilder_NoData(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "" {
		t.Errorf("Content-Type = %q, want unset", ct)
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Attachment("budget.json").Data([]int{}).Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="budget.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"malformed body", fmt.Errorf("%w: eof", errMalformedBody), http.StatusBadRequest, ""},
		{"malformed snapshot", exchange.ErrMalformedSnapshot, http.StatusBadRequest, ""},
		{"unsupported version", exchange.ErrUnsupportedVersion, http.StatusBadRequest, ""},
		{"invalid mode", services.ErrInvalidMode, http.StatusBadRequest, ""},
		{"invalid scope", services.ErrInvalidScope, http.StatusBadRequest, ""},
		{"validation", fmt.Errorf("prepare: %w", core.ErrEmptyName), http.StatusUnprocessableEntity, ""},
		{"invalid window", services.ErrInvalidWindow, http.StatusUnprocessableEntity, ""},
		{"no occurrence", services.ErrNoOccurrence, http.StatusUnprocessableEntity, ""},
		{"not found", fmt.Errorf("get: %w", storage.ErrNotFound), http.StatusNotFound, "not found"},
		{"override", services.ErrOverrideUnsupported, http.StatusNotImplemented, ""},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			if status != tt.wantStatus {
				t.Errorf("errorStatus(%v) status = %d, want %d", tt.err, status, tt.wantStatus)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Errorf("errorStatus(%v) message = %q, want %q", tt.err, msg, tt.wantMsg)
			}
		})
	}
}

func TestWriteServiceError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/accounts", nil)
	writeServiceError(w, r, "list", errors.New("pq: password authentication failed"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaks the cause: %s", w.Body.String())
	}
}
