package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/services"
)

func TestParseWindow(t *testing.T) {
	today := core.NewDate(2025, 1, 10)

	tests := []struct {
		name     string
		query    string
		wantFrom string
		wantTo   string
		wantErr  error
	}{
		{"defaults", "", "2025-01-10", "2025-02-08", nil},
		{"from only extends by horizon", "from=2025-03-01", "2025-03-01", "2025-03-30", nil},
		{"to only", "to=2025-01-31", "2025-01-10", "2025-01-31", nil},
		{"both", "from=2025-01-01&to=2025-12-31", "2025-01-01", "2025-12-31", nil},
		{"single day", "from=2025-01-01&to=2025-01-01", "2025-01-01", "2025-01-01", nil},
		{"rfc3339 accepted", "from=2025-01-01T10:00:00Z&to=2025-01-02", "2025-01-01", "2025-01-02", nil},
		{"reversed", "from=2025-02-01&to=2025-01-01", "", "", services.ErrInvalidWindow},
		{"bad from", "from=tomorrow", "", "", core.ErrInvalidDate},
		{"bad to", "to=2025-13-01", "", "", core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseWindow(q, today, 30)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseWindow(%q) error = %v, want %v", tt.query, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow(%q) error = %v", tt.query, err)
			}
			if got.From.String() != tt.wantFrom || got.To.String() != tt.wantTo {
				t.Errorf("ParseWindow(%q) = %s..%s, want %s..%s", tt.query, got.From, got.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		query   string
		want    core.Mode
		wantErr bool
	}{
		{"", core.Detailed, false},
		{"mode=detailed", core.Detailed, false},
		{"mode=Monthly", core.MonthlyMode, false},
		{"mode=annual", core.AnnualMode, false},
		{"mode=weekly", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMode(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, services.ErrInvalidMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseOccurrenceTarget(t *testing.T) {
	q, _ := url.ParseQuery("date=2025-02-15&scope=FUTURE")
	date, scope, err := ParseOccurrenceTarget(q)
	if err != nil {
		t.Fatalf("ParseOccurrenceTarget() error = %v", err)
	}
	if !date.Equal(core.NewDate(2025, 2, 15)) || scope != services.ScopeFuture {
		t.Errorf("ParseOccurrenceTarget() = %v, %v", date, scope)
	}

	q, _ = url.ParseQuery("date=2025-02-15&scope=everything")
	if _, _, err := ParseOccurrenceTarget(q); !errors.Is(err, services.ErrInvalidScope) {
		t.Errorf("ParseOccurrenceTarget(bad scope) error = %v, want ErrInvalidScope", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Food"}`, false},
		{"empty body", ``, true},
		{"truncated", `{"name":`, true},
		{"two values", `{"name":"a"}{"name":"b"}`, true},
		{"wrong type", `{"name":5}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var v categoryBody
			err := decodeJSON(httptest.NewRecorder(), r, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errMalformedBody) {
				t.Errorf("decodeJSON(%q) error = %v, want errMalformedBody", tt.body, err)
			}
		})
	}
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(big))
	var v categoryBody
	if err := decodeJSON(httptest.NewRecorder(), r, &v); err == nil {
		t.Error("decodeJSON() should reject a body over the limit")
	}
}
