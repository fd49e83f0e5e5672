package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"date only", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 normalised to utc", "2024-03-05T10:00:00+02:00", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), false},
		{"blank is zero", "  ", time.Time{}, false},
		{"european order", "05/03/2024", time.Time{}, true},
		{"year too early to store", "1500-01-01", time.Time{}, true},
		{"year too late to store", "2300-06-01", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) error = %v", tt.in, err)
			}
			if tt.wantErr && !core.IsValidation(err) {
				t.Errorf("error kind = %s", core.KindOf(err))
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q := url.Values{
		"type":     {"Expense"},
		"category": {" c1 "},
		"from":     {"2024-01-01"},
		"to":       {"2024-01-31"},
		"limit":    {"10"},
		"offset":   {"20"},
	}
	f, err := ParseTransactionFilter(q, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if f.UserID != "u1" || f.CategoryID != "c1" || f.Type != core.Expense || f.Limit != 10 || f.Offset != 20 {
		t.Errorf("filter = %+v", f)
	}
	if !f.To.Equal(core.EndOfDay(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))) {
		t.Errorf("to = %v, want end of day", f.To)
	}

	for _, bad := range []url.Values{
		{"type": {"transfer"}},
		{"limit": {"ten"}},
		{"from": {"yesterday"}},
	} {
		if _, err := ParseTransactionFilter(bad, "u1"); !core.IsValidation(err) {
			t.Errorf("ParseTransactionFilter(%v) error = %v, want validation", bad, err)
		}
	}
}

func TestParseRangeSelection(t *testing.T) {
	tests := []struct {
		name       string
		q          url.Values
		wantCustom bool
		wantDays   int
		wantErr    bool
	}{
		{"empty means default preset", url.Values{}, false, 0, false},
		{"days", url.Values{"days": {"30"}}, false, 30, false},
		{"custom wins over days", url.Values{"days": {"30"}, "start": {"2024-01-01"}, "end": {"2024-02-01"}}, true, 0, false},
		{"zero days", url.Values{"days": {"0"}}, false, 0, true},
		{"bad start", url.Values{"start": {"jan"}}, false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseRangeSelection(tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if sel.IsCustom() != tt.wantCustom || sel.LastDays != tt.wantDays {
				t.Errorf("selection = %+v", sel)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Amount core.Money `json:"amount"`
		When   *Date      `json:"when"`
	}
	tests := []struct {
		name      string
		in        string
		malformed bool
		kind      core.ErrorKind
	}{
		{"syntax error", `{"amount":`, true, 0},
		{"unknown field", `{"amount":1,"extra":true}`, true, 0},
		{"array instead of object", `[1]`, true, 0},
		{"bad amount", `{"amount":"abc"}`, false, core.KindValidation},
		{"bad date", `{"amount":1,"when":"soon"}`, false, core.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.in))
			var dst body
			err := decodeJSON(r, &dst)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, errMalformedBody); got != tt.malformed {
				t.Errorf("malformed = %v, want %v (%v)", got, tt.malformed, err)
			}
			if !tt.malformed && core.KindOf(err) != tt.kind {
				t.Errorf("kind = %s", core.KindOf(err))
			}
		})
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"7.25","when":"2024-02-29"}`))
	var ok body
	if err := decodeJSON(r, &ok); err != nil {
		t.Fatal(err)
	}
	if ok.Amount.Cents != 725 || ok.When.ptr().Day() != 29 {
		t.Errorf("decoded = %+v", ok)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  rent  ", "rent"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak", "line\nbreak"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
