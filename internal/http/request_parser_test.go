package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestBuildInput(t *testing.T) {
	tests := []struct {
		name                 string
		amount, date, cat, d string
		wantErr              error
		wantCents            int64
	}{
		{"dot decimal", "12.34", "2024-01-02", "food", "x", nil, 1234},
		{"comma decimal", "12,5", "2024-01-02", "Food", "x", nil, 1250},
		{"rfc3339 date", "1", "2024-01-02T23:00:00Z", "Food", "x", nil, 100},
		{"bad amount", "twelve", "2024-01-02", "Food", "x", core.ErrInvalidAmount, 0},
		{"bad date", "1", "02/01/2024", "Food", "x", core.ErrInvalidDate, 0},
		{"empty date", "1", "", "Food", "x", core.ErrInvalidDate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := buildInput(tt.amount, tt.date, tt.cat, tt.d)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || in.Amount.Cents != tt.wantCents || in.Category != core.Food {
				t.Fatalf("unexpected %+v (err=%v)", in, err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeTransactionJSON_Malformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
	_, err := decodeTransactionJSON(httptest.NewRecorder(), r)
	if !errors.Is(err, errMalformedBody) {
		t.Fatalf("expected errMalformedBody, got %v", err)
	}
	if statusFor(err) != http.StatusBadRequest {
		t.Fatal("malformed body must map to 400")
	}
}

func TestListOptionsFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?q=+coffee+&sort=AMOUNT&dir=asc", nil)
	q, field, dir := listOptionsFrom(r)
	if q != "coffee" || field != core.SortByAmount || dir != core.Ascending {
		t.Fatalf("got %q %q %q", q, field, dir)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, field, dir := listOptionsFrom(r); field != "" || dir != "" {
		t.Fatal("no sort requested should keep store order")
	}
}
