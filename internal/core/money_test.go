package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12,345", 1235, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if m, err := MoneyFromFloat(19.99); err != nil || m.Cents != 1999 {
		t.Fatalf("expected 1999, got %d (err=%v)", m.Cents, err)
	}
	for _, f := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := MoneyFromFloat(f); err == nil {
			t.Fatalf("%v expected error", f)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		12345:     "$123.45",
		123450:    "$1,234.50",
		100000000: "$1,000,000.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).Format(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
	if got := (Money{Cents: 1050}).String(); got != "10.50" {
		t.Fatalf("expected 10.50, got %q", got)
	}
}

func TestMoneyDivRound(t *testing.T) {
	cases := []struct {
		cents int64
		n     int
		want  int64
	}{
		{10000, 3, 3333},
		{200, 3, 67}, // 0.666... rounds up
		{5, 2, 3},    // 0.025 rounds half-up
		{100, 0, 0},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).DivRound(tc.n); got.Cents != tc.want {
			t.Fatalf("%d/%d: expected %d, got %d", tc.cents, tc.n, tc.want, got.Cents)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1234})
	if err != nil || string(b) != "12.34" {
		t.Fatalf("marshal: got %s (err=%v)", b, err)
	}
	var fromNumber, fromString Money
	if err := json.Unmarshal([]byte(`42.5`), &fromNumber); err != nil || fromNumber.Cents != 4250 {
		t.Fatalf("number: got %d (err=%v)", fromNumber.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"7,25"`), &fromString); err != nil || fromString.Cents != 725 {
		t.Fatalf("string: got %d (err=%v)", fromString.Cents, err)
	}
	var bad Money
	if err := json.Unmarshal([]byte(`"abc"`), &bad); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	for _, huge := range []string{`1e30`, `"-1e30"`, `92233720368547758.08`} {
		var m Money
		if err := json.Unmarshal([]byte(huge), &m); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v (cents=%d)", huge, err, m.Cents)
		}
	}
}
