package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-02", "2024-01-02", true},
		{" 2024-03-15 ", "2024-03-15", true},
		{"2024-01-02T23:30:00-05:00", "2024-01-03", true}, // truncated in UTC
		{"2024-01-02T10:00:00Z", "2024-01-02", true},
		{"02/01/2024", "", false},
		{"2024-13-01", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if d.String() != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.want, d)
		}
		if d.Location() != time.UTC || d.Hour() != 0 {
			t.Fatalf("%q expected UTC midnight, got %v", tc.in, d.Time)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 2, 29))
	if err != nil || string(b) != `"2024-02-29"` {
		t.Fatalf("marshal: got %s (err=%v)", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil || !d.Equal(NewDate(2024, 2, 29).Time) {
		t.Fatalf("unmarshal: got %v (err=%v)", d, err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory(" food "); got != Food {
		t.Fatalf("expected Food, got %q", got)
	}
	if got := ParseCategory("Pets"); got != "Pets" || got.IsKnown() {
		t.Fatalf("expected unknown Pets, got %q", got)
	}
	if Category("Pets").Bucket() != Unknown {
		t.Fatalf("expected unknown categories to bucket as Unknown")
	}
	if len(Categories()) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(Categories()))
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Amount:      Money{Cents: 100},
		Date:        NewDate(2025, 1, 1),
		Category:    Food,
		Description: "ok",
	}
	if err := good.Validate(CategoryStrict); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"zero date", func(in *TransactionInput) { in.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }, ErrEmptyDescription},
		{"long description", func(in *TransactionInput) { in.Description = strings.Repeat("x", MaxDescriptionLength+1) }, ErrLongDescription},
		{"long multibyte description", func(in *TransactionInput) { in.Description = strings.Repeat("é", MaxDescriptionLength+1) }, ErrLongDescription},
		{"multibyte description at limit", func(in *TransactionInput) { in.Description = strings.Repeat("é", MaxDescriptionLength) }, nil},
		{"unknown category", func(in *TransactionInput) { in.Category = "Pets" }, ErrInvalidCategory},
		{"empty category", func(in *TransactionInput) { in.Category = "" }, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := good
			tc.mutate(&in)
			err := in.Validate(CategoryStrict)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to wrap ErrValidation, got %v", err)
			}
		})
	}
}

func TestTransactionInputValidateFreeText(t *testing.T) {
	in := TransactionInput{Amount: Money{Cents: 100}, Date: NewDate(2025, 1, 1), Category: "Pets", Description: "kibble"}
	if err := in.Validate(CategoryFreeText); err != nil {
		t.Fatalf("expected free-text category to pass, got %v", err)
	}
	in.Category = " "
	if err := in.Validate(CategoryFreeText); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestTransactionWithInput(t *testing.T) {
	created := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	tx := Transaction{ID: "a", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1), Category: Food, Description: "x", CreatedAt: created}
	in := TransactionInput{Amount: Money{Cents: 900}, Date: NewDate(2025, 2, 2), Category: Health, Description: "y"}

	got := tx.WithInput(in)
	if got.ID != "a" || !got.CreatedAt.Equal(created) {
		t.Fatalf("expected identity fields preserved, got %+v", got)
	}
	if got.Input() != in {
		t.Fatalf("expected %+v, got %+v", in, got.Input())
	}
}
