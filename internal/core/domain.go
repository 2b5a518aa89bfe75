package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Utilities      Category = "Utilities"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Health         Category = "Health"
	Education      Category = "Education"
	Other          Category = "Other"

	// Unknown buckets categories outside the enumeration during aggregation.
	Unknown Category = "Unknown"
)

// DateLayout is the ISO calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// MaxDescriptionLength mirrors the limit enforced by the forms.
const MaxDescriptionLength = 200

type (
	Category string

	// CategoryPolicy controls how strictly categories are validated on input.
	CategoryPolicy int

	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Amount      Money
		Date        Date
		Category    Category
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time // zero until the first update
	}

	// TransactionInput is the user-editable part of a Transaction, used for
	// create and full-replacement update.
	TransactionInput struct {
		Amount      Money
		Date        Date
		Category    Category
		Description string
	}
)

const (
	CategoryStrict CategoryPolicy = iota
	CategoryFreeText
)

var categories = []Category{Food, Transportation, Utilities, Entertainment, Shopping, Health, Education, Other}

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: description is required", ErrValidation)
	ErrLongDescription  = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLength)
	ErrInvalidCategory  = fmt.Errorf("%w: unknown category", ErrValidation)
)

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// IsKnown reports whether c belongs to the fixed enumeration.
func (c Category) IsKnown() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// Bucket returns the aggregation key for c.
func (c Category) Bucket() Category {
	if c.IsKnown() {
		return c
	}
	return Unknown
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s against the enumeration case-insensitively. Unmatched
// values are returned trimmed and unchanged, so free-text deployments keep them.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, k := range categories {
		if strings.EqualFold(s, string(k)) {
			return k
		}
	}
	return Category(s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current UTC calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO calendar date. Inputs carrying a time component
// (RFC 3339) are accepted and truncated to their UTC date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the input against the boundary contract. The aggregator
// assumes every record it receives has passed this check.
func (in TransactionInput) Validate(policy CategoryPolicy) error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrLongDescription
	}
	switch policy {
	case CategoryFreeText:
		if strings.TrimSpace(string(in.Category)) == "" {
			return ErrInvalidCategory
		}
	default:
		if !in.Category.IsKnown() {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
		}
	}
	return nil
}

// Normalized trims the free-text fields.
func (in TransactionInput) Normalized() TransactionInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = ParseCategory(string(in.Category))
	return in
}

// Input returns the user-editable fields of t.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Amount:      t.Amount,
		Date:        t.Date,
		Category:    t.Category,
		Description: t.Description,
	}
}

// WithInput returns t with its editable fields replaced by in.
func (t Transaction) WithInput(in TransactionInput) Transaction {
	t.Amount = in.Amount
	t.Date = in.Date
	t.Category = in.Category
	t.Description = in.Description
	return t
}
