package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Budget is a spending ceiling for one category. It is only compared
	// against, never enforced.
	Budget struct {
		Category Category `json:"category"`
		Limit    Money    `json:"limit"`
	}

	// Budgets maps categories to limits. Entries iterates in the category
	// enumeration order so output stays deterministic.
	Budgets struct {
		limits map[Category]Money
	}
)

// DefaultBudgets returns the built-in monthly budget table.
func DefaultBudgets() Budgets {
	return NewBudgets(map[Category]Money{
		Food:           {Cents: 30000},
		Transportation: {Cents: 15000},
		Utilities:      {Cents: 40000},
		Entertainment:  {Cents: 10000},
		Shopping:       {Cents: 20000},
		Health:         {Cents: 15000},
		Education:      {Cents: 10000},
		Other:          {Cents: 10000},
	})
}

// NewBudgets copies limits into a Budgets value. Negative limits are clamped
// to zero.
func NewBudgets(limits map[Category]Money) Budgets {
	b := Budgets{limits: make(map[Category]Money, len(limits))}
	for c, m := range limits {
		if m.Cents < 0 {
			m = Money{}
		}
		b.limits[c] = m
	}
	return b
}

// ParseBudgets reads overrides in the form "Food=250,Health=80.5" on top of
// base. Category names are matched case-insensitively and must belong to the
// enumeration. An empty string returns base unchanged.
func ParseBudgets(s string, base Budgets) (Budgets, error) {
	out := NewBudgets(base.limits)
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Budgets{}, fmt.Errorf("budget %q: expected Category=amount", pair)
		}
		c := ParseCategory(name)
		if !c.IsKnown() {
			return Budgets{}, fmt.Errorf("budget %q: %w", pair, ErrInvalidCategory)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || d.IsNegative() {
			return Budgets{}, fmt.Errorf("budget %q: %w", pair, ErrInvalidAmount)
		}
		out.limits[c] = Money{Cents: d.Shift(2).Round(0).IntPart()}
	}
	return out, nil
}

// Limit returns the limit for c and whether c is budgeted.
func (b Budgets) Limit(c Category) (Money, bool) {
	m, ok := b.limits[c]
	return m, ok
}

// Len returns the number of budgeted categories.
func (b Budgets) Len() int {
	return len(b.limits)
}

// Entries lists budgeted categories in enumeration order. Budgeted categories
// outside the enumeration follow, sorted by name.
func (b Budgets) Entries() []Budget {
	out := make([]Budget, 0, len(b.limits))
	for _, c := range categories {
		if m, ok := b.limits[c]; ok {
			out = append(out, Budget{Category: c, Limit: m})
		}
	}
	var extra []Budget
	for c, m := range b.limits {
		if !c.IsKnown() {
			extra = append(extra, Budget{Category: c, Limit: m})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Category < extra[j].Category })
	return append(out, extra...)
}
