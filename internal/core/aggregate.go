package core

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// NoCategory is reported as the top category of an empty collection.
const NoCategory = "None"

// NearBudgetThreshold is the utilization percentage from which a budget is
// shown in the warning state.
const NearBudgetThreshold = 90

type (
	// Summary holds the dashboard card statistics.
	Summary struct {
		TotalSpent         Money  `json:"totalSpent"`
		TransactionCount   int    `json:"transactionCount"`
		AverageTransaction Money  `json:"averageTransaction"`
		TopCategory        string `json:"topCategory"`
		MostRecentDate     Date   `json:"mostRecentDate"`
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name  Category `json:"name"`
		Value Money    `json:"value"`
	}

	// DayTotal is one point of the per-day series. ByCategory carries every
	// enumerated category plus Unknown, zero when absent. On the wire the
	// categories sit beside date and total: {"date", "total", "Food", ...}.
	DayTotal struct {
		Date       Date
		Total      Money
		ByCategory map[Category]Money
	}

	// BudgetStatus compares spending in one category against its limit.
	// Remaining never goes below zero and Percentage is capped at 100.
	BudgetStatus struct {
		Category   Category `json:"category"`
		Budget     Money    `json:"budget"`
		Spent      Money    `json:"spent"`
		Remaining  Money    `json:"remaining"`
		Percentage int      `json:"percentage"`
	}
)

const (
	dayKeyDate  = "date"
	dayKeyTotal = "total"
)

// MarshalJSON flattens ByCategory into the object next to date and total.
func (d DayTotal) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.ByCategory)+2)
	for c, v := range d.ByCategory {
		m[string(c)] = v
	}
	m[dayKeyDate] = d.Date
	m[dayKeyTotal] = d.Total
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (d *DayTotal) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := DayTotal{ByCategory: make(map[Category]Money, len(raw))}
	for k, v := range raw {
		var err error
		switch k {
		case dayKeyDate:
			err = json.Unmarshal(v, &out.Date)
		case dayKeyTotal:
			err = json.Unmarshal(v, &out.Total)
		default:
			var m Money
			err = json.Unmarshal(v, &m)
			out.ByCategory[Category(k)] = m
		}
		if err != nil {
			return fmt.Errorf("day total %q: %w", k, err)
		}
	}
	*d = out
	return nil
}

// categoryTotals sums amounts per bucket, remembering first-encounter order.
func categoryTotals(txs []Transaction) (map[Category]int64, []Category) {
	totals := make(map[Category]int64)
	order := make([]Category, 0, len(categories)+1)
	for _, t := range txs {
		c := t.Category.Bucket()
		if _, seen := totals[c]; !seen {
			order = append(order, c)
		}
		totals[c] += t.Amount.Cents
	}
	return totals, order
}

// ComputeSummary derives the summary statistics of txs. today is reported as
// the most recent date when txs is empty.
func ComputeSummary(txs []Transaction, today Date) Summary {
	s := Summary{
		TransactionCount: len(txs),
		TopCategory:      NoCategory,
		MostRecentDate:   today,
	}
	if len(txs) == 0 {
		return s
	}

	var latest Date
	for _, t := range txs {
		s.TotalSpent.Cents += t.Amount.Cents
		if t.Date.After(latest.Time) {
			latest = t.Date
		}
	}
	if !latest.IsZero() {
		s.MostRecentDate = latest
	}
	s.AverageTransaction = s.TotalSpent.DivRound(len(txs))

	// Ties keep the first category encountered.
	totals, order := categoryTotals(txs)
	var best int64
	for i, c := range order {
		if i == 0 || totals[c] > best {
			best = totals[c]
			s.TopCategory = string(c)
		}
	}
	return s
}

// GroupByCategory returns one entry per category present in txs, sorted by
// value descending. Equal values keep first-encounter order.
func GroupByCategory(txs []Transaction) []CategoryAmount {
	totals, order := categoryTotals(txs)
	out := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryAmount{Name: c, Value: Money{Cents: totals[c]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.Cents > out[j].Value.Cents
	})
	return out
}

// GroupByDay returns per-day totals sorted ascending by date.
func GroupByDay(txs []Transaction) []DayTotal {
	byDay := make(map[Date]*DayTotal)
	for _, t := range txs {
		day := DateOf(t.Date.Time)
		entry, ok := byDay[day]
		if !ok {
			entry = &DayTotal{Date: day, ByCategory: emptyCategoryMap()}
			byDay[day] = entry
		}
		entry.Total.Cents += t.Amount.Cents
		c := t.Category.Bucket()
		entry.ByCategory[c] = entry.ByCategory[c].Add(t.Amount)
	}

	out := make([]DayTotal, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

func emptyCategoryMap() map[Category]Money {
	m := make(map[Category]Money, len(categories)+1)
	for _, c := range categories {
		m[c] = Money{}
	}
	m[Unknown] = Money{}
	return m
}

// ComputeBudgetComparison returns one entry per budgeted category, in the
// enumeration order of the budgets.
func ComputeBudgetComparison(txs []Transaction, budgets Budgets) []BudgetStatus {
	totals, _ := categoryTotals(txs)
	out := make([]BudgetStatus, 0, budgets.Len())
	for _, b := range budgets.Entries() {
		spent := Money{Cents: totals[b.Category]}
		remaining := Money{Cents: b.Limit.Cents - spent.Cents}
		if remaining.Cents < 0 {
			remaining = Money{}
		}
		out = append(out, BudgetStatus{
			Category:   b.Category,
			Budget:     b.Limit,
			Spent:      spent,
			Remaining:  remaining,
			Percentage: utilization(spent, b.Limit),
		})
	}
	return out
}

// utilization is min(100, round(100*spent/budget)). A zero budget reads as
// fully used once anything is spent against it.
func utilization(spent, budget Money) int {
	if budget.Cents <= 0 {
		if spent.Cents > 0 {
			return 100
		}
		return 0
	}
	pct := decimal.NewFromInt(spent.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(budget.Cents), 0).
		IntPart()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// NearLimit reports whether the budget is in the warning state.
func (b BudgetStatus) NearLimit() bool {
	return b.Percentage >= NearBudgetThreshold
}

// OverBudget reports whether spending exceeded the limit.
func (b BudgetStatus) OverBudget() bool {
	return b.Spent.Cents > b.Budget.Cents
}
