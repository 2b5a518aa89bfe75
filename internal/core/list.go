package core

import (
	"sort"
	"strings"
)

type (
	SortField     string
	SortDirection string
)

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
	SortByCategory    SortField = "category"

	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortField falls back to SortByDate for unknown values.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByAmount, SortByDescription, SortByCategory:
		return f
	default:
		return SortByDate
	}
}

// ParseSortDirection falls back to Descending for unknown values.
func ParseSortDirection(s string) SortDirection {
	if SortDirection(strings.ToLower(strings.TrimSpace(s))) == Ascending {
		return Ascending
	}
	return Descending
}

// FilterTransactions keeps transactions whose description or category
// contains term, ignoring case. An empty term keeps everything.
func FilterTransactions(txs []Transaction, term string) []Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if term == "" ||
			strings.Contains(strings.ToLower(t.Description), term) ||
			strings.Contains(strings.ToLower(string(t.Category)), term) {
			out = append(out, t)
		}
	}
	return out
}

// SortTransactions returns a sorted copy of txs. The sort is stable, so equal
// keys keep their incoming order.
func SortTransactions(txs []Transaction, field SortField, dir SortDirection) []Transaction {
	out := append([]Transaction(nil), txs...)
	cmp := func(a, b Transaction) int {
		switch field {
		case SortByAmount:
			return compareInt64(a.Amount.Cents, b.Amount.Cents)
		case SortByDescription:
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		case SortByCategory:
			return strings.Compare(string(a.Category), string(b.Category))
		default:
			return a.Date.Compare(b.Date.Time)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortNewestFirst orders txs in place by date descending, then by creation
// time descending. This is the order stores return lists in.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
