package google

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

var header = []any{"ID", "Date", "Amount", "Category", "Description", "CreatedAt", "UpdatedAt"}

func toRow(t core.Transaction) []any {
	updated := ""
	if !t.UpdatedAt.IsZero() {
		updated = t.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return []any{
		t.ID,
		t.Date.String(),
		t.Amount.String(),
		string(t.Category),
		t.Description,
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		updated,
	}
}

// fromRow parses a data row. Rows written by hand may omit the timestamps.
func fromRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 5 {
		return core.Transaction{}, fmt.Errorf("row has %d columns, want at least 5", len(cols))
	}
	id := safeGet(cols, 0)
	if id == "" {
		return core.Transaction{}, fmt.Errorf("row without id")
	}
	date, err := core.ParseDate(safeGet(cols, 1))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", id, err)
	}
	amount, err := core.ParseAmount(safeGet(cols, 2))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", id, err)
	}
	t := core.Transaction{
		ID:          id,
		Amount:      amount,
		Date:        date,
		Category:    core.Category(safeGet(cols, 3)),
		Description: safeGet(cols, 4),
	}
	if v := safeGet(cols, 5); v != "" {
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return core.Transaction{}, fmt.Errorf("row %s: created at: %w", id, err)
		}
	}
	if v := safeGet(cols, 6); v != "" {
		if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return core.Transaction{}, fmt.Errorf("row %s: updated at: %w", id, err)
		}
	}
	return t, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
