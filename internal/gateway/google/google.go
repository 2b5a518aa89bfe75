// Package google keeps transactions in a Google Sheets tab, one row per
// record keyed by the id in column A. Row 1 holds the header.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/gateway"

	"github.com/google/uuid"
)

var _ gateway.Store = (*Client)(nil)

// Config selects the spreadsheet and tab.
type Config struct {
	SpreadsheetID string
	SheetName     string
	Credentials   Credentials
}

type Client struct {
	api   valuesAPI
	sheet string
	now   func() time.Time
	newID func() string
}

// New creates a Sheets client and writes the header row if the tab is empty.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := newClient(serviceAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, sheet)
	if err := c.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(api valuesAPI, sheet string) *Client {
	return &Client{
		api:   api,
		sheet: sheet,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheet, cells)
}

func (c *Client) ensureHeader(ctx context.Context) error {
	rows, err := c.api.Get(ctx, c.rng("A1:G1"))
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	if err := c.api.Update(ctx, c.rng("A1:G1"), [][]any{header}); err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheet, err)
	}
	return nil
}

// Ping reads the header row.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Get(ctx, c.rng("A1:G1")); err != nil {
		return fmt.Errorf("ping sheet %s: %w", c.sheet, err)
	}
	return nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := c.api.Get(ctx, c.rng("A2:G"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.rng("A2:G"), err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		t, err := fromRow(row)
		if err != nil {
			// Hand-edited rows are skipped rather than failing the whole list.
			slog.WarnContext(ctx, "Skipping unreadable sheet row", "sheet", c.sheet, "row", i+2, "error", err)
			continue
		}
		out = append(out, t)
	}
	core.SortNewestFirst(out)
	return out, nil
}

// findRow returns the 1-based row number holding id.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rows, err := c.api.Get(ctx, c.rng("A:A"))
	if err != nil {
		return 0, fmt.Errorf("read ids of %s: %w", c.sheet, err)
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, core.ErrNotFound
}

func (c *Client) readRow(ctx context.Context, n int) (core.Transaction, error) {
	rng := c.rng(fmt.Sprintf("A%d:G%d", n, n))
	rows, err := c.api.Get(ctx, rng)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(rows) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return fromRow(rows[0])
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	n, err := c.findRow(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return c.readRow(ctx, n)
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (string, error) {
	t := core.Transaction{ID: c.newID(), CreatedAt: c.now()}.WithInput(in)
	if err := c.api.Append(ctx, c.rng("A:G"), [][]any{toRow(t)}); err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	return t.ID, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) error {
	n, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	existing, err := c.readRow(ctx, n)
	if err != nil {
		return err
	}
	t := existing.WithInput(in)
	t.UpdatedAt = c.now()
	return c.writeRow(ctx, n, t)
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	n, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if err := c.api.DeleteRow(ctx, c.sheet, n-1); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", n, c.sheet, err)
	}
	return nil
}

// UpsertTransaction writes t as-is, replacing the row with the same id or
// appending a new one.
func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	n, err := c.findRow(ctx, t.ID)
	if errors.Is(err, core.ErrNotFound) {
		if err := c.api.Append(ctx, c.rng("A:G"), [][]any{toRow(t)}); err != nil {
			return fmt.Errorf("append to %s: %w", c.sheet, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	return c.writeRow(ctx, n, t)
}

// ReplaceAll rewrites every data row with txs in one pass, dropping rows
// whose id is not in txs.
func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if err := c.api.Clear(ctx, c.rng("A2:G")); err != nil {
		return fmt.Errorf("clear %s: %w", c.sheet, err)
	}
	if len(txs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, toRow(t))
	}
	rng := c.rng(fmt.Sprintf("A2:G%d", len(rows)+1))
	if err := c.api.Update(ctx, rng, rows); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (c *Client) writeRow(ctx context.Context, n int, t core.Transaction) error {
	rng := c.rng(fmt.Sprintf("A%d:G%d", n, n))
	if err := c.api.Update(ctx, rng, [][]any{toRow(t)}); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}
