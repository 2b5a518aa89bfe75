package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// timestampLayout is fixed-width so text columns sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, amount_cents, tx_date, category, description, created_at, updated_at FROM transactions`

// Repository is the database/sql record store shared by SQLite and MySQL.
// Both dialects use '?' placeholders, so the statements are identical.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewMySQLRepository connects using a go-sql-driver DSN, e.g.
// "user:pass@tcp(localhost:3306)/fintrack".
func NewMySQLRepository(dsn string) (*Repository, error) {
	return open(MySQL, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if dialect == SQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	return &Repository{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY tx_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: rows: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, in core.TransactionInput) (string, error) {
	id := r.newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount_cents, tx_date, category, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Amount.Cents, in.Date.String(), string(in.Category), in.Description, formatTimestamp(r.now()))
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"backend", r.dialect.String(),
		"id", id,
		"amount_cents", in.Amount.Cents,
		"date", in.Date.String())

	return id, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, tx_date = ?, category = ?, description = ?, updated_at = ? WHERE id = ?`,
		in.Amount.Cents, in.Date.String(), string(in.Category), in.Description, formatTimestamp(r.now()), id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// expectOneRow maps zero affected rows to core.ErrNotFound. MySQL reports
// zero for an update that changes nothing, but updated_at always changes.
func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		date      string
		category  string
		createdAt string
		updatedAt sql.NullString
	)
	if err := s.Scan(&t.ID, &t.Amount.Cents, &date, &category, &t.Description, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}

	var err error
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", t.ID, err)
	}
	t.Category = core.Category(category)
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: created_at: %w", t.ID, err)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		if t.UpdatedAt, err = parseTimestamp(updatedAt.String); err != nil {
			return core.Transaction{}, fmt.Errorf("row %s: updated_at: %w", t.ID, err)
		}
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
