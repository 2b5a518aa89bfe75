package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"fintrack/internal/core"
)

func TestMigrationURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/db":   "pgx5://u:p@localhost:5432/db",
		"postgresql://u:p@localhost:5432/db": "pgx5://u:p@localhost:5432/db",
		"pgx5://u:p@localhost/db":            "pgx5://u:p@localhost/db",
	}
	for in, want := range cases {
		if got := migrationURL(in); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
}

func TestPostgresRepositoryIntegration(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()
	repo, err := New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer repo.Close()

	in := core.TransactionInput{
		Amount:      core.Money{Cents: 2599},
		Date:        core.NewDate(2024, 5, 4),
		Category:    core.Education,
		Description: "integration book",
	}
	id, err := repo.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil || got.Input() != in {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	in.Amount = core.Money{Cents: 3000}
	if err := repo.UpdateTransaction(ctx, id, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
