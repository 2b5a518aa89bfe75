// Package gateway defines the record store operations the application needs.
// Every backend (memory, SQL, PostgreSQL, Google Sheets) implements Store.
package gateway

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionLister returns the full collection, newest date first.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionReader returns core.ErrNotFound for unknown ids.
	TransactionReader interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		// CreateTransaction persists in and returns the assigned id.
		CreateTransaction(ctx context.Context, in core.TransactionInput) (string, error)
		// UpdateTransaction replaces every editable field of id.
		UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	Store interface {
		TransactionLister
		TransactionReader
		TransactionWriter
		Pinger
	}
)
