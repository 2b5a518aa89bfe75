package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/gateway"
	applog "fintrack/internal/log"
)

// EventPublisher announces committed mutations. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// Invalidator drops derived state after the collection changes.
type Invalidator interface {
	Invalidate()
}

// TransactionService validates input, writes through the gateway and then
// notifies listeners. Notifications never fail a request.
type TransactionService struct {
	store     gateway.Store
	publisher EventPublisher
	policy    core.CategoryPolicy
	listeners []Invalidator
}

func NewTransactionService(store gateway.Store, publisher EventPublisher, policy core.CategoryPolicy, listeners ...Invalidator) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		policy:    policy,
		listeners: listeners,
	}
}

// ListOptions narrows and orders the transaction list.
type ListOptions struct {
	Query     string
	Field     core.SortField
	Direction core.SortDirection
}

// List returns the filtered collection. The zero ListOptions keeps the store
// order (newest first).
func (s *TransactionService) List(ctx context.Context, opts ListOptions) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs = core.FilterTransactions(txs, opts.Query)
	if opts.Field != "" {
		dir := opts.Direction
		if dir == "" {
			dir = core.Descending
		}
		txs = core.SortTransactions(txs, opts.Field, dir)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Create validates in and persists it, returning the new id.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (string, error) {
	in = in.Normalized()
	if err := in.Validate(s.policy); err != nil {
		return "", err
	}
	id, err := s.store.CreateTransaction(ctx, in)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentTransaction).InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithTransaction(id, in.Amount.Cents, string(in.Category), in.Date.String()).
			ToSlice()...)

	s.changed(ctx, id, amqp.OpCreated)
	return id, nil
}

// Update replaces every editable field of id.
func (s *TransactionService) Update(ctx context.Context, id string, in core.TransactionInput) error {
	in = in.Normalized()
	if err := in.Validate(s.policy); err != nil {
		return err
	}
	if err := s.store.UpdateTransaction(ctx, id, in); err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.changed(ctx, id, amqp.OpUpdated)
	return nil
}

// Delete removes id. Unknown ids yield core.ErrNotFound and notify nobody.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.changed(ctx, id, amqp.OpDeleted)
	return nil
}

func (s *TransactionService) changed(ctx context.Context, id string, op amqp.EventOp) {
	for _, l := range s.listeners {
		l.Invalidate()
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentAMQP)
	if s.publisher == nil {
		logger.DebugContext(ctx, "Event publisher not configured, skipping event", applog.FieldTxID, id, "op", op)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(id, op)); err != nil {
		// The write is committed; the periodic reconcile repairs the mirror.
		logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldTxID, id, "op", op, applog.FieldError, err)
	}
}
