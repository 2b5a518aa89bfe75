// Package worker mirrors the primary transaction store into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/gateway"
	applog "fintrack/internal/log"
)

// Source is the primary store the mirror follows.
type Source interface {
	gateway.TransactionLister
	gateway.TransactionReader
}

// Mirror is the replica. *google.Client implements it.
type Mirror interface {
	UpsertTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}

// EventSource delivers change events until ctx is done. *amqp.Client implements it.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// MirrorWorker applies change events to the mirror and periodically rewrites
// it from the source to repair anything an event missed.
type MirrorWorker struct {
	source   Source
	mirror   Mirror
	interval time.Duration
	logger   *applog.Logger

	// Mirror writes are find-then-write; serialize them.
	mu sync.Mutex
}

// NewMirrorWorker returns a worker reconciling every interval. A zero
// interval disables the periodic reconcile.
func NewMirrorWorker(source Source, mirror Mirror, interval time.Duration, logger *applog.Logger) *MirrorWorker {
	return &MirrorWorker{
		source:   source,
		mirror:   mirror,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent applies one change event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Op {
	case amqp.OpCreated, amqp.OpUpdated:
		t, err := w.source.GetTransaction(ctx, ev.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted after the event was published.
			return w.deleteRow(ctx, ev.ID)
		}
		if err != nil {
			return fmt.Errorf("read transaction %s: %w", ev.ID, err)
		}
		if err := w.mirror.UpsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("mirror transaction %s: %w", ev.ID, err)
		}
		w.logger.InfoContext(ctx, "Mirrored transaction",
			applog.NewFields().
				WithOperation(applog.OpMirror).
				WithTransaction(t.ID, t.Amount.Cents, string(t.Category), t.Date.String()).
				ToSlice()...)
		return nil
	case amqp.OpDeleted:
		return w.deleteRow(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown event op %q", ev.Op)
	}
}

func (w *MirrorWorker) deleteRow(ctx context.Context, id string) error {
	err := w.mirror.DeleteTransaction(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete mirrored transaction %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Removed mirrored transaction",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTxID, id,
		"present", err == nil)
	return nil
}

// Reconcile rewrites the mirror from the full source collection.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list source transactions: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mirror.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror reconciled",
		applog.FieldOperation, applog.OpReconcile,
		applog.FieldCount, len(txs))
	return nil
}

// Run consumes events and reconciles periodically until ctx is cancelled.
// A reconcile runs once at startup to cover downtime.
func (w *MirrorWorker) Run(ctx context.Context, events EventSource) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return events.ConsumeTransactionEvents(ctx, w.HandleEvent)
	})

	g.Go(func() error {
		if err := w.Reconcile(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Startup reconcile failed",
				applog.NewFields().WithOperation(applog.OpReconcile).WithError(err).ToSlice()...)
		}
		if w.interval <= 0 {
			return nil
		}
		return w.reconcileLoop(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *MirrorWorker) reconcileLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic reconcile failed",
					applog.NewFields().WithOperation(applog.OpReconcile).WithError(err).ToSlice()...)
			}
		}
	}
}
