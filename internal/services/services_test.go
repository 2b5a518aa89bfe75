package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/gateway/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *ev)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

// countingLister wraps a store and counts full scans.
type countingLister struct {
	*memory.Store
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *countingLister) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.Store.ListTransactions(ctx)
}

func validInput(cents int64, cat core.Category, day int) core.TransactionInput {
	return core.TransactionInput{
		Amount:      core.Money{Cents: cents},
		Date:        core.NewDate(2024, 3, day),
		Category:    cat,
		Description: "  groceries ",
	}
}

func TestTransactionService_CreatePublishesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewTransactionService(store, pub, core.CategoryStrict, inv)

	id, err := svc.Create(ctx, validInput(1250, "food", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "groceries" || got.Category != core.Food {
		t.Fatalf("expected normalized input, got %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].ID != id || pub.events[0].Op != amqp.OpCreated {
		t.Fatalf("unexpected events %+v", pub.events)
	}
	if inv.n != 1 {
		t.Fatalf("expected one invalidation, got %d", inv.n)
	}
}

func TestTransactionService_Validation(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	tests := []struct {
		name   string
		policy core.CategoryPolicy
		in     core.TransactionInput
		ok     bool
	}{
		{"strict rejects custom category", core.CategoryStrict, validInput(100, "Pets", 1), false},
		{"free text accepts custom category", core.CategoryFreeText, validInput(100, "Pets", 1), true},
		{"zero amount", core.CategoryStrict, validInput(0, core.Food, 1), false},
		{"missing date", core.CategoryStrict, core.TransactionInput{Amount: core.Money{Cents: 1}, Category: core.Food, Description: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTransactionService(memory.New(), pub, tt.policy)
			_, err := svc.Create(ctx, tt.in)
			if tt.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tt.ok && !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTransactionService_DeleteUnknown(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewTransactionService(store, pub, core.CategoryStrict, inv)

	if _, err := svc.Create(ctx, validInput(500, core.Food, 2)); err != nil {
		t.Fatal(err)
	}
	pub.events, inv.n = nil, 0

	err := svc.Delete(ctx, "does-not-exist")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	txs, _ := svc.List(ctx, ListOptions{})
	if len(txs) != 1 {
		t.Fatalf("expected collection unchanged, got %d", len(txs))
	}
	if len(pub.events) != 0 || inv.n != 0 {
		t.Fatalf("failed delete must not notify: events=%d invalidations=%d", len(pub.events), inv.n)
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memory.New(), &fakePublisher{err: errors.New("broker down")}, core.CategoryStrict)

	id, err := svc.Create(ctx, validInput(100, core.Health, 3))
	if err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}
	if err := svc.Update(ctx, id, validInput(200, core.Health, 3)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestTransactionService_NilPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, core.CategoryStrict)
	if _, err := svc.Create(context.Background(), validInput(100, core.Food, 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestTransactionService_ListFilterAndSort(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memory.New(), nil, core.CategoryStrict)
	for _, in := range []core.TransactionInput{
		{Amount: core.Money{Cents: 300}, Date: core.NewDate(2024, 3, 1), Category: core.Food, Description: "bread"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 2), Category: core.Food, Description: "milk"},
		{Amount: core.Money{Cents: 900}, Date: core.NewDate(2024, 3, 3), Category: core.Shopping, Description: "shoes"},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	txs, err := svc.List(ctx, ListOptions{Query: "FOOD", Field: core.SortByAmount, Direction: core.Ascending})
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].Description != "milk" || txs[1].Description != "bread" {
		t.Fatalf("unexpected list %+v", txs)
	}
}

func TestDashboardService_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	lister := &countingLister{Store: memory.New()}
	dash := NewDashboardService(lister, core.DefaultBudgets(), time.Minute)
	dash.today = func() core.Date { return core.NewDate(2024, 3, 31) }
	svc := NewTransactionService(lister.Store, nil, core.CategoryStrict, dash)

	for _, cents := range []int64{5000, 15000} {
		if _, err := svc.Create(ctx, validInput(cents, core.Food, 4)); err != nil {
			t.Fatal(err)
		}
	}

	d, err := dash.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Summary.TotalSpent.Cents != 20000 || d.Summary.TopCategory != "Food" {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	if _, err := dash.Dashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if n := lister.calls.Load(); n != 1 {
		t.Fatalf("expected cached second read, got %d scans", n)
	}

	if _, err := svc.Create(ctx, validInput(100, core.Health, 5)); err != nil {
		t.Fatal(err)
	}
	d, err = dash.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lister.calls.Load() != 2 || d.Summary.TransactionCount != 3 {
		t.Fatalf("expected re-aggregation after write, scans=%d count=%d", lister.calls.Load(), d.Summary.TransactionCount)
	}
}

func TestDashboardService_CollapsesConcurrentMisses(t *testing.T) {
	lister := &countingLister{Store: memory.New(), delay: 50 * time.Millisecond}
	dash := NewDashboardService(lister, core.DefaultBudgets(), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := dash.Dashboard(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := lister.calls.Load(); n != 1 {
		t.Fatalf("expected a single scan, got %d", n)
	}
}

func TestDashboardService_StoreError(t *testing.T) {
	storeErr := errors.New("disk gone")
	lister := &countingLister{Store: memory.New(), err: storeErr}
	dash := NewDashboardService(lister, core.DefaultBudgets(), 0)

	if _, err := dash.Dashboard(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if dash.Cache() != nil {
		t.Fatal("zero ttl should disable the cache")
	}
}

// gatedLister snapshots the store, then holds the first read until released.
type gatedLister struct {
	*memory.Store
	once     sync.Once
	snapshot chan struct{}
	release  chan struct{}
}

func newGatedLister() *gatedLister {
	return &gatedLister{Store: memory.New(), snapshot: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedLister) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := g.Store.ListTransactions(ctx)
	g.once.Do(func() {
		close(g.snapshot)
		<-g.release
	})
	return txs, err
}

func TestDashboardService_WriteDuringReadIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	lister := newGatedLister()
	dash := NewDashboardService(lister, core.DefaultBudgets(), time.Minute)
	svc := NewTransactionService(lister.Store, nil, core.CategoryStrict, dash)

	done := make(chan core.Dashboard)
	go func() {
		d, err := dash.Dashboard(ctx)
		if err != nil {
			t.Error(err)
		}
		done <- d
	}()

	<-lister.snapshot
	if _, err := svc.Create(ctx, validInput(5000, core.Food, 4)); err != nil {
		t.Fatal(err)
	}
	close(lister.release)
	if d := <-done; d.Summary.TransactionCount != 0 {
		t.Fatalf("in-flight read should see its own snapshot, got %d", d.Summary.TransactionCount)
	}

	d, err := dash.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Summary.TransactionCount != 1 || d.Summary.TotalSpent.Cents != 5000 {
		t.Fatalf("stale dashboard after write: count=%d total=%d", d.Summary.TransactionCount, d.Summary.TotalSpent.Cents)
	}
}

// ctxLister fails like a driver would once its context is done.
type ctxLister struct{ *memory.Store }

func (c ctxLister) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.ListTransactions(ctx)
}

func TestDashboardService_SharedReadIgnoresCallerCancellation(t *testing.T) {
	dash := NewDashboardService(ctxLister{memory.New()}, core.DefaultBudgets(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dash.Dashboard(ctx); err != nil {
		t.Fatalf("shared read must not inherit caller cancellation, got %v", err)
	}
	if dash.Cache().Size() != 1 {
		t.Fatal("expected the snapshot to be cached")
	}
}
