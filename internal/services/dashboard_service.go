package services

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/gateway"
	applog "fintrack/internal/log"
)

// DashboardService aggregates the whole collection into dashboard view
// models. Results are cached per calendar day until the next mutation.
type DashboardService struct {
	store   gateway.TransactionLister
	budgets core.Budgets
	cache   *cache.LRUCache[core.Dashboard]
	group   singleflight.Group
	today   func() core.Date

	// generation is bumped by Invalidate. A read only caches its snapshot
	// if no mutation landed while it was loading.
	generation atomic.Uint64
}

// NewDashboardService caches snapshots for ttl. A zero ttl disables caching.
func NewDashboardService(store gateway.TransactionLister, budgets core.Budgets, ttl time.Duration) *DashboardService {
	s := &DashboardService{
		store:   store,
		budgets: budgets,
		today:   core.Today,
	}
	if ttl > 0 {
		s.cache = cache.NewLRUCache[core.Dashboard](8, ttl)
	}
	return s
}

// Cache exposes the snapshot cache for registration with a cache.Manager.
// It is nil when caching is disabled.
func (s *DashboardService) Cache() *cache.LRUCache[core.Dashboard] {
	return s.cache
}

func (s *DashboardService) Budgets() core.Budgets {
	return s.budgets
}

// Dashboard returns every aggregate for the current collection. Concurrent
// misses share one store read.
func (s *DashboardService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	today := s.today()
	key := today.String()
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
	}

	gen := s.generation.Load()
	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		// Joined callers must not fail because the first one went away.
		ctx := context.WithoutCancel(ctx)
		start := time.Now()
		txs, err := s.store.ListTransactions(ctx)
		if err != nil {
			return core.Dashboard{}, fmt.Errorf("load transactions: %w", err)
		}
		d := core.BuildDashboard(txs, s.budgets, today)
		s.remember(key, gen, d)
		applog.FromContext(ctx).WithComponent(applog.ComponentDashboard).DebugContext(ctx, "Dashboard aggregated",
			applog.FieldOperation, applog.OpAggregate,
			applog.FieldCount, len(txs),
			applog.FieldDuration, time.Since(start).Milliseconds())
		return d, nil
	})
	if err != nil {
		return core.Dashboard{}, err
	}
	return v.(core.Dashboard), nil
}

// remember caches d unless a mutation happened since gen was read. The
// second check covers an Invalidate racing with the Set.
func (s *DashboardService) remember(key string, gen uint64, d core.Dashboard) {
	if s.cache == nil || s.generation.Load() != gen {
		return
	}
	s.cache.Set(key, d)
	if s.generation.Load() != gen {
		s.cache.Delete(key)
	}
}

// Invalidate drops cached snapshots so the next read re-aggregates. Reads
// already in flight finish but do not cache their result.
func (s *DashboardService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
}
