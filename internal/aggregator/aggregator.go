// Package aggregator keeps the per-source news cache fresh and serves the
// merged feed.
package aggregator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/metrics"
	"github.com/deusflow/newsboard/internal/news"
	"github.com/deusflow/newsboard/internal/sources"
)

const DefaultInterval = time.Hour

// Fetcher loads the current items of one source. Failures are reported as
// an empty result.
type Fetcher interface {
	Fetch(ctx context.Context, src sources.NewsSource) []news.Item
}

// Snapshot is the cache state after the last completed cycle.
type Snapshot struct {
	PerSource   map[string][]news.Item
	LastUpdated time.Time // zero until the first cycle completes
}

// Response is the body of GET /news.
type Response struct {
	Items            []news.Item `json:"items"`
	LastUpdated      time.Time   `json:"lastUpdated"`
	EnabledSourceIDs []string    `json:"enabledSourceIds"`
}

// Aggregator owns the source cache. At most one refresh cycle runs at a
// time; callers arriving during a cycle wait for it instead of starting
// another.
type Aggregator struct {
	sources  []sources.NewsSource
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time

	flight singleflight.Group

	mu          sync.RWMutex
	perSource   map[string][]news.Item
	lastUpdated time.Time
}

func New(srcs []sources.NewsSource, fetcher Fetcher, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Aggregator{
		sources:   srcs,
		fetcher:   fetcher,
		interval:  interval,
		now:       time.Now,
		perSource: make(map[string][]news.Item),
	}
}

func (a *Aggregator) Interval() time.Duration {
	return a.interval
}

// Stale reports whether the cache has never been filled or is older than
// the refresh interval.
func (a *Aggregator) Stale() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastUpdated.IsZero() || a.now().Sub(a.lastUpdated) >= a.interval
}

// EnsureFresh runs a refresh cycle if the cache is stale, or joins the one
// already running. It returns early only if ctx ends while waiting; the
// cycle itself still completes.
func (a *Aggregator) EnsureFresh(ctx context.Context) error {
	if !a.Stale() {
		return nil
	}
	return a.refresh(ctx, false)
}

// Refresh forces a cycle unless one is already running, in which case it
// waits for that one.
func (a *Aggregator) Refresh(ctx context.Context) error {
	return a.refresh(ctx, true)
}

func (a *Aggregator) refresh(ctx context.Context, force bool) error {
	cycleCtx := context.WithoutCancel(ctx)
	ch := a.flight.DoChan("refresh", func() (interface{}, error) {
		// A caller that saw a stale cache may arrive just after a cycle
		// finished.
		if !force && !a.Stale() {
			return nil, nil
		}
		a.runCycle(cycleCtx)
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Aggregator) runCycle(ctx context.Context) {
	start := time.Now()
	results := make([][]news.Item, len(a.sources))

	var g errgroup.Group
	g.SetLimit(max(len(a.sources), 1))
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.fetcher.Fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	a.mu.RLock()
	previous := a.perSource
	a.mu.RUnlock()

	next := make(map[string][]news.Item, len(a.sources))
	counts := make(map[string]int, len(a.sources))
	for i, src := range a.sources {
		items := results[i]
		if len(items) == 0 && len(previous[src.ID]) > 0 {
			// Keep the last good list.
			logger.Warn("source returned no items, keeping previous", "source", src.ID, "kept", len(previous[src.ID]))
			items = previous[src.ID]
		}
		if items == nil {
			items = []news.Item{}
		}
		next[src.ID] = items
		counts[src.ID] = len(results[i])
	}

	a.mu.Lock()
	a.perSource = next
	a.lastUpdated = a.now()
	a.mu.Unlock()

	elapsed := time.Since(start)
	metrics.Global.RecordRefresh(elapsed, counts)
	logger.Info("news refresh completed", "sources", len(a.sources), "duration", elapsed, "fetched", counts)
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{PerSource: a.perSource, LastUpdated: a.lastUpdated}
}

// Counts returns the number of cached items per configured source.
func (a *Aggregator) Counts() map[string]int {
	snap := a.Snapshot()
	counts := make(map[string]int, len(a.sources))
	for _, src := range a.sources {
		counts[src.ID] = len(snap.PerSource[src.ID])
	}
	return counts
}

// SourceIDs returns the configured source ids in order.
func (a *Aggregator) SourceIDs() []string {
	return lo.Map(a.sources, func(s sources.NewsSource, _ int) string { return s.ID })
}

// News ensures the cache is fresh and returns the requested sources
// interleaved. No ids means every configured source. Unknown ids are echoed
// back and contribute nothing.
func (a *Aggregator) News(ctx context.Context, ids []string) (Response, error) {
	if err := a.EnsureFresh(ctx); err != nil {
		return Response{}, err
	}

	ids = lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) })))
	if len(ids) == 0 {
		ids = a.SourceIDs()
	}

	snap := a.Snapshot()
	lists := make([]SourceItems, 0, len(ids))
	for _, id := range ids {
		lists = append(lists, SourceItems{SourceID: id, Items: snap.PerSource[id]})
	}

	lastUpdated := snap.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = a.now()
	}

	return Response{
		Items:            Interleave(lists),
		LastUpdated:      lastUpdated,
		EnabledSourceIDs: ids,
	}, nil
}

// Run refreshes immediately and then on every interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	if err := a.Refresh(ctx); err != nil {
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Refresh(ctx); err != nil {
				logger.Warn("scheduled refresh interrupted", "error", err)
			}
		}
	}
}
