package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ledgerbook/internal/cache"
	"ledgerbook/internal/tables"
)

const (
	defaultCacheTTL  = 60 * time.Second
	defaultCacheSize = 64
)

// Cached decorates a TableStore with a short-TTL read cache keyed by
// (table, schema). Invalidation is deliberately coarse: any successful write
// purges the whole cache, as does an explicit Refresh.
type Cached struct {
	next  TableStore
	cache *cache.TTLCache[[]tables.Row]

	stopSweep chan struct{}
	closeOnce sync.Once

	// onMutation, when set, is called after every successful write with the
	// table name and operation. Used to broadcast invalidation events to
	// sibling processes; never blocks or fails the write.
	onMutation func(table, op string)
}

// WithCache wraps next with a read cache of the given TTL.
// A non-positive ttl falls back to the default.
func WithCache(next TableStore, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &Cached{
		next:      next,
		cache:     cache.New[[]tables.Row](defaultCacheSize, ttl),
		stopSweep: make(chan struct{}),
	}
	go c.sweep(ttl)
	return c
}

// sweep drops expired snapshots so an idle process does not keep whole-table
// copies in memory between requests.
func (c *Cached) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.cache.CleanExpired(); n > 0 {
				slog.Debug("Swept expired table snapshots", "count", n)
			}
		case <-c.stopSweep:
			return
		}
	}
}

// Close stops the background sweep. Reads and writes remain usable.
func (c *Cached) Close() {
	c.closeOnce.Do(func() { close(c.stopSweep) })
}

// OnMutation registers a post-write hook.
func (c *Cached) OnMutation(fn func(table, op string)) {
	c.onMutation = fn
}

func (c *Cached) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	key := sc.Key()
	if rows, ok := c.cache.Get(key); ok {
		slog.DebugContext(ctx, "Table cache hit", "table", sc.Table, "rows", len(rows))
		return copyRows(rows), nil
	}
	rows, err := c.next.ReadTable(ctx, sc)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, copyRows(rows))
	return rows, nil
}

func (c *Cached) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	if err := c.next.WriteTable(ctx, sc, rows); err != nil {
		return err
	}
	c.invalidate(sc.Table, "write")
	return nil
}

func (c *Cached) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	if err := c.next.AppendRow(ctx, sc, row); err != nil {
		return err
	}
	c.invalidate(sc.Table, "append")
	return nil
}

// Refresh purges the read cache. Exposed to the presentation layer for the
// explicit user "refresh" action, and to the invalidation-event consumer.
func (c *Cached) Refresh() {
	c.cache.PurgeAll()
}

func (c *Cached) invalidate(table, op string) {
	c.cache.PurgeAll()
	if c.onMutation != nil {
		c.onMutation(table, op)
	}
}

// copyRows guards cached slices against mutation by callers.
func copyRows(rows []tables.Row) []tables.Row {
	out := make([]tables.Row, len(rows))
	for i, r := range rows {
		cp := make(tables.Row, len(r))
		copy(cp, r)
		out[i] = cp
	}
	return out
}
