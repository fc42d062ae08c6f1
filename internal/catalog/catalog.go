//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package catalog is the in-run store of cross-reference keys. Entities
// generated early in a run write their key projections here so that later
// entities can reference them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/pgEdge/pgedge-findatagen/internal/logging"
)

// DefaultCacheSize is the number of table snapshots kept when none is set.
const DefaultCacheSize = 64

// maxRetries bounds retries of transient backend failures.
const maxRetries = 3

// Rand is the random source used for sampling.
type Rand interface {
	IntN(n int) int
}

// Catalog fronts a Backend with single-writer, multi-reader access and a
// cache of sorted table snapshots used for sampling.
type Catalog struct {
	backend Backend
	mu      sync.RWMutex
	schemas map[string][]string
	cache   *lru.Cache
	loads   singleflight.Group
}

// Open opens a backend by kind and wraps it in a Catalog.
func Open(ctx context.Context, cfg Config, cacheSize int) (*Catalog, error) {
	b, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := New(b, cacheSize)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	logging.Debug().Str("kind", cfg.Kind).Msg("Catalog opened")
	return c, nil
}

// New wraps an open backend.
func New(b Backend, cacheSize int) (*Catalog, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create snapshot cache: %w", err)
	}
	return &Catalog{
		backend: b,
		schemas: make(map[string][]string),
		cache:   cache,
	}, nil
}

// CreateTable (re)creates an empty table with text columns.
func (c *Catalog) CreateTable(ctx context.Context, name string, columns []string) error {
	if err := checkIdent(name); err != nil {
		return storageErr("create", name, err)
	}
	if len(columns) == 0 {
		return storageErr("create", name, errors.New("no columns"))
	}
	for _, col := range columns {
		if err := checkIdent(col); err != nil {
			return storageErr("create", name, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.CreateTable(ctx, name, columns); err != nil {
		return storageErr("create", name, err)
	}
	c.schemas[name] = slices.Clone(columns)
	c.cache.Remove(name)
	return nil
}

// BulkInsert appends rows to a table in one atomic step. Every row must
// have exactly one value per column.
func (c *Catalog) BulkInsert(ctx context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cols, ok := c.schemas[name]
	if !ok {
		return storageErr("insert", name, notFound(name))
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return storageErr("insert", name,
				fmt.Errorf("schema mismatch: row %d has %d values, table has %d columns",
					i, len(row), len(cols)))
		}
	}

	err := c.retry(ctx, func() error {
		return c.backend.Insert(ctx, name, cols, rows)
	})
	c.cache.Remove(name)
	return storageErr("insert", name, err)
}

// SelectAll returns every row of a table in snapshot order.
func (c *Catalog) SelectAll(ctx context.Context, name string) ([]Row, error) {
	snap, err := c.nonEmpty(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]Row, snap.Len())
	for i := range out {
		out[i] = snap.Row(i)
	}
	return out, nil
}

// SelectColumn returns one column of a table in snapshot order.
func (c *Catalog) SelectColumn(ctx context.Context, name, column string) ([]string, error) {
	snap, err := c.nonEmpty(ctx, name)
	if err != nil {
		return nil, err
	}
	ix, ok := snap.index[column]
	if !ok {
		return nil, storageErr("select", name, fmt.Errorf("no column %q", column))
	}
	out := make([]string, len(snap.rows))
	for i, r := range snap.rows {
		out[i] = r[ix]
	}
	return out, nil
}

// SampleRandom returns a row drawn uniformly from the table.
func (c *Catalog) SampleRandom(ctx context.Context, name string, rng Rand) (Row, error) {
	snap, err := c.nonEmpty(ctx, name)
	if err != nil {
		return Row{}, err
	}
	return snap.Row(rng.IntN(snap.Len())), nil
}

// SampleRandomWhere returns a row drawn uniformly from those whose column
// holds one of the allowed values. It fails with ErrNotFound when no row
// matches.
func (c *Catalog) SampleRandomWhere(ctx context.Context, name, column string, allowed []string, rng Rand) (Row, error) {
	snap, err := c.nonEmpty(ctx, name)
	if err != nil {
		return Row{}, err
	}
	matches, err := snap.matching(column, allowed)
	if err != nil {
		return Row{}, storageErr("sample", name, err)
	}
	if len(matches) == 0 {
		return Row{}, fmt.Errorf("table %s: no row with %s in %v: %w", name, column, allowed, ErrNotFound)
	}
	return snap.Row(matches[rng.IntN(len(matches))]), nil
}

// Size returns the number of rows in a table.
func (c *Catalog) Size(ctx context.Context, name string) (int, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(*Snapshot).Len(), nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.schemas[name]; !ok {
		return 0, notFound(name)
	}
	var n int
	err := c.retry(ctx, func() error {
		var err error
		n, err = c.backend.Count(ctx, name)
		return err
	})
	if err != nil {
		return 0, storageErr("count", name, err)
	}
	return n, nil
}

// Slice returns up to n rows starting at offset, in snapshot order. It is
// how implicit-count entities walk their source table in fixed chunks.
func (c *Catalog) Slice(ctx context.Context, name string, offset, n int) ([]Row, error) {
	snap, err := c.snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= snap.Len() || n <= 0 {
		return nil, nil
	}
	end := min(offset+n, snap.Len())
	out := make([]Row, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, snap.Row(i))
	}
	return out, nil
}

// Columns returns the columns of a table created in this run.
func (c *Catalog) Columns(name string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cols, ok := c.schemas[name]
	return cols, ok
}

// Commit makes buffered inserts durable and drops cached snapshots, so
// the next entity reads what the previous one wrote.
func (c *Catalog) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.Commit(ctx); err != nil {
		return storageErr("commit", "", err)
	}
	c.cache.Purge()
	return nil
}

// Close releases the backend.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
	return c.backend.Close()
}

func (c *Catalog) nonEmpty(ctx context.Context, name string) (*Snapshot, error) {
	snap, err := c.snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, fmt.Errorf("table %s is empty: %w", name, ErrNotFound)
	}
	return snap, nil
}

func (c *Catalog) snapshot(ctx context.Context, name string) (*Snapshot, error) {
	if v, ok := c.cache.Get(name); ok {
		return v.(*Snapshot), nil
	}

	v, err, _ := c.loads.Do(name, func() (any, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		if v, ok := c.cache.Get(name); ok {
			return v, nil
		}
		cols, ok := c.schemas[name]
		if !ok {
			return nil, notFound(name)
		}

		var rows [][]string
		err := c.retry(ctx, func() error {
			var err error
			rows, err = c.backend.Rows(ctx, name, cols)
			return err
		})
		if err != nil {
			return nil, storageErr("select", name, err)
		}

		snap := newSnapshot(cols, rows)
		// Added under the read lock so an insert cannot slip in between
		// the load and the cache fill.
		c.cache.Add(name, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// retry runs op, retrying transient failures up to maxRetries times.
func (c *Catalog) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransient) {
			return backoff.Permanent(err)
		}
		logging.Debug().Err(err).Int("attempt", attempt).Msg("Retrying catalog operation")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}
