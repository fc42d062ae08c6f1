//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Backend is the storage engine behind a Catalog. Every column is text.
//
// Backends do not need to be safe for concurrent writers; the Catalog
// serializes writes and lets reads run in parallel.
type Backend interface {
	// CreateTable drops any existing table of that name and creates an
	// empty one.
	CreateTable(ctx context.Context, name string, columns []string) error

	// Insert appends rows atomically. Each row has one value per column.
	Insert(ctx context.Context, name string, columns []string, rows [][]string) error

	// Rows returns every row of the table in unspecified order.
	Rows(ctx context.Context, name string, columns []string) ([][]string, error)

	// Count returns the number of rows in the table.
	Count(ctx context.Context, name string) (int, error)

	// Commit makes previous inserts durable.
	Commit(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Config selects a backend kind and its data source.
type Config struct {
	Kind string
	DSN  string
}

type backendFactory func(ctx context.Context, dsn string) (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]backendFactory{}
)

// Register makes a backend available under kind. It panics on an empty
// kind, a nil factory or a duplicate registration.
func Register(kind string, f backendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if kind == "" {
		panic("catalog: Register called with empty kind")
	}
	if f == nil {
		panic("catalog: Register called with nil factory")
	}
	if _, exists := backends[kind]; exists {
		panic(fmt.Sprintf("catalog: backend already registered for kind=%q", kind))
	}
	backends[kind] = f
}

// Kinds returns the registered backend kinds in sorted order.
func Kinds() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	kinds := make([]string, 0, len(backends))
	for k := range backends {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// OpenBackend constructs the backend registered under cfg.Kind.
func OpenBackend(ctx context.Context, cfg Config) (Backend, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("catalog: missing backend kind")
	}

	backendsMu.RLock()
	f, ok := backends[cfg.Kind]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("catalog: unsupported backend kind %q", cfg.Kind)
	}
	return f(ctx, cfg.DSN)
}

var identRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(id string) error {
	if !identRE.MatchString(id) {
		return fmt.Errorf("invalid identifier %q", id)
	}
	return nil
}

func quoteIdent(id string) string {
	return `"` + id + `"`
}
