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
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Snapshot is an immutable, sorted copy of a table. Rows are ordered by
// every column in turn, so index-based sampling with a seeded stream does
// not depend on the order concurrent workers inserted them.
type Snapshot struct {
	columns []string
	index   map[string]int
	rows    [][]string

	mu      sync.Mutex
	filters map[string][]int
}

func newSnapshot(columns []string, rows [][]string) *Snapshot {
	slices.SortFunc(rows, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Snapshot{
		columns: columns,
		index:   index,
		rows:    rows,
		filters: make(map[string][]int),
	}
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	return len(s.rows)
}

// Row returns row i.
func (s *Snapshot) Row(i int) Row {
	return Row{index: s.index, values: s.rows[i]}
}

// matching returns the indexes of rows whose column is one of allowed.
// Results are memoized per filter since the snapshot never changes.
func (s *Snapshot) matching(column string, allowed []string) ([]int, error) {
	ix, ok := s.index[column]
	if !ok {
		return nil, fmt.Errorf("no column %q", column)
	}
	key := column + "\x00" + strings.Join(allowed, "\x00")

	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.filters[key]; ok {
		return m, nil
	}
	var m []int
	for i, r := range s.rows {
		if slices.Contains(allowed, r[ix]) {
			m = append(m, i)
		}
	}
	s.filters[key] = m
	return m, nil
}

// Row is one catalog row.
type Row struct {
	index  map[string]int
	values []string
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns, values []string) Row {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return Row{index: index, values: values}
}

// Get returns the value of a column.
func (r Row) Get(column string) (string, bool) {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return "", false
	}
	return r.values[i], true
}

// Values returns the row values in column order.
func (r Row) Values() []string {
	return r.values
}
