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
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by reads on an absent or empty table, and by
	// filtered samples that match no row.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks backend errors that are worth retrying, such as
	// lock contention.
	ErrTransient = errors.New("transient catalog error")
)

// StorageError reports a failed catalog operation.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Table: table, Err: err}
}

func notFound(table string) error {
	return fmt.Errorf("table %s: %w", table, ErrNotFound)
}

func transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
