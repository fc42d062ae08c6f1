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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteBackend stores the catalog in an embedded SQLite database. An
// empty DSN means a private in-memory database.
type sqliteBackend struct {
	db     *sql.DB
	memory bool
}

func init() {
	Register("sqlite", newSQLiteBackend)
}

func newSQLiteBackend(ctx context.Context, dsn string) (Backend, error) {
	memory := dsn == "" || dsn == ":memory:"
	if memory {
		dsn = ":memory:"
	} else if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database lives and dies with it, and
	// the Catalog already serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteBackend{db: db, memory: memory}, nil
}

func (b *sqliteBackend) CreateTable(ctx context.Context, name string, columns []string) error {
	if _, err := b.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return sqliteErr(err)
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT NOT NULL"
	}
	q := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	_, err := b.db.ExecContext(ctx, q)
	return sqliteErr(err)
}

func (b *sqliteBackend) Insert(ctx context.Context, name string, columns []string, rows [][]string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), joinIdents(columns),
		strings.TrimRight(strings.Repeat("?,", len(columns)), ","))
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return sqliteErr(err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return sqliteErr(err)
		}
	}
	return sqliteErr(tx.Commit())
}

func (b *sqliteBackend) Rows(ctx context.Context, name string, columns []string) ([][]string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", joinIdents(columns), quoteIdent(name))
	rows, err := b.db.QueryContext(ctx, q)
	if err != nil {
		return nil, sqliteErr(err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals := make([]string, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, sqliteErr(err)
		}
		out = append(out, vals)
	}
	return out, sqliteErr(rows.Err())
}

func (b *sqliteBackend) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n)
	return n, sqliteErr(err)
}

func (b *sqliteBackend) Commit(ctx context.Context) error {
	if b.memory {
		return nil
	}
	_, err := b.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)")
	return sqliteErr(err)
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

// sqliteErr marks busy and locked errors as transient.
func sqliteErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return transient(err)
		}
	}
	return err
}

func joinIdents(ids []string) string {
	q := make([]string, len(ids))
	for i, id := range ids {
		q[i] = quoteIdent(id)
	}
	return strings.Join(q, ", ")
}
