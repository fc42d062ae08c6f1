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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-findatagen/internal/db"
)

// postgresSchema holds the catalog tables so they never collide with user
// tables in the target database.
const postgresSchema = "findatagen"

// postgresBackend stores the catalog in a PostgreSQL schema.
type postgresBackend struct {
	pool *pgxpool.Pool
}

func init() {
	Register("postgres", newPostgresBackend)
}

func newPostgresBackend(ctx context.Context, dsn string) (Backend, error) {
	pool, err := db.Connect(ctx, dsn, 0)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(postgresSchema)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &postgresBackend{pool: pool}, nil
}

func qualified(name string) string {
	return quoteIdent(postgresSchema) + "." + quoteIdent(name)
}

func (b *postgresBackend) CreateTable(ctx context.Context, name string, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT NOT NULL"
	}
	batch := &pgx.Batch{}
	batch.Queue("DROP TABLE IF EXISTS " + qualified(name))
	batch.Queue(fmt.Sprintf("CREATE UNLOGGED TABLE %s (%s)", qualified(name), strings.Join(defs, ", ")))
	return pgErr(b.pool.SendBatch(ctx, batch).Close())
}

func (b *postgresBackend) Insert(ctx context.Context, name string, columns []string, rows [][]string) error {
	src := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		src[i] = vals
	}
	// COPY runs as a single statement, so the append is atomic.
	_, err := b.pool.CopyFrom(ctx, pgx.Identifier{postgresSchema, name}, columns, pgx.CopyFromRows(src))
	return pgErr(err)
}

func (b *postgresBackend) Rows(ctx context.Context, name string, columns []string) ([][]string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", joinIdents(columns), qualified(name))
	rows, err := b.pool.Query(ctx, q)
	if err != nil {
		return nil, pgErr(err)
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
			return nil, pgErr(err)
		}
		out = append(out, vals)
	}
	return out, pgErr(rows.Err())
}

func (b *postgresBackend) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := b.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+qualified(name)).Scan(&n)
	return n, pgErr(err)
}

// Commit is a no-op: every insert is its own committed statement.
func (b *postgresBackend) Commit(ctx context.Context) error {
	return nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}

// pgErr marks serialization failures, deadlocks and lock timeouts as
// transient.
func pgErr(err error) error {
	if err == nil {
		return nil
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "40001", "40P01", "55P03":
			return transient(err)
		}
	}
	return err
}
