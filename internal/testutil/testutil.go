//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides helpers for tests that need a PostgreSQL
// catalog. Those tests are skipped when no server is reachable.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-findatagen/internal/db"
)

const (
	// ConnEnv names the variable holding the admin connection string.
	ConnEnv = "FINDATAGEN_TEST_CONN"

	// DefaultConnString is used when ConnEnv is unset.
	DefaultConnString = "postgres://postgres@localhost:5432/postgres"

	// DBPrefix prefixes every throwaway catalog database.
	DBPrefix = "findatagen_test_"
)

// AdminConnString returns the connection string of the server used for
// catalog tests.
func AdminConnString() string {
	if s := os.Getenv(ConnEnv); s != "" {
		return s
	}
	return DefaultConnString
}

// PostgresAvailable reports whether the test server accepts connections.
func PostgresAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, AdminConnString(), 1)
	if err != nil {
		return false
	}
	pool.Close()
	return true
}

// SkipIfNoPostgres skips t when the test server is unreachable and
// returns the admin connection string otherwise.
func SkipIfNoPostgres(t *testing.T) string {
	t.Helper()
	if !PostgresAvailable() {
		t.Skip("PostgreSQL not available, skipping catalog test")
	}
	return AdminConnString()
}

// WithDatabase returns connStr pointing at a different database.
func WithDatabase(connStr, dbName string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", err
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

// PostgresCatalogDB creates an empty database for one test and returns
// its connection string. The database is dropped when the test ends,
// unless the test failed.
func PostgresCatalogDB(t *testing.T, suite string) string {
	t.Helper()

	admin := SkipIfNoPostgres(t)

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate database name: %v", err)
	}
	dbName := DBPrefix + suite + "_" + hex.EncodeToString(suffix)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, admin, 1)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	ident := pgx.Identifier{dbName}.Sanitize()
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		t.Fatalf("Failed to create %s: %v", dbName, err)
	}

	connStr, err := WithDatabase(admin, dbName)
	if err != nil {
		t.Fatalf("Failed to build connection string: %v", err)
	}

	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Keeping database %s for diagnostics", dbName)
			return
		}
		dropDatabase(t, admin, dbName)
	})
	return connStr
}

func dropDatabase(t *testing.T, admin, dbName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, admin)
	if err != nil {
		t.Logf("Warning: failed to connect to drop %s: %v", dbName, err)
		return
	}
	defer pool.Close()

	// Catalog pools may still be closing their connections.
	_, _ = pool.Exec(ctx,
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		dbName)

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Logf("Warning: failed to drop %s: %v", dbName, err)
	}
}
