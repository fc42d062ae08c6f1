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
	"testing"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/testutil"
)

func TestPostgresBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	connStr := testutil.PostgresCatalogDB(t, "catalog")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := Open(ctx, Config{Kind: "postgres", DSN: connStr}, 4)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	if err := c.CreateTables(ctx); err != nil {
		t.Fatalf("CreateTables failed: %v", err)
	}
	rows := [][]string{
		{"0", "Client", "GB10ABCD12345678901234"},
		{"1", "Depot", "DE10123456789012345678"},
	}
	if err := c.BulkInsert(ctx, TableAccounts, rows); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}
	if err := c.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	n, err := c.Size(ctx, TableAccounts)
	if err != nil || n != 2 {
		t.Fatalf("Size = %d, %v; want 2", n, err)
	}

	row, err := c.SampleRandomWhere(ctx, TableAccounts, "account_type", []string{"Depot"}, datagen.NewFakerWithSeed(1))
	if err != nil {
		t.Fatalf("SampleRandomWhere failed: %v", err)
	}
	if id, _ := row.Get("account_id"); id != "1" {
		t.Errorf("sampled account_id %q, want 1", id)
	}
}
