//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package entities

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Account types.
const (
	AccountClient       = "Client"
	AccountFirm         = "Firm"
	AccountCounterparty = "Counterparty"
	AccountDepot        = "Depot"
)

// AccountTypes is the set account_type is drawn from.
var AccountTypes = []string{AccountClient, AccountFirm, AccountCounterparty, AccountDepot}

// Account types each position kind may reference.
var (
	TradingAccountTypes    = []string{AccountClient, AccountFirm}
	BackOfficeAccountTypes = []string{AccountClient, AccountFirm, AccountCounterparty}
	DepotAccountTypes      = []string{AccountDepot}
)

// MaxPositionQuantity bounds the absolute quantity of a position.
const MaxPositionQuantity = 10000

var purposes = []string{"Outright", "Financed", "Stock Loan", "Rehypo", "Collateral"}

// purposeWeights skews positions towards outright holdings.
var purposeWeights = []int{50, 20, 10, 10, 10}

// projector buffers rows of a catalog projection and flushes them every
// batch rows and at the end of the job.
type projector struct {
	table string
	batch int
	rows  [][]string
}

// newProjector returns a projector for table. A positive override
// replaces the kind's default flush boundary; a batch of zero flushes
// only at the end of the job.
func newProjector(table string, batch, override int) *projector {
	if override > 0 {
		batch = override
	}
	return &projector{table: table, batch: batch}
}

func (p *projector) add(ctx context.Context, c *catalog.Catalog, row ...string) error {
	p.rows = append(p.rows, row)
	if p.batch > 0 && len(p.rows) >= p.batch {
		return p.flush(ctx, c)
	}
	return nil
}

func (p *projector) flush(ctx context.Context, c *catalog.Catalog) error {
	if len(p.rows) == 0 {
		return nil
	}
	if err := c.BulkInsert(ctx, p.table, p.rows); err != nil {
		return err
	}
	p.rows = p.rows[:0]
	return nil
}

// field reads a column that a catalog row must carry.
func field(row catalog.Row, table, column string) (string, error) {
	v, ok := row.Get(column)
	if !ok {
		return "", fmt.Errorf("malformed %s row: missing column %q", table, column)
	}
	return v, nil
}

// fieldInt reads an integer column.
func fieldInt(row catalog.Row, table, column string) (int, error) {
	v, err := field(row, table, column)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("malformed %s row: column %q: %w", table, column, err)
	}
	return n, nil
}

// instrumentRef is the part of an instrument other entities copy.
type instrumentRef struct {
	id   int
	ric  string
	isin string
}

func sampleInstrument(ctx context.Context, gc *GenContext) (instrumentRef, error) {
	row, err := gc.Catalog.SampleRandom(ctx, catalog.TableInstruments, gc.Rand)
	if err != nil {
		return instrumentRef{}, err
	}
	var ref instrumentRef
	if ref.id, err = fieldInt(row, catalog.TableInstruments, "instrument_id"); err != nil {
		return ref, err
	}
	if ref.ric, err = field(row, catalog.TableInstruments, "ric"); err != nil {
		return ref, err
	}
	if ref.isin, err = field(row, catalog.TableInstruments, "isin"); err != nil {
		return ref, err
	}
	return ref, nil
}

// accountRef is the part of an account other entities copy.
type accountRef struct {
	id   int
	typ  string
	iban string
}

func sampleAccount(ctx context.Context, gc *GenContext, types []string) (accountRef, error) {
	row, err := gc.Catalog.SampleRandomWhere(ctx, catalog.TableAccounts, "account_type", types, gc.Rand)
	if err != nil {
		return accountRef{}, err
	}
	var ref accountRef
	if ref.id, err = fieldInt(row, catalog.TableAccounts, "account_id"); err != nil {
		return ref, err
	}
	if ref.typ, err = field(row, catalog.TableAccounts, "account_type"); err != nil {
		return ref, err
	}
	if ref.iban, err = field(row, catalog.TableAccounts, "iban"); err != nil {
		return ref, err
	}
	return ref, nil
}

// signedQuantity returns a non-zero quantity with |q| <= MaxPositionQuantity.
func signedQuantity(f *datagen.Faker) int {
	q := f.Int(1, MaxPositionQuantity)
	if f.Bool() {
		return -q
	}
	return q
}

// stampTimestamps sets created and updated on every record to one clock
// reading.
func stampTimestamps(recs []record.Record, gc *GenContext) {
	ts := gc.Timestamp()
	for i := range recs {
		recs[i].Set("created", ts)
		recs[i].Set("updated", ts)
	}
}

// padDummyFields appends n filler columns to every record.
func padDummyFields(recs []record.Record, n int, f *datagen.Faker) {
	if n <= 0 {
		return
	}
	for i := range recs {
		for j := 1; j <= n; j++ {
			recs[i].Set("dummy_field_"+strconv.Itoa(j), f.String(10, true))
		}
	}
}

// finish applies the shared post-processing to a generated batch.
func finish(recs []record.Record, gc *GenContext) []record.Record {
	stampTimestamps(recs, gc)
	padDummyFields(recs, gc.Args.DummyFields, gc.Rand)
	return recs
}
