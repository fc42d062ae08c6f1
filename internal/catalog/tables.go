//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgEdge/pgedge-findatagen/internal/logging"
)

// Catalog table names.
const (
	TableTickers                = "tickers"
	TableExchanges              = "exchanges"
	TableInstruments            = "instruments"
	TableAccounts               = "accounts"
	TableCounterparties         = "counterparties"
	TableSwapContracts          = "swap_contracts"
	TableSwapPositions          = "swap_positions"
	TableSettlementInstructions = "settlement_instructions"
	TableRunMetadata            = "run_metadata"
)

// Schemas lists the columns of every catalog table.
var Schemas = map[string][]string{
	TableTickers:   {"symbol"},
	TableExchanges: {"country_of_issuance", "exchange_code", "currency"},
	TableInstruments: {
		"instrument_id", "ric", "cusip", "isin", "market",
	},
	TableAccounts:       {"account_id", "account_type", "iban"},
	TableCounterparties: {"id"},
	TableSwapContracts:  {"id", "counterparty_id", "currency"},
	TableSwapPositions: {
		"swap_contract_id", "ric", "position_type", "effective_date",
		"long_short", "quantity", "currency",
	},
	TableSettlementInstructions: {"message_reference"},
	TableRunMetadata:            {"key", "value"},
}

// CreateTables (re)creates every catalog table, leaving them empty.
func (c *Catalog) CreateTables(ctx context.Context) error {
	names := make([]string, 0, len(Schemas))
	for name := range Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.CreateTable(ctx, name, Schemas[name]); err != nil {
			return err
		}
	}
	return nil
}

// SaveRunMetadata records run information (seed, version, start time)
// in the run_metadata table.
func (c *Catalog) SaveRunMetadata(ctx context.Context, metadata map[string]string) error {
	if _, ok := c.Columns(TableRunMetadata); !ok {
		if err := c.CreateTable(ctx, TableRunMetadata, Schemas[TableRunMetadata]); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, metadata[k]})
	}
	if err := c.BulkInsert(ctx, TableRunMetadata, rows); err != nil {
		return fmt.Errorf("failed to save run metadata: %w", err)
	}

	logging.Debug().Int("keys", len(keys)).Msg("Saved run metadata")
	return nil
}

// RunMetadata returns the run metadata as a map.
func (c *Catalog) RunMetadata(ctx context.Context) (map[string]string, error) {
	rows, err := c.SelectAll(ctx, TableRunMetadata)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		k, _ := r.Get("key")
		v, _ := r.Get("value")
		out[k] = v
	}
	return out, nil
}
