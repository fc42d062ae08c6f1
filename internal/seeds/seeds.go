//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package seeds loads the prerequisite exchange and ticker tables that
// instrument generation draws from.
package seeds

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/currency"
)

//go:embed data/*.csv
var builtin embed.FS

// ExchangeColumns are the columns of the exchanges seed file.
var ExchangeColumns = []string{"country_of_issuance", "exchange_code", "currency"}

// TickerColumns are the columns of the tickers seed file.
var TickerColumns = []string{"symbol"}

// Table is a loaded seed file: its header and rows in file order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// LoadExchanges reads the exchanges seed. An empty path loads the built-in
// table. Every currency must be a valid ISO 4217 code.
func LoadExchanges(path string) (*Table, error) {
	t, err := load(path, "data/exchanges.csv", ExchangeColumns)
	if err != nil {
		return nil, fmt.Errorf("exchanges: %w", err)
	}
	for i, row := range t.Rows {
		if row[0] == "" || row[1] == "" {
			return nil, fmt.Errorf("exchanges: row %d: empty country or exchange code", i+2)
		}
		if _, err := currency.ParseISO(row[2]); err != nil {
			return nil, fmt.Errorf("exchanges: row %d: invalid currency %q: %w", i+2, row[2], err)
		}
	}
	return t, nil
}

// LoadTickers reads the tickers seed. An empty path loads the built-in table.
func LoadTickers(path string) (*Table, error) {
	t, err := load(path, "data/tickers.csv", TickerColumns)
	if err != nil {
		return nil, fmt.Errorf("tickers: %w", err)
	}
	for i, row := range t.Rows {
		if row[0] == "" {
			return nil, fmt.Errorf("tickers: row %d: empty symbol", i+2)
		}
	}
	return t, nil
}

func load(path, builtinName string, want []string) (*Table, error) {
	var r io.ReadCloser
	var err error
	if path == "" {
		r, err = builtin.Open(builtinName)
	} else {
		r, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Parse(r, want)
}

// Parse reads a seed CSV and projects it onto the wanted columns, which
// must all be present in the header. Extra columns are ignored.
func Parse(r io.Reader, want []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty seed file")
		}
		return nil, err
	}

	colIx := make([]int, len(want))
	for i, name := range want {
		colIx[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				colIx[i] = j
				break
			}
		}
		if colIx[i] < 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	t := &Table{Columns: want}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make([]string, len(want))
		for i, ix := range colIx {
			if ix >= len(rec) {
				return nil, fmt.Errorf("line %d: missing field %q", line, want[i])
			}
			row[i] = strings.TrimSpace(rec[ix])
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("seed file has no rows")
	}
	return t, nil
}
