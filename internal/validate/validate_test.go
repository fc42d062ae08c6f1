//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package validate

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-findatagen/internal/config"
)

func validConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SharedArgs.ReferenceTime = "2024-06-28T12:00:00Z"
	cfg.DomainObjects = []config.DomainObject{
		{Kind: "instrument", RecordCount: 5, MaxRecordsPerFile: 3, FileKind: "CSV"},
		{Kind: "counterparty", RecordCount: 4, MaxRecordsPerFile: 10, FileKind: "JSONL"},
		{Kind: "swap_contract", MaxRecordsPerFile: 10, FileKind: "JSON",
			CustomArgs: config.CustomArgs{SwapPerCounterparty: &config.Range{Min: 2, Max: 3}}},
		{Kind: "swap_position", MaxRecordsPerFile: 10, FileKind: "XML",
			CustomArgs: config.CustomArgs{StartDate: "20240601"}},
		{Kind: "cashflow", MaxRecordsPerFile: 10, FileKind: "CSV",
			CustomArgs: config.CustomArgs{CashflowGeneration: []config.CashflowRule{
				{Accrual: "DAILY", PayDatePeriod: "END_OF_MONTH"},
			}}},
	}
	return cfg
}

func TestValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := 150.0
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   []string
	}{
		{"negative record count", func(c *config.Config) { c.DomainObjects[0].RecordCount = -1 },
			[]string{"Record count", "less than 0"}},
		{"zero max per file", func(c *config.Config) { c.DomainObjects[0].MaxRecordsPerFile = 0 },
			[]string{"max_records_per_file 0"}},
		{"unknown file kind", func(c *config.Config) { c.DomainObjects[0].FileKind = "PARQUET" },
			[]string{`file_kind "PARQUET"`}},
		{"inverted swap range", func(c *config.Config) {
			c.DomainObjects[2].CustomArgs.SwapPerCounterparty = &config.Range{Min: 4, Max: 2}
		}, []string{"swap_per_counterparty min 4 is greater than max 2"}},
		{"inverted ins range", func(c *config.Config) {
			c.DomainObjects[3].CustomArgs.InsPerSwap = &config.Range{Min: 3, Max: 1}
		}, []string{"ins_per_swap min 3"}},
		{"malformed start date", func(c *config.Config) { c.DomainObjects[3].CustomArgs.StartDate = "2024-06-01" },
			[]string{"not YYYYMMDD"}},
		{"future start date", func(c *config.Config) { c.DomainObjects[3].CustomArgs.StartDate = "20240629" },
			[]string{"after today"}},
		{"zero generator pool", func(c *config.Config) { c.SharedArgs.GeneratorPoolSize = 0 },
			[]string{"generator_pool_size"}},
		{"zero writer pool", func(c *config.Config) { c.SharedArgs.WriterPoolSize = 0 },
			[]string{"writer_pool_size"}},
		{"zero job size", func(c *config.Config) { c.SharedArgs.PoolJobSize = 0 },
			[]string{"pool_job_size"}},
		{"no cashflow rules", func(c *config.Config) { c.DomainObjects[4].CustomArgs.CashflowGeneration = nil },
			[]string{"at least one cashflow_generation rule"}},
		{"probability out of range", func(c *config.Config) {
			c.DomainObjects[4].CustomArgs.CashflowGeneration[0].Probability = &bad
		}, []string{"probability 150"}},
		{"unknown accrual", func(c *config.Config) {
			c.DomainObjects[4].CustomArgs.CashflowGeneration[0].Accrual = "WEEKLY"
		}, []string{`unknown accrual "WEEKLY"`}},
		{"unknown pay date period", func(c *config.Config) {
			c.DomainObjects[4].CustomArgs.CashflowGeneration[0].PayDatePeriod = "END_OF_YEAR"
		}, []string{"unknown pay_date_period"}},
		{"unknown kind", func(c *config.Config) { c.DomainObjects[0].Kind = "widget" },
			[]string{`unknown kind "widget"`}},
		{"duplicate kind", func(c *config.Config) {
			c.DomainObjects = append(c.DomainObjects, c.DomainObjects[0])
		}, []string{"more than once"}},
		{"missing producer", func(c *config.Config) { c.DomainObjects = c.DomainObjects[2:] },
			[]string{"requires counterparty"}},
		{"bad reference time", func(c *config.Config) { c.SharedArgs.ReferenceTime = "yesterday" },
			[]string{"invalid reference_time"}},
		{"unknown catalog", func(c *config.Config) { c.Catalog.Kind = "oracle" },
			[]string{`unknown kind "oracle"`}},
		{"no entities", func(c *config.Config) { c.DomainObjects = nil },
			[]string{"no entities configured"}},
		{"long delimiter", func(c *config.Config) { c.DomainObjects[0].FileTypeArgs.Delimiter = "||" },
			[]string{"single character"}},
		{"xml root with space", func(c *config.Config) { c.DomainObjects[0].FileTypeArgs.XMLRoot = "my root" },
			[]string{`xml_root "my root" is not a valid XML element name`}},
		{"xml item with digit", func(c *config.Config) { c.DomainObjects[0].FileTypeArgs.XMLItem = "1row" },
			[]string{`xml_item "1row" is not a valid XML element name`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			var errs Errors
			if !errors.As(err, &errs) {
				t.Fatalf("expected Errors, got %v", err)
			}
			msg := err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("error %q does not contain %q", msg, want)
				}
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.DomainObjects[0].RecordCount = -1
	cfg.DomainObjects[1].MaxRecordsPerFile = 0
	cfg.SharedArgs.WriterPoolSize = 0

	var errs Errors
	if !errors.As(Validate(cfg), &errs) {
		t.Fatal("expected Errors")
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(errs), errs)
	}
}

func TestValidateIdempotent(t *testing.T) {
	cfg := validConfig()
	cfg.DomainObjects[0].RecordCount = -1
	cfg.DomainObjects[3].CustomArgs.StartDate = "bogus"
	cfg.Catalog.Kind = "oracle"

	var first, second Errors
	errors.As(Validate(cfg), &first)
	errors.As(Validate(cfg), &second)
	if len(first) == 0 || !slices.Equal(first, second) {
		t.Errorf("validation not idempotent:\n%v\n%v", first, second)
	}
}
