//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package validate checks a configuration before any work starts.
package validate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
	"github.com/pgEdge/pgedge-findatagen/internal/writers"
)

// Errors is the list of problems found in a configuration.
type Errors []string

func (e Errors) Error() string {
	if len(e) == 1 {
		return "invalid configuration: " + e[0]
	}
	return fmt.Sprintf("invalid configuration (%d errors):\n  %s",
		len(e), strings.Join(e, "\n  "))
}

// Validate checks cfg and returns every problem found, or nil. Dates are
// compared with the configured reference time, or the wall clock.
func Validate(cfg *config.Config) error {
	v := &validator{}

	now, err := cfg.Now()
	if err != nil {
		v.addf("shared_args: %v", err)
		now = time.Now()
	}
	v.today = record.NewDate(now)

	v.shared(cfg)
	v.fileBuilders(cfg)
	v.domainObjects(cfg)

	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	today record.Date
	errs  Errors
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) shared(cfg *config.Config) {
	sa := cfg.SharedArgs
	if sa.GeneratorPoolSize <= 0 {
		v.addf("shared_args: generator_pool_size %d must be greater than 0", sa.GeneratorPoolSize)
	}
	if sa.WriterPoolSize <= 0 {
		v.addf("shared_args: writer_pool_size %d must be greater than 0", sa.WriterPoolSize)
	}
	if sa.PoolJobSize <= 0 {
		v.addf("shared_args: pool_job_size %d must be greater than 0", sa.PoolJobSize)
	}
	if sa.ProgressInterval < 0 {
		v.addf("shared_args: progress_interval %d is less than 0", sa.ProgressInterval)
	}
	if !slices.Contains(catalog.Kinds(), cfg.Catalog.Kind) {
		v.addf("catalog: unknown kind %q (available: %s)",
			cfg.Catalog.Kind, strings.Join(catalog.Kinds(), ", "))
	}
	if cfg.Catalog.CacheSize < 0 {
		v.addf("catalog: cache_size %d is less than 0", cfg.Catalog.CacheSize)
	}
}

func (v *validator) fileBuilders(cfg *config.Config) {
	seen := make(map[string]bool)
	for i, fb := range cfg.FileBuilders {
		name := strings.ToUpper(fb.Name)
		if _, err := writers.Get(name); err != nil {
			v.addf("file_builders[%d]: no writer for %q", i, fb.Name)
		}
		if seen[name] {
			v.addf("file_builders[%d]: duplicate name %q", i, fb.Name)
		}
		seen[name] = true
	}
}

func (v *validator) domainObjects(cfg *config.Config) {
	if len(cfg.DomainObjects) == 0 {
		v.addf("domain_objects: no entities configured")
		return
	}

	configured := make(map[entities.Kind]bool)
	for _, obj := range cfg.DomainObjects {
		configured[entities.Kind(obj.Kind)] = true
	}

	seen := make(map[entities.Kind]bool)
	for i, obj := range cfg.DomainObjects {
		where := fmt.Sprintf("domain_objects[%d] (%s)", i, obj.Kind)
		kind := entities.Kind(obj.Kind)

		f, err := entities.Get(kind)
		if err != nil {
			v.addf("%s: unknown kind %q", where, obj.Kind)
		} else {
			for _, req := range f.Requires() {
				if !configured[req] {
					v.addf("%s: requires %s, which is not configured", where, req)
				}
			}
		}
		if seen[kind] {
			v.addf("%s: kind configured more than once", where)
		}
		seen[kind] = true

		if obj.RecordCount < 0 {
			v.addf("%s: Record count %d is less than 0", where, obj.RecordCount)
		}
		if obj.StartID < 0 {
			v.addf("%s: start_id %d is less than 0", where, obj.StartID)
		}
		if obj.MaxRecordsPerFile <= 0 {
			v.addf("%s: max_records_per_file %d must be greater than 0", where, obj.MaxRecordsPerFile)
		}
		if _, ok := cfg.Extension(obj.FileKind); !ok {
			v.addf("%s: file_kind %q has no file builder", where, obj.FileKind)
		} else if _, err := writers.Get(obj.FileKind); err != nil {
			v.addf("%s: file_kind %q has no writer", where, obj.FileKind)
		}
		if d := obj.FileTypeArgs.Delimiter; d != "" && len([]rune(d)) != 1 {
			v.addf("%s: delimiter %q must be a single character", where, d)
		}
		for _, x := range [][2]string{
			{"xml_root", obj.FileTypeArgs.XMLRoot},
			{"xml_item", obj.FileTypeArgs.XMLItem},
		} {
			if x[1] != "" && !writers.ValidXMLName(x[1]) {
				v.addf("%s: %s %q is not a valid XML element name", where, x[0], x[1])
			}
		}

		v.customArgs(where, kind, obj.CustomArgs)
	}
}

func (v *validator) customArgs(where string, kind entities.Kind, args config.CustomArgs) {
	if args.SwapPerCounterparty != nil {
		v.checkRange(where, "swap_per_counterparty", *args.SwapPerCounterparty)
	}
	if args.InsPerSwap != nil {
		v.checkRange(where, "ins_per_swap", *args.InsPerSwap)
	}
	if args.StartDate != "" {
		start, err := config.ParseStartDate(args.StartDate)
		if err != nil {
			v.addf("%s: start_date %q is not YYYYMMDD", where, args.StartDate)
		} else if start.After(v.today.Time) {
			v.addf("%s: start_date %s is after today (%s)", where, args.StartDate, v.today)
		}
	}
	if args.CatalogBatchSize < 0 {
		v.addf("%s: catalog_batch_size %d is less than 0", where, args.CatalogBatchSize)
	}
	if args.DummyFields < 0 {
		v.addf("%s: dummy_fields %d is less than 0", where, args.DummyFields)
	}

	if kind == entities.KindCashFlow && len(args.CashflowGeneration) == 0 {
		v.addf("%s: at least one cashflow_generation rule is required", where)
	}
	for i, rule := range args.CashflowGeneration {
		if !entities.ValidAccrual(rule.Accrual) {
			v.addf("%s: cashflow_generation[%d]: unknown accrual %q", where, i, rule.Accrual)
		}
		if !entities.ValidPayDatePeriod(rule.PayDatePeriod) {
			v.addf("%s: cashflow_generation[%d]: unknown pay_date_period %q", where, i, rule.PayDatePeriod)
		}
		if p := rule.Chance(); p < 0 || p > 100 {
			v.addf("%s: cashflow_generation[%d]: probability %g is outside [0, 100]", where, i, p)
		}
	}
}

func (v *validator) checkRange(where, name string, r config.Range) {
	if r.Min > r.Max {
		v.addf("%s: %s min %d is greater than max %d", where, name, r.Min, r.Max)
	}
	if r.Min < 0 {
		v.addf("%s: %s min %d is less than 0", where, name, r.Min)
	}
	if r.Max <= 0 {
		v.addf("%s: %s max %d must be greater than 0", where, name, r.Max)
	}
}
