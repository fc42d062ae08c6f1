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
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Swap contract statuses.
const (
	SwapLive = "Live"
	SwapDead = "Dead"
)

// DeadSwapTermYears is the term of a dead swap contract.
const DeadSwapTermYears = 5

// Swap position snapshot types: start of day, intraday and end of day.
const (
	SwapPositionStart    = "S"
	SwapPositionIntraday = "I"
	SwapPositionEnd      = "E"
)

// SwapPositionTypes lists the snapshots emitted for every day.
var SwapPositionTypes = []string{SwapPositionStart, SwapPositionIntraday, SwapPositionEnd}

// Position directions.
const (
	Long  = "Long"
	Short = "Short"
)

// Cashflow accrual kinds.
const (
	AccrualDaily     = "DAILY"
	AccrualQuarterly = "QUARTERLY"
	AccrualChance    = "CHANCE_ACCRUAL"
)

// Cashflow pay date periods.
const (
	PayEndOfMonth = "END_OF_MONTH"
	PayEndOfHalf  = "END_OF_HALF"
)

// SwapPositionFlushSize bounds the end-of-day rows buffered per job.
const SwapPositionFlushSize = 5000

// Defaults for unset custom argument ranges.
var (
	DefaultSwapPerCounterparty = config.Range{Min: 1, Max: 5}
	DefaultInsPerSwap          = config.Range{Min: 1, Max: 5}
)

var swapTypes = []string{"Equity Swap", "Total Return Swap", "Portfolio Swap", "CFD"}

// ValidAccrual reports whether s is a known accrual kind.
func ValidAccrual(s string) bool {
	switch s {
	case AccrualDaily, AccrualQuarterly, AccrualChance:
		return true
	}
	return false
}

// ValidPayDatePeriod reports whether s is a known pay date period.
func ValidPayDatePeriod(s string) bool {
	switch s {
	case PayEndOfMonth, PayEndOfHalf:
		return true
	}
	return false
}

// SwapPerCounterparty returns the configured or default range.
func SwapPerCounterparty(args config.CustomArgs) config.Range {
	if args.SwapPerCounterparty != nil {
		return *args.SwapPerCounterparty
	}
	return DefaultSwapPerCounterparty
}

// InsPerSwap returns the configured or default range.
func InsPerSwap(args config.CustomArgs) config.Range {
	if args.InsPerSwap != nil {
		return *args.InsPerSwap
	}
	return DefaultInsPerSwap
}

// SwapStartDate returns the first swap position date. An unset start date
// means today.
func SwapStartDate(args config.CustomArgs, today record.Date) (record.Date, error) {
	if args.StartDate == "" {
		return today, nil
	}
	t, err := config.ParseStartDate(args.StartDate)
	if err != nil {
		return record.Date{}, fmt.Errorf("invalid start_date %q: %w", args.StartDate, err)
	}
	return record.NewDate(t), nil
}

// SwapDays returns the number of days in [start, today], zero when start
// lies after today.
func SwapDays(start, today record.Date) int {
	if start.After(today.Time) {
		return 0
	}
	return int(today.Sub(start.Time).Hours()/24) + 1
}

// PayDate returns the pay date of a cashflow accrued on effective.
func PayDate(effective record.Date, period string) record.Date {
	y, m, _ := effective.Date()
	if period == PayEndOfHalf {
		if m <= time.June {
			return record.NewDate(time.Date(y, time.June, 30, 0, 0, 0, 0, time.UTC))
		}
		return record.NewDate(time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC))
	}
	// Day zero of the next month is the last day of this one.
	return record.NewDate(time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC))
}

// isQuarterEnd reports whether d is the last day of a calendar quarter.
func isQuarterEnd(d record.Date) bool {
	if d.Month()%3 != 0 {
		return false
	}
	return d.AddDays(1).Day() == 1
}

// swapContractFactory generates between min and max swap contracts per
// counterparty.
type swapContractFactory struct{}

func (swapContractFactory) Kind() Kind       { return KindSwapContract }
func (swapContractFactory) Requires() []Kind { return []Kind{KindCounterparty} }
func (swapContractFactory) Source() string   { return catalog.TableCounterparties }

func (swapContractFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	rng := SwapPerCounterparty(gc.Args)
	proj := newProjector(catalog.TableSwapContracts, 0, gc.Args.CatalogBatchSize)

	cps, err := gc.Catalog.Slice(ctx, catalog.TableCounterparties, job.SourceOffset, job.Quantity)
	if err != nil {
		return nil, err
	}

	var recs []record.Record
	for _, cp := range cps {
		cpID, err := fieldInt(cp, catalog.TableCounterparties, "id")
		if err != nil {
			return nil, err
		}

		k := f.Int(rng.Min, rng.Max)
		for j := 0; j < k; j++ {
			id := f.UUID()
			status := datagen.Choose(f, []string{SwapLive, SwapDead})
			start := f.DateFrom(2016, time.January, 1, gc.Today)
			var end any
			if status == SwapDead {
				end = record.Date{Time: start.AddDate(DeadSwapTermYears, 0, 0)}
			}
			currency := f.Currency()

			r := record.New(12)
			r.Set("id", id)
			r.Set("counterparty_id", cpID)
			r.Set("swap_type", datagen.Choose(f, swapTypes))
			r.Set("status", status)
			r.Set("start_date", start)
			r.Set("end_date", end)
			r.Set("currency", currency)
			r.Set("notional", f.Decimal(100000, 50000000, 2))
			recs = append(recs, r)

			if err := proj.add(ctx, gc.Catalog, id, strconv.Itoa(cpID), currency); err != nil {
				return nil, err
			}
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}

// swapPositionFactory generates start, intraday and end of day positions
// for every instrument held by a swap contract, for each day from the
// start date to today.
type swapPositionFactory struct{}

func (swapPositionFactory) Kind() Kind { return KindSwapPosition }
func (swapPositionFactory) Requires() []Kind {
	return []Kind{KindSwapContract, KindInstrument}
}
func (swapPositionFactory) Source() string { return catalog.TableSwapContracts }

func (swapPositionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	rng := InsPerSwap(gc.Args)
	proj := newProjector(catalog.TableSwapPositions, SwapPositionFlushSize, gc.Args.CatalogBatchSize)

	start, err := SwapStartDate(gc.Args, gc.Today)
	if err != nil {
		return nil, err
	}
	days := SwapDays(start, gc.Today)

	contracts, err := gc.Catalog.Slice(ctx, catalog.TableSwapContracts, job.SourceOffset, job.Quantity)
	if err != nil {
		return nil, err
	}

	var recs []record.Record
	for _, c := range contracts {
		contractID, err := field(c, catalog.TableSwapContracts, "id")
		if err != nil {
			return nil, err
		}
		currency, err := field(c, catalog.TableSwapContracts, "currency")
		if err != nil {
			return nil, err
		}

		m := f.Int(rng.Min, rng.Max)
		for j := 0; j < m; j++ {
			ins, err := sampleInstrument(ctx, gc)
			if err != nil {
				return nil, err
			}
			direction := datagen.Choose(f, []string{Long, Short})

			for d := 0; d < days; d++ {
				day := start.AddDays(d)
				for _, typ := range SwapPositionTypes {
					qty := f.Int(1, MaxPositionQuantity)
					if direction == Short {
						qty = -qty
					}

					r := record.New(12)
					r.Set("swap_contract_id", contractID)
					r.Set("instrument_id", ins.id)
					r.Set("ric", ins.ric)
					r.Set("position_type", typ)
					r.Set("knowledge_date", day)
					r.Set("effective_date", day)
					r.Set("long_short", direction)
					r.Set("quantity", qty)
					r.Set("currency", currency)
					recs = append(recs, r)

					if typ != SwapPositionEnd {
						continue
					}
					if err := proj.add(ctx, gc.Catalog, contractID, ins.ric, typ,
						day.String(), direction, strconv.Itoa(qty), currency); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}

// cashFlowFactory accrues cashflows on end of day swap positions according
// to the configured rules.
type cashFlowFactory struct{}

func (cashFlowFactory) Kind() Kind       { return KindCashFlow }
func (cashFlowFactory) Requires() []Kind { return []Kind{KindSwapPosition} }
func (cashFlowFactory) Source() string   { return catalog.TableSwapPositions }

func (cashFlowFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	rules := gc.Args.CashflowGeneration

	positions, err := gc.Catalog.Slice(ctx, catalog.TableSwapPositions, job.SourceOffset, job.Quantity)
	if err != nil {
		return nil, err
	}

	var recs []record.Record
	for _, p := range positions {
		typ, err := field(p, catalog.TableSwapPositions, "position_type")
		if err != nil {
			return nil, err
		}
		if typ != SwapPositionEnd {
			continue
		}

		contractID, err := field(p, catalog.TableSwapPositions, "swap_contract_id")
		if err != nil {
			return nil, err
		}
		ric, err := field(p, catalog.TableSwapPositions, "ric")
		if err != nil {
			return nil, err
		}
		direction, err := field(p, catalog.TableSwapPositions, "long_short")
		if err != nil {
			return nil, err
		}
		currency, err := field(p, catalog.TableSwapPositions, "currency")
		if err != nil {
			return nil, err
		}
		eff, err := field(p, catalog.TableSwapPositions, "effective_date")
		if err != nil {
			return nil, err
		}
		effective, err := record.ParseDate(eff)
		if err != nil {
			return nil, fmt.Errorf("malformed %s row: effective_date: %w", catalog.TableSwapPositions, err)
		}

		for _, rule := range rules {
			if !accrues(f, rule, effective) {
				continue
			}
			amount := f.Decimal(0.01, 10000, 2)
			if direction == Short {
				amount = amount.Neg()
			}
			cfType := rule.Type
			if cfType == "" {
				cfType = "INT"
			}

			r := record.New(12)
			r.Set("cashflow_id", f.UUID())
			r.Set("swap_contract_id", contractID)
			r.Set("ric", ric)
			r.Set("cashflow_type", cfType)
			r.Set("accrual", rule.Accrual)
			r.Set("effective_date", effective)
			r.Set("pay_date", PayDate(effective, rule.PayDatePeriod))
			r.Set("amount", amount)
			r.Set("currency", currency)
			recs = append(recs, r)
		}
	}
	return finish(recs, gc), nil
}

// accrues decides whether a rule fires for a position on effective.
func accrues(f *datagen.Faker, rule config.CashflowRule, effective record.Date) bool {
	switch rule.Accrual {
	case AccrualQuarterly:
		if !isQuarterEnd(effective) {
			return false
		}
		return f.Chance(rule.Chance())
	case AccrualDaily, AccrualChance:
		return f.Chance(rule.Chance())
	default:
		return false
	}
}
