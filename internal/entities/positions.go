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

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Back-office position types: settlement-dated and trade-dated.
const (
	PositionSD = "SD"
	PositionTD = "TD"
)

// TradeDateLag is the number of days between knowledge and effective date
// of a trade-dated position.
const TradeDateLag = 2

var (
	cashPurposes      = []string{"Cash", "Margin", "Collateral", "Fees"}
	stockLoanStatuses = []string{"Open", "Returned", "Recalled"}
)

// backOfficePositionFactory generates settlement and trade dated positions
// held by client, firm and counterparty accounts.
type backOfficePositionFactory struct{}

func (backOfficePositionFactory) Kind() Kind { return KindBackOfficePosition }
func (backOfficePositionFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (backOfficePositionFactory) Source() string { return "" }

func (backOfficePositionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		acct, err := sampleAccount(ctx, gc, BackOfficeAccountTypes)
		if err != nil {
			return nil, err
		}
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		typ := datagen.Choose(f, []string{PositionSD, PositionTD})
		knowledge := gc.Today
		effective := knowledge
		if typ == PositionTD {
			effective = knowledge.AddDays(TradeDateLag)
		}

		r := record.New(14)
		r.Set("position_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("instrument_id", ins.id)
		r.Set("ric", ins.ric)
		r.Set("position_type", typ)
		r.Set("knowledge_date", knowledge)
		r.Set("effective_date", effective)
		r.Set("quantity", signedQuantity(f))
		r.Set("currency", f.Currency())
		r.Set("purpose", datagen.ChooseWeighted(f, purposes, purposeWeights))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// frontOfficePositionFactory generates valued trading positions held by
// client and firm accounts.
type frontOfficePositionFactory struct{}

func (frontOfficePositionFactory) Kind() Kind { return KindFrontOfficePosition }
func (frontOfficePositionFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (frontOfficePositionFactory) Source() string { return "" }

func (frontOfficePositionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		acct, err := sampleAccount(ctx, gc, TradingAccountTypes)
		if err != nil {
			return nil, err
		}
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		qty := signedQuantity(f)
		price := f.Decimal(1, 1000, 4)

		r := record.New(14)
		r.Set("position_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("instrument_id", ins.id)
		r.Set("ric", ins.ric)
		r.Set("knowledge_date", gc.Today)
		r.Set("effective_date", gc.Today)
		r.Set("quantity", qty)
		r.Set("price", price)
		r.Set("market_value", price.Mul(decimal.NewFromInt(int64(qty))).Round(2))
		r.Set("currency", f.Currency())
		r.Set("purpose", datagen.ChooseWeighted(f, purposes, purposeWeights))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// depotPositionFactory generates long-only custody positions held by depot
// accounts.
type depotPositionFactory struct{}

func (depotPositionFactory) Kind() Kind { return KindDepotPosition }
func (depotPositionFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (depotPositionFactory) Source() string { return "" }

func (depotPositionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		acct, err := sampleAccount(ctx, gc, DepotAccountTypes)
		if err != nil {
			return nil, err
		}
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		r := record.New(12)
		r.Set("position_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("instrument_id", ins.id)
		r.Set("isin", ins.isin)
		r.Set("knowledge_date", gc.Today)
		r.Set("effective_date", gc.Today)
		r.Set("quantity", f.Int(1, MaxPositionQuantity))
		r.Set("depot_location", datagen.Choose(f, datagen.IBANCountries))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// cashBalanceFactory generates cash balances of client and firm accounts.
type cashBalanceFactory struct{}

func (cashBalanceFactory) Kind() Kind       { return KindCashBalance }
func (cashBalanceFactory) Requires() []Kind { return []Kind{KindAccount} }
func (cashBalanceFactory) Source() string   { return "" }

func (cashBalanceFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		acct, err := sampleAccount(ctx, gc, TradingAccountTypes)
		if err != nil {
			return nil, err
		}

		r := record.New(10)
		r.Set("balance_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("currency", f.Currency())
		r.Set("purpose", datagen.Choose(f, cashPurposes))
		r.Set("amount", f.Decimal(-1000000, 1000000, 2))
		r.Set("knowledge_date", gc.Today)
		r.Set("effective_date", gc.Today)
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// stockLoanPositionFactory generates securities lending positions.
type stockLoanPositionFactory struct{}

func (stockLoanPositionFactory) Kind() Kind       { return KindStockLoanPosition }
func (stockLoanPositionFactory) Requires() []Kind { return []Kind{KindInstrument} }
func (stockLoanPositionFactory) Source() string   { return "" }

func (stockLoanPositionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		knowledge := gc.Today
		r := record.New(14)
		r.Set("stock_loan_id", job.StartID+i)
		r.Set("instrument_id", ins.id)
		r.Set("isin", ins.isin)
		r.Set("knowledge_date", knowledge)
		r.Set("effective_date", knowledge)
		r.Set("termination_date", f.DateBetween(knowledge, knowledge.AddDays(365)))
		r.Set("td_qty", f.Int(1, MaxPositionQuantity))
		r.Set("sd_qty", f.Int(1, MaxPositionQuantity))
		r.Set("loan_rate", f.Decimal(0.05, 12, 4))
		r.Set("currency", f.Currency())
		r.Set("status", datagen.Choose(f, stockLoanStatuses))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}
