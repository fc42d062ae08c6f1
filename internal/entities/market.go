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
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// SettlementLag is the number of days from trade to settlement.
const SettlementLag = 2

// MessagePrefixLen is the length of the run-wide settlement message prefix.
const MessagePrefixLen = 10

var (
	priceTypes         = []string{"Close", "Open", "Mid", "Bid", "Ask"}
	priceSources       = []string{"Reuters", "Bloomberg", "Internal"}
	sides              = []string{"Buy", "Sell"}
	orderSides         = []string{"Buy", "Sell", "Short Sell"}
	orderTypes         = []string{"Market", "Limit", "Stop"}
	orderStatuses      = []string{"New", "Partially Filled", "Filled", "Cancelled"}
	tradeStatuses      = []string{"Booked", "Confirmed", "Settled", "Cancelled"}
	settlementTypes    = []string{"MT540", "MT541", "MT542", "MT543"}
	settlementStatuses = []string{"Pending", "Matched", "Settled", "Failed"}
)

// priceFactory generates instrument prices.
type priceFactory struct{}

func (priceFactory) Kind() Kind       { return KindPrice }
func (priceFactory) Requires() []Kind { return []Kind{KindInstrument} }
func (priceFactory) Source() string   { return "" }

func (priceFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		r := record.New(10)
		r.Set("price_id", job.StartID+i)
		r.Set("instrument_id", ins.id)
		r.Set("ric", ins.ric)
		r.Set("price", f.Decimal(1, 1000, 4))
		r.Set("currency", f.Currency())
		r.Set("price_type", datagen.Choose(f, priceTypes))
		r.Set("price_source", datagen.Choose(f, priceSources))
		r.Set("price_date", f.DateBetween(gc.Today.AddDays(-30), gc.Today))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// tradeFactory generates executed trades booked to client and firm accounts.
type tradeFactory struct{}

func (tradeFactory) Kind() Kind { return KindTrade }
func (tradeFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (tradeFactory) Source() string { return "" }

func (tradeFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
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

		qty := f.Int(1, MaxPositionQuantity)
		price := f.Decimal(1, 1000, 4)
		tradeDate := f.DateFrom(2016, time.January, 1, gc.Today)

		r := record.New(14)
		r.Set("trade_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("instrument_id", ins.id)
		r.Set("ric", ins.ric)
		r.Set("side", datagen.Choose(f, sides))
		r.Set("quantity", qty)
		r.Set("price", price)
		r.Set("gross_amount", price.Mul(decimal.NewFromInt(int64(qty))).Round(2))
		r.Set("currency", f.Currency())
		r.Set("trade_date", tradeDate)
		r.Set("settlement_date", tradeDate.AddDays(SettlementLag))
		r.Set("status", datagen.Choose(f, tradeStatuses))
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// orderExecutionFactory generates order executions for client and firm
// accounts.
type orderExecutionFactory struct{}

func (orderExecutionFactory) Kind() Kind { return KindOrderExecution }
func (orderExecutionFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (orderExecutionFactory) Source() string { return "" }

func (orderExecutionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	recs := make([]record.Record, 0, job.Quantity)
	ts := gc.Timestamp()

	for i := 0; i < job.Quantity; i++ {
		acct, err := sampleAccount(ctx, gc, TradingAccountTypes)
		if err != nil {
			return nil, err
		}
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		qty := f.Int(1, MaxPositionQuantity)
		status := datagen.Choose(f, orderStatuses)
		executed := 0
		switch status {
		case "Filled":
			executed = qty
		case "Partially Filled":
			if qty > 1 {
				executed = f.Int(1, qty-1)
			} else {
				status = "Filled"
				executed = qty
			}
		}

		orderType := datagen.Choose(f, orderTypes)
		execPrice := f.Decimal(1, 1000, 4)
		var limit any
		if orderType == "Limit" {
			limit = execPrice.Add(f.Decimal(0, 5, 4))
		}
		var execPriceField any
		if executed > 0 {
			execPriceField = execPrice
		}

		r := record.New(16)
		r.Set("order_id", job.StartID+i)
		r.Set("account_id", acct.id)
		r.Set("instrument_id", ins.id)
		r.Set("ric", ins.ric)
		r.Set("side", datagen.Choose(f, orderSides))
		r.Set("order_type", orderType)
		r.Set("quantity", qty)
		r.Set("executed_quantity", executed)
		r.Set("limit_price", limit)
		r.Set("execution_price", execPriceField)
		r.Set("status", status)
		r.Set("venue", venue(ins.ric))
		r.Set("executed_at", ts)
		recs = append(recs, r)
	}
	return finish(recs, gc), nil
}

// venue returns the exchange code part of a RIC.
func venue(ric string) string {
	for i := len(ric) - 1; i >= 0; i-- {
		if ric[i] == '.' {
			return ric[i+1:]
		}
	}
	return ""
}

// settlementInstructionFactory generates settlement messages between
// trading and counterparty accounts.
type settlementInstructionFactory struct{}

func (settlementInstructionFactory) Kind() Kind { return KindSettlementInstruction }
func (settlementInstructionFactory) Requires() []Kind {
	return []Kind{KindInstrument, KindAccount}
}
func (settlementInstructionFactory) Source() string { return "" }

func (settlementInstructionFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	proj := newProjector(catalog.TableSettlementInstructions, 0, gc.Args.CatalogBatchSize)
	recs := make([]record.Record, 0, job.Quantity)
	var prior []string

	for i := 0; i < job.Quantity; i++ {
		id := job.StartID + i
		party, err := sampleAccount(ctx, gc, TradingAccountTypes)
		if err != nil {
			return nil, err
		}
		cpty, err := sampleAccount(ctx, gc, []string{AccountCounterparty})
		if err != nil {
			return nil, err
		}
		ins, err := sampleInstrument(ctx, gc)
		if err != nil {
			return nil, err
		}

		ref := gc.MessagePrefix + strconv.Itoa(id)
		linked := ""
		if len(prior) > 0 && f.Chance(30) {
			linked = datagen.Choose(f, prior)
		}
		qty := f.Int(1, MaxPositionQuantity)
		price := f.Decimal(1, 1000, 4)

		r := record.New(18)
		r.Set("id", id)
		r.Set("message_reference", ref)
		r.Set("linked_message", linked)
		r.Set("message_type", datagen.Choose(f, settlementTypes))
		r.Set("instrument_id", ins.id)
		r.Set("isin", ins.isin)
		r.Set("party_account_id", party.id)
		r.Set("party_iban", party.iban)
		r.Set("counterparty_account_id", cpty.id)
		r.Set("counterparty_iban", cpty.iban)
		r.Set("quantity", qty)
		r.Set("settlement_amount", price.Mul(decimal.NewFromInt(int64(qty))).Round(2))
		r.Set("currency", f.Currency())
		r.Set("trade_date", gc.Today)
		r.Set("settlement_date", gc.Today.AddDays(SettlementLag))
		r.Set("status", datagen.Choose(f, settlementStatuses))
		recs = append(recs, r)
		prior = append(prior, ref)

		if err := proj.add(ctx, gc.Catalog, ref); err != nil {
			return nil, err
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}
