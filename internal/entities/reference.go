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

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Default catalog flush boundaries.
const (
	InstrumentFlushSize = 5000
	AccountFlushSize    = 1000
)

var assetSubclasses = map[string][]string{
	"Equity":     {"Common Stock", "Preferred Stock", "ADR", "GDR"},
	"Fund":       {"ETF", "Mutual Fund", "REIT", "Closed-End Fund"},
	"Derivative": {"Option", "Future", "Warrant", "CFD"},
}

var assetClasses = []string{"Equity", "Fund", "Derivative"}

var industries = []string{
	"Energy", "Materials", "Industrials", "Consumer Discretionary",
	"Consumer Staples", "Health Care", "Financials", "Information Technology",
	"Communication Services", "Utilities", "Real Estate",
}

var (
	accountPurposes = []string{"Fully Paid", "Financed", "Stock Loan", "Rehypo", "Collateral"}
	accountStatuses = []string{"Open", "Closed"}
	creditRatings   = []string{"AAA", "AA+", "AA", "AA-", "A+", "A", "A-", "BBB+", "BBB", "BBB-", "BB"}
)

// instrumentFactory generates instruments from the ticker and exchange
// seeds and publishes their key projection.
type instrumentFactory struct{}

func (instrumentFactory) Kind() Kind       { return KindInstrument }
func (instrumentFactory) Requires() []Kind { return nil }
func (instrumentFactory) Source() string   { return "" }

func (instrumentFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	proj := newProjector(catalog.TableInstruments, InstrumentFlushSize, gc.Args.CatalogBatchSize)
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		id := job.StartID + i

		tickerRow, err := gc.Catalog.SampleRandom(ctx, catalog.TableTickers, f)
		if err != nil {
			return nil, err
		}
		ticker, err := field(tickerRow, catalog.TableTickers, "symbol")
		if err != nil {
			return nil, err
		}

		exRow, err := gc.Catalog.SampleRandom(ctx, catalog.TableExchanges, f)
		if err != nil {
			return nil, err
		}
		country, err := field(exRow, catalog.TableExchanges, "country_of_issuance")
		if err != nil {
			return nil, err
		}
		market, err := field(exRow, catalog.TableExchanges, "exchange_code")
		if err != nil {
			return nil, err
		}
		currency, err := field(exRow, catalog.TableExchanges, "currency")
		if err != nil {
			return nil, err
		}

		primaryRow, err := gc.Catalog.SampleRandom(ctx, catalog.TableExchanges, f)
		if err != nil {
			return nil, err
		}
		primaryMarket, err := field(primaryRow, catalog.TableExchanges, "exchange_code")
		if err != nil {
			return nil, err
		}

		cusip := f.CUSIP()
		ric := datagen.RIC(ticker, market)
		isin := datagen.ISIN(country, cusip)
		class := datagen.Choose(f, assetClasses)

		r := record.New(24)
		r.Set("instrument_id", id)
		r.Set("ticker", ticker)
		r.Set("ric", ric)
		r.Set("cusip", cusip)
		r.Set("isin", isin)
		r.Set("sedol", f.SEDOL())
		r.Set("valoren", f.Valoren())
		r.Set("quick", f.Number(4))
		r.Set("sicovam", f.Number(6))
		r.Set("figi", f.FIGI())
		r.Set("country_of_issuance", country)
		r.Set("market", market)
		r.Set("primary_market", primaryMarket)
		r.Set("is_primary_listing", primaryMarket == market)
		r.Set("currency", currency)
		r.Set("asset_class", class)
		r.Set("asset_subclass", datagen.Choose(f, assetSubclasses[class]))
		r.Set("issuer_name", f.String(10, false))
		r.Set("industry_classification", datagen.Choose(f, industries))
		recs = append(recs, r)

		if err := proj.add(ctx, gc.Catalog, strconv.Itoa(id), ric, cusip, isin, market); err != nil {
			return nil, err
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}

// accountFactory generates accounts and publishes (id, type, iban).
type accountFactory struct{}

func (accountFactory) Kind() Kind       { return KindAccount }
func (accountFactory) Requires() []Kind { return nil }
func (accountFactory) Source() string   { return "" }

func (accountFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	proj := newProjector(catalog.TableAccounts, AccountFlushSize, gc.Args.CatalogBatchSize)
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		id := job.StartID + i
		typ := datagen.Choose(f, AccountTypes)
		iban, err := f.IBAN(datagen.Choose(f, datagen.IBANCountries))
		if err != nil {
			return nil, err
		}

		opening := f.DateFrom(2016, time.January, 1, gc.Today)
		status := datagen.Choose(f, accountStatuses)
		var closing any
		if status == "Closed" {
			closing = f.DateBetween(opening, gc.Today)
		}

		r := record.New(12)
		r.Set("account_id", id)
		r.Set("account_name", f.Company())
		r.Set("account_type", typ)
		r.Set("iban", iban)
		r.Set("base_currency", f.Currency())
		r.Set("purpose", datagen.Choose(f, accountPurposes))
		r.Set("status", status)
		r.Set("opening_date", opening)
		r.Set("closing_date", closing)
		recs = append(recs, r)

		if err := proj.add(ctx, gc.Catalog, strconv.Itoa(id), typ, iban); err != nil {
			return nil, err
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}

// counterpartyFactory generates counterparties and publishes their ids.
type counterpartyFactory struct{}

func (counterpartyFactory) Kind() Kind       { return KindCounterparty }
func (counterpartyFactory) Requires() []Kind { return nil }
func (counterpartyFactory) Source() string   { return "" }

func (counterpartyFactory) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	f := gc.Rand
	proj := newProjector(catalog.TableCounterparties, 0, gc.Args.CatalogBatchSize)
	recs := make([]record.Record, 0, job.Quantity)

	for i := 0; i < job.Quantity; i++ {
		id := job.StartID + i

		r := record.New(8)
		r.Set("id", id)
		r.Set("name", f.Company())
		r.Set("lei", f.String(20, true))
		r.Set("country", datagen.Choose(f, datagen.IBANCountries))
		r.Set("credit_rating", datagen.Choose(f, creditRatings))
		recs = append(recs, r)

		if err := proj.add(ctx, gc.Catalog, strconv.Itoa(id)); err != nil {
			return nil, err
		}
	}

	if err := proj.flush(ctx, gc.Catalog); err != nil {
		return nil, err
	}
	return finish(recs, gc), nil
}
