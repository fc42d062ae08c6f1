//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package entities defines the entity factories that produce records.
package entities

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Kind names an entity type. Config files refer to entities by Kind.
type Kind string

// Entity kinds.
const (
	KindInstrument            Kind = "instrument"
	KindAccount               Kind = "account"
	KindCounterparty          Kind = "counterparty"
	KindBackOfficePosition    Kind = "back_office_position"
	KindFrontOfficePosition   Kind = "front_office_position"
	KindDepotPosition         Kind = "depot_position"
	KindCashBalance           Kind = "cash_balance"
	KindCashFlow              Kind = "cashflow"
	KindPrice                 Kind = "price"
	KindStockLoanPosition     Kind = "stock_loan_position"
	KindOrderExecution        Kind = "order_execution"
	KindSwapContract          Kind = "swap_contract"
	KindSwapPosition          Kind = "swap_position"
	KindSettlementInstruction Kind = "settlement_instruction"
	KindTrade                 Kind = "trade"
)

// Independent lists the kinds that read nothing but seed tables, in the
// order they run.
var Independent = []Kind{KindInstrument, KindAccount, KindCounterparty}

// Job is one unit of generation work.
type Job struct {
	// Seq is the position of the job within its entity, starting at 0.
	Seq int

	// StartID is the first primary key of the job.
	StartID int

	// Quantity is the number of records to produce or, for implicit-count
	// kinds, the number of source rows to consume.
	Quantity int

	// SourceOffset is the first source row consumed by an implicit-count job.
	SourceOffset int
}

// GenContext carries everything a factory needs to generate a job.
type GenContext struct {
	Catalog *catalog.Catalog
	Rand    *datagen.Faker
	Args    config.CustomArgs

	// Now is the reference time of the run. Today is its calendar date.
	Now   time.Time
	Today record.Date

	// Pinned is set when Now comes from configuration rather than the
	// wall clock.
	Pinned bool

	// MessagePrefix is the run-wide prefix of settlement message references.
	MessagePrefix string
}

// Timestamp returns the clock reading stamped on one batch of records.
func (gc *GenContext) Timestamp() time.Time {
	if gc.Pinned || gc.Now.IsZero() {
		return gc.Now.UTC()
	}
	return time.Now().UTC()
}

// Factory generates the records of one entity kind.
type Factory interface {
	// Kind returns the entity kind.
	Kind() Kind

	// Requires returns the kinds whose catalog projections this factory
	// reads. They must run first.
	Requires() []Kind

	// Source returns the catalog table walked by implicit-count kinds, or
	// "" when the record count comes from configuration.
	Source() string

	// Generate produces the records of one job.
	Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error)
}

// FactoryError reports a failed generate job.
type FactoryError struct {
	Kind Kind
	Seq  int
	Err  error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("%s job %d: %v", e.Kind, e.Seq, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

var (
	registry = make(map[Kind]Factory)
	mu       sync.RWMutex
)

// Register adds a factory to the registry.
func Register(f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[f.Kind()] = f
}

// Get retrieves a factory by kind.
func Get(kind Kind) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
	return f, nil
}

// List returns all registered kinds in sorted order.
func List() []Kind {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// IsIndependent reports whether kind belongs to the independent phase.
func IsIndependent(kind Kind) bool {
	for _, k := range Independent {
		if k == kind {
			return true
		}
	}
	return false
}

func init() {
	for _, f := range []Factory{
		instrumentFactory{},
		accountFactory{},
		counterpartyFactory{},
		backOfficePositionFactory{},
		frontOfficePositionFactory{},
		depotPositionFactory{},
		cashBalanceFactory{},
		stockLoanPositionFactory{},
		priceFactory{},
		tradeFactory{},
		orderExecutionFactory{},
		settlementInstructionFactory{},
		swapContractFactory{},
		swapPositionFactory{},
		cashFlowFactory{},
	} {
		Register(f)
	}
}
