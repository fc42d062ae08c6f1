//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package driver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/validate"
	"github.com/pgEdge/pgedge-findatagen/pkg/version"
)

const referenceTime = "2024-06-28T12:00:00Z"

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SharedArgs.ReferenceTime = referenceTime
	cfg.SharedArgs.PoolJobSize = 3
	cfg.SharedArgs.GeneratorPoolSize = 3
	cfg.SharedArgs.WriterPoolSize = 2
	return cfg
}

func object(dir, kind string, count, perFile int, fileKind string) config.DomainObject {
	return config.DomainObject{
		Kind:              kind,
		RecordCount:       count,
		MaxRecordsPerFile: perFile,
		FileKind:          fileKind,
		OutputDirectory:   filepath.Join(dir, kind),
		FileName:          kind,
	}
}

// readJSONL returns every object in the JSONL files of dir.
func readJSONL(t *testing.T, dir string) []map[string]any {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 1024*1024), 1024*1024)
		for sc.Scan() {
			var m map[string]any
			if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
				t.Fatalf("%s: %v", path, err)
			}
			out = append(out, m)
		}
		f.Close()
	}
	return out
}

func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func TestMinimalInstruments(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.DomainObjects = []config.DomainObject{object(dir, "instrument", 5, 3, "CSV")}

	summary, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Entities[0].Status != StatusOK || summary.Entities[0].Result.Files != 2 {
		t.Errorf("summary = %+v", summary.Entities[0])
	}

	files, _ := filepath.Glob(filepath.Join(dir, "instrument", "*.csv"))
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	b, _ := os.ReadFile(filepath.Join(dir, "instrument", "instrument_001.csv"))
	if n := strings.Count(string(b), "\n"); n != 4 {
		t.Errorf("first file has %d lines, want 4", n)
	}
	b, _ = os.ReadFile(filepath.Join(dir, "instrument", "instrument_002.csv"))
	if n := strings.Count(string(b), "\n"); n != 3 {
		t.Errorf("second file has %d lines, want 3", n)
	}
}

func TestSummaryCarriesRunMetadata(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	seed := uint64(17)
	cfg.Seed = &seed
	cfg.DomainObjects = []config.DomainObject{object(dir, "instrument", 2, 10, "CSV")}

	summary, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"seed":           "17",
		"reference_time": referenceTime,
		"version":        version.Version,
	}
	for k, v := range want {
		if got := summary.Metadata[k]; got != v {
			t.Errorf("metadata %s = %q, want %q", k, got, v)
		}
	}
}

func TestAccountsAndCashBalances(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.DomainObjects = []config.DomainObject{
		object(dir, "cash_balance", 20, 100, "JSONL"),
		object(dir, "account", 10, 100, "JSONL"),
	}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	types := make(map[int]string)
	for _, a := range readJSONL(t, filepath.Join(dir, "account")) {
		types[num(a["account_id"])] = a["account_type"].(string)
	}
	if len(types) != 10 {
		t.Fatalf("got %d accounts, want 10", len(types))
	}

	balances := readJSONL(t, filepath.Join(dir, "cash_balance"))
	if len(balances) != 20 {
		t.Fatalf("got %d cash balances, want 20", len(balances))
	}
	for _, b := range balances {
		typ, ok := types[num(b["account_id"])]
		if !ok {
			t.Errorf("cash balance references unknown account %v", b["account_id"])
		}
		if typ != entities.AccountClient && typ != entities.AccountFirm {
			t.Errorf("cash balance references %s account", typ)
		}
	}
}

func TestSwapContractsFromCounterparties(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	swaps := object(dir, "swap_contract", 0, 100, "JSONL")
	swaps.CustomArgs.SwapPerCounterparty = &config.Range{Min: 2, Max: 3}
	cfg.DomainObjects = []config.DomainObject{
		object(dir, "counterparty", 4, 100, "JSONL"),
		swaps,
	}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	rows := readJSONL(t, filepath.Join(dir, "swap_contract"))
	if len(rows) < 8 || len(rows) > 12 {
		t.Fatalf("got %d swap contracts, want 8-12", len(rows))
	}
	for _, r := range rows {
		if cp := num(r["counterparty_id"]); cp < 0 || cp > 3 {
			t.Errorf("counterparty_id %d out of range", cp)
		}
	}
}

func swapConfig(dir string) *config.Config {
	cfg := baseConfig()
	swaps := object(dir, "swap_contract", 0, 100, "JSONL")
	swaps.CustomArgs.SwapPerCounterparty = &config.Range{Min: 1, Max: 1}
	positions := object(dir, "swap_position", 0, 100, "JSONL")
	positions.CustomArgs.InsPerSwap = &config.Range{Min: 1, Max: 1}
	positions.CustomArgs.StartDate = "20240628"
	cashflows := object(dir, "cashflow", 0, 100, "JSONL")
	cashflows.CustomArgs.CashflowGeneration = []config.CashflowRule{
		{Type: "INT", Accrual: entities.AccrualDaily, PayDatePeriod: entities.PayEndOfMonth},
	}
	cfg.DomainObjects = []config.DomainObject{
		cashflows,
		positions,
		swaps,
		object(dir, "instrument", 10, 100, "JSONL"),
		object(dir, "counterparty", 2, 100, "JSONL"),
	}
	return cfg
}

func TestSwapChain(t *testing.T) {
	dir := t.TempDir()
	summary, err := Run(context.Background(), swapConfig(dir))
	if err != nil {
		t.Fatal(err)
	}

	order := make([]entities.Kind, 0, len(summary.Entities))
	for _, e := range summary.Entities {
		order = append(order, e.Kind)
	}
	want := []entities.Kind{entities.KindInstrument, entities.KindCounterparty,
		entities.KindSwapContract, entities.KindSwapPosition, entities.KindCashFlow}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}

	positions := readJSONL(t, filepath.Join(dir, "swap_position"))
	if len(positions) != 6 {
		t.Errorf("got %d swap positions, want 6", len(positions))
	}

	cashflows := readJSONL(t, filepath.Join(dir, "cashflow"))
	if len(cashflows) != 2 {
		t.Fatalf("got %d cashflows, want one per end of day position", len(cashflows))
	}
	for _, c := range cashflows {
		if c["pay_date"] != "2024-06-30" {
			t.Errorf("pay_date = %v, want 2024-06-30", c["pay_date"])
		}
	}
}

func TestValidationFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.DomainObjects = []config.DomainObject{object(dir, "instrument", -1, 3, "CSV")}

	summary, err := Run(context.Background(), cfg)
	var errs validate.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validate.Errors, got %v", err)
	}
	if summary != nil {
		t.Error("expected no summary")
	}
	if !strings.Contains(err.Error(), "Record count") || !strings.Contains(err.Error(), "less than 0") {
		t.Errorf("error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("output created: %v", entries)
	}
}

func TestFailureSkipsRemaining(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()

	// The account output directory cannot be created.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	accounts := object(dir, "account", 5, 10, "CSV")
	accounts.OutputDirectory = filepath.Join(blocker, "accounts")
	cfg.DomainObjects = []config.DomainObject{
		accounts,
		object(dir, "trade", 5, 10, "CSV"),
		object(dir, "instrument", 5, 10, "CSV"),
	}

	summary, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected run failure")
	}
	got := map[entities.Kind]Status{}
	for _, e := range summary.Entities {
		got[e.Kind] = e.Status
	}
	if got[entities.KindAccount] != StatusFailed || got[entities.KindTrade] != StatusSkipped {
		t.Errorf("statuses = %v", got)
	}
}

func TestSeededRunsMatch(t *testing.T) {
	seed := uint64(2024)
	run := func() string {
		dir := t.TempDir()
		cfg := swapConfig(dir)
		cfg.Seed = &seed
		cfg.DomainObjects = append(cfg.DomainObjects,
			object(dir, "account", 30, 7, "CSV"),
			object(dir, "settlement_instruction", 25, 10, "XML"),
			object(dir, "price", 12, 5, "JSON"),
		)
		if _, err := Run(context.Background(), cfg); err != nil {
			t.Fatal(err)
		}
		return dir
	}

	a, b := run(), run()
	var compared int
	err := filepath.Walk(a, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(a, path)
		want, _ := os.ReadFile(path)
		got, err := os.ReadFile(filepath.Join(b, rel))
		if err != nil {
			t.Errorf("%s missing from second run", rel)
			return nil
		}
		if !bytes.Equal(want, got) {
			t.Errorf("%s differs between seeded runs", rel)
		}
		compared++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if compared < 8 {
		t.Errorf("compared only %d files", compared)
	}
}

func TestMessagePrefixIsSeeded(t *testing.T) {
	seed := uint64(5)
	a := datagen.NewStream(&seed, "message_prefix", 0).String(entities.MessagePrefixLen, true)
	b := datagen.NewStream(&seed, "message_prefix", 0).String(entities.MessagePrefixLen, true)
	if a != b || len(a) != entities.MessagePrefixLen {
		t.Errorf("prefixes %q and %q", a, b)
	}
}
