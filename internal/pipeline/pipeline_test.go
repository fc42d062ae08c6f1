//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/planner"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
	"github.com/pgEdge/pgedge-findatagen/internal/seeds"
	"github.com/pgEdge/pgedge-findatagen/internal/writers"
)

var testNow = time.Date(2024, time.June, 28, 12, 0, 0, 0, time.UTC)

func baseContext(t *testing.T) entities.GenContext {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.Open(ctx, catalog.Config{Kind: "sqlite"}, 16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	if err := cat.CreateTables(ctx); err != nil {
		t.Fatal(err)
	}
	ex, _ := seeds.LoadExchanges("")
	tk, _ := seeds.LoadTickers("")
	if err := cat.BulkInsert(ctx, catalog.TableExchanges, ex.Rows); err != nil {
		t.Fatal(err)
	}
	if err := cat.BulkInsert(ctx, catalog.TableTickers, tk.Rows); err != nil {
		t.Fatal(err)
	}
	return entities.GenContext{
		Catalog:       cat,
		Now:           testNow,
		Today:         record.NewDate(testNow),
		Pinned:        true,
		MessagePrefix: "PIPELINE01",
	}
}

func instrumentConfig(dir string, count, perFile int, seed *uint64) Config {
	return Config{
		Job: planner.EntityJob{
			Kind:       entities.KindInstrument,
			Count:      count,
			FileName:   "instruments",
			OutputDir:  dir,
			MaxPerFile: perFile,
			FileKind:   "CSV",
			Extension:  ".csv",
			JobSize:    1,
		},
		Generators: 3,
		Writers:    2,
		Seed:       seed,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestFileCount(t *testing.T) {
	tests := []struct {
		count, perFile, jobSize int
		wantFiles               int
	}{
		{5, 3, 1, 2},
		{6, 3, 2, 2},
		{10, 4, 3, 3},
		{1, 10, 5, 1},
		{0, 10, 5, 0},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		seed := uint64(7)
		cfg := instrumentConfig(dir, tt.count, tt.perFile, &seed)
		c, err := New(cfg, baseContext(t))
		if err != nil {
			t.Fatal(err)
		}

		res, err := c.Run(context.Background(), planner.Jobs(tt.count, 0, tt.jobSize))
		if err != nil {
			t.Fatalf("Run(%d/%d) failed: %v", tt.count, tt.perFile, err)
		}
		if int(res.Files) != tt.wantFiles || int(res.Records) != tt.count {
			t.Errorf("count %d per file %d: files %d records %d", tt.count, tt.perFile, res.Files, res.Records)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != tt.wantFiles {
			t.Errorf("found %d files, want %d", len(entries), tt.wantFiles)
		}
		for i, e := range entries {
			rows := readCSV(t, filepath.Join(dir, e.Name()))
			want := tt.perFile
			if i == len(entries)-1 {
				want = tt.count - tt.perFile*(tt.wantFiles-1)
			}
			if len(rows)-1 != want {
				t.Errorf("%s has %d rows, want %d", e.Name(), len(rows)-1, want)
			}
		}
		if c.Session().State() != entities.StateClosed {
			t.Errorf("session state = %s, want closed", c.Session().State())
		}
	}
}

func TestMinimalInstruments(t *testing.T) {
	dir := t.TempDir()
	c, err := New(instrumentConfig(dir, 5, 3, nil), baseContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), planner.Jobs(5, 0, 2)); err != nil {
		t.Fatal(err)
	}

	first := readCSV(t, filepath.Join(dir, "instruments_001.csv"))
	second := readCSV(t, filepath.Join(dir, "instruments_002.csv"))
	if len(first) != 4 || len(second) != 3 {
		t.Fatalf("rows = %d, %d; want 4, 3", len(first), len(second))
	}

	// Records follow job order across files
	var ids []string
	for _, rows := range [][][]string{first, second} {
		for _, row := range rows[1:] {
			ids = append(ids, row[0])
		}
	}
	if strings.Join(ids, ",") != "0,1,2,3,4" {
		t.Errorf("instrument ids = %v", ids)
	}
}

func TestSeededOutputIsStable(t *testing.T) {
	run := func() [][]byte {
		dir := t.TempDir()
		seed := uint64(99)
		c, err := New(instrumentConfig(dir, 40, 15, &seed), baseContext(t))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.Run(context.Background(), planner.Jobs(40, 0, 7)); err != nil {
			t.Fatal(err)
		}
		var out [][]byte
		for i := 1; i <= 3; i++ {
			b, err := os.ReadFile(filepath.Join(dir, writers.FileName("instruments", i, ".csv")))
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, b)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("file %d differs between seeded runs", i+1)
		}
	}
}

func TestFactoryFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := instrumentConfig(dir, 20, 5, nil)
	cfg.Job.Kind = entities.KindTrade
	cfg.Job.FileName = "trades"

	c, err := New(cfg, baseContext(t))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Run(context.Background(), planner.Jobs(20, 0, 2))

	var fe *entities.FactoryError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FactoryError, got %v", err)
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound cause, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), writers.PartSuffix) {
			t.Errorf("partial file %s left behind", e.Name())
		}
	}
}

func TestOutputDirFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := instrumentConfig(filepath.Join(blocker, "out"), 5, 5, nil)
	c, err := New(cfg, baseContext(t))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Run(context.Background(), planner.Jobs(5, 0, 5))
	var we *writers.WriterError
	if !errors.As(err, &we) {
		t.Errorf("expected WriterError, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	dir := t.TempDir()
	c, err := New(instrumentConfig(dir, 100, 10, nil), baseContext(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Run(ctx, planner.Jobs(100, 0, 10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	base := entities.GenContext{}
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no generators", func(c *Config) { c.Generators = 0 }},
		{"no writers", func(c *Config) { c.Writers = 0 }},
		{"zero per file", func(c *Config) { c.Job.MaxPerFile = 0 }},
		{"unknown kind", func(c *Config) { c.Job.Kind = "widget" }},
		{"unknown file kind", func(c *Config) { c.Job.FileKind = "PARQUET" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := instrumentConfig(t.TempDir(), 1, 1, nil)
			tt.modify(&cfg)
			if _, err := New(cfg, base); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// stallingFactory holds job 0 until release is closed and counts the
// other jobs it finishes.
type stallingFactory struct {
	release  chan struct{}
	finished atomic.Int64
}

const kindStalling entities.Kind = "stalling"

func (*stallingFactory) Kind() entities.Kind       { return kindStalling }
func (*stallingFactory) Requires() []entities.Kind { return nil }
func (*stallingFactory) Source() string            { return "" }

func (f *stallingFactory) Generate(ctx context.Context, job entities.Job, gc *entities.GenContext) ([]record.Record, error) {
	if job.Seq == 0 {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	recs := make([]record.Record, job.Quantity)
	for i := range recs {
		r := record.New(1)
		r.Set("id", job.StartID+i)
		recs[i] = r
	}
	if job.Seq != 0 {
		f.finished.Add(1)
	}
	return recs, nil
}

func TestSlowJobBoundsInFlightWork(t *testing.T) {
	f := &stallingFactory{release: make(chan struct{})}
	entities.Register(f)

	dir := t.TempDir()
	cfg := instrumentConfig(dir, 200*50, 1000, nil)
	cfg.Job.Kind = kindStalling
	cfg.Job.FileName = "stalling"
	cfg.Generators = 4
	cfg.Writers = 1

	c, err := New(cfg, baseContext(t))
	if err != nil {
		t.Fatal(err)
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Run(context.Background(), planner.Jobs(200*50, 0, 50))
		done <- outcome{res, err}
	}()

	// Wait for the generators to run out of admitted work
	last, steady := int64(-1), 0
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline) && steady < 10; {
		time.Sleep(20 * time.Millisecond)
		n := f.finished.Load()
		if n == last {
			steady++
		} else {
			last, steady = n, 0
		}
	}

	if got, limit := f.finished.Load(), int64(c.Window()-1); got > limit || got == 0 {
		t.Errorf("jobs finished while job 0 was held: %d, want 1..%d", got, limit)
	}

	close(f.release)
	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("Run failed: %v", out.err)
		}
		if out.res.Records != 200*50 || out.res.Files != 10 {
			t.Errorf("records %d files %d, want %d and 10", out.res.Records, out.res.Files, 200*50)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("run did not finish after job 0 was released")
	}
}
