//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs one entity through a generator pool and a writer
// pool connected by bounded queues.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/logging"
	"github.com/pgEdge/pgedge-findatagen/internal/planner"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
	"github.com/pgEdge/pgedge-findatagen/internal/writers"
)

// Config holds the settings of one entity run.
type Config struct {
	Job        planner.EntityJob
	Generators int
	Writers    int

	// Seed makes every job's random stream reproducible. Nil means
	// non-deterministic.
	Seed *uint64

	// ProgressInterval is how often, in records, progress is logged.
	ProgressInterval int64
}

// Result summarises a finished entity run.
type Result struct {
	Kind     entities.Kind
	Records  int64
	Files    int64
	Bytes    int64
	Duration time.Duration
}

// batch is one generate job's output on its way to the dispatcher.
type batch struct {
	seq     int
	records []record.Record
	err     error
}

// file is one output file's worth of records.
type file struct {
	number  int
	records []record.Record
}

// Coordinator moves generate jobs through the pools of one entity.
type Coordinator struct {
	cfg      Config
	base     entities.GenContext
	writer   writers.Writer
	session  *entities.Session
	progress *datagen.ProgressReporter
	log      zerolog.Logger
}

// New returns a coordinator for cfg. base supplies everything but the
// random stream, which is derived per job.
func New(cfg Config, base entities.GenContext) (*Coordinator, error) {
	if cfg.Generators <= 0 || cfg.Writers <= 0 {
		return nil, fmt.Errorf("pool sizes must be positive (generators %d, writers %d)",
			cfg.Generators, cfg.Writers)
	}
	if cfg.Job.MaxPerFile <= 0 {
		return nil, fmt.Errorf("max records per file must be positive, got %d", cfg.Job.MaxPerFile)
	}
	f, err := entities.Get(cfg.Job.Kind)
	if err != nil {
		return nil, err
	}
	w, err := writers.Get(cfg.Job.FileKind)
	if err != nil {
		return nil, err
	}
	base.Args = cfg.Job.CustomArgs

	return &Coordinator{
		cfg:     cfg,
		base:    base,
		writer:  w,
		session: entities.NewSession(f),
		log:     logging.With("pipeline").With().Str("entity", string(cfg.Job.Kind)).Logger(),
	}, nil
}

// Session returns the factory session driven by this coordinator.
func (c *Coordinator) Session() *entities.Session {
	return c.session
}

// Run generates and writes every job. The first failure cancels the run:
// generators stop after their current job, writers after their current
// file, and the failure is returned.
func (c *Coordinator) Run(ctx context.Context, jobs []entities.Job) (Result, error) {
	start := time.Now()
	res := Result{Kind: c.cfg.Job.Kind}

	if err := os.MkdirAll(c.cfg.Job.OutputDir, 0o755); err != nil {
		return res, &writers.WriterError{Path: c.cfg.Job.OutputDir, Err: err}
	}

	var total int64
	if !c.cfg.Job.Implicit() {
		total = int64(c.cfg.Job.Count)
	}
	c.progress = datagen.NewProgressReporter(string(c.cfg.Job.Kind), total, c.cfg.ProgressInterval)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	genCh := make(chan entities.Job, 2*c.cfg.Generators)
	batchCh := make(chan batch, 2*c.cfg.Writers)
	fileCh := make(chan file, 2*c.cfg.Writers)

	// A job holds a window slot from enqueue until the dispatcher has
	// placed it in order, so at most Window() jobs are in flight.
	window := make(chan struct{}, c.Window())

	go c.enqueue(ctx, jobs, genCh, window)

	var gens errgroup.Group
	for i := 0; i < c.cfg.Generators; i++ {
		gens.Go(func() error {
			c.generate(ctx, genCh, batchCh)
			return nil
		})
	}
	go func() {
		_ = gens.Wait()
		close(batchCh)
	}()

	go c.dispatch(ctx, cancel, batchCh, fileCh, window)

	var wrs errgroup.Group
	for i := 0; i < c.cfg.Writers; i++ {
		wrs.Go(func() error {
			return c.write(ctx, cancel, fileCh)
		})
	}
	werr := wrs.Wait()
	c.session.Close()

	res.Records = c.progress.Records()
	res.Files = c.progress.Files()
	res.Bytes = c.progress.Bytes()
	res.Duration = time.Since(start)

	if err := context.Cause(ctx); err != nil {
		c.log.Error().Err(err).Int64("files", res.Files).Msg("Entity run failed")
		return res, err
	}
	if werr != nil {
		return res, werr
	}
	c.progress.Done()
	return res, nil
}

// Window returns the number of jobs that may be queued, generating or
// waiting for reorder at once.
func (c *Coordinator) Window() int {
	return 2*c.cfg.Generators + 2*c.cfg.Writers
}

// enqueue feeds the generate queue in job order and closes it, which every
// generator observes as the end of work.
func (c *Coordinator) enqueue(ctx context.Context, jobs []entities.Job, genCh chan<- entities.Job, window chan<- struct{}) {
	defer func() {
		close(genCh)
		c.session.Drain()
	}()
	for _, job := range jobs {
		select {
		case window <- struct{}{}:
		case <-ctx.Done():
			return
		}
		select {
		case genCh <- job:
		case <-ctx.Done():
			return
		}
	}
}

// generate runs jobs until the generate queue is closed. Once the run is
// cancelled remaining jobs are drained without work.
func (c *Coordinator) generate(ctx context.Context, genCh <-chan entities.Job, batchCh chan<- batch) {
	for job := range genCh {
		if ctx.Err() != nil {
			continue
		}
		gc := c.base
		gc.Rand = datagen.NewStream(c.cfg.Seed, string(c.cfg.Job.Kind), job.Seq)

		recs, err := c.session.Generate(ctx, job, &gc)
		batchCh <- batch{seq: job.Seq, records: recs, err: err}
	}
}

// dispatch restores job order, cuts the record stream into files of
// exactly MaxPerFile records and numbers them from 1. Failed batches
// cancel the run. The residue is flushed as the last file. Each batch
// placed in order frees its window slot.
func (c *Coordinator) dispatch(ctx context.Context, cancel context.CancelCauseFunc, batchCh <-chan batch, fileCh chan<- file, window <-chan struct{}) {
	defer close(fileCh)

	per := c.cfg.Job.MaxPerFile
	held := make(map[int][]record.Record)
	next := 0
	number := 1
	var pending []record.Record

	for b := range batchCh {
		if b.err != nil {
			cancel(b.err)
			continue
		}
		if ctx.Err() != nil {
			continue
		}

		held[b.seq] = b.records
		for {
			recs, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			<-window

			pending = append(pending, recs...)
			for len(pending) >= per {
				out := make([]record.Record, per)
				copy(out, pending)
				pending = pending[per:]
				fileCh <- file{number: number, records: out}
				number++
			}
		}
	}

	if ctx.Err() == nil && len(pending) > 0 {
		fileCh <- file{number: number, records: pending}
	}
}

// write renders files until the file queue is closed.
func (c *Coordinator) write(ctx context.Context, cancel context.CancelCauseFunc, fileCh <-chan file) error {
	var first error
	for f := range fileCh {
		if ctx.Err() != nil {
			continue
		}
		path, size, err := writers.WriteFile(c.writer, c.cfg.Job.OutputDir, c.cfg.Job.FileName,
			f.number, c.cfg.Job.Extension, f.records, c.cfg.Job.WriterOpts)
		if err != nil {
			cancel(err)
			if first == nil {
				first = err
			}
			continue
		}
		c.progress.FileWritten(size)
		c.progress.Update(int64(len(f.records)))
		c.log.Debug().Str("file", path).Int("records", len(f.records)).Msg("Wrote file")
	}
	return first
}
