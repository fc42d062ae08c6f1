//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package planner turns a configuration into an ordered list of entity
// runs and splits each run into generate jobs.
package planner

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
	"github.com/pgEdge/pgedge-findatagen/internal/writers"
)

// EntityJob describes the run of one configured entity.
type EntityJob struct {
	Kind    entities.Kind
	Count   int
	StartID int

	// Source is the catalog table walked by implicit-count kinds. Their
	// job count comes from its size when the run starts, not from Count.
	Source string

	FileName   string
	OutputDir  string
	MaxPerFile int
	FileKind   string
	Extension  string
	WriterOpts writers.Options

	// JobSize is the target number of records per generate job.
	JobSize    int
	CustomArgs config.CustomArgs
}

// Implicit reports whether the record count derives from a source table.
func (e EntityJob) Implicit() bool {
	return e.Source != ""
}

// Plan returns the configured entities in run order: instrument, account
// and counterparty first in declared order, then the dependent kinds
// ordered so every kind runs after the kinds it reads.
func Plan(cfg *config.Config) ([]EntityJob, error) {
	var indep, dep []EntityJob
	for _, obj := range cfg.DomainObjects {
		job, err := newEntityJob(cfg, obj)
		if err != nil {
			return nil, err
		}
		if entities.IsIndependent(job.Kind) {
			indep = append(indep, job)
		} else {
			dep = append(dep, job)
		}
	}

	sorted, err := topoSort(dep)
	if err != nil {
		return nil, err
	}
	return append(indep, sorted...), nil
}

func newEntityJob(cfg *config.Config, obj config.DomainObject) (EntityJob, error) {
	kind := entities.Kind(obj.Kind)
	f, err := entities.Get(kind)
	if err != nil {
		return EntityJob{}, err
	}
	ext, ok := cfg.Extension(obj.FileKind)
	if !ok {
		return EntityJob{}, fmt.Errorf("%s: no file builder for file kind %q", kind, obj.FileKind)
	}

	opts := writers.Options{
		XMLRoot: obj.FileTypeArgs.XMLRoot,
		XMLItem: obj.FileTypeArgs.XMLItem,
	}
	if obj.FileTypeArgs.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(obj.FileTypeArgs.Delimiter)
	}

	fileName := obj.FileName
	if fileName == "" {
		fileName = obj.Kind
	}

	return EntityJob{
		Kind:       kind,
		Count:      obj.RecordCount,
		StartID:    obj.StartID,
		Source:     f.Source(),
		FileName:   fileName,
		OutputDir:  obj.OutputDirectory,
		MaxPerFile: obj.MaxRecordsPerFile,
		FileKind:   obj.FileKind,
		Extension:  ext,
		WriterOpts: opts,
		JobSize:    cfg.SharedArgs.PoolJobSize,
		CustomArgs: obj.CustomArgs,
	}, nil
}

// topoSort orders dependent kinds by their Requires edges, keeping the
// declared order among kinds that are ready at the same time. Edges to
// kinds that are not configured are ignored.
func topoSort(jobs []EntityJob) ([]EntityJob, error) {
	present := make(map[entities.Kind]bool, len(jobs))
	for _, j := range jobs {
		present[j.Kind] = true
	}

	done := make(map[entities.Kind]bool, len(jobs))
	out := make([]EntityJob, 0, len(jobs))
	for len(out) < len(jobs) {
		progressed := false
		for _, j := range jobs {
			if done[j.Kind] {
				continue
			}
			if !ready(j.Kind, present, done) {
				continue
			}
			out = append(out, j)
			done[j.Kind] = true
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle among configured entities")
		}
	}
	return out, nil
}

func ready(kind entities.Kind, present, done map[entities.Kind]bool) bool {
	f, err := entities.Get(kind)
	if err != nil {
		return false
	}
	for _, req := range f.Requires() {
		if present[req] && !done[req] {
			return false
		}
	}
	return true
}

// BatchSize returns the number of source rows or records handed to each
// generate job, sized so a job produces about JobSize records.
func BatchSize(job EntityJob, today record.Date) (int, error) {
	target := float64(job.JobSize)
	var size float64

	switch job.Kind {
	case entities.KindSwapContract:
		r := entities.SwapPerCounterparty(job.CustomArgs)
		size = 2 * target / float64(r.Min+r.Max)
	case entities.KindSwapPosition:
		r := entities.InsPerSwap(job.CustomArgs)
		start, err := entities.SwapStartDate(job.CustomArgs, today)
		if err != nil {
			return 0, err
		}
		days := max(entities.SwapDays(start, today), 1)
		size = 2 * target / float64(3*days*(r.Min+r.Max))
	case entities.KindCashFlow:
		var expected float64
		for _, rule := range job.CustomArgs.CashflowGeneration {
			expected += rule.Chance() / 100
		}
		if expected == 0 {
			size = target
		} else {
			size = target / expected
		}
	default:
		size = target
	}

	if math.IsInf(size, 0) || math.IsNaN(size) {
		return job.JobSize, nil
	}
	return max(int(math.Ceil(size)), 1), nil
}

// Jobs splits n units into jobs of at most batch units, numbered from zero.
// Record ids start at startID; SourceOffset walks [0, n).
func Jobs(n, startID, batch int) []entities.Job {
	if n <= 0 || batch <= 0 {
		return nil
	}
	jobs := make([]entities.Job, 0, (n+batch-1)/batch)
	for off, seq := 0, 0; off < n; off, seq = off+batch, seq+1 {
		jobs = append(jobs, entities.Job{
			Seq:          seq,
			StartID:      startID + off,
			Quantity:     min(batch, n-off),
			SourceOffset: off,
		})
	}
	return jobs
}

// Resolve returns the generate jobs of an entity run. Implicit-count
// kinds are sized from their source table, which must already be
// committed by the producing entity.
func Resolve(ctx context.Context, cat *catalog.Catalog, job EntityJob, today record.Date) ([]entities.Job, error) {
	batch, err := BatchSize(job, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Kind, err)
	}
	if !job.Implicit() {
		return Jobs(job.Count, job.StartID, batch), nil
	}

	n, err := cat.Size(ctx, job.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: sizing source %s: %w", job.Kind, job.Source, err)
	}
	return Jobs(n, job.StartID, batch), nil
}
