//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package driver runs a validated generation plan entity by entity.
package driver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/datagen"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/logging"
	"github.com/pgEdge/pgedge-findatagen/internal/pipeline"
	"github.com/pgEdge/pgedge-findatagen/internal/planner"
	"github.com/pgEdge/pgedge-findatagen/internal/record"
	"github.com/pgEdge/pgedge-findatagen/internal/seeds"
	"github.com/pgEdge/pgedge-findatagen/internal/validate"
	"github.com/pgEdge/pgedge-findatagen/pkg/version"
)

// Status is the outcome of one entity.
type Status string

// Entity outcomes.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// EntityStatus reports one planned entity.
type EntityStatus struct {
	Kind   entities.Kind
	Status Status
	Result pipeline.Result
	Err    error
}

// Summary reports a whole run.
type Summary struct {
	Entities []EntityStatus
	Duration time.Duration

	// Metadata is the run metadata read back from the catalog.
	Metadata map[string]string
}

// Records returns the number of records written across all entities.
func (s *Summary) Records() int64 {
	var n int64
	for _, e := range s.Entities {
		n += e.Result.Records
	}
	return n
}

// Run validates cfg, prepares the catalog and generates every planned
// entity in order. A validation failure returns validate.Errors before
// anything is written. The first failed entity stops the run; the
// entities after it are reported as skipped.
func Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	start := time.Now()

	if err := validate.Validate(cfg); err != nil {
		return nil, err
	}
	plan, err := planner.Plan(cfg)
	if err != nil {
		return nil, err
	}
	now, err := cfg.Now()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(ctx, catalog.Config{Kind: cfg.Catalog.Kind, DSN: cfg.Catalog.DSN}, cfg.Catalog.CacheSize)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close catalog")
		}
	}()

	if err := prepareCatalog(ctx, cat, cfg, now); err != nil {
		return nil, err
	}

	base := entities.GenContext{
		Catalog:       cat,
		Now:           now,
		Today:         record.NewDate(now),
		Pinned:        cfg.SharedArgs.ReferenceTime != "",
		MessagePrefix: datagen.NewStream(cfg.Seed, "message_prefix", 0).String(entities.MessagePrefixLen, true),
	}

	logging.Info().
		Int("entities", len(plan)).
		Str("catalog", cfg.Catalog.Kind).
		Str("today", base.Today.String()).
		Bool("seeded", cfg.Seed != nil).
		Msg("Starting generation")

	summary := &Summary{}
	var runErr error
	for _, job := range plan {
		if runErr != nil {
			summary.Entities = append(summary.Entities, EntityStatus{Kind: job.Kind, Status: StatusSkipped})
			continue
		}

		res, err := runEntity(ctx, cfg, cat, job, base)
		st := EntityStatus{Kind: job.Kind, Status: StatusOK, Result: res}
		if err != nil {
			st.Status = StatusFailed
			st.Err = err
			runErr = fmt.Errorf("%s: %w", job.Kind, err)
		}
		summary.Entities = append(summary.Entities, st)
	}
	summary.Duration = time.Since(start)

	if meta, err := cat.RunMetadata(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to read run metadata")
	} else {
		summary.Metadata = meta
	}

	logSummary(summary)
	return summary, runErr
}

// prepareCatalog creates the catalog tables, loads the seeds and records
// the run metadata.
func prepareCatalog(ctx context.Context, cat *catalog.Catalog, cfg *config.Config, now time.Time) error {
	if err := cat.CreateTables(ctx); err != nil {
		return err
	}

	ex, err := seeds.LoadExchanges(cfg.Seeds.Exchanges)
	if err != nil {
		return err
	}
	if err := cat.BulkInsert(ctx, catalog.TableExchanges, ex.Rows); err != nil {
		return err
	}
	tk, err := seeds.LoadTickers(cfg.Seeds.Tickers)
	if err != nil {
		return err
	}
	if err := cat.BulkInsert(ctx, catalog.TableTickers, tk.Rows); err != nil {
		return err
	}

	meta := version.Metadata()
	meta["reference_time"] = now.UTC().Format(time.RFC3339)
	if cfg.Seed != nil {
		meta["seed"] = strconv.FormatUint(*cfg.Seed, 10)
	}
	if err := cat.SaveRunMetadata(ctx, meta); err != nil {
		return err
	}
	return cat.Commit(ctx)
}

// runEntity resolves the jobs of one entity, runs its pipeline and commits
// the catalog so the next entity sees its projection.
func runEntity(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, job planner.EntityJob, base entities.GenContext) (pipeline.Result, error) {
	log := logging.With("driver").With().Str("entity", string(job.Kind)).Logger()

	jobs, err := planner.Resolve(ctx, cat, job, base.Today)
	if err != nil {
		return pipeline.Result{Kind: job.Kind}, err
	}
	if job.Implicit() && len(jobs) == 0 {
		log.Warn().Str("source", job.Source).Msg("Source table is empty, nothing to generate")
	}
	log.Debug().Int("jobs", len(jobs)).Msg("Planned generate jobs")

	c, err := pipeline.New(pipeline.Config{
		Job:              job,
		Generators:       cfg.SharedArgs.GeneratorPoolSize,
		Writers:          cfg.SharedArgs.WriterPoolSize,
		Seed:             cfg.Seed,
		ProgressInterval: cfg.SharedArgs.ProgressInterval,
	}, base)
	if err != nil {
		return pipeline.Result{Kind: job.Kind}, err
	}

	res, err := c.Run(ctx, jobs)
	if err != nil {
		return res, err
	}
	if err := cat.Commit(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func logSummary(s *Summary) {
	for _, e := range s.Entities {
		ev := logging.Info()
		if e.Status == StatusFailed {
			ev = logging.Error().Err(e.Err)
		}
		ev.Str("entity", string(e.Kind)).
			Str("status", string(e.Status)).
			Int64("records", e.Result.Records).
			Int64("files", e.Result.Files).
			Str("size", datagen.FormatSize(e.Result.Bytes)).
			Dur("duration", e.Result.Duration).
			Msg("Entity summary")
	}
	logging.Info().
		Int64("records", s.Records()).
		Dur("duration", s.Duration).
		Str("version", s.Metadata["version"]).
		Str("seed", s.Metadata["seed"]).
		Str("reference_time", s.Metadata["reference_time"]).
		Msg("Generation finished")
}
