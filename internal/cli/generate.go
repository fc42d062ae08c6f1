//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/driver"
	"github.com/pgEdge/pgedge-findatagen/internal/logging"
)

type generateOptions struct {
	seed          uint64
	outputDir     string
	referenceTime string
	generators    int
	writers       int
}

func newGenerateCmd(opts *options) *cobra.Command {
	gopts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the entities described by a config file",
		Long: `Generate validates the config file, then produces every configured
entity in dependency order. Instruments, accounts and counterparties are
generated first; entities that reference them follow.

Exit status is 0 on success, 1 when the configuration is invalid (nothing
is written) and 2 when generation fails.

Example:
  pgedge-findatagen generate --config job.yaml
  pgedge-findatagen generate --config job.yaml --seed 42 --output-dir ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			applyGenerateFlags(cmd, cfg, gopts)
			return runGenerate(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Uint64Var(&gopts.seed, "seed", 0,
		"seed for reproducible output (overrides the config file)")
	cmd.Flags().StringVar(&gopts.outputDir, "output-dir", "",
		"base directory for relative output directories")
	cmd.Flags().StringVar(&gopts.referenceTime, "reference-time", "",
		"pin the current time (RFC3339)")
	cmd.Flags().IntVar(&gopts.generators, "generators", 0,
		"generator workers per entity")
	cmd.Flags().IntVar(&gopts.writers, "writers", 0,
		"writer workers per entity")
	return cmd
}

// applyGenerateFlags overrides config values with flags that were set.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, g *generateOptions) {
	if cmd.Flags().Changed("seed") {
		seed := g.seed
		cfg.Seed = &seed
	}
	if g.referenceTime != "" {
		cfg.SharedArgs.ReferenceTime = g.referenceTime
	}
	if g.generators > 0 {
		cfg.SharedArgs.GeneratorPoolSize = g.generators
	}
	if g.writers > 0 {
		cfg.SharedArgs.WriterPoolSize = g.writers
	}
	if g.outputDir != "" {
		for i := range cfg.DomainObjects {
			dir := cfg.DomainObjects[i].OutputDirectory
			if !filepath.IsAbs(dir) {
				cfg.DomainObjects[i].OutputDirectory = filepath.Join(g.outputDir, dir)
			}
		}
	}
}

func runGenerate(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err := driver.Run(ctx, cfg)
	return err
}
