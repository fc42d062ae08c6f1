//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-findatagen.
package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-findatagen/internal/catalog"
	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/entities"
	"github.com/pgEdge/pgedge-findatagen/internal/logging"
	"github.com/pgEdge/pgedge-findatagen/internal/validate"
	"github.com/pgEdge/pgedge-findatagen/internal/writers"
	"github.com/pgEdge/pgedge-findatagen/pkg/version"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitValidation = 1
	ExitRuntime    = 2
)

// options holds the global flags.
type options struct {
	cfgFile   string
	logLevel  string
	logFormat string
}

// configError reports a config file that could not be read.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var verrs validate.Errors
	var cerr *configError
	if errors.As(err, &verrs) || errors.As(err, &cerr) {
		return ExitValidation
	}
	return ExitRuntime
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pgedge-findatagen",
		Short: "Synthetic financial reference data generator",
		Long: `pgedge-findatagen generates referentially consistent synthetic
financial data (instruments, accounts, positions, trades, swaps, cashflows
and settlement messages) as CSV, JSON Lines, JSON or XML files.

A generation job is described by a single config file listing the entities
to produce. Entities run one after another; each is generated by a pool of
workers and written by a pool of file writers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "",
		"config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "",
		"log format (pretty, json)")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newKindsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, &configError{err: err}
	}

	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogFormat != "json",
	})

	return cfg, nil
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file without generating data",
		Long: `Validate checks the config file and reports every problem found.
It exits with status 1 when the configuration is invalid.

Example:
  pgedge-findatagen validate --config job.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := validate.Validate(cfg); err != nil {
				return err
			}
			cmd.Printf("Configuration is valid: %d entities\n", len(cfg.DomainObjects))
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List entity kinds, file kinds and catalog backends",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Entity kinds:")
			for _, k := range entities.List() {
				f, _ := entities.Get(k)
				line := "  " + string(k)
				if req := f.Requires(); len(req) > 0 {
					names := make([]string, len(req))
					for i, r := range req {
						names[i] = string(r)
					}
					line += " (requires " + strings.Join(names, ", ") + ")"
				}
				cmd.Println(line)
			}
			cmd.Println()
			cmd.Println("File kinds:")
			for _, w := range writers.List() {
				cmd.Println("  " + w)
			}
			cmd.Println()
			cmd.Println("Catalog backends:")
			for _, b := range catalog.Kinds() {
				cmd.Println("  " + b)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Info())
		},
	}
}
