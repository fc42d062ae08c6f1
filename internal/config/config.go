//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-findatagen.
// A generation job is described by a single config file (YAML or JSON).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StartDateLayout is the layout of date-valued custom arguments (YYYYMMDD).
const StartDateLayout = "20060102"

// Config holds all configuration for a generation run.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "pretty" for console output or "json".
	LogFormat string `mapstructure:"log_format"`

	// Seed makes the run reproducible. Nil means non-deterministic.
	Seed *uint64 `mapstructure:"seed"`

	// Catalog selects the cross-reference store backend.
	Catalog CatalogConfig `mapstructure:"catalog"`

	// Seeds points at the prerequisite seed files.
	Seeds SeedConfig `mapstructure:"seeds"`

	// SharedArgs holds pool sizing shared by every entity.
	SharedArgs SharedArgs `mapstructure:"shared_args"`

	// FileBuilders maps output kinds to file extensions.
	FileBuilders []FileBuilder `mapstructure:"file_builders"`

	// DomainObjects lists the entities to generate, in declared order.
	DomainObjects []DomainObject `mapstructure:"domain_objects"`
}

// CatalogConfig selects and configures the catalog backend.
type CatalogConfig struct {
	// Kind is "sqlite" (default) or "postgres".
	Kind string `mapstructure:"kind"`

	// DSN is the backend data source. An empty sqlite DSN means in-memory.
	DSN string `mapstructure:"dsn"`

	// CacheSize is the number of table snapshots kept for sampling.
	CacheSize int `mapstructure:"cache_size"`
}

// SeedConfig holds the seed file paths. Empty paths use the built-in seeds.
type SeedConfig struct {
	Exchanges string `mapstructure:"exchanges"`
	Tickers   string `mapstructure:"tickers"`
}

// SharedArgs holds settings shared by all entities.
type SharedArgs struct {
	// GeneratorPoolSize is the number of generator workers per entity.
	GeneratorPoolSize int `mapstructure:"generator_pool_size"`

	// WriterPoolSize is the number of writer workers per entity.
	WriterPoolSize int `mapstructure:"writer_pool_size"`

	// PoolJobSize is the default number of records per generate job.
	PoolJobSize int `mapstructure:"pool_job_size"`

	// ReferenceTime pins "now" (RFC3339). Empty means the wall clock.
	ReferenceTime string `mapstructure:"reference_time"`

	// ProgressInterval is how often (in records) progress is logged.
	ProgressInterval int64 `mapstructure:"progress_interval"`
}

// FileBuilder declares an output kind and its file extension.
type FileBuilder struct {
	Name      string `mapstructure:"name"`
	Extension string `mapstructure:"extension"`
}

// DomainObject describes one entity to generate.
type DomainObject struct {
	Kind              string       `mapstructure:"kind"`
	RecordCount       int          `mapstructure:"record_count"`
	StartID           int          `mapstructure:"start_id"`
	MaxRecordsPerFile int          `mapstructure:"max_records_per_file"`
	FileKind          string       `mapstructure:"file_kind"`
	OutputDirectory   string       `mapstructure:"output_directory"`
	FileName          string       `mapstructure:"file_name"`
	FileTypeArgs      FileTypeArgs `mapstructure:"file_type_args"`
	CustomArgs        CustomArgs   `mapstructure:"custom_args"`
}

// FileTypeArgs holds writer-specific options.
type FileTypeArgs struct {
	XMLRoot   string `mapstructure:"xml_root"`
	XMLItem   string `mapstructure:"xml_item"`
	Delimiter string `mapstructure:"delimiter"`
}

// CustomArgs holds entity-specific generation arguments.
type CustomArgs struct {
	// SwapPerCounterparty bounds the contracts generated per counterparty.
	SwapPerCounterparty *Range `mapstructure:"swap_per_counterparty"`

	// InsPerSwap bounds the instruments held by each swap contract.
	InsPerSwap *Range `mapstructure:"ins_per_swap"`

	// StartDate is the first swap position date (YYYYMMDD).
	StartDate string `mapstructure:"start_date"`

	// CashflowGeneration lists the cashflow accrual rules.
	CashflowGeneration []CashflowRule `mapstructure:"cashflow_generation"`

	// CatalogBatchSize overrides how many records are buffered before the
	// catalog projection is flushed.
	CatalogBatchSize int `mapstructure:"catalog_batch_size"`

	// DummyFields pads every record with this many filler columns.
	DummyFields int `mapstructure:"dummy_fields"`
}

// Range is an inclusive integer range.
type Range struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

// CashflowRule declares how cashflows accrue on end-of-day swap positions.
type CashflowRule struct {
	// Type is the cashflow type written to each row (e.g. INT, DIV).
	Type string `mapstructure:"type"`

	// Accrual is DAILY, QUARTERLY or CHANCE_ACCRUAL.
	Accrual string `mapstructure:"accrual"`

	// Probability is the chance (0-100) that the rule fires. Nil means 100.
	Probability *float64 `mapstructure:"probability"`

	// PayDatePeriod is END_OF_MONTH or END_OF_HALF.
	PayDatePeriod string `mapstructure:"pay_date_period"`
}

// Chance returns the rule probability in percent.
func (r CashflowRule) Chance() float64 {
	if r.Probability == nil {
		return 100
	}
	return *r.Probability
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "pretty",
		Catalog: CatalogConfig{
			Kind:      "sqlite",
			CacheSize: 64,
		},
		SharedArgs: SharedArgs{
			GeneratorPoolSize: 4,
			WriterPoolSize:    2,
			PoolJobSize:       5000,
			ProgressInterval:  100000,
		},
		FileBuilders: []FileBuilder{
			{Name: "CSV", Extension: ".csv"},
			{Name: "JSONL", Extension: ".jsonl"},
			{Name: "JSON", Extension: ".json"},
			{Name: "XML", Extension: ".xml"},
		},
	}
}

// Load reads configuration from the given file. The format is taken from
// the file extension (.yaml, .yml or .json).
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("a config file is required")
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".json":
		v.SetConfigType("json")
	default:
		v.SetConfigType("yaml")
	}

	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	// file_builders replaces the default list only when present
	if v.IsSet("file_builders") {
		cfg.FileBuilders = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Extension returns the file extension registered for a file kind.
func (c *Config) Extension(fileKind string) (string, bool) {
	for _, fb := range c.FileBuilders {
		if strings.EqualFold(fb.Name, fileKind) {
			return fb.Extension, true
		}
	}
	return "", false
}

// Now returns the reference time of the run: the pinned reference_time
// when set, otherwise the wall clock.
func (c *Config) Now() (time.Time, error) {
	if c.SharedArgs.ReferenceTime == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, c.SharedArgs.ReferenceTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference_time %q: %w",
			c.SharedArgs.ReferenceTime, err)
	}
	return t, nil
}

// ParseStartDate parses a YYYYMMDD custom argument.
func ParseStartDate(s string) (time.Time, error) {
	return time.ParseInLocation(StartDateLayout, s, time.UTC)
}
