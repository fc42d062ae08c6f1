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
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-findatagen/internal/config"
	"github.com/pgEdge/pgedge-findatagen/internal/validate"
)

const jobTemplate = `
log_level: error
shared_args:
  generator_pool_size: 2
  writer_pool_size: 2
  pool_job_size: 4
  reference_time: "2024-06-28T12:00:00Z"
domain_objects:
  - kind: instrument
    record_count: %d
    max_records_per_file: 3
    file_kind: CSV
    output_directory: %s
    file_name: instruments
`

func writeConfig(t *testing.T, count int, outDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	content := fmt.Sprintf(jobTemplate, count, outDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", validate.Errors{"bad"}, ExitValidation},
		{"wrapped validation", fmt.Errorf("x: %w", validate.Errors{"bad"}), ExitValidation},
		{"config", &configError{err: errors.New("no file")}, ExitValidation},
		{"runtime", errors.New("disk full"), ExitRuntime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGenerateValidationFailure(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, -1, outDir)

	_, err := execute("generate", "--config", path)
	if ExitCode(err) != ExitValidation {
		t.Fatalf("exit code = %d (%v), want %d", ExitCode(err), err, ExitValidation)
	}
	if !strings.Contains(err.Error(), "Record count -1") || !strings.Contains(err.Error(), "less than 0") {
		t.Errorf("error = %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("output directory created for an invalid config")
	}
}

func TestGenerate(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, 5, outDir)

	if _, err := execute("generate", "--config", path, "--seed", "7"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(outDir, "instruments_*.csv"))
	if len(files) != 2 {
		t.Errorf("got %d files, want 2", len(files))
	}
}

func TestGenerateOutputDirFlag(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, 2, "relative")

	if _, err := execute("generate", "--config", path, "--output-dir", base); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "relative", "instruments_001.csv")); err != nil {
		t.Errorf("output not under --output-dir: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	path := writeConfig(t, 5, t.TempDir())
	out, err := execute("validate", "--config", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("output = %q", out)
	}

	path = writeConfig(t, -1, t.TempDir())
	_, err = execute("validate", "--config", path)
	if ExitCode(err) != ExitValidation {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitValidation)
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := execute("validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if ExitCode(err) != ExitValidation {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitValidation)
	}
	_, err = execute("generate")
	if ExitCode(err) != ExitValidation {
		t.Errorf("exit code without --config = %d, want %d", ExitCode(err), ExitValidation)
	}
}

func TestKinds(t *testing.T) {
	out, err := execute("kinds")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"swap_position (requires swap_contract, instrument)", "JSONL", "sqlite"} {
		if !strings.Contains(out, want) {
			t.Errorf("kinds output missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "pgedge-findatagen ") {
		t.Errorf("version output = %q", out)
	}
}

func TestApplyGenerateFlags(t *testing.T) {
	cmd := newGenerateCmd(&options{})
	if err := cmd.ParseFlags([]string{"--seed", "0", "--generators", "6", "--reference-time", "2024-01-02T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.DomainObjects = []config.DomainObject{{OutputDirectory: "/abs"}, {OutputDirectory: "rel"}}

	g := &generateOptions{seed: 0, generators: 6, referenceTime: "2024-01-02T00:00:00Z", outputDir: "/base"}
	applyGenerateFlags(cmd, cfg, g)

	if cfg.Seed == nil || *cfg.Seed != 0 {
		t.Error("explicit zero seed not applied")
	}
	if cfg.SharedArgs.GeneratorPoolSize != 6 || cfg.SharedArgs.WriterPoolSize != 2 {
		t.Errorf("pool sizes = %d, %d", cfg.SharedArgs.GeneratorPoolSize, cfg.SharedArgs.WriterPoolSize)
	}
	if cfg.DomainObjects[0].OutputDirectory != "/abs" || cfg.DomainObjects[1].OutputDirectory != filepath.Join("/base", "rel") {
		t.Errorf("output dirs = %v", cfg.DomainObjects)
	}
}
