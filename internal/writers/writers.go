//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package writers renders record batches into output files.
package writers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Missing is written by text formats for absent or null fields.
const Missing = "-"

// PartSuffix marks a file that is still being written.
const PartSuffix = ".part"

// Options holds format-specific settings.
type Options struct {
	// Delimiter separates CSV fields. Zero means a comma.
	Delimiter rune

	// XMLRoot and XMLItem name the XML document and record elements.
	XMLRoot string
	XMLItem string
}

// Writer renders one file's worth of records.
type Writer interface {
	// Name returns the upper-case output kind, e.g. CSV.
	Name() string

	// Write renders records to w.
	Write(w io.Writer, records []record.Record, opts Options) error
}

// WriterError reports a failed output file.
type WriterError struct {
	Path string
	Err  error
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriterError) Unwrap() error {
	return e.Err
}

var (
	registry = make(map[string]Writer)
	mu       sync.RWMutex
)

// Register adds a writer to the registry.
func Register(w Writer) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToUpper(w.Name())] = w
}

// Get retrieves a writer by output kind, ignoring case.
func Get(name string) (Writer, error) {
	mu.RLock()
	defer mu.RUnlock()

	w, ok := registry[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("unknown file kind: %s", name)
	}
	return w, nil
}

// List returns all registered output kinds, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func init() {
	Register(csvWriter{})
	Register(jsonlWriter{})
	Register(jsonWriter{})
	Register(xmlWriter{})
}

// FileName returns the name of output file number n.
func FileName(base string, n int, ext string) string {
	return fmt.Sprintf("%s_%03d%s", base, n, ext)
}

// WriteFile renders records into dir/FileName(base, n, ext). The file is
// written under a .part name and renamed once complete; on failure the
// partial file is removed. It returns the final path and its size.
func WriteFile(w Writer, dir, base string, n int, ext string, records []record.Record, opts Options) (string, int64, error) {
	path := filepath.Join(dir, FileName(base, n, ext))
	part := path + PartSuffix

	size, err := writePart(w, part, records, opts)
	if err != nil {
		_ = os.Remove(part)
		return "", 0, &WriterError{Path: path, Err: err}
	}
	if err := os.Rename(part, path); err != nil {
		_ = os.Remove(part)
		return "", 0, &WriterError{Path: path, Err: err}
	}
	return path, size, nil
}

func writePart(w Writer, part string, records []record.Record, opts Options) (int64, error) {
	f, err := os.Create(part)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: f}
	bw := bufio.NewWriterSize(cw, 64*1024)
	err = w.Write(bw, records, opts)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// errNoRecords is returned when a writer is handed an empty batch.
var errNoRecords = errors.New("no records")
