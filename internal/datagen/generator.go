//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pgEdge/pgedge-findatagen/internal/logging"
)

// ProgressReporter tracks and reports generation progress for one entity.
// Update may be called from several workers at once.
type ProgressReporter struct {
	entity           string
	totalRecords     int64
	currentRecord    atomic.Int64
	files            atomic.Int64
	bytes            atomic.Int64
	progressInterval int64
	started          time.Time
}

// NewProgressReporter creates a new progress reporter. A total of zero
// means the record count is not known in advance.
func NewProgressReporter(entity string, totalRecords int64, interval int64) *ProgressReporter {
	if interval <= 0 {
		interval = 100000
	}
	return &ProgressReporter{
		entity:           entity,
		totalRecords:     totalRecords,
		progressInterval: interval,
		started:          time.Now(),
	}
}

// Update adds generated records and logs if an interval was crossed.
func (p *ProgressReporter) Update(records int64) {
	current := p.currentRecord.Add(records)
	old := current - records

	// Check if we crossed a progress interval
	if current/p.progressInterval > old/p.progressInterval {
		ev := logging.Info().
			Str("entity", p.entity).
			Int64("records", current)
		if p.totalRecords > 0 {
			ev = ev.Int64("total", p.totalRecords).
				Float64("percent", float64(current)/float64(p.totalRecords)*100)
		}
		ev.Msg("Generating data")
	}
}

// FileWritten records one emitted file of the given size.
func (p *ProgressReporter) FileWritten(size int64) {
	p.files.Add(1)
	p.bytes.Add(size)
}

// Records returns the number of records reported so far.
func (p *ProgressReporter) Records() int64 {
	return p.currentRecord.Load()
}

// Files returns the number of files written so far.
func (p *ProgressReporter) Files() int64 {
	return p.files.Load()
}

// Bytes returns the number of bytes written so far.
func (p *ProgressReporter) Bytes() int64 {
	return p.bytes.Load()
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("entity", p.entity).
		Int64("records", p.Records()).
		Int64("files", p.Files()).
		Str("size", FormatSize(p.Bytes())).
		Dur("duration", time.Since(p.started)).
		Msg("Entity complete")
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
