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
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
)

// unseededBase is mixed into stream seeds of runs without a seed so that
// concurrent streams still differ from each other.
var unseededBase atomic.Uint64

func init() {
	unseededBase.Store(uint64(time.Now().UnixNano()))
}

// StreamSeed derives the seed of one random stream from the run seed, the
// entity name and the job sequence number.
func StreamSeed(seed uint64, entity string, seq int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(seq))

	h := blake3.New()
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(entity))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// NewStream returns the random stream for one generate job. With a nil
// seed every call yields a fresh, non-reproducible stream.
func NewStream(seed *uint64, entity string, seq int) *Faker {
	if seed == nil {
		return NewFakerWithSeed(StreamSeed(unseededBase.Add(1), entity, seq))
	}
	return NewFakerWithSeed(StreamSeed(*seed, entity, seq))
}
