//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package entities

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// State is the lifecycle state of a factory within one entity run.
type State int32

// Session states.
const (
	StateIdle State = iota
	StateOpen
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session wraps a factory for one entity run and tracks its lifecycle:
// Idle until the first job, Open while jobs arrive, Draining once the
// job queue is closed, Closed after the last file is written.
type Session struct {
	factory Factory
	state   atomic.Int32
}

// NewSession starts an Idle session.
func NewSession(f Factory) *Session {
	return &Session{factory: f}
}

// Factory returns the wrapped factory.
func (s *Session) Factory() Factory {
	return s.factory
}

// State returns the current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Generate runs one job. The first call moves the session to Open. Jobs
// are still accepted while Draining, since workers finish the job they
// hold when the queue closes. Failures come back as *FactoryError.
func (s *Session) Generate(ctx context.Context, job Job, gc *GenContext) ([]record.Record, error) {
	s.state.CompareAndSwap(int32(StateIdle), int32(StateOpen))
	if st := s.State(); st == StateClosed {
		return nil, &FactoryError{Kind: s.factory.Kind(), Seq: job.Seq,
			Err: fmt.Errorf("session is %s", st)}
	}

	recs, err := s.factory.Generate(ctx, job, gc)
	if err != nil {
		var fe *FactoryError
		if !errors.As(err, &fe) {
			err = &FactoryError{Kind: s.factory.Kind(), Seq: job.Seq, Err: err}
		}
		return nil, err
	}
	return recs, nil
}

// Drain marks that no further jobs will be queued.
func (s *Session) Drain() {
	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateDraining)) {
		s.state.CompareAndSwap(int32(StateIdle), int32(StateDraining))
	}
}

// Close marks the session finished.
func (s *Session) Close() {
	s.state.Store(int32(StateClosed))
}
