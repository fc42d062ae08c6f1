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
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	gc := newTestContext(t, 1)
	f, _ := Get(KindCounterparty)
	s := NewSession(f)

	if s.State() != StateIdle {
		t.Fatalf("new session state = %s, want idle", s.State())
	}

	ctx := context.Background()
	if _, err := s.Generate(ctx, Job{Quantity: 1}, gc); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateOpen {
		t.Errorf("state after first job = %s, want open", s.State())
	}

	s.Drain()
	if s.State() != StateDraining {
		t.Errorf("state after Drain = %s, want draining", s.State())
	}
	// Workers may still finish their current job while draining
	if _, err := s.Generate(ctx, Job{Seq: 1, StartID: 1, Quantity: 1}, gc); err != nil {
		t.Errorf("Generate while draining failed: %v", err)
	}
	if s.State() != StateDraining {
		t.Errorf("state = %s, want draining", s.State())
	}

	s.Close()
	if s.State() != StateClosed {
		t.Errorf("state after Close = %s, want closed", s.State())
	}
	_, err := s.Generate(ctx, Job{Seq: 2, Quantity: 1}, gc)
	var fe *FactoryError
	if !errors.As(err, &fe) {
		t.Errorf("Generate on closed session: got %v, want FactoryError", err)
	}
}

func TestSessionDrainFromIdle(t *testing.T) {
	f, _ := Get(KindCounterparty)
	s := NewSession(f)
	s.Drain()
	if s.State() != StateDraining {
		t.Errorf("state = %s, want draining", s.State())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:     "idle",
		StateOpen:     "open",
		StateDraining: "draining",
		StateClosed:   "closed",
		State(9):      "state(9)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(s), s.String(), want)
		}
	}
}
