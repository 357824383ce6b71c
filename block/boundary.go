// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"
	"sync"
)

// This file defines the stages that may be shared by several upstream
// replicas. They protect their own state.

// A Collect is a terminal stage that accumulates the tuples it
// receives. All forks and partitions of a Collect are the Collect
// itself, so it may receive output, and Begin and End calls, from any
// number of replicas concurrently.
type Collect struct {
	mu     sync.Mutex
	tuples []Tuple
	begins int
	ends   int
	failed bool
}

var _ Sink = (*Collect)(nil)

func (c *Collect) Output(buf []Tuple, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		clear(buf[:n])
		return ErrFailed
	}
	c.tuples = append(c.tuples, buf[:n]...)
	clear(buf[:n])
	return nil
}

func (c *Collect) Fork() Sink                 { return c }
func (c *Collect) Partition(stopAt Sink) Sink { return c }

func (c *Collect) Begin() error {
	c.mu.Lock()
	c.begins++
	c.mu.Unlock()
	return nil
}

func (c *Collect) End() error {
	c.mu.Lock()
	c.ends++
	c.mu.Unlock()
	return nil
}

func (c *Collect) Fail() error {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
	return nil
}

// Tuples returns the tuples received so far, in arrival order.
func (c *Collect) Tuples() []Tuple {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Tuple(nil), c.tuples...)
}

// Calls returns the number of Begin and End calls received.
func (c *Collect) Calls() (begins, ends int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begins, c.ends
}

// Failed reports whether Fail has been called.
func (c *Collect) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// An Exchange is a partition boundary: it hands the output of many
// upstream replicas to a single downstream chain, one batch at a time.
//
// Each replica calls Begin and End once. The Exchange begins the
// downstream chain with the first Begin and ends it with the End that
// balances the last outstanding Begin. The first Fail is forwarded;
// later output is rejected with ErrFailed.
type Exchange struct {
	mu     sync.Mutex
	sink   Sink
	active int // replicas begun but not ended
	begun  bool
	failed bool
}

var _ Sink = (*Exchange)(nil)

// NewExchange returns an exchange that forwards to sink.
func NewExchange(sink Sink) *Exchange { return &Exchange{sink: sink} }

func (e *Exchange) Output(buf []Tuple, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed {
		clear(buf[:n])
		return ErrFailed
	}
	if n == 0 {
		return nil
	}
	return e.sink.Output(buf, n)
}

// Fork returns a new exchange over a fork of the downstream chain.
func (e *Exchange) Fork() Sink { return NewExchange(e.sink.Fork()) }

// Partition returns e itself if e is the boundary, so that all
// partitions share it, and a new exchange otherwise.
func (e *Exchange) Partition(stopAt Sink) Sink {
	if stopAt == e {
		return e
	}
	return NewExchange(e.sink.Partition(stopAt))
}

func (e *Exchange) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active++
	if e.begun {
		return nil
	}
	e.begun = true
	return e.sink.Begin()
}

func (e *Exchange) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == 0 {
		return fmt.Errorf("exchange: End without Begin")
	}
	e.active--
	if e.active > 0 {
		return nil
	}
	if e.failed {
		return ErrFailed
	}
	return e.sink.End()
}

func (e *Exchange) Fail() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed {
		return nil
	}
	e.failed = true
	return e.sink.Fail()
}
