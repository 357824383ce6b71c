// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block defines the push-based runtime form of query pipelines.
//
// A Block is one operator of a compiled plan. Create turns it into a
// Sink wired to the next stage; stages are chained from the end of the
// pipeline towards its start (see Compile). Each stage receives batches
// of tuples through Output, filters or extends them in place, and
// forwards the surviving prefix of the batch downstream.
//
// A chain can be replicated for parallel execution. Fork copies a
// stage together with its entire downstream chain; Partition copies it
// only up to a given boundary stage, which the copies then share. Exec
// drives replicas of a chain on separate goroutines.
package block // import "go.xqpipe.net/block"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.xqpipe.net/sequence"
)

// A Tuple is one row of variable bindings. Column i holds the value of
// the ith variable bound by the pipeline so far.
type Tuple []sequence.Sequence

// Concat returns a new tuple holding the columns of t followed by vals.
// t is not modified.
func (t Tuple) Concat(vals ...sequence.Sequence) Tuple {
	u := make(Tuple, len(t), len(t)+len(vals))
	copy(u, t)
	return append(u, vals...)
}

func (t Tuple) String() string {
	var buf strings.Builder
	buf.WriteByte('[')
	for i, v := range t {
		if i > 0 {
			buf.WriteString(", ")
		}
		switch v := v.(type) {
		case nil:
			buf.WriteString("()")
		case fmt.Stringer:
			buf.WriteString(v.String())
		default:
			fmt.Fprintf(&buf, "<%T>", v)
		}
	}
	buf.WriteByte(']')
	return buf.String()
}

// A Block is one operator of a compiled pipeline plan.
type Block interface {
	// Create returns a new stage that forwards its output to sink.
	Create(ctx *Context, sink Sink) (Sink, error)

	// OutputWidth returns the number of columns of the tuples the
	// block emits for input tuples of the given width.
	OutputWidth(inputWidth int) int
}

// A Sink is one runtime stage of a pipeline.
//
// A driver calls Begin before the first call to Output and End after
// the last; Fail replaces End when the pipeline terminates abnormally.
// Each call is propagated downstream. A stage that has failed produces
// no further output.
type Sink interface {
	// Output consumes the first n tuples of buf. Entries past n are
	// ignored. The stage may reorder and overwrite the consumed
	// entries, and clears each one it does not forward.
	Output(buf []Tuple, n int) error

	// Fork returns an independent copy of the stage wired to a fork
	// of the downstream chain.
	Fork() Sink

	// Partition returns an independent copy of the stage wired to a
	// copy of the downstream chain that ends at, and shares, stopAt.
	Partition(stopAt Sink) Sink

	Begin() error
	End() error
	Fail() error
}

// ErrFailed is returned by a stage that receives output after Fail.
var ErrFailed = errors.New("block: output after failure")

// A Context carries the execution parameters of a pipeline.
type Context struct {
	context.Context

	// BatchSize is the number of tuples a stage buffers before
	// forwarding them.
	BatchSize int

	// Workers is the number of replicas Exec runs concurrently.
	Workers int

	// Logger, if non-nil, receives execution events.
	Logger *slog.Logger
}

// Defaults for a Context.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 1
)

// NewContext returns a Context with default parameters.
func NewContext(ctx context.Context) *Context {
	return &Context{Context: ctx, BatchSize: DefaultBatchSize, Workers: DefaultWorkers}
}

func (c *Context) batchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

func (c *Context) workers() int {
	if c.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Workers
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Compile creates the stages of blocks, last first, and returns the
// first stage of the resulting chain, which ends at sink.
func Compile(ctx *Context, blocks []Block, sink Sink) (Sink, error) {
	for i := len(blocks) - 1; i >= 0; i-- {
		var err error
		sink, err = blocks[i].Create(ctx, sink)
		if err != nil {
			return nil, err
		}
	}
	return sink, nil
}

// Width returns the width of the tuples emitted by the last of blocks
// when the first receives tuples of width in.
func Width(blocks []Block, in int) int {
	for _, b := range blocks {
		in = b.OutputWidth(in)
	}
	return in
}

// link is the downstream connection of a stage.
type link struct {
	sink   Sink
	failed bool
}

func (l *link) Begin() error { return l.sink.Begin() }

func (l *link) End() error {
	if l.failed {
		return ErrFailed
	}
	return l.sink.End()
}

// Fail is idempotent.
func (l *link) Fail() error {
	if l.failed {
		return nil
	}
	l.failed = true
	return l.sink.Fail()
}

// forward passes the first n tuples of buf downstream, if there are any.
func (l *link) forward(buf []Tuple, n int) error {
	if n == 0 {
		return nil
	}
	return l.sink.Output(buf, n)
}
