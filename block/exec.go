// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ExecOptions control Exec.
type ExecOptions struct {
	// StopAt, if non-nil, is a boundary stage of the chain. Replicas
	// are then made with Partition(StopAt) and share the chain from
	// StopAt on; otherwise they are made with Fork.
	StopAt Sink
}

// Exec runs the chain starting at sink over input on ctx.Workers
// replicas. The input is divided into batches of ctx.BatchSize tuples,
// dealt to the replicas in turn; sink itself is the first replica.
//
// All replicas are begun before any output. Each is then fed its
// batches and ended on its own goroutine. If a replica fails, or ctx
// is canceled, the remaining replicas stop at their next batch, every
// replica that did not end is failed, and Exec returns the first
// error.
func Exec(ctx *Context, sink Sink, input []Tuple, opts ExecOptions) error {
	workers := ctx.workers()
	size := ctx.batchSize()
	log := ctx.logger()

	replicas := make([]Sink, workers)
	replicas[0] = sink
	for i := 1; i < workers; i++ {
		if opts.StopAt != nil {
			replicas[i] = sink.Partition(opts.StopAt)
		} else {
			replicas[i] = sink.Fork()
		}
	}

	for i, r := range replicas {
		if err := r.Begin(); err != nil {
			failAll(ctx, log, replicas[:i+1], nil)
			return fmt.Errorf("begin: %w", err)
		}
	}

	ended := make([]bool, workers)
	g, gctx := errgroup.WithContext(ctx.Context)
	for r, replica := range replicas {
		g.Go(func() error {
			if err := feed(gctx, replica, input, r, workers, size); err != nil {
				log.LogAttrs(gctx, slog.LevelDebug, "replica stopped",
					slog.Int("replica", r), slog.String("error", err.Error()))
				return err
			}
			if err := replica.End(); err != nil {
				return fmt.Errorf("end: %w", err)
			}
			ended[r] = true
			log.LogAttrs(gctx, slog.LevelDebug, "replica ended", slog.Int("replica", r))
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "pipeline failed", slog.String("error", err.Error()))
		failAll(ctx, log, replicas, ended)
	}
	return err
}

// feed outputs the batches r, r+workers, r+2*workers, ... of input to
// replica r.
func feed(ctx context.Context, replica Sink, input []Tuple, r, workers, size int) error {
	buf := make([]Tuple, size)
	for start := r * size; start < len(input); start += workers * size {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, input[start:])
		if err := replica.Output(buf, n); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// failAll fails the replicas that have not ended. Errors from Fail are
// logged, not returned, so that they do not mask the original failure.
func failAll(ctx context.Context, log *slog.Logger, replicas []Sink, ended []bool) {
	for r, replica := range replicas {
		if ended != nil && ended[r] {
			continue
		}
		if err := replica.Fail(); err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "fail",
				slog.Int("replica", r), slog.String("error", err.Error()))
		}
	}
}
