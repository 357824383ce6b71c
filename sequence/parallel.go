// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequence

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelOptions control how Parallel divides an iterator.
type ParallelOptions struct {
	// Min and Max are passed to Iter.Split.
	Min, Max int

	// Workers limits the number of concurrent calls to the consumer.
	// Zero means no limit.
	Workers int
}

// Parallel consumes it by splitting it repeatedly and calling fn on the
// resulting iterators from separate goroutines. Each iterator passed to
// fn is closed once fn returns. If any call fails, the context passed
// to the others is canceled and Parallel returns the first error.
//
// When no worker is free, the half that would have gone to a new
// goroutine is consumed by the splitting goroutine instead.
func Parallel(ctx context.Context, it Iter, opts ParallelOptions, fn func(context.Context, Iter) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	var run func(it Iter) error
	run = func(it Iter) error {
		defer func() { it.Close() }()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := it.Split(opts.Min, opts.Max)
			if !s.Divided() {
				break
			}
			head := s.Head
			if s.Serial || !g.TryGo(func() error { return run(head) }) {
				if err := run(head); err != nil {
					return err
				}
			}
			it = s.Tail
		}
		return fn(ctx, it)
	}
	g.Go(func() error { return run(it) })
	return g.Wait()
}
