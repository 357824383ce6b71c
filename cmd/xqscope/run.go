// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"go.xqpipe.net/block"
	"go.xqpipe.net/internal/config"
	"go.xqpipe.net/sequence"
)

// runDemo executes the pipeline
//
//	for $r in records($n)
//	where $r.id mod 2 = 1
//	let $name := $r.name
//	count $c
//	return ($r, $name, $c)
//
// on cfg.Pipeline.Workers replicas that share the count stage, prints
// each result tuple, and then sums the selected ids by splitting them
// across goroutines.
func runDemo(ctx context.Context, out io.Writer, n int, cfg *config.Config, logger *slog.Logger) error {
	input := make([]block.Tuple, n)
	for i := range input {
		id := i + 1
		input[i] = block.Tuple{sequence.NewObject(
			sequence.Field{Name: "id", Value: sequence.Int(id)},
			sequence.Field{Name: "name", Value: sequence.Str(fmt.Sprintf("item%d", id))},
		)}
	}

	bctx := block.NewContext(ctx)
	bctx.BatchSize = cfg.Pipeline.BatchSize
	bctx.Workers = cfg.Pipeline.Workers
	bctx.Logger = logger

	id := block.Deref(block.Column(0), sequence.QName("id"))
	odd := block.ExprFunc(func(ctx *block.Context, t block.Tuple) (sequence.Sequence, error) {
		v, err := id.Evaluate(ctx, t)
		if err != nil {
			return nil, err
		}
		i, ok := v.(sequence.Int)
		return sequence.Bool(ok && i%2 == 1), nil
	})

	results := new(block.Collect)
	tail, err := block.Compile(bctx, []block.Block{block.Count{}}, results)
	if err != nil {
		return err
	}
	exchange := block.NewExchange(tail)
	head, err := block.Compile(bctx, []block.Block{
		block.Select{Pred: odd},
		block.Let{Expr: block.Deref(block.Column(0), sequence.QName("name"))},
	}, exchange)
	if err != nil {
		return err
	}
	if err := block.Exec(bctx, head, input, block.ExecOptions{StopAt: exchange}); err != nil {
		return err
	}

	var ids []sequence.Item
	for _, t := range results.Tuples() {
		fmt.Fprintln(out, t)
		v, err := id.Evaluate(bctx, t)
		if err != nil {
			return err
		}
		items, err := sequence.Collect(v)
		if err != nil {
			return err
		}
		ids = append(ids, items...)
	}

	var sum atomic.Int64
	opts := sequence.ParallelOptions{Min: cfg.Split.Min, Max: cfg.Split.Max, Workers: cfg.Pipeline.Workers}
	err = sequence.Parallel(ctx, sequence.NewItemIter(ids), opts, func(ctx context.Context, it sequence.Iter) error {
		var x sequence.Item
		for it.Next(&x) {
			if i, ok := x.(sequence.Int); ok {
				sum.Add(int64(i))
			}
		}
		return it.Err()
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d records selected, sum of ids %d\n", len(ids), n, sum.Load())
	return nil
}
