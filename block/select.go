// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"

	"go.xqpipe.net/sequence"
)

// Select keeps the tuples for which Pred has a true effective boolean
// value.
type Select struct {
	Pred Expr
}

func (b Select) Create(ctx *Context, sink Sink) (Sink, error) {
	if b.Pred == nil {
		return nil, fmt.Errorf("select: nil predicate")
	}
	return &selectSink{ctx: ctx, pred: b.Pred, link: link{sink: sink}}, nil
}

func (b Select) OutputWidth(inputWidth int) int { return inputWidth }

type selectSink struct {
	link
	ctx  *Context
	pred Expr
}

// Output compacts the surviving tuples to the front of buf, keeping
// their order, and forwards them if there are any.
func (s *selectSink) Output(buf []Tuple, n int) error {
	if s.failed {
		return ErrFailed
	}
	m := 0
	for i := 0; i < n; i++ {
		t := buf[i]
		buf[i] = nil
		p, err := s.pred.Evaluate(s.ctx, t)
		if err != nil {
			clear(buf[:n])
			return fmt.Errorf("select: %w", err)
		}
		ok, err := sequence.Truth(p)
		if err != nil {
			clear(buf[:n])
			return fmt.Errorf("select: %w", err)
		}
		if ok {
			buf[m] = t
			m++
		}
	}
	return s.forward(buf, m)
}

func (s *selectSink) Fork() Sink {
	return &selectSink{ctx: s.ctx, pred: s.pred, link: link{sink: s.sink.Fork()}}
}

func (s *selectSink) Partition(stopAt Sink) Sink {
	return &selectSink{ctx: s.ctx, pred: s.pred, link: link{sink: s.sink.Partition(stopAt)}}
}
