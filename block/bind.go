// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"

	"go.xqpipe.net/sequence"
)

// This file defines the stages that bind new columns.

// Let appends the value of Expr to each tuple.
type Let struct {
	Expr Expr
}

func (b Let) Create(ctx *Context, sink Sink) (Sink, error) {
	if b.Expr == nil {
		return nil, fmt.Errorf("let: nil expression")
	}
	return &letSink{ctx: ctx, expr: b.Expr, link: link{sink: sink}}, nil
}

func (b Let) OutputWidth(inputWidth int) int { return inputWidth + 1 }

type letSink struct {
	link
	ctx  *Context
	expr Expr
}

func (s *letSink) Output(buf []Tuple, n int) error {
	if s.failed {
		return ErrFailed
	}
	for i := 0; i < n; i++ {
		v, err := s.expr.Evaluate(s.ctx, buf[i])
		if err != nil {
			clear(buf[:n])
			return fmt.Errorf("let: %w", err)
		}
		buf[i] = buf[i].Concat(v)
	}
	return s.forward(buf, n)
}

func (s *letSink) Fork() Sink {
	return &letSink{ctx: s.ctx, expr: s.expr, link: link{sink: s.sink.Fork()}}
}

func (s *letSink) Partition(stopAt Sink) Sink {
	return &letSink{ctx: s.ctx, expr: s.expr, link: link{sink: s.sink.Partition(stopAt)}}
}

// For emits one tuple per item of the value of Expr, appending the
// item and, if Pos is set, its 1-based position.
type For struct {
	Expr Expr
	Pos  bool
}

func (b For) Create(ctx *Context, sink Sink) (Sink, error) {
	if b.Expr == nil {
		return nil, fmt.Errorf("for: nil expression")
	}
	return &forSink{ctx: ctx, expr: b.Expr, pos: b.Pos, link: link{sink: sink}}, nil
}

func (b For) OutputWidth(inputWidth int) int {
	if b.Pos {
		return inputWidth + 2
	}
	return inputWidth + 1
}

type forSink struct {
	link
	ctx  *Context
	expr Expr
	pos  bool
	out  []Tuple // reused between calls
}

func (s *forSink) Output(buf []Tuple, n int) error {
	if s.failed {
		return ErrFailed
	}
	size := s.ctx.batchSize()
	if cap(s.out) < size {
		s.out = make([]Tuple, 0, size)
	}
	out := s.out[:0]
	defer clear(buf[:n])
	for i := 0; i < n; i++ {
		v, err := s.expr.Evaluate(s.ctx, buf[i])
		if err != nil {
			return fmt.Errorf("for: %w", err)
		}
		if v == nil {
			continue
		}
		it := v.Iterate()
		var x sequence.Item
		for pos := 1; it.Next(&x); pos++ {
			if s.pos {
				out = append(out, buf[i].Concat(x, sequence.Int(pos)))
			} else {
				out = append(out, buf[i].Concat(x))
			}
			if len(out) == size {
				if err := s.sink.Output(out, len(out)); err != nil {
					it.Close()
					return err
				}
				out = out[:0]
			}
		}
		err = it.Err()
		it.Close()
		if err != nil {
			return fmt.Errorf("for: %w", err)
		}
	}
	return s.forward(out, len(out))
}

func (s *forSink) Fork() Sink {
	return &forSink{ctx: s.ctx, expr: s.expr, pos: s.pos, link: link{sink: s.sink.Fork()}}
}

func (s *forSink) Partition(stopAt Sink) Sink {
	return &forSink{ctx: s.ctx, expr: s.expr, pos: s.pos, link: link{sink: s.sink.Partition(stopAt)}}
}

// Count appends the running 1-based count of the tuples that reached
// the stage. Each replica counts separately.
type Count struct{}

func (Count) Create(ctx *Context, sink Sink) (Sink, error) {
	return &countSink{link: link{sink: sink}}, nil
}

func (Count) OutputWidth(inputWidth int) int { return inputWidth + 1 }

type countSink struct {
	link
	n int64
}

func (s *countSink) Output(buf []Tuple, n int) error {
	if s.failed {
		return ErrFailed
	}
	for i := 0; i < n; i++ {
		s.n++
		buf[i] = buf[i].Concat(sequence.Int(s.n))
	}
	return s.forward(buf, n)
}

func (s *countSink) Fork() Sink { return &countSink{link: link{sink: s.sink.Fork()}} }

func (s *countSink) Partition(stopAt Sink) Sink {
	return &countSink{link: link{sink: s.sink.Partition(stopAt)}}
}
