// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"

	"go.xqpipe.net/sequence"
)

// An Expr computes a sequence from the bindings of a tuple.
// A nil result denotes the empty sequence.
type Expr interface {
	Evaluate(ctx *Context, t Tuple) (sequence.Sequence, error)
}

// ExprFunc adapts a function to the Expr interface.
type ExprFunc func(ctx *Context, t Tuple) (sequence.Sequence, error)

func (f ExprFunc) Evaluate(ctx *Context, t Tuple) (sequence.Sequence, error) { return f(ctx, t) }

// A Column evaluates to the value of one column of the tuple.
type Column int

func (c Column) Evaluate(ctx *Context, t Tuple) (sequence.Sequence, error) {
	if int(c) < 0 || int(c) >= len(t) {
		return nil, fmt.Errorf("column %d out of range for tuple of width %d", c, len(t))
	}
	return t[c], nil
}

// Const returns an expression whose value is always seq.
func Const(seq sequence.Sequence) Expr {
	return ExprFunc(func(*Context, Tuple) (sequence.Sequence, error) { return seq, nil })
}

// Deref returns an expression that looks up field in each object of
// the value of e.
func Deref(e Expr, field sequence.Item) Expr {
	return ExprFunc(func(ctx *Context, t Tuple) (sequence.Sequence, error) {
		v, err := e.Evaluate(ctx, t)
		if err != nil {
			return nil, err
		}
		return sequence.Lookup(v, field)
	})
}
