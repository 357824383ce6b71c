// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"sort"

	"go.xqpipe.net/syntax"
)

// An ErrorList is a list of resolver diagnostics.
type ErrorList []Error

func (e ErrorList) Error() string {
	switch len(e) {
	case 0:
		return "no errors"
	case 1:
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e[0], len(e)-1)
}

// Sort orders the list by source position.
func (e ErrorList) Sort() {
	sort.SliceStable(e, func(i, j int) bool { return e[i].Pos.Before(e[j].Pos) })
}

// An Error describes the nature and position of a resolver diagnostic,
// such as a reference to a variable no enclosing scope binds.
type Error struct {
	Pos  syntax.Position
	Msg  string
	Name string // the unresolved variable name, if any
}

func (e Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return e.Pos.String() + ": " + e.Msg
}

// A PipelineError reports an operator of unexpected kind in a pipeline.
// It indicates a malformed tree, not a user error, and aborts the walk.
type PipelineError struct {
	Pos  syntax.Position
	Kind syntax.Kind
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("internal error: unexpected pipeline operator %s", e.Kind)
	if !e.Pos.IsValid() {
		return msg
	}
	return e.Pos.String() + ": " + msg
}
