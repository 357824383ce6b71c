// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve defines a scope analysis pass over query syntax trees.
//
// The Walker visits a tree once, opening a Scope for every construct
// that introduces variables and recording the names each one binds.
// Optimizer rewrites then ask which scope encloses a node (FindScope),
// which scope defines each variable reference beneath a node
// (FindVarRefs), and, after mutating a subtree, re-analyze just that
// subtree (Refresh).
//
// Pipelines get one scope per operator, nested from source to sink, so
// that a reference in an operator resolves to the nearest upstream
// operator binding the name. Filter predicates, path steps, node
// constructors and catch clauses bind implicit names such as fs:dot
// and err:code.
//
// References that no scope binds are not errors: they are reported as
// diagnostics (see Diagnostics) and analysis continues, unless the
// StrictRefs mode is set.
package resolve // import "go.xqpipe.net/resolve"

import (
	"context"
	"log/slog"

	"go.xqpipe.net/syntax"
)

// A Mode controls optional Walker behavior.
type Mode uint

const (
	// StrictRefs makes FindVarRefs fail on the first unresolved
	// reference instead of recording a diagnostic and moving on.
	StrictRefs Mode = 1 << iota
)

// A VarRef records the resolution of one variable reference.
type VarRef struct {
	Name     string
	Ref      syntax.Node // the VariableRef node
	RefScope *Scope      // scope the reference was visited in
	Scope    *Scope      // scope defining the variable
}

func (r *VarRef) String() string { return "$" + r.Name }

// A Walker performs scope analysis of a syntax tree.
// A Walker is not safe for concurrent use.
type Walker struct {
	// Logger, if non-nil, receives unresolved-reference diagnostics
	// at warning level.
	Logger *slog.Logger

	tree  *syntax.Tree
	mode  Mode
	table *Table
	diags ErrorList
}

// New returns a Walker for the given tree. Call Walk before issuing
// queries.
func New(tree *syntax.Tree, mode Mode) *Walker {
	return &Walker{tree: tree, mode: mode}
}

// Tree analyzes the whole of tree and returns the Walker holding the
// result.
func Tree(tree *syntax.Tree, mode Mode) (*Walker, error) {
	w := New(tree, mode)
	if err := w.Walk(tree.Root); err != nil {
		return nil, err
	}
	return w, nil
}

// Walk discards any previous analysis and analyzes the subtree rooted
// at root, whose scope becomes the root scope.
// It returns a *PipelineError if the tree contains a malformed pipeline.
func (w *Walker) Walk(root syntax.Node) (err error) {
	defer w.recover(&err)
	w.table = NewTable(w.tree, root)
	w.diags = nil
	w.walkInspect(root)
	return nil
}

// Table returns the scope table built by the last walk.
func (w *Walker) Table() *Table { return w.table }

// Diagnostics returns the unresolved references reported so far,
// in the order they were found.
func (w *Walker) Diagnostics() ErrorList { return w.diags }

// recover converts a panic of type *PipelineError into an error result.
func (w *Walker) recover(err *error) {
	if e := recover(); e != nil {
		if e, ok := e.(*PipelineError); ok {
			*err = e
			return
		}
		panic(e)
	}
}

// FindScope returns the scope introduced by the innermost construct
// enclosing node, or the root scope. For a node below an anchor this is
// the scope the walk visited it in; see Table.Lookup.
func (w *Walker) FindScope(node syntax.Node) *Scope {
	if s, ok := w.table.Lookup(node); ok {
		return s
	}
	return w.table.root
}

// FindVarRefs resolves every variable reference beneath node, node
// included, and returns them in tree order.
//
// A reference no scope defines is omitted from the result and recorded
// as a diagnostic. In StrictRefs mode FindVarRefs instead returns the
// references found so far together with the diagnostic.
func (w *Walker) FindVarRefs(node syntax.Node) ([]*VarRef, error) {
	var refs []*VarRef
	err := w.findVarRefs(node, &refs)
	return refs, err
}

func (w *Walker) findVarRefs(node syntax.Node, refs *[]*VarRef) error {
	if w.tree.Kind(node) == syntax.VariableRef {
		s := w.table.scopeOf(node)
		def, err := w.table.Resolve(node)
		if err != nil {
			w.report(err.(Error))
			if w.mode&StrictRefs != 0 {
				return err
			}
			return nil
		}
		*refs = append(*refs, &VarRef{Name: w.tree.Name(node), Ref: node, RefScope: s, Scope: def})
		return nil
	}
	for _, c := range w.tree.Children(node) {
		if err := w.findVarRefs(c, refs); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) report(e Error) {
	w.diags = append(w.diags, e)
	if w.Logger != nil {
		w.Logger.LogAttrs(context.Background(), slog.LevelWarn, "unresolved variable",
			slog.String("name", e.Name),
			slog.String("pos", e.Pos.String()))
	}
}

// Refresh re-analyzes the subtree of the construct whose scope
// encloses node. A rewrite must call Refresh on any subtree it
// structurally changes before issuing further queries against it.
// For a node the walk visits outside its construct's scope, such as a
// typeswitch operand or a path step, the enclosing scope is the one it
// was visited in, so the replay reaches the node again.
//
// The enclosing scope keeps its identity and position: its bindings
// and nested scopes are rebuilt by replaying the construct that opened
// it, and all other scopes are left untouched.
func (w *Walker) Refresh(node syntax.Node) (err error) {
	defer w.recover(&err)
	s := w.FindScope(node)
	w.table.ResetTo(s)
	if s == w.table.root {
		w.walkInspect(s.node)
		return nil
	}
	w.table.cur = s.parent
	w.table.reuse = s
	w.rescope(s.node)
	if w.table.reuse != nil {
		// The anchor no longer opens a scope, so the rewrite
		// removed its construct. Rebuild the parent instead.
		w.table.reuse = nil
		return w.Refresh(s.parent.node)
	}
	w.table.cur = w.table.root
	return nil
}
