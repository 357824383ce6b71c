// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"go.xqpipe.net/syntax"
)

// This file defines the binding walk: which constructs open scopes, in
// which order their parts are visited, and which names they bind.

func (w *Walker) walkInspect(node syntax.Node) {
	if node == syntax.NoNode {
		return
	}
	w.table.Visit(node)
	if w.inspect(node) {
		for _, c := range w.tree.Children(node) {
			w.walkInspect(c)
		}
	}
}

// inspect reports whether the children of node should be visited by
// the generic walk. Binding constructs are handled here instead.
func (w *Walker) inspect(node syntax.Node) bool {
	switch w.tree.Kind(node) {
	case syntax.PipeExpr:
		w.inspectPipeline(w.child(node, 0))
	case syntax.TypeSwitch:
		w.typeswitchExpr(node)
	case syntax.QuantifiedExpr:
		w.quantifiedExpr(node, 1)
	case syntax.TransformExpr:
		w.transformExpr(node)
	case syntax.TryCatchExpr:
		w.tryCatchExpr(node)
	case syntax.FilterExpr:
		w.filterExpr(node)
	case syntax.PathExpr:
		w.pathExpr(node, 0)
	case syntax.CompDocumentConstructor:
		w.documentExpr(node)
	case syntax.DirElementConstructor, syntax.CompElementConstructor:
		w.elementExpr(node)
	default:
		return true
	}
	return false
}

// child returns the ith child of n, or NoNode if there is none.
func (w *Walker) child(n syntax.Node, i int) syntax.Node {
	if i < 0 || i >= w.tree.Len(n) {
		return syntax.NoNode
	}
	return w.tree.Child(n, i)
}

// boundName returns the name declared by a TypedVariableBinding or
// CopyBinding, whose first child is the Variable.
func (w *Walker) boundName(binding syntax.Node) string {
	return w.tree.Name(w.child(binding, 0))
}

// inspectPipeline opens one scope per operator, from source to sink,
// so that each operator and everything downstream of it sees the names
// bound upstream.
func (w *Walker) inspectPipeline(node syntax.Node) {
	w.table.OpenScope(node)
	switch kind := w.tree.Kind(node); kind {
	case syntax.Start:
	case syntax.ForBind:
		w.forBind(node)
	case syntax.LetBind:
		w.letBind(node)
	case syntax.Selection:
		w.walkInspect(w.child(node, 0))
	case syntax.OrderBy:
		w.orderBy(node)
	case syntax.Join:
		w.join(node)
	case syntax.GroupBy:
		// group by binds nothing new
	case syntax.Count:
		w.table.Bind(w.boundName(w.child(node, 0)))
	default:
		panic(&PipelineError{Pos: w.tree.Pos(node), Kind: kind})
	}

	out := w.tree.LastChild(node)
	if w.tree.Kind(out) == syntax.End {
		if w.tree.Len(out) != 0 {
			// only the return expression remains
			w.walkInspect(w.tree.Child(out, 0))
		}
		w.walkInspect(w.joinKey(out))
	} else {
		w.inspectPipeline(out)
	}
	w.table.CloseScope()
}

func (w *Walker) forBind(node syntax.Node) {
	forVar := w.boundName(w.child(node, 0))
	var posVar string
	src := w.child(node, 1)
	if w.tree.Kind(src) == syntax.TypedVariableBinding {
		posVar = w.boundName(src)
		src = w.child(node, 2)
	}

	// The source is evaluated before the variables exist.
	w.walkInspect(src)

	w.table.Bind(forVar)
	if posVar != "" {
		w.table.Bind(posVar)
	}
}

func (w *Walker) letBind(node syntax.Node) {
	letVar := w.boundName(w.child(node, 0))
	w.walkInspect(w.child(node, 1))
	w.table.Bind(letVar)
}

func (w *Walker) orderBy(node syntax.Node) {
	// the last child is the output
	for i := 0; i < w.tree.Len(node)-1; i++ {
		w.walkInspect(w.child(w.tree.Child(node, i), 0))
	}
}

// join walks both inputs as nested pipelines. Each key is walked at the
// end of its input, inside the scopes of that input.
func (w *Walker) join(node syntax.Node) {
	w.inspectPipeline(w.child(node, 0))
	w.inspectPipeline(w.child(node, 2))
}

// joinKey returns the key of the join input that end terminates, or
// NoNode if end does not terminate a join input. The JoinClause holds
// the comparison in its value and the left and right keys as children.
func (w *Walker) joinKey(end syntax.Node) syntax.Node {
	n := w.tree.Parent(end)
	for w.tree.Kind(n) != syntax.Start {
		if n == syntax.NoNode || !w.tree.Kind(n).IsOperator() {
			return syntax.NoNode
		}
		n = w.tree.Parent(n)
	}
	join := w.tree.Parent(n)
	if w.tree.Kind(join) != syntax.Join {
		return syntax.NoNode
	}
	switch w.tree.Index(n) {
	case 0:
		return w.child(w.child(join, 1), 0)
	case 2:
		return w.child(w.child(join, 1), 1)
	}
	return syntax.NoNode
}

func (w *Walker) typeswitchExpr(expr syntax.Node) {
	w.walkInspect(w.child(expr, 0))
	w.typeswitchCases(expr)
}

func (w *Walker) typeswitchCases(expr syntax.Node) {
	w.table.OpenScope(expr)
	for i := 1; i < w.tree.Len(expr); i++ {
		// the default clause is a case without a type
		w.caseClause(w.tree.Child(expr, i))
	}
	w.table.CloseScope()
}

func (w *Walker) caseClause(clause syntax.Node) {
	w.table.OpenScope(clause)
	if v := w.child(clause, 0); w.tree.Kind(v) == syntax.Variable {
		w.table.Bind(w.tree.Name(v))
	}
	// skip the sequence types; visit the return expression
	w.walkInspect(w.tree.LastChild(clause))
	w.table.CloseScope()
}

// quantifiedExpr walks the quantifier clauses from the binding at child
// index from. Child 0 is the quantifier; (binding, source) pairs
// follow, and the last child is the test. A source sees its own clause
// variable and all earlier ones; the test sees every clause.
func (w *Walker) quantifiedExpr(expr syntax.Node, from int) {
	n := w.tree.Len(expr)
	opened := 0
	for i := from; i < n-1; i += 2 {
		binding := w.tree.Child(expr, i)
		w.table.OpenScope(binding)
		w.table.Bind(w.boundName(binding))
		w.walkInspect(w.child(expr, i+1))
		opened++
	}
	w.walkInspect(w.tree.LastChild(expr))
	for ; opened > 0; opened-- {
		w.table.CloseScope()
	}
}

func (w *Walker) transformExpr(expr syntax.Node) {
	w.table.OpenScope(expr)
	n := w.tree.Len(expr)
	pos := 0
	for ; pos < n-2; pos++ {
		binding := w.tree.Child(expr, pos)
		w.walkInspect(w.child(binding, 1))
		w.table.Bind(w.boundName(binding))
	}
	w.walkInspect(w.child(expr, pos))   // modify
	w.walkInspect(w.child(expr, pos+1)) // return
	w.table.CloseScope()
}

func (w *Walker) tryCatchExpr(expr syntax.Node) {
	w.walkInspect(w.child(expr, 0))
	w.catchClauses(expr)
}

func (w *Walker) catchClauses(expr syntax.Node) {
	w.table.OpenScope(expr)
	w.table.Bind(syntax.ErrCode)
	w.table.Bind(syntax.ErrDescription)
	w.table.Bind(syntax.ErrValue)
	w.table.Bind(syntax.ErrModule)
	w.table.Bind(syntax.ErrLineNumber)
	w.table.Bind(syntax.ErrColumnNumber)
	for i := 1; i < w.tree.Len(expr); i++ {
		// child 0 of a clause is its error name list
		w.walkInspect(w.child(w.tree.Child(expr, i), 0))
	}
	w.table.CloseScope()
}

func (w *Walker) filterExpr(expr syntax.Node) {
	w.walkInspect(w.child(expr, 0))
	for i := 1; i < w.tree.Len(expr); i++ {
		w.predicate(w.tree.Child(expr, i))
	}
}

func (w *Walker) predicate(pred syntax.Node) {
	w.table.OpenScope(pred)
	w.table.Bind(syntax.FSDot)
	w.table.Bind(syntax.FSPosition)
	w.table.Bind(syntax.FSLast)
	w.walkInspect(pred)
	w.table.CloseScope()
}

// pathExpr walks the steps of a path from index from. Each step's scope
// encloses all later steps.
func (w *Walker) pathExpr(expr syntax.Node, from int) {
	n := w.tree.Len(expr)
	for i := from; i < n; i++ {
		step := w.tree.Child(expr, i)
		w.walkInspect(step)
		w.table.OpenScope(step)
	}
	for i := from; i < n; i++ {
		w.table.CloseScope()
	}
}

func (w *Walker) documentExpr(node syntax.Node) {
	w.table.OpenScope(node)
	w.table.Bind(syntax.FSParent)
	w.walkInspect(w.child(node, 0))
	w.table.CloseScope()
}

func (w *Walker) elementExpr(node syntax.Node) {
	pos := w.elementContent(node)
	w.walkInspect(w.child(node, pos-1)) // name
	w.elementBody(node, pos)
}

// elementContent returns the index of the content sequence of an
// element constructor, which follows the namespace declarations and
// the name.
func (w *Walker) elementContent(node syntax.Node) int {
	pos := 0
	for w.tree.Kind(w.child(node, pos)) == syntax.NamespaceDeclaration {
		pos++
	}
	return pos + 1
}

func (w *Walker) elementBody(node syntax.Node, content int) {
	w.table.OpenScope(node)
	w.table.Bind(syntax.FSParent)
	w.walkInspect(w.child(node, content))
	w.table.CloseScope()
}

// rescope replays the part of the walk that opens the scope anchored at
// node. The table must be positioned at the parent of that scope, with
// the scope marked for reuse.
func (w *Walker) rescope(node syntax.Node) {
	parent := w.tree.Parent(node)
	switch w.tree.Kind(parent) {
	case syntax.QuantifiedExpr:
		if i := w.tree.Index(node); i > 0 && i < w.tree.Len(parent)-1 && i%2 == 1 {
			w.quantifiedExpr(parent, i)
			return
		}
	case syntax.FilterExpr:
		if w.tree.Index(node) > 0 {
			w.predicate(node)
			return
		}
	case syntax.PathExpr:
		i := w.tree.Index(node)
		w.table.OpenScope(node)
		w.pathExpr(parent, i+1)
		w.table.CloseScope()
		return
	}

	switch kind := w.tree.Kind(node); {
	case kind.IsOperator():
		w.inspectPipeline(node)
	case kind == syntax.TypeSwitch:
		w.typeswitchCases(node)
	case kind == syntax.TypeSwitchCase:
		w.caseClause(node)
	case kind == syntax.TransformExpr:
		w.transformExpr(node)
	case kind == syntax.TryCatchExpr:
		w.catchClauses(node)
	case kind == syntax.CompDocumentConstructor:
		w.documentExpr(node)
	case kind == syntax.DirElementConstructor, kind == syntax.CompElementConstructor:
		w.elementBody(node, w.elementContent(node))
	}
}
