// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"go.xqpipe.net/syntax"
)

// A Table owns a forest of scopes mirroring a syntax tree, plus a map
// from each scope-opening node to the scope it introduces.
//
// A walk also records, for every expression it visits, the scope that
// was current at that point and how many of its bindings existed then.
// Parts of a construct visited outside the construct's own scope, or
// before its variables are bound, resolve through that record.
type Table struct {
	tree   *syntax.Tree
	scopes map[syntax.Node]*Scope
	visits map[syntax.Node]visit
	root   *Scope
	cur    *Scope

	// reuse, if set, is the scope the next OpenScope call re-enters
	// instead of creating a new one. See Walker.Refresh.
	reuse *Scope
}

type visit struct {
	scope *Scope
	n     int // bindings of scope visible to the node
}

// NewTable returns a table whose root scope is anchored at root.
func NewTable(tree *syntax.Tree, root syntax.Node) *Table {
	s := &Scope{node: root, division: 1}
	return &Table{
		tree:   tree,
		scopes: map[syntax.Node]*Scope{root: s},
		visits: make(map[syntax.Node]visit),
		root:   s,
		cur:    s,
	}
}

// Root returns the root scope.
func (t *Table) Root() *Scope { return t.root }

// Current returns the innermost open scope.
func (t *Table) Current() *Scope { return t.cur }

// Len returns the number of nodes that introduce a scope.
func (t *Table) Len() int { return len(t.scopes) }

// OpenScope creates a scope anchored at node as the last child of the
// current scope and makes it current.
func (t *Table) OpenScope(node syntax.Node) *Scope {
	var s *Scope
	if r := t.reuse; r != nil && r.node == node && r.parent == t.cur {
		s, t.reuse = r, nil
	} else {
		s = t.cur.open(node)
	}
	s.visible = len(t.cur.names)
	t.scopes[node] = s
	t.cur = s
	return s
}

// CloseScope makes the parent of the current scope current.
// It panics if the current scope is the root.
func (t *Table) CloseScope() {
	if t.cur.parent == nil {
		panic("resolve: CloseScope of root scope")
	}
	t.cur = t.cur.parent
}

// Bind appends name to the bindings of the current scope.
func (t *Table) Bind(name string) { t.cur.bind(name) }

// Visit records that node is visited in the current scope, which
// already holds its current bindings and no later ones.
func (t *Table) Visit(node syntax.Node) {
	t.visits[node] = visit{t.cur, len(t.cur.names)}
}

// Lookup returns the scope introduced by the innermost construct
// enclosing node, node included. A node visited by the walk yields the
// scope it was visited in, which need not be the scope of its
// construct: a typeswitch operand, for instance, is visited outside
// the typeswitch scope. Lookup reports false if no ancestor of node
// opens a scope in this table.
func (t *Table) Lookup(node syntax.Node) (*Scope, bool) {
	if s, ok := t.scopes[node]; ok {
		return s, true
	}
	v, ok := t.find(node)
	return v.scope, ok
}

// find returns the visit of the innermost recorded node enclosing node.
// An anchor counts as visited with all the bindings of its scope, and
// above node itself it takes precedence over the walk's own visit of
// the anchor node, except at a path step: a step's content is walked
// before the step's scope is opened.
func (t *Table) find(node syntax.Node) (visit, bool) {
	for n := node; n != syntax.NoNode; n = t.tree.Parent(n) {
		v, visited := t.visits[n]
		s, anchor := t.scopes[n]
		if visited && (n == node || !anchor || t.tree.Kind(t.tree.Parent(n)) == syntax.PathExpr) {
			return v, true
		}
		if anchor {
			return visit{s, len(s.names)}, true
		}
	}
	return visit{}, false
}

// Resolve returns the scope that defines the variable referenced by ref.
// The search starts at the scope of the innermost construct enclosing
// ref and proceeds outwards. If no scope binds the name, Resolve
// returns a diagnostic; such references are typically free or global
// and callers should tolerate them.
func (t *Table) Resolve(ref syntax.Node) (*Scope, error) {
	name := t.tree.Name(ref)
	v, ok := t.find(ref)
	if !ok {
		v = visit{t.root, len(t.root.names)}
	}
	if def := v.scope.lookup(name, v.n); def != nil {
		return def, nil
	}
	return nil, Error{Pos: t.tree.Pos(ref), Msg: "undefined: $" + name, Name: name}
}

// scopeOf returns the scope a reference is resolved from.
func (t *Table) scopeOf(ref syntax.Node) *Scope {
	if v, ok := t.find(ref); ok {
		return v.scope
	}
	return t.root
}

// ResetTo discards every descendant of s, clears the bindings of s and
// makes s current. The anchor of s is kept so that the subtree can be
// analyzed again.
func (t *Table) ResetTo(s *Scope) {
	gone := map[*Scope]bool{s: true}
	for _, c := range s.children {
		t.drop(c, gone)
	}
	for n, v := range t.visits {
		if gone[v.scope] {
			delete(t.visits, n)
		}
	}
	s.children = nil
	s.names = nil
	t.cur = s
}

func (t *Table) drop(s *Scope, gone map[*Scope]bool) {
	gone[s] = true
	if t.scopes[s.node] == s {
		delete(t.scopes, s.node)
	}
	for _, c := range s.children {
		t.drop(c, gone)
	}
}

// Scopes returns all scopes of the table in pre-order.
func (t *Table) Scopes() []*Scope {
	var all []*Scope
	var visit func(s *Scope)
	visit = func(s *Scope) {
		all = append(all, s)
		for _, c := range s.children {
			visit(c)
		}
	}
	visit(t.root)
	return all
}
