// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
)

// scopeFixture builds the table
//
//	1[] Module
//	  1.1[a] ForBind
//	    1.1.1[b] LetBind
//	    1.1.2[] Selection
//	  1.2[] Count
type scopeFixture struct {
	tree                   *syntax.Tree
	tab                    *resolve.Table
	ref                    syntax.Node // $b beneath the LetBind
	forN, letN, selN, cntN syntax.Node
}

func newScopeFixture() *scopeFixture {
	tree := syntax.NewTree("scope")
	f := &scopeFixture{tree: tree}
	f.ref = tree.New(syntax.VariableRef, "b")
	f.letN = tree.New(syntax.LetBind, nil, f.ref)
	f.selN = tree.New(syntax.Selection, nil)
	f.forN = tree.New(syntax.ForBind, nil, f.letN, f.selN)
	f.cntN = tree.New(syntax.Count, nil)
	tree.Root = tree.New(syntax.Module, nil, f.forN, f.cntN)

	tab := resolve.NewTable(tree, tree.Root)
	tab.OpenScope(f.forN)
	tab.Bind("a")
	tab.OpenScope(f.letN)
	tab.Bind("b")
	tab.CloseScope()
	tab.OpenScope(f.selN)
	tab.CloseScope()
	tab.CloseScope()
	tab.OpenScope(f.cntN)
	tab.CloseScope()
	f.tab = tab
	return f
}

func (f *scopeFixture) scope(n syntax.Node) *resolve.Scope {
	s, ok := f.tab.Lookup(n)
	if !ok {
		panic("no scope")
	}
	return s
}

func TestScopeNumbers(t *testing.T) {
	f := newScopeFixture()
	var got []string
	for _, s := range f.tab.Scopes() {
		got = append(got, s.String())
	}
	want := []string{"1[]", "1.1[a]", "1.1.1[b]", "1.1.2[]", "1.2[]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scopes (-want +got):\n%s", diff)
	}
	if got := f.scope(f.letN).Depth(); got != 2 {
		t.Errorf("Depth = %d, want 2", got)
	}
	if f.tab.Len() != 5 {
		t.Errorf("Len = %d, want 5", f.tab.Len())
	}
}

func TestScopeCompare(t *testing.T) {
	f := newScopeFixture()
	root := f.tab.Root()
	forS, letS, selS, cntS := f.scope(f.forN), f.scope(f.letN), f.scope(f.selN), f.scope(f.cntN)

	for _, test := range []struct {
		a, b *resolve.Scope
		want int
	}{
		{root, root, 0},
		{root, letS, -1}, // ancestor first
		{letS, root, 1},
		{forS, letS, -1},
		{letS, selS, -1}, // lower division first
		{selS, letS, 1},
		{selS, cntS, -1},
		{cntS, letS, 1},
	} {
		if got := test.a.Compare(test.b); got != test.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", test.a, test.b, got, test.want)
		}
	}

	other := resolve.NewTable(f.tree, f.tree.Root).Root()
	if got := forS.Compare(other); got != -1 {
		t.Errorf("Compare across tables = %d, want -1", got)
	}

	// Sorting a shuffled copy restores walk order.
	all := f.tab.Scopes()
	shuffled := append([]*resolve.Scope(nil), all...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	sort.Slice(shuffled, func(i, j int) bool { return resolve.Before(shuffled[i], shuffled[j]) })
	for i := range all {
		if shuffled[i] != all[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, shuffled[i], all[i])
		}
	}
}

func TestTableResolve(t *testing.T) {
	f := newScopeFixture()
	def, err := f.tab.Resolve(f.ref)
	if err != nil {
		t.Fatal(err)
	}
	if def != f.scope(f.letN) {
		t.Errorf("$b resolved to %s, want 1.1.1[b]", def)
	}

	miss := f.tree.New(syntax.VariableRef, "zz")
	f.tree.Append(f.selN, miss)
	if _, err := f.tab.Resolve(miss); err == nil {
		t.Error("Resolve of unbound name succeeded")
	} else if e := err.(resolve.Error); e.Name != "zz" || e.Msg != "undefined: $zz" {
		t.Errorf("Resolve error = %+v", e)
	}
}

func TestTableResetTo(t *testing.T) {
	f := newScopeFixture()
	forS := f.scope(f.forN)
	f.tab.ResetTo(forS)

	if f.tab.Current() != forS {
		t.Errorf("Current = %s, want %s", f.tab.Current(), forS)
	}
	if len(forS.Children()) != 0 || len(forS.Bindings()) != 0 {
		t.Errorf("ResetTo left %s with %d children", forS, len(forS.Children()))
	}
	if f.tab.Len() != 3 {
		t.Errorf("Len = %d, want 3", f.tab.Len())
	}
	// The LetBind node now falls back to the ForBind scope.
	if s := f.scope(f.letN); s != forS {
		t.Errorf("Lookup(LetBind) = %s, want %s", s, forS)
	}

	// Divisions restart after a reset.
	if s := f.tab.OpenScope(f.selN); s.Number() != "1.1.1" {
		t.Errorf("reopened scope numbered %s, want 1.1.1", s.Number())
	}
}

func TestCloseRootScope(t *testing.T) {
	f := newScopeFixture()
	defer func() {
		if r := recover(); r == nil {
			t.Error("CloseScope of root did not panic")
		}
	}()
	f.tab.CloseScope()
}

func TestTableVisit(t *testing.T) {
	// let $x := 1 let $x := $x
	tree := syntax.NewTree("visit")
	src := tree.New(syntax.VariableRef, "x")
	let := tree.New(syntax.LetBind, nil, src)
	tree.Root = tree.New(syntax.Module, nil, let)

	tab := resolve.NewTable(tree, tree.Root)
	tab.Bind("x")
	tab.OpenScope(let)
	tab.Visit(src)
	tab.Bind("x")
	tab.CloseScope()

	def, err := tab.Resolve(src)
	if err != nil {
		t.Fatal(err)
	}
	if def != tab.Root() {
		t.Errorf("$x resolved to %s, want %s", def, tab.Root())
	}
	if s, ok := tab.Lookup(src); !ok || s.Node() != let {
		t.Errorf("Lookup($x) = %v, want the LetBind scope", s)
	}

	// A reset forgets visits into the dropped scopes.
	tab.ResetTo(tab.Root())
	if s, ok := tab.Lookup(src); !ok || s != tab.Root() {
		t.Errorf("Lookup($x) after reset = %v, want %s", s, tab.Root())
	}
}
