// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
)

// for $a in (1,2,3) let $b := $a return $b
const forLet = `
(PipeExpr
  (Start
    (ForBind (TypedVariableBinding (Variable a)) (SequenceExpr 1 2 3)
      (LetBind (TypedVariableBinding (Variable b)) $a
        (End $b)))))
`

// everything exercises each construct that opens a scope.
const everything = `
(PipeExpr
  (Start
    (ForBind (TypedVariableBinding (Variable x)) (TypedVariableBinding (Variable i)) (SequenceExpr 1 2)
      (Join
        (Start (LetBind (TypedVariableBinding (Variable l)) $x (End)))
        (JoinClause = $l $r)
        (Start (ForBind (TypedVariableBinding (Variable r)) 2 (End)))
        (Count (TypedVariableBinding (Variable n))
          (End
            (SequenceExpr
              (TypeSwitch $x
                (TypeSwitchCase (Variable v) (SequenceType Int) $v)
                (TypeSwitchCase $x))
              (QuantifiedExpr (EveryQuantifier)
                (TypedVariableBinding (Variable p)) $x
                (TypedVariableBinding (Variable q)) $p
                (ComparisonExpr = $p $q))
              (TransformExpr (CopyBinding (Variable c) $x) (FunctionCall rename $c) $c)
              (TryCatchExpr $x (CatchClause (CatchErrorList $err:code) $err:value))
              (PathExpr (StepExpr child) (FilterExpr (StepExpr item) (Predicate $fs:dot)) (StepExpr text))
              (CompDocumentConstructor (ContentSequence $fs:parent))
              (CompElementConstructor (QName e) (ContentSequence (FilterExpr $x (Predicate $fs:last)))))))))))
`

const everythingScopes = `1[] Module
  1.1[] Start
    1.1.1[x ; i] ForBind
      1.1.1.1[] Join
        1.1.1.1.1[] Start
          1.1.1.1.1.1[l] LetBind
        1.1.1.1.2[] Start
          1.1.1.1.2.1[r] ForBind
        1.1.1.1.3[n] Count
          1.1.1.1.3.1[] TypeSwitch
            1.1.1.1.3.1.1[v] TypeSwitchCase
            1.1.1.1.3.1.2[] TypeSwitchCase
          1.1.1.1.3.2[p] TypedVariableBinding
            1.1.1.1.3.2.1[q] TypedVariableBinding
          1.1.1.1.3.3[c] TransformExpr
          1.1.1.1.3.4[err:code ; err:description ; err:value ; err:module ; err:line-number ; err:column-number] TryCatchExpr
          1.1.1.1.3.5[] StepExpr
            1.1.1.1.3.5.1[fs:dot ; fs:position ; fs:last] Predicate
            1.1.1.1.3.5.2[] FilterExpr
              1.1.1.1.3.5.2.1[] StepExpr
          1.1.1.1.3.6[fs:parent] CompDocumentConstructor
          1.1.1.1.3.7[fs:parent] CompElementConstructor
            1.1.1.1.3.7.1[fs:dot ; fs:position ; fs:last] Predicate
`

func mustWalk(t *testing.T, src string, mode resolve.Mode) (*syntax.Tree, *resolve.Walker) {
	t.Helper()
	tree, err := syntax.Parse("test.sx", src)
	if err != nil {
		t.Fatal(err)
	}
	w, err := resolve.Tree(tree, mode)
	if err != nil {
		t.Fatal(err)
	}
	return tree, w
}

// find returns the first node in tree order of the given kind, and with
// the given name if name is not empty.
func find(tree *syntax.Tree, kind syntax.Kind, name string) syntax.Node {
	var found syntax.Node
	syntax.Walk(tree, tree.Root, func(n syntax.Node) bool {
		if found != syntax.NoNode {
			return false
		}
		if n != syntax.NoNode && tree.Kind(n) == kind && (name == "" || tree.Name(n) == name) {
			found = n
		}
		return true
	})
	if found == syntax.NoNode {
		panic("no " + kind.String() + " " + name)
	}
	return found
}

func dump(t *testing.T, w *resolve.Walker) string {
	t.Helper()
	var buf strings.Builder
	if err := w.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

// refStrings resolves the references beneath node and formats each as
// "$name in visited-scope -> defining-scope".
func refStrings(t *testing.T, w *resolve.Walker, node syntax.Node) []string {
	t.Helper()
	refs, err := w.FindVarRefs(node)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range refs {
		got = append(got, r.String()+" in "+r.RefScope.String()+" -> "+r.Scope.String())
	}
	return got
}

func TestForLet(t *testing.T) {
	_, w := mustWalk(t, forLet, 0)
	got := refStrings(t, w, w.Table().Root().Node())
	want := []string{
		"$a in 1.1.1.1[b] -> 1.1.1[a]",
		"$b in 1.1.1.1[b] -> 1.1.1.1[b]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("refs (-want +got):\n%s", diff)
	}
	if len(w.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", w.Diagnostics())
	}
}

func TestShadowing(t *testing.T) {
	for _, test := range []struct {
		src  string
		want []string // defining scope of each reference, in tree order
	}{
		// for $x in 1 let $y := 2 for $x in 3 return $x
		{`
(PipeExpr
  (Start
    (ForBind (TypedVariableBinding (Variable x)) 1
      (LetBind (TypedVariableBinding (Variable y)) 2
        (ForBind (TypedVariableBinding (Variable x)) 3
          (End $x))))))`, []string{"1.1.1.1.1"}},
		// for $x in 1 let $x := $x + 1 return $x
		{`
(PipeExpr
  (Start
    (ForBind (TypedVariableBinding (Variable x)) 1
      (LetBind (TypedVariableBinding (Variable x)) (ArithmeticExpr + $x 1)
        (End $x)))))`, []string{"1.1.1", "1.1.1.1"}},
		// for $x in 1 for $x in $x return $x
		{`
(PipeExpr
  (Start
    (ForBind (TypedVariableBinding (Variable x)) 1
      (ForBind (TypedVariableBinding (Variable x)) $x
        (End $x)))))`, []string{"1.1.1", "1.1.1.1"}},
		// copy $c := 1, $c := $c modify () return $c
		{`
(SequenceExpr
  (TransformExpr
    (CopyBinding (Variable c) 1)
    (CopyBinding (Variable c) (ArithmeticExpr + $c 1))
    (SequenceExpr)
    $c))`, []string{"1.1", "1.1"}},
	} {
		tree, w := mustWalk(t, test.src, 0)
		refs, err := w.FindVarRefs(tree.Root)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, r := range refs {
			got = append(got, r.Scope.Number())
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%s: defining scopes (-want +got):\n%s", test.src, diff)
		}
		if d := w.Diagnostics(); len(d) != 0 {
			t.Errorf("%s: unexpected diagnostics: %v", test.src, d)
		}
	}
}

func TestQuantifierScopes(t *testing.T) {
	for _, test := range []struct {
		src  string
		want []string
	}{
		// some $x in (1, 2) satisfies $x
		{`(SequenceExpr (QuantifiedExpr (SomeQuantifier) (TypedVariableBinding (Variable x)) (SequenceExpr 1 2) $x))`,
			[]string{"$x in 1.1[x] -> 1.1[x]"}},
		// every $x in (1, 2), $y in $x satisfies $x = $y
		{`
(SequenceExpr
  (QuantifiedExpr (EveryQuantifier)
    (TypedVariableBinding (Variable x)) (SequenceExpr 1 2)
    (TypedVariableBinding (Variable y)) $x
    (ComparisonExpr = $x $y)))`, []string{
			"$x in 1.1.1[y] -> 1.1[x]",
			"$x in 1.1.1[y] -> 1.1[x]",
			"$y in 1.1.1[y] -> 1.1.1[y]",
		}},
	} {
		tree, w := mustWalk(t, test.src, 0)
		if diff := cmp.Diff(test.want, refStrings(t, w, tree.Root)); diff != "" {
			t.Errorf("%s: refs (-want +got):\n%s", test.src, diff)
		}
		if d := w.Diagnostics(); len(d) != 0 {
			t.Errorf("%s: unexpected diagnostics: %v", test.src, d)
		}
	}
}

func TestJoinKeys(t *testing.T) {
	tree, w := mustWalk(t, everything, 0)
	want := []string{
		"$l in 1.1.1.1.1.1[l] -> 1.1.1.1.1.1[l]",
		"$r in 1.1.1.1.2.1[r] -> 1.1.1.1.2.1[r]",
	}
	if diff := cmp.Diff(want, refStrings(t, w, find(tree, syntax.JoinClause, ""))); diff != "" {
		t.Errorf("key refs (-want +got):\n%s", diff)
	}
	// The join output sees neither input.
	if _, err := w.FindVarRefs(find(tree, syntax.Count, "")); err != nil {
		t.Fatal(err)
	}
	if d := w.Diagnostics(); len(d) != 0 {
		t.Errorf("unexpected diagnostics: %v", d)
	}
}

func TestDump(t *testing.T) {
	_, w := mustWalk(t, everything, 0)
	if diff := cmp.Diff(everythingScopes, dump(t, w)); diff != "" {
		t.Errorf("scopes (-want +got):\n%s", diff)
	}
	if w.Table().Len() != len(w.Table().Scopes()) {
		t.Errorf("Len = %d for %d scopes", w.Table().Len(), len(w.Table().Scopes()))
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	_, w := mustWalk(t, everything, 0)
	want := dump(t, w)

	var anchors []syntax.Node
	for _, s := range w.Table().Scopes() {
		anchors = append(anchors, s.Node())
	}
	for _, n := range anchors {
		before := w.FindScope(n)
		if err := w.Refresh(n); err != nil {
			t.Fatalf("Refresh(%s): %v", before, err)
		}
		if after := w.FindScope(n); after != before {
			t.Errorf("Refresh(%s) replaced the scope with %s", before, after)
		}
		if diff := cmp.Diff(want, dump(t, w)); diff != "" {
			t.Errorf("after Refresh(%s) (-want +got):\n%s", before, diff)
		}
		if w.Table().Current() != w.Table().Root() {
			t.Errorf("after Refresh(%s) current scope is %s", before, w.Table().Current())
		}
	}
}

func TestRefreshAfterRename(t *testing.T) {
	tree, w := mustWalk(t, forLet, 0)
	let := find(tree, syntax.LetBind, "")
	tvb := tree.Child(let, 0)
	tree.SetChild(tvb, 0, tree.New(syntax.Variable, "c"))

	if err := w.Refresh(let); err != nil {
		t.Fatal(err)
	}
	if got := w.FindScope(let).String(); got != "1.1.1.1[c]" {
		t.Errorf("let scope = %s, want 1.1.1.1[c]", got)
	}
	refs, err := w.FindVarRefs(tree.Root)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Name != "a" {
		t.Errorf("refs = %v, want [$a]", refs)
	}
	if d := w.Diagnostics(); len(d) != 1 || d[0].Name != "b" {
		t.Errorf("diagnostics = %v, want undefined $b", d)
	}
}

func TestRefreshAfterInsert(t *testing.T) {
	tree, w := mustWalk(t, forLet, 0)
	let := find(tree, syntax.LetBind, "")
	end := tree.Remove(let, tree.Len(let)-1)
	cond := tree.New(syntax.ComparisonExpr, ">", tree.New(syntax.VariableRef, "b"), tree.New(syntax.Int, int64(1)))
	sel := tree.New(syntax.Selection, nil, cond, end)
	tree.Append(let, sel)

	if err := w.Refresh(sel); err != nil {
		t.Fatal(err)
	}
	want := `1[] Module
  1.1[] Start
    1.1.1[a] ForBind
      1.1.1.1[b] LetBind
        1.1.1.1.1[] Selection
`
	if diff := cmp.Diff(want, dump(t, w)); diff != "" {
		t.Errorf("scopes (-want +got):\n%s", diff)
	}
	refs, err := w.FindVarRefs(cond)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Scope.Number() != "1.1.1.1" || refs[0].RefScope.Number() != "1.1.1.1.1" {
		t.Errorf("refs = %v", refs)
	}
}

func TestRefreshAfterRemove(t *testing.T) {
	tree, w := mustWalk(t, `(SequenceExpr (TransformExpr (CopyBinding (Variable c) 1) 2 $c))`, 0)
	if got := w.Table().Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	lit := tree.New(syntax.Int, int64(7))
	tree.Replace(find(tree, syntax.TransformExpr, ""), lit)
	if err := w.Refresh(lit); err != nil {
		t.Fatal(err)
	}
	if got := dump(t, w); got != "1[] Module\n" {
		t.Errorf("scopes after removal:\n%s", got)
	}
}

// TestRefreshOutsideScope rewrites parts of constructs that the walk
// visits outside the construct's own scope, and checks that Refresh
// rebuilds what a fresh walk of the rewritten tree builds.
func TestRefreshOutsideScope(t *testing.T) {
	for _, test := range []struct {
		name string
		src  string
		slot func(tree *syntax.Tree) syntax.Node
	}{
		{"typeswitch operand",
			`(SequenceExpr (TypeSwitch (SequenceExpr 1) (TypeSwitchCase (Variable v) (SequenceType Int) $v)))`,
			func(tree *syntax.Tree) syntax.Node { return tree.Child(find(tree, syntax.TypeSwitch, ""), 0) }},
		{"guarded expression",
			`(SequenceExpr (TryCatchExpr (SequenceExpr 1) (CatchClause (CatchErrorList $err:code) 2)))`,
			func(tree *syntax.Tree) syntax.Node { return tree.Child(find(tree, syntax.TryCatchExpr, ""), 0) }},
		{"element name",
			`(SequenceExpr (CompElementConstructor (SequenceExpr 1) (ContentSequence $fs:parent)))`,
			func(tree *syntax.Tree) syntax.Node { return tree.Child(find(tree, syntax.CompElementConstructor, ""), 0) }},
		{"path step",
			`(SequenceExpr (PathExpr (StepExpr child) (StepExpr text)))`,
			func(tree *syntax.Tree) syntax.Node { return tree.Child(find(tree, syntax.PathExpr, ""), 1) }},
		{"join key",
			`
(PipeExpr
  (Start
    (Join
      (Start (ForBind (TypedVariableBinding (Variable l)) 1 (End)))
      (JoinClause = (SequenceExpr $l) $r)
      (Start (ForBind (TypedVariableBinding (Variable r)) 2 (End)))
      (End))))`,
			func(tree *syntax.Tree) syntax.Node { return tree.Child(find(tree, syntax.JoinClause, ""), 0) }},
		{"quantifier test",
			`(SequenceExpr (QuantifiedExpr (SomeQuantifier) (TypedVariableBinding (Variable x)) 1 (SequenceExpr $x)))`,
			func(tree *syntax.Tree) syntax.Node { return tree.LastChild(find(tree, syntax.QuantifiedExpr, "")) }},
	} {
		tree, w := mustWalk(t, test.src, 0)

		pred := tree.New(syntax.Predicate, nil, tree.New(syntax.VariableRef, syntax.FSDot))
		filter := tree.New(syntax.FilterExpr, nil, tree.New(syntax.Int, int64(3)), pred)
		tree.Append(test.slot(tree), filter)
		if err := w.Refresh(filter); err != nil {
			t.Fatalf("%s: Refresh: %v", test.name, err)
		}

		fresh, err := resolve.Tree(tree, 0)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(dump(t, fresh), dump(t, w)); diff != "" {
			t.Errorf("%s: scopes (-fresh +refreshed):\n%s", test.name, diff)
		}
		if diff := cmp.Diff(refStrings(t, fresh, tree.Root), refStrings(t, w, tree.Root)); diff != "" {
			t.Errorf("%s: refs (-fresh +refreshed):\n%s", test.name, diff)
		}
		if d := w.Diagnostics(); len(d) != 0 {
			t.Errorf("%s: unexpected diagnostics: %v", test.name, d)
		}
		if got := w.FindScope(tree.Child(pred, 0)).Node(); got != pred {
			t.Errorf("%s: $fs:dot is in the scope of %s, want Predicate", test.name, tree.Kind(got))
		}
	}
}

func TestStrictRefs(t *testing.T) {
	tree, w := mustWalk(t, `(SequenceExpr $u $w)`, resolve.StrictRefs)
	_, err := w.FindVarRefs(tree.Root)
	var e resolve.Error
	if !errors.As(err, &e) {
		t.Fatalf("FindVarRefs error = %v, want a resolve.Error", err)
	}
	if e.Name != "u" {
		t.Errorf("first unresolved reference = $%s, want $u", e.Name)
	}
	if got := e.Error(); got != "test.sx:1:15: undefined: $u" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnresolvedLogging(t *testing.T) {
	tree, err := syntax.Parse("test.sx", `(SequenceExpr $u $w)`)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	w := resolve.New(tree, 0)
	w.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	if err := w.Walk(tree.Root); err != nil {
		t.Fatal(err)
	}
	refs, err := w.FindVarRefs(tree.Root)
	if err != nil || len(refs) != 0 {
		t.Fatalf("FindVarRefs = %v, %v", refs, err)
	}
	if got := w.Diagnostics().Error(); got != "test.sx:1:15: undefined: $u (and 1 more errors)" {
		t.Errorf("Diagnostics = %q", got)
	}
	for _, want := range []string{"level=WARN", `msg="unresolved variable"`, "name=u", "name=w", "pos=test.sx:1:18"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output lacks %q:\n%s", want, buf.String())
		}
	}
}

func TestPipelineError(t *testing.T) {
	tree, err := syntax.Parse("test.sx", `(PipeExpr (Start (IfExpr 1 2 3)))`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = resolve.Tree(tree, 0)
	var perr *resolve.PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("Tree error = %v, want a *PipelineError", err)
	}
	if perr.Kind != syntax.IfExpr {
		t.Errorf("Kind = %s, want IfExpr", perr.Kind)
	}
	if got := perr.Error(); got != "test.sx:1:18: internal error: unexpected pipeline operator IfExpr" {
		t.Errorf("Error() = %q", got)
	}
}
