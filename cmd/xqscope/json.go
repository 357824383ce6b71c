// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"go.xqpipe.net/repl"
	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// writeJSON analyzes tree and writes the result to out as a JSON
// object with fields "scopes" (the root scope, with nested "children"),
// "refs" and "diagnostics". Unresolved references are also logged to
// opts.Logger, as in the text report.
func writeJSON(out io.Writer, tree *syntax.Tree, opts repl.Options) error {
	w := resolve.New(tree, opts.Mode)
	w.Logger = opts.Logger
	if err := w.Walk(tree.Root); err != nil {
		return err
	}
	refs, err := w.FindVarRefs(tree.Root)
	if err != nil {
		return err
	}

	var jrefs []interface{}
	for _, ref := range refs {
		jrefs = append(jrefs, map[string]interface{}{
			"name":  ref.Name,
			"pos":   tree.Pos(ref.Ref).String(),
			"in":    ref.RefScope.Number(),
			"scope": ref.Scope.Number(),
		})
	}
	var jdiags []interface{}
	for _, d := range w.Diagnostics() {
		jdiags = append(jdiags, map[string]interface{}{
			"name": d.Name,
			"pos":  d.Pos.String(),
			"msg":  d.Msg,
		})
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"file":        tree.Path,
		"scopes":      scopeJSON(tree, w.Table().Root()),
		"refs":        jrefs,
		"diagnostics": jdiags,
	})
	if err != nil {
		return err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "\t"}.Marshal(st)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}

func scopeJSON(tree *syntax.Tree, s *resolve.Scope) map[string]interface{} {
	bindings := make([]interface{}, 0, len(s.Bindings()))
	for _, name := range s.Bindings() {
		bindings = append(bindings, name)
	}
	var children []interface{}
	for _, c := range s.Children() {
		children = append(children, scopeJSON(tree, c))
	}
	return map[string]interface{}{
		"number":   s.Number(),
		"kind":     tree.Kind(s.Node()).String(),
		"pos":      tree.Pos(s.Node()).String(),
		"bindings": bindings,
		"children": children,
	}
}
