// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// Walk traverses a syntax tree in depth-first order.
// It starts by calling f(n); n must not be NoNode.
// If f returns true, Walk calls itself
// recursively for each child of n.
// Walk then calls f(NoNode).
func Walk(t *Tree, n Node, f func(Node) bool) {
	if n == NoNode {
		panic("syntax.Walk: NoNode")
	}
	if !f(n) {
		return
	}
	for _, c := range t.Children(n) {
		Walk(t, c, f)
	}
	f(NoNode)
}
