// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syntax provides the abstract syntax tree consumed by the
// scope resolver and a small s-expression notation for writing trees
// down in tests and tools.
//
// A Tree is an arena of nodes. A Node is a stable handle into the
// arena; parent links are handles too, so the tree holds no pointer
// cycles and analysis state can be kept in side tables keyed by Node.
package syntax // import "go.xqpipe.net/syntax"

import "fmt"

// A Node is a handle to a node of a Tree.
// The zero Node, NoNode, denotes the absence of a node.
type Node int32

// NoNode is the absent node. Its Kind is Illegal and it has no children.
const NoNode Node = 0

type node struct {
	kind     Kind
	value    interface{} // = string | int64 | nil
	pos      Position
	parent   Node
	children []Node
}

// A Tree holds the nodes of one syntax tree.
type Tree struct {
	Path  string
	Root  Node
	nodes []node // nodes[0] is NoNode
}

// NewTree returns an empty tree.
func NewTree(path string) *Tree {
	return &Tree{Path: path, nodes: make([]node, 1, 64)}
}

// New adds a node to the tree and attaches the given children to it.
// Each child must not already have a parent.
func (t *Tree) New(kind Kind, value interface{}, children ...Node) Node {
	return t.NewAt(Position{}, kind, value, children...)
}

// NewAt is like New but records the source position of the node.
func (t *Tree) NewAt(pos Position, kind Kind, value interface{}, children ...Node) Node {
	n := Node(len(t.nodes))
	t.nodes = append(t.nodes, node{kind: kind, value: value, pos: pos})
	for _, c := range children {
		t.Append(n, c)
	}
	return n
}

// Kind returns the kind of n.
func (t *Tree) Kind(n Node) Kind { return t.nodes[n].kind }

// Value returns the payload of n, or nil.
func (t *Tree) Value(n Node) interface{} { return t.nodes[n].value }

// Name returns the payload of n if it is a string, or "".
func (t *Tree) Name(n Node) string {
	s, _ := t.nodes[n].value.(string)
	return s
}

// Pos returns the source position of n.
func (t *Tree) Pos(n Node) Position { return t.nodes[n].pos }

// Parent returns the parent of n, or NoNode.
func (t *Tree) Parent(n Node) Node { return t.nodes[n].parent }

// Len returns the number of children of n.
func (t *Tree) Len(n Node) int { return len(t.nodes[n].children) }

// Child returns the ith child of n.
func (t *Tree) Child(n Node, i int) Node { return t.nodes[n].children[i] }

// LastChild returns the last child of n, or NoNode if n has no children.
func (t *Tree) LastChild(n Node) Node {
	cs := t.nodes[n].children
	if len(cs) == 0 {
		return NoNode
	}
	return cs[len(cs)-1]
}

// Children returns the children of n.
// The result must not be modified.
func (t *Tree) Children(n Node) []Node { return t.nodes[n].children }

// Index returns the position of n among its parent's children, or -1.
func (t *Tree) Index(n Node) int {
	p := t.nodes[n].parent
	if p == NoNode {
		return -1
	}
	for i, c := range t.nodes[p].children {
		if c == n {
			return i
		}
	}
	return -1
}

// IsAncestor reports whether a is n or one of its ancestors.
func (t *Tree) IsAncestor(a, n Node) bool {
	for ; n != NoNode; n = t.nodes[n].parent {
		if n == a {
			return true
		}
	}
	return false
}

// Size returns the number of nodes ever added to the tree,
// including detached ones.
func (t *Tree) Size() int { return len(t.nodes) - 1 }

// Append adds child as the last child of parent.
func (t *Tree) Append(parent, child Node) {
	t.adopt(parent, child)
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// SetChild replaces the ith child of parent by child and returns the
// detached node.
func (t *Tree) SetChild(parent Node, i int, child Node) Node {
	old := t.nodes[parent].children[i]
	if old == child {
		return old
	}
	t.adopt(parent, child)
	t.nodes[parent].children[i] = child
	t.nodes[old].parent = NoNode
	return old
}

// Replace puts new in the place of old, which is detached.
// If old is the root, new becomes the root.
func (t *Tree) Replace(old, new Node) {
	p := t.nodes[old].parent
	if p == NoNode {
		if old != t.Root {
			panic(fmt.Sprintf("syntax: replace of detached node %d", old))
		}
		if t.nodes[new].parent != NoNode {
			panic(fmt.Sprintf("syntax: node %d already has a parent", new))
		}
		t.Root = new
		return
	}
	t.SetChild(p, t.Index(old), new)
}

// Remove detaches the ith child of parent and returns it.
func (t *Tree) Remove(parent Node, i int) Node {
	cs := t.nodes[parent].children
	c := cs[i]
	t.nodes[parent].children = append(cs[:i:i], cs[i+1:]...)
	t.nodes[c].parent = NoNode
	return c
}

func (t *Tree) adopt(parent, child Node) {
	if child == NoNode || parent == NoNode {
		panic("syntax: NoNode cannot be linked")
	}
	if t.nodes[child].parent != NoNode || child == t.Root {
		panic(fmt.Sprintf("syntax: node %d already has a parent", child))
	}
	if t.IsAncestor(child, parent) {
		panic(fmt.Sprintf("syntax: node %d cannot be its own descendant", child))
	}
	t.nodes[child].parent = parent
}
