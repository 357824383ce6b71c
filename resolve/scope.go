// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"strconv"
	"strings"

	"go.xqpipe.net/syntax"
)

// A Scope is one lexical frame: the names bound by a single pipeline
// operator or binding construct. Scopes form a tree owned by a Table.
type Scope struct {
	node     syntax.Node
	parent   *Scope
	division int // 1-based ordinal among siblings
	children []*Scope
	names    []string // in binding order; duplicates are kept
	visible  int      // bindings of parent made before s was opened
}

// Node returns the syntax node the scope is anchored to.
func (s *Scope) Node() syntax.Node { return s.node }

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Division returns the 1-based position of s among its siblings.
func (s *Scope) Division() int { return s.division }

// Children returns the nested scopes in creation order.
// The result must not be modified.
func (s *Scope) Children() []*Scope { return s.children }

// Bindings returns the names bound by s in binding order.
// The result must not be modified.
func (s *Scope) Bindings() []string { return s.names }

// Binds reports whether s itself binds name.
func (s *Scope) Binds(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Depth returns the number of ancestors of s.
func (s *Scope) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

func (s *Scope) bind(name string) { s.names = append(s.names, name) }

// lookup returns the innermost scope, starting at s, that binds name.
// Only the first n bindings of s are considered; each enclosing scope
// contributes the bindings it held when the inner one was opened.
func (s *Scope) lookup(name string, n int) *Scope {
	for ; s != nil; s, n = s.parent, s.visible {
		if n > len(s.names) {
			n = len(s.names)
		}
		for _, b := range s.names[:n] {
			if b == name {
				return s
			}
		}
	}
	return nil
}

func (s *Scope) open(node syntax.Node) *Scope {
	division := 1
	if n := len(s.children); n > 0 {
		division = s.children[n-1].division + 1
	}
	child := &Scope{node: node, parent: s, division: division}
	s.children = append(s.children, child)
	return child
}

// Compare orders two scopes of the same table.
// It returns 0 if s and other are the same scope, a negative number if
// s comes first, and a positive number otherwise. An ancestor comes
// before its descendants; otherwise the scopes are ordered by the
// divisions of their ancestors just below the lowest common ancestor.
// Scopes of different tables have no common ancestor; Compare reports
// -1 for them.
func (s *Scope) Compare(other *Scope) int {
	if s == other {
		return 0
	}
	a, b := s, other
	da, db := a.Depth(), b.Depth()
	for ; da > db; da-- {
		a = a.parent
	}
	for ; db > da; db-- {
		b = b.parent
	}
	if a == b {
		// one is an ancestor of the other
		if a == s {
			return -1
		}
		return 1
	}
	for a.parent != b.parent {
		a, b = a.parent, b.parent
	}
	if a.parent == nil {
		return -1
	}
	if a.division < b.division {
		return -1
	}
	return 1
}

// Before reports whether scope a comes before scope b.
func Before(a, b *Scope) bool { return a.Compare(b) < 0 }

// Number returns the dotted path of divisions from the root to s,
// such as "1.2.1".
func (s *Scope) Number() string {
	var divs []string
	for p := s; p != nil; p = p.parent {
		divs = append(divs, strconv.Itoa(p.division))
	}
	for i, j := 0, len(divs)-1; i < j; i, j = i+1, j-1 {
		divs[i], divs[j] = divs[j], divs[i]
	}
	return strings.Join(divs, ".")
}

func (s *Scope) String() string {
	var buf strings.Builder
	buf.WriteString(s.Number())
	buf.WriteByte('[')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteString(" ; ")
		}
		buf.WriteString(name)
	}
	buf.WriteByte(']')
	return buf.String()
}
