// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns the s-expression notation of the subtree rooted at n,
// in the form accepted by Parse. The children of a Module are printed
// one per line, without the enclosing Module list.
func Format(t *Tree, n Node) string {
	var buf strings.Builder
	if t.Kind(n) == Module {
		for i, c := range t.Children(n) {
			if i > 0 {
				buf.WriteByte('\n')
			}
			writeNode(&buf, t, c)
		}
		return buf.String()
	}
	writeNode(&buf, t, n)
	return buf.String()
}

func writeNode(buf *strings.Builder, t *Tree, n Node) {
	if n == NoNode {
		buf.WriteString("()")
		return
	}
	kind, value := t.Kind(n), t.Value(n)
	if t.Len(n) == 0 {
		switch v := value.(type) {
		case string:
			switch kind {
			case VariableRef:
				buf.WriteString("$" + v)
				return
			case Str:
				buf.WriteString(strconv.Quote(v))
				return
			}
		case int64:
			if kind == Int {
				buf.WriteString(strconv.FormatInt(v, 10))
				return
			}
		}
	}

	buf.WriteByte('(')
	buf.WriteString(kind.String())
	if value != nil {
		fmt.Fprintf(buf, " %v", value)
	}
	for _, c := range t.Children(n) {
		buf.WriteByte(' ')
		writeNode(buf, t, c)
	}
	buf.WriteByte(')')
}
