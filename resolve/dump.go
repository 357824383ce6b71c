// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the scope tree to out, one scope per line, indented by
// depth and followed by the kind of its anchor node:
//
//	1[] Module
//	  1.1[] Start
//	    1.1.1[a] ForBind
func (w *Walker) Dump(out io.Writer) error {
	for _, s := range w.table.Scopes() {
		_, err := fmt.Fprintf(out, "%s%s %s\n",
			strings.Repeat("  ", s.Depth()), s, w.tree.Kind(s.node))
		if err != nil {
			return err
		}
	}
	return nil
}
