// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve_test

import (
	"testing"

	"go.xqpipe.net/internal/chunkedfile"
	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
)

func TestResolve(t *testing.T) {
	filename := "testdata/resolve.sx"
	for _, chunk := range chunkedfile.Read(filename, t) {
		f, err := syntax.Parse(filename, chunk.Source)
		if err != nil {
			t.Error(err)
			continue
		}

		var mode resolve.Mode
		if chunk.Option("strict") {
			mode |= resolve.StrictRefs
		}

		w, err := resolve.Tree(f, mode)
		if err != nil {
			perr := err.(*resolve.PipelineError)
			chunk.GotError(int(perr.Pos.Line), perr.Error())
			chunk.Done()
			continue
		}
		w.FindVarRefs(f.Root) // failures are recorded as diagnostics
		for _, d := range w.Diagnostics() {
			chunk.GotError(int(d.Pos.Line), d.Msg)
		}
		chunk.Done()
	}
}
