// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides a read/analyze/print loop for query syntax
// trees.
//
// It supports readline-style command editing,
// and interrupts through Control-C.
//
// Each item is a syntax tree in the notation accepted by syntax.Parse.
// Lines are read until the parentheses of the item balance; a blank
// line ends an unbalanced item early, so that its error is reported.
// The REPL then prints the scopes of the tree, the resolution of each
// variable reference, and any unresolved references.
package repl // import "go.xqpipe.net/repl"

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
)

// Options control the analysis performed for each item.
type Options struct {
	Mode   resolve.Mode
	Logger *slog.Logger // receives walker diagnostics, if non-nil
}

// REPL executes a read, analyze, print loop on the terminal.
func REPL(opts Options) {
	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(os.Stderr, err)
		return
	}
	defer rl.Close()
	for {
		rl.SetPrompt(">>> ")
		read := func() (string, error) {
			line, err := rl.Readline()
			rl.SetPrompt("... ")
			return line, err
		}
		if err := rep(read, os.Stdout, os.Stderr, opts); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, analyzes, and prints one item.
//
// It returns an error (possibly readline.ErrInterrupt or io.EOF)
// only if reading failed. Analysis errors are printed.
func rep(read func() (string, error), out, errOut io.Writer, opts Options) error {
	var src strings.Builder
	for {
		line, err := read()
		if err != nil {
			if err == io.EOF && src.Len() > 0 {
				break // analyze the partial item
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			if src.Len() == 0 {
				continue
			}
			break
		}
		src.WriteString(line)
		src.WriteByte('\n')
		if depth(src.String()) <= 0 {
			break
		}
	}

	tree, err := syntax.Parse("<stdin>", src.String())
	if err != nil {
		PrintError(errOut, err)
		return nil
	}
	if err := Report(out, tree, opts); err != nil {
		PrintError(errOut, err)
	}
	return nil
}

// depth returns the number of unclosed parentheses in src,
// ignoring string literals and comments.
func depth(src string) int {
	n := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			n++
		case ')':
			n--
		case ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '"':
			for i++; i < len(src) && src[i] != '"' && src[i] != '\n'; i++ {
				if src[i] == '\\' {
					i++
				}
			}
		}
	}
	return n
}

// Report analyzes tree and writes its scopes, its resolved variable
// references, and its unresolved references to out. In StrictRefs mode
// the first unresolved reference is returned as an error.
func Report(out io.Writer, tree *syntax.Tree, opts Options) error {
	w := resolve.New(tree, opts.Mode)
	w.Logger = opts.Logger
	if err := w.Walk(tree.Root); err != nil {
		return err
	}
	if err := w.Dump(out); err != nil {
		return err
	}
	refs, err := w.FindVarRefs(tree.Root)
	for _, ref := range refs {
		fmt.Fprintf(out, "%s: %s in %s -> %s\n", tree.Pos(ref.Ref), ref, ref.RefScope, ref.Scope)
	}
	if err != nil {
		return err
	}
	for _, d := range w.Diagnostics() {
		fmt.Fprintf(out, "%s\n", color.YellowString("%s", d))
	}
	return nil
}

// PrintError prints the error to errOut, highlighting the message of
// positioned errors.
func PrintError(errOut io.Writer, err error) {
	var (
		serr syntax.Error
		rerr resolve.Error
		perr *resolve.PipelineError
	)
	switch {
	case errors.As(err, &serr):
		fmt.Fprintf(errOut, "%s: %s\n", serr.Pos, color.RedString("%s", serr.Msg))
	case errors.As(err, &rerr):
		fmt.Fprintf(errOut, "%s: %s\n", rerr.Pos, color.RedString("%s", rerr.Msg))
	case errors.As(err, &perr):
		fmt.Fprintf(errOut, "%s\n", color.RedString("%s", perr))
	default:
		fmt.Fprintln(errOut, err)
	}
}
