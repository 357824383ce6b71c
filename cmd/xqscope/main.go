// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The xqscope command reports the variable scopes of a query syntax
// tree written in the notation of syntax.Parse.
//
// Given a file name, or a tree with -c, it prints the scope tree, the
// resolution of each variable reference, and the unresolved
// references. With no arguments and a terminal on standard input, it
// starts a read-analyze-print loop (REPL); otherwise it analyzes
// standard input.
//
// With -run N it instead executes a small demonstration pipeline over
// N generated records, using the pipeline settings of the configuration.
package main // import "go.xqpipe.net/cmd/xqscope"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.xqpipe.net/internal/config"
	"go.xqpipe.net/internal/logging"
	"go.xqpipe.net/repl"
	"go.xqpipe.net/resolve"
	"go.xqpipe.net/syntax"
	"golang.org/x/term"
)

// flags
var (
	configFile = flag.String("config", "", "read settings from the YAML `file`")
	strict     = flag.Bool("strict", false, "stop at the first unresolved variable reference")
	jsonOut    = flag.Bool("json", false, "print the analysis as JSON")
	execprog   = flag.String("c", "", "analyze the tree `src`")
	runN       = flag.Int("run", 0, "run the demonstration pipeline over `n` records")
)

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("xqscope: ")
	log.SetFlags(0)
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		check(err)
	}
	if *strict {
		cfg.Resolve.Strict = true
	}
	logger, err := logging.New(os.Stderr, cfg.Log)
	check(err)

	opts := repl.Options{Logger: logger}
	if cfg.Resolve.Strict {
		opts.Mode |= resolve.StrictRefs
	}

	if *runN > 0 {
		if err := runDemo(context.Background(), os.Stdout, *runN, cfg, logger); err != nil {
			log.Print(err)
			return 1
		}
		return 0
	}

	var (
		filename string
		src      interface{}
	)
	switch {
	case *execprog != "":
		filename, src = "cmdline", *execprog
	case flag.NArg() == 1:
		filename = flag.Arg(0)
	case flag.NArg() == 0 && term.IsTerminal(int(os.Stdin.Fd())):
		fmt.Println("Welcome to xqscope (go.xqpipe.net)")
		repl.REPL(opts)
		return 0
	case flag.NArg() == 0:
		filename, src = "<stdin>", os.Stdin
	default:
		log.Print("want at most one file name")
		return 1
	}

	tree, err := syntax.Parse(filename, src)
	if err != nil {
		repl.PrintError(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		err = writeJSON(os.Stdout, tree, opts)
	} else {
		err = repl.Report(os.Stdout, tree, opts)
	}
	if err != nil {
		repl.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
