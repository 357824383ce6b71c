// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chunkedfile provides utilities for testing that diagnostics
// are reported in the appropriate places.
//
// A chunked file consists of several chunks of input text separated by
// "---" lines. Each chunk is an input to the program under test, such
// as the scope resolver. Lines containing "###" are interpreted as
// expectations of failure: the following text is a Go string literal
// denoting a regular expression that should match the failure message.
// In s-expression sources the expectation goes in a comment:
//
//	(End $x) ; ### "undefined: \\$x"
//	---
//	(PipeExpr (Start (End 1)))
//
// A line may also set a named option for its chunk by containing
// "option:name", typically in a comment.
//
// A client test feeds each chunk of text into the program under test,
// then calls chunk.GotError for each error that actually occurred. Any
// discrepancy between the actual and expected errors is reported using
// the client's reporter, which is typically a testing.T.
package chunkedfile // import "go.xqpipe.net/internal/chunkedfile"

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

const debug = false

// A Chunk is a portion of a source file.
// It contains a set of expected errors and the options it sets.
type Chunk struct {
	Source   string
	Line     int // line of the file on which the chunk starts
	filename string
	report   Reporter
	wantErrs map[int]*regexp.Regexp
	options  map[string]bool
}

// Reporter is implemented by *testing.T.
type Reporter interface {
	Errorf(format string, args ...interface{})
}

// Read parses a chunked file and returns its chunks.
// It reports failures using the reporter.
//
// Error messages of the form "file.sx:line:col: ..." are prefixed
// by a newline so that the Go source position added by (*testing.T).Errorf
// appears on a separate line so as not to confuse editors.
func Read(filename string, report Reporter) (chunks []Chunk) {
	data, err := os.ReadFile(filename)
	if err != nil {
		report.Errorf("%s", err)
		return
	}
	eol := "\n"
	if runtime.GOOS == "windows" {
		eol = "\r\n"
	}
	return readBytes(filename, data, report, eol)
}

func readBytes(filename string, data []byte, report Reporter, eol string) (chunks []Chunk) {
	line := 1
	for i, text := range strings.Split(string(data), eol+"---"+eol) {
		if debug {
			fmt.Printf("chunk %d at line %d: %s\n", i, line, text)
		}
		chunk := Chunk{
			// Pad with newlines so the line numbers match the file.
			Source:   strings.Repeat("\n", line-1) + text,
			Line:     line,
			filename: filename,
			report:   report,
			wantErrs: make(map[int]*regexp.Regexp),
			options:  make(map[string]bool),
		}
		for _, l := range strings.Split(text, "\n") {
			chunk.scanLine(line, l)
			line++
		}
		line++ // the separator
		chunks = append(chunks, chunk)
	}
	return chunks
}

// scanLine records the expectation and the options of one line.
// An expectation has the form ### "regexp"; an option has the
// form option:name.
func (chunk *Chunk) scanLine(line int, text string) {
	for rest := text; ; {
		i := strings.Index(rest, "option:")
		if i < 0 {
			break
		}
		rest = rest[i+len("option:"):]
		name := rest
		if j := strings.IndexAny(name, " \t;)"); j >= 0 {
			name = name[:j]
		}
		if name != "" {
			chunk.options[name] = true
		}
	}

	hashes := strings.Index(text, "###")
	if hashes < 0 {
		return
	}
	rest := strings.TrimSpace(text[hashes+len("###"):])
	pattern, err := strconv.Unquote(rest)
	if err != nil {
		chunk.report.Errorf("\n%s:%d: not a quoted regexp: %s", chunk.filename, line, rest)
		return
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		chunk.report.Errorf("\n%s:%d: %v", chunk.filename, line, err)
		return
	}
	chunk.wantErrs[line] = rx
	if debug {
		fmt.Printf("\t%d\t%s\n", line, rx)
	}
}

// Option reports whether the chunk sets the named option.
func (chunk *Chunk) Option(name string) bool { return chunk.options[name] }

// GotError should be called by the client to report an error at a particular line.
// GotError reports unexpected errors to the chunk's reporter.
func (chunk *Chunk) GotError(linenum int, msg string) {
	rx, ok := chunk.wantErrs[linenum]
	if !ok {
		chunk.report.Errorf("\n%s:%d: unexpected error: %v", chunk.filename, linenum, msg)
		return
	}
	delete(chunk.wantErrs, linenum)
	if !rx.MatchString(msg) {
		chunk.report.Errorf("\n%s:%d: error %q does not match pattern %q", chunk.filename, linenum, msg, rx)
	}
}

// Done should be called by the client to indicate that the chunk has no more errors.
// Done reports expected errors that did not occur to the chunk's reporter,
// in line order.
func (chunk *Chunk) Done() {
	lines := make([]int, 0, len(chunk.wantErrs))
	for line := range chunk.wantErrs {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	for _, line := range lines {
		chunk.report.Errorf("\n%s:%d: expected error matching %q", chunk.filename, line, chunk.wantErrs[line])
	}
}
