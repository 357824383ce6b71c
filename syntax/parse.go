// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"
)

// Parse parses the s-expression notation of a syntax tree.
//
//	(PipeExpr
//	  (Start
//	    (ForBind (TypedVariableBinding (Variable a)) (SequenceExpr 1 2 3)
//	      (End $a))))
//
// A list denotes a node: its first element names the Kind, an optional
// bare name that follows becomes the node's value, and the remaining
// elements are its children. As shorthand, $x denotes (VariableRef x),
// an integer denotes an Int literal, and a quoted string a Str literal.
// A semicolon starts a comment that runs to the end of the line.
//
// If src != nil, Parse parses the source from src and the filename is
// only used when recording position information. The type of the
// argument for the src parameter must be string, []byte, or io.Reader.
// If src == nil, Parse parses the file specified by filename.
//
// The top-level elements become the children of a Module node, which
// is the root of the result.
func Parse(filename string, src interface{}) (t *Tree, err error) {
	data, err := readSource(filename, src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tree: NewTree(filename),
		file: &filename,
		src:  data,
		line: 1,
		col:  1,
	}
	defer p.recover(&err)

	root := p.tree.NewAt(p.pos(), Module, nil)
	p.next()
	for p.tok != tEOF {
		p.tree.Append(root, p.parseElem())
	}
	p.tree.Root = root
	return p.tree, nil
}

func readSource(filename string, src interface{}) ([]byte, error) {
	switch src := src.(type) {
	case string:
		return []byte(src), nil
	case []byte:
		return src, nil
	case io.Reader:
		data, err := io.ReadAll(src)
		if err != nil {
			err = &os.PathError{Op: "read", Path: filename, Err: err}
		}
		return data, err
	case nil:
		return os.ReadFile(filename)
	default:
		return nil, fmt.Errorf("invalid source: %T", src)
	}
}

type token int8

const (
	tEOF token = iota
	tLparen
	tRparen
	tAtom
	tString
)

type parser struct {
	tree *Tree
	file *string
	src  []byte
	off  int
	line int32
	col  int32

	tok    token
	raw    string // text of tAtom, unquoted text of tString
	tokPos Position
}

func (p *parser) pos() Position { return MakePosition(p.file, p.line, p.col) }

func (p *parser) errorf(pos Position, format string, args ...interface{}) {
	panic(Error{pos, fmt.Sprintf(format, args...)})
}

// recover converts a panic of type Error into an error result.
func (p *parser) recover(err *error) {
	if e := recover(); e != nil {
		if e, ok := e.(Error); ok {
			*err = e
			return
		}
		panic(e)
	}
}

func (p *parser) advance() {
	r, size := utf8.DecodeRune(p.src[p.off:])
	p.off += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func (p *parser) skipSpace() {
	for p.off < len(p.src) {
		switch p.src[p.off] {
		case ' ', '\t', '\r', '\n':
			p.advance()
		case ';':
			for p.off < len(p.src) && p.src[p.off] != '\n' {
				p.advance()
			}
		default:
			return
		}
	}
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', ';', '"':
		return true
	}
	return false
}

// next reads the next token.
func (p *parser) next() {
	p.skipSpace()
	p.tokPos = p.pos()
	if p.off >= len(p.src) {
		p.tok = tEOF
		return
	}
	switch p.src[p.off] {
	case '(':
		p.advance()
		p.tok = tLparen
	case ')':
		p.advance()
		p.tok = tRparen
	case '"':
		start := p.off
		p.advance()
		for {
			if p.off >= len(p.src) || p.src[p.off] == '\n' {
				p.errorf(p.tokPos, "unterminated string literal")
			}
			c := p.src[p.off]
			p.advance()
			if c == '\\' && p.off < len(p.src) {
				p.advance()
			} else if c == '"' {
				break
			}
		}
		s, err := strconv.Unquote(string(p.src[start:p.off]))
		if err != nil {
			p.errorf(p.tokPos, "invalid string literal %s", p.src[start:p.off])
		}
		p.tok, p.raw = tString, s
	default:
		start := p.off
		for p.off < len(p.src) && !isDelim(p.src[p.off]) {
			p.advance()
		}
		p.tok, p.raw = tAtom, string(p.src[start:p.off])
	}
}

// isName reports whether an atom may serve as a node's value.
func isName(s string) bool {
	if s[0] == '$' {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err != nil && !isDigit(s[0]) && !(len(s) > 1 && s[0] == '-' && isDigit(s[1]))
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func (p *parser) parseElem() Node {
	pos := p.tokPos
	switch p.tok {
	case tLparen:
		return p.parseList()
	case tString:
		s := p.raw
		p.next()
		return p.tree.NewAt(pos, Str, s)
	case tAtom:
		raw := p.raw
		p.next()
		if raw[0] == '$' {
			if len(raw) == 1 {
				p.errorf(pos, "missing variable name after $")
			}
			return p.tree.NewAt(pos, VariableRef, raw[1:])
		}
		if isName(raw) {
			p.errorf(pos, "unexpected name %s (a name may only follow the node kind)", raw)
		}
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			p.errorf(pos, "invalid integer literal %s", raw)
		}
		return p.tree.NewAt(pos, Int, i)
	case tRparen:
		p.errorf(pos, "unexpected )")
	}
	p.errorf(pos, "unexpected end of input")
	panic("unreachable")
}

func (p *parser) parseList() Node {
	pos := p.tokPos
	p.next() // consume '('
	if p.tok != tAtom {
		p.errorf(p.tokPos, "expected node kind after (")
	}
	kind, ok := LookupKind(p.raw)
	if !ok {
		p.errorf(p.tokPos, "unknown node kind %s", p.raw)
	}
	p.next()

	var value interface{}
	if p.tok == tAtom && isName(p.raw) {
		value = p.raw
		p.next()
	}
	n := p.tree.NewAt(pos, kind, value)
	for p.tok != tRparen {
		if p.tok == tEOF {
			p.errorf(pos, "unbalanced (: missing )")
		}
		p.tree.Append(n, p.parseElem())
	}
	p.next() // consume ')'
	return n
}
