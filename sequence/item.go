// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// An Item is a single value of the data model.
// Every Item is also the Sequence containing just itself.
type Item interface {
	Sequence

	// String returns the string representation of the item.
	String() string

	// Type returns a short string describing the item's type.
	Type() string

	// Truth returns the effective boolean value of the item.
	Truth() bool
}

var (
	_ Item = Int(0)
	_ Item = Str("")
	_ Item = QName("")
	_ Item = Bool(false)
	_ Item = (*Array)(nil)
	_ Item = (*Object)(nil)
)

// An Int is an integer item.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }
func (i Int) Truth() bool    { return i != 0 }
func (i Int) Iterate() Iter  { return single(i) }

// A Str is a string item.
type Str string

func (s Str) String() string { return strconv.Quote(string(s)) }
func (s Str) Type() string   { return "string" }
func (s Str) Truth() bool    { return len(s) > 0 }
func (s Str) Iterate() Iter  { return single(s) }

// A QName is a qualified name, such as an object field name.
type QName string

func (q QName) String() string { return string(q) }
func (q QName) Type() string   { return "QName" }
func (q QName) Truth() bool    { return len(q) > 0 }
func (q QName) Iterate() Iter  { return single(q) }

// A Bool is a boolean item.
type Bool bool

const (
	False Bool = false
	True  Bool = true
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string  { return "boolean" }
func (b Bool) Truth() bool   { return bool(b) }
func (b Bool) Iterate() Iter { return single(b) }

// An Array is an ordered list of items.
type Array struct {
	elems []Item
}

// NewArray returns an array with the given elements.
// It takes ownership of the slice.
func NewArray(elems []Item) *Array { return &Array{elems: elems} }

func (a *Array) Len() int         { return len(a.elems) }
func (a *Array) Index(i int) Item { return a.elems[i] }
func (a *Array) Type() string     { return "array" }
func (a *Array) Truth() bool      { return true }
func (a *Array) Iterate() Iter    { return single(a) }
func (a *Array) Elements() Iter   { return NewItemIter(a.elems) }
func (a *Array) String() string   { return formatList('[', a.elems, ']') }

// A Field is one name/value pair of an Object.
type Field struct {
	Name  QName
	Value Item
}

// An Object is a record of fields in insertion order.
type Object struct {
	fields []Field
	index  map[QName]int
}

// NewObject returns an object with the given fields. A repeated name
// replaces the value of the earlier field but keeps its position.
func NewObject(fields ...Field) *Object {
	o := &Object{index: make(map[QName]int, len(fields))}
	for _, f := range fields {
		o.Set(f.Name, f.Value)
	}
	return o
}

// Set sets the value of the named field, appending it if absent.
func (o *Object) Set(name QName, v Item) {
	if i, ok := o.index[name]; ok {
		o.fields[i].Value = v
		return
	}
	o.index[name] = len(o.fields)
	o.fields = append(o.fields, Field{name, v})
}

// Get returns the value of the named field.
func (o *Object) Get(name QName) (Item, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.fields[i].Value, true
}

// Value returns the value of the ith field, counting from zero.
func (o *Object) Value(i int) (Item, bool) {
	if i < 0 || i >= len(o.fields) {
		return nil, false
	}
	return o.fields[i].Value, true
}

// Fields returns the fields in insertion order.
// The result must not be modified.
func (o *Object) Fields() []Field { return o.fields }

func (o *Object) Len() int      { return len(o.fields) }
func (o *Object) Type() string  { return "object" }
func (o *Object) Truth() bool   { return true }
func (o *Object) Iterate() Iter { return single(o) }

func (o *Object) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s: %s", f.Name, f.Value)
	}
	buf.WriteByte('}')
	return buf.String()
}

func formatList(open byte, items []Item, close byte) string {
	var buf strings.Builder
	buf.WriteByte(open)
	for i, x := range items {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(x.String())
	}
	buf.WriteByte(close)
	return buf.String()
}

func single(x Item) Iter { return NewItemIter([]Item{x}) }
