// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequence

import (
	"errors"
	"fmt"
)

// An ItemSequence is a materialized sequence.
type ItemSequence []Item

func (s ItemSequence) Iterate() Iter  { return NewItemIter(s) }
func (s ItemSequence) Len() int       { return len(s) }
func (s ItemSequence) String() string { return formatList('(', s, ')') }

// A LazySequence computes its items on each call to Iterate.
type LazySequence func() Iter

func (f LazySequence) Iterate() Iter { return f() }

// Empty is the empty sequence.
var Empty Sequence = ItemSequence(nil)

// Of returns the sequence of the given items.
func Of(items ...Item) Sequence {
	if len(items) == 1 {
		return items[0]
	}
	return ItemSequence(items)
}

// ErrNotBoolean is returned by Truth for sequences that have no
// effective boolean value.
var ErrNotBoolean = errors.New("sequence has no effective boolean value")

// Truth returns the effective boolean value of seq: false for a nil or
// empty sequence, the item's own truth value for a single item, and
// true for a sequence starting with an object or array. Any other
// sequence of two or more items is an error.
func Truth(seq Sequence) (bool, error) {
	if seq == nil {
		return false, nil
	}
	if x, ok := seq.(Item); ok {
		return x.Truth(), nil
	}
	it := seq.Iterate()
	defer it.Close()
	var first, second Item
	if !it.Next(&first) {
		return false, it.Err()
	}
	switch first.(type) {
	case *Object, *Array:
		return true, nil
	}
	if it.Next(&second) {
		return false, fmt.Errorf("%w: %s followed by %s", ErrNotBoolean, first.Type(), second.Type())
	}
	if err := it.Err(); err != nil {
		return false, err
	}
	return first.Truth(), nil
}
