// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sequence defines items, lazily evaluated sequences of items,
// and the iterators that traverse them.
//
// An Iter can divide its remaining items between two iterators (see
// Iter.Split) so that one sequence may be consumed by several
// goroutines; Parallel drives such a consumption.
package sequence // import "go.xqpipe.net/sequence"

import "iter"

// A Sequence is an ordered, possibly lazy, collection of items.
type Sequence interface {
	// Iterate returns a new iterator positioned before the first item.
	Iterate() Iter
}

// An Iter provides a sequence of items.
//
// The Next method advances the iterator to the next item and sets *p
// to it, reporting false at the end of the sequence or on failure; Err
// then reports the failure, if any. Close releases the iterator's
// resources. It may be called at any time, more than once, and need
// not follow a complete traversal.
//
// Typical usage:
//
//	it := seq.Iterate()
//	defer it.Close()
//	var x sequence.Item
//	for it.Next(&x) {
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// An Iter is owned by one goroutine at a time. The two iterators that
// result from Split share no remaining items and may be handed to
// different goroutines.
type Iter interface {
	Next(p *Item) bool
	Err() error
	Close()

	// Split attempts to divide the remaining items. If min or fewer
	// remain, it returns Split{Head: it}, leaving the receiver
	// unchanged. Otherwise Head iterates over a non-empty prefix of
	// the remaining items and Tail, usually the receiver itself,
	// iterates over the rest. max is a hint bounding the size of the
	// head; implementations may ignore it.
	Split(min, max int) Split
}

// A Split is the result of Iter.Split.
type Split struct {
	Head Iter
	Tail Iter // nil if no division took place
	// Serial reports that Head must be consumed before Tail.
	Serial bool
}

// Divided reports whether the split produced two iterators.
func (s Split) Divided() bool { return s.Tail != nil }

// An ItemIter iterates over a slice of items.
type ItemIter struct {
	items []Item
	pos   int
	end   int
}

var _ Iter = (*ItemIter)(nil)

// NewItemIter returns an iterator over items. It does not copy the
// slice, which must not be modified during iteration.
func NewItemIter(items []Item) *ItemIter {
	return &ItemIter{items: items, end: len(items)}
}

func (it *ItemIter) Next(p *Item) bool {
	if it.pos < it.end {
		*p = it.items[it.pos]
		it.pos++
		return true
	}
	return false
}

// Remaining returns the number of items not yet returned by Next.
func (it *ItemIter) Remaining() int { return it.end - it.pos }

func (it *ItemIter) Err() error { return nil }

// Close makes the iterator exhausted.
func (it *ItemIter) Close() { it.pos = it.end }

// Split divides the remaining items at their midpoint. The receiver
// continues from the midpoint.
func (it *ItemIter) Split(min, max int) Split {
	remaining := it.end - it.pos
	if remaining <= min || remaining < 2 {
		return Split{Head: it}
	}
	mid := it.pos + remaining/2
	head := &ItemIter{items: it.items, pos: it.pos, end: mid}
	it.pos = mid
	return Split{Head: head, Tail: it}
}

// All returns a go1.23 iterator over the items of it, closing it when
// the loop ends. Check it.Err after the loop.
func All(it Iter) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		defer it.Close()
		var x Item
		for it.Next(&x) {
			if !yield(x) {
				break
			}
		}
	}
}

// Collect returns all items of seq.
func Collect(seq Sequence) ([]Item, error) {
	if seq == nil {
		return nil, nil
	}
	it := seq.Iterate()
	defer it.Close()
	var items []Item
	var x Item
	for it.Next(&x) {
		items = append(items, x)
	}
	return items, it.Err()
}
