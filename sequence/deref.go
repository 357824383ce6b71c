// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequence

import (
	"errors"
	"fmt"
)

// ErrIllegalField reports a field reference that is neither a name nor
// an index.
var ErrIllegalField = errors.New("illegal object field reference")

// Lookup returns the value of field in each object of seq.
//
// A field may be a QName, a Str or Bool naming the field by its
// string value, or an Int selecting the field at that position. Items
// of seq that are not objects, and objects lacking the field, are
// skipped. A nil field selects nothing. The items of a lazy sequence
// are dereferenced only as they are iterated.
func Lookup(seq Sequence, field Item) (Sequence, error) {
	if seq == nil || field == nil {
		return Empty, nil
	}
	if obj, ok := seq.(*Object); ok {
		v, ok, err := lookupField(obj, field)
		if err != nil || !ok {
			return Empty, err
		}
		return v, nil
	}
	return LazySequence(func() Iter { return Deref(seq.Iterate(), field) }), nil
}

// Deref returns an iterator over the value of field in each object
// provided by in. See Lookup for the meaning of field.
// An illegal field stops the iteration with ErrIllegalField.
func Deref(in Iter, field Item) Iter {
	return &derefIter{in: in, field: field}
}

type derefIter struct {
	in    Iter
	field Item
	err   error
}

func (it *derefIter) Next(p *Item) bool {
	if it.err != nil || it.field == nil {
		return false
	}
	var x Item
	for it.in.Next(&x) {
		obj, ok := x.(*Object)
		if !ok {
			continue
		}
		v, ok, err := lookupField(obj, it.field)
		if err != nil {
			it.err = err
			return false
		}
		if ok {
			*p = v
			return true
		}
	}
	return false
}

func (it *derefIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.in.Err()
}

func (it *derefIter) Close() { it.in.Close() }

// Split divides the underlying iterator; both halves dereference the
// same field.
func (it *derefIter) Split(min, max int) Split {
	s := it.in.Split(min, max)
	if !s.Divided() {
		return Split{Head: it}
	}
	head := &derefIter{in: s.Head, field: it.field}
	it.in = s.Tail
	return Split{Head: head, Tail: it, Serial: s.Serial}
}

func lookupField(obj *Object, field Item) (Item, bool, error) {
	switch f := field.(type) {
	case QName:
		v, ok := obj.Get(f)
		return v, ok, nil
	case Int:
		v, ok := obj.Value(int(f))
		return v, ok, nil
	case Str:
		v, ok := obj.Get(QName(f))
		return v, ok, nil
	case Bool:
		v, ok := obj.Get(QName(f.String()))
		return v, ok, nil
	}
	return nil, false, fmt.Errorf("%w: %s", ErrIllegalField, field.Type())
}
