// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jsonx

import (
	"github.com/signetauth/signet/pkg/errors"
)

// Array is an ordered sequence of values. Setting past the end pads with
// nulls; removing an interior element leaves a null hole so later indices
// keep their meaning.
type Array struct {
	values []*Value
	locked bool
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{}
}

// Count returns the number of elements.
func (a *Array) Count() int {
	return len(a.values)
}

// Get returns the element at index i.
func (a *Array) Get(i int) (*Value, error) {
	if i < 0 || i >= len(a.values) {
		return nil, errors.Newf(errors.ErrCodeNotFound, "index %d out of range [0,%d)", i, len(a.values))
	}
	return a.values[i], nil
}

// Append adds v at the end.
func (a *Array) Append(v *Value) error {
	if a.locked {
		return errors.New(errors.ErrCodeLocked, "array is locked")
	}
	if v == nil {
		v = Null()
	}
	a.values = append(a.values, v)
	return nil
}

// AppendString adds a string element.
func (a *Array) AppendString(s string) error {
	v, err := String(s)
	if err != nil {
		return err
	}
	return a.Append(v)
}

// Set replaces the element at index i, padding with nulls when i is at or
// past the end. Negative indices are invalid.
func (a *Array) Set(i int, v *Value) error {
	if a.locked {
		return errors.New(errors.ErrCodeLocked, "array is locked")
	}
	if i < 0 {
		return errors.Newf(errors.ErrCodeNotFound, "negative index %d", i)
	}
	if v == nil {
		v = Null()
	}
	for len(a.values) <= i {
		a.values = append(a.values, Null())
	}
	a.values[i].Invalidate()
	a.values[i] = v
	return nil
}

// Remove releases the element at index i. An interior element is replaced
// with null; a trailing element is dropped along with any trailing nulls
// before it.
func (a *Array) Remove(i int) error {
	if a.locked {
		return errors.New(errors.ErrCodeLocked, "array is locked")
	}
	if i < 0 || i >= len(a.values) {
		return errors.Newf(errors.ErrCodeNotFound, "index %d out of range [0,%d)", i, len(a.values))
	}
	a.values[i].Invalidate()
	if i < len(a.values)-1 {
		a.values[i] = Null()
		return nil
	}
	a.values = a.values[:i]
	for len(a.values) > 0 && a.values[len(a.values)-1].IsNull() {
		a.values = a.values[:len(a.values)-1]
	}
	return nil
}

// Lock freezes the array and everything below it. One-way.
func (a *Array) Lock() {
	if a.locked {
		return
	}
	a.locked = true
	for _, v := range a.values {
		v.lock()
	}
}

// Locked reports whether the array has been locked.
func (a *Array) Locked() bool {
	return a.locked
}

// Clone returns a deep copy. The clone is unlocked.
func (a *Array) Clone() *Array {
	c := NewArray()
	c.values = make([]*Value, len(a.values))
	for i, v := range a.values {
		c.values[i] = v.Clone()
	}
	return c
}

// Invalidate wipes all contained strings and numbers and releases every
// element. Safe on locked arrays.
func (a *Array) Invalidate() {
	for i := range a.values {
		a.values[i].Invalidate()
		a.values[i] = nil
	}
	a.values = nil
	a.locked = false
}
