// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package jsonx implements the bounded JSON model used throughout signet:
// values are parsed under explicit resource limits, strings are validated
// extended UTF-8, object members can be marked final to protect registered
// claims, and secret-bearing text is zeroised on invalidation.
package jsonx

import (
	"strconv"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/secure"
)

// Kind identifies the variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a tagged variant over the JSON value space. Numbers that do not
// fit a signed 64-bit integer keep their decimal text losslessly. String and
// number payloads are held as byte slices so Invalidate can wipe them.
type Value struct {
	kind Kind
	b    bool
	i    int64
	text []byte
	arr  *Array
	obj  *Object
}

// Null returns the JSON null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, b: b}
}

// Int returns an integer value.
func Int(i int64) *Value {
	return &Value{kind: KindInteger, i: i}
}

// Number returns a number value carrying the given decimal text. The text
// must satisfy the RFC 7159 number grammar.
func Number(text string) (*Value, error) {
	if !validNumberText(text) {
		return nil, errors.Newf(errors.ErrCodeMalformedJSON, "invalid number %q", text)
	}
	return &Value{kind: KindNumber, text: []byte(text)}, nil
}

// String returns a string value. The text must be well-formed extended
// UTF-8 without NUL bytes.
func String(s string) (*Value, error) {
	if err := validateUTF8([]byte(s)); err != nil {
		return nil, err
	}
	return &Value{kind: KindString, text: []byte(s)}, nil
}

// ArrayValue wraps an array.
func ArrayValue(a *Array) *Value {
	if a == nil {
		a = NewArray()
	}
	return &Value{kind: KindArray, arr: a}
}

// ObjectValue wraps an object.
func ObjectValue(o *Object) *Value {
	if o == nil {
		o = NewObject()
	}
	return &Value{kind: KindObject, obj: o}
}

// Kind returns the variant tag.
func (v *Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is JSON null.
func (v *Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the boolean payload.
func (v *Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, typeMismatch(KindBool, v.kind)
	}
	return v.b, nil
}

// AsInt returns the integer payload. A number value converts when its text
// parses as a signed 64-bit integer.
func (v *Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindNumber:
		i, err := strconv.ParseInt(string(v.text), 10, 64)
		if err != nil {
			return 0, typeMismatch(KindInteger, v.kind)
		}
		return i, nil
	default:
		return 0, typeMismatch(KindInteger, v.kind)
	}
}

// AsNumber returns the decimal text of a number or integer value.
func (v *Value) AsNumber() (string, error) {
	switch v.kind {
	case KindNumber:
		return string(v.text), nil
	case KindInteger:
		return strconv.FormatInt(v.i, 10), nil
	default:
		return "", typeMismatch(KindNumber, v.kind)
	}
}

// AsString returns the string payload.
func (v *Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", typeMismatch(KindString, v.kind)
	}
	return string(v.text), nil
}

// AsArray returns the wrapped array.
func (v *Value) AsArray() (*Array, error) {
	if v.kind != KindArray {
		return nil, typeMismatch(KindArray, v.kind)
	}
	return v.arr, nil
}

// AsObject returns the wrapped object.
func (v *Value) AsObject() (*Object, error) {
	if v.kind != KindObject {
		return nil, typeMismatch(KindObject, v.kind)
	}
	return v.obj, nil
}

// Clone returns a deep copy. Containers never share children across trees.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	c := &Value{kind: v.kind, b: v.b, i: v.i}
	if v.text != nil {
		c.text = append([]byte(nil), v.text...)
	}
	if v.arr != nil {
		c.arr = v.arr.Clone()
	}
	if v.obj != nil {
		c.obj = v.obj.Clone()
	}
	return c
}

// Invalidate wipes every string and number payload reachable from v and
// releases the children. It is legal on locked containers: the tree is
// being torn down.
func (v *Value) Invalidate() {
	if v == nil {
		return
	}
	if v.text != nil {
		secure.Wipe(v.text)
		v.text = nil
	}
	if v.arr != nil {
		v.arr.Invalidate()
		v.arr = nil
	}
	if v.obj != nil {
		v.obj.Invalidate()
		v.obj = nil
	}
	v.b = false
	v.i = 0
	v.kind = KindNull
}

// lock recursively freezes the containers below v.
func (v *Value) lock() {
	if v == nil {
		return
	}
	if v.arr != nil {
		v.arr.Lock()
	}
	if v.obj != nil {
		v.obj.Lock()
	}
}

func typeMismatch(want, got Kind) error {
	return errors.Newf(errors.ErrCodeTypeMismatch, "value is %s, not %s", got, want)
}

// validNumberText checks the RFC 7159 number grammar.
func validNumberText(s string) bool {
	i, n := 0, len(s)
	if n == 0 {
		return false
	}
	if s[i] == '-' {
		i++
	}
	if i >= n {
		return false
	}
	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	default:
		return false
	}
	if i < n && s[i] == '.' {
		i++
		if i >= n || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= n || s[i] < '0' || s[i] > '9' {
			return false
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return i == n
}
