// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jsonx

import (
	"github.com/signetauth/signet/pkg/errors"
)

type member struct {
	name  string
	final bool
	value *Value
}

// Object is an insertion-ordered mapping from member name to value. Members
// installed with SetFinalValue cannot be overwritten or re-finalised, and a
// locked object rejects every mutation.
type Object struct {
	members []member
	index   map[string]int
	locked  bool
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Count returns the number of members.
func (o *Object) Count() int {
	return len(o.members)
}

// Names returns the member names in insertion order.
func (o *Object) Names() []string {
	names := make([]string, len(o.members))
	for i, m := range o.members {
		names[i] = m.name
	}
	return names
}

// Exists reports whether the named member is present.
func (o *Object) Exists(name string) bool {
	_, ok := o.index[name]
	return ok
}

// IsFinal reports whether the named member is present and final.
func (o *Object) IsFinal(name string) bool {
	i, ok := o.index[name]
	return ok && o.members[i].final
}

// Get returns the named member's value.
func (o *Object) Get(name string) (*Value, error) {
	i, ok := o.index[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "no member %q", name)
	}
	return o.members[i].value, nil
}

// GetString returns the named member as a string.
func (o *Object) GetString(name string) (string, error) {
	v, err := o.Get(name)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// GetInt returns the named member as a signed 64-bit integer.
func (o *Object) GetInt(name string) (int64, error) {
	v, err := o.Get(name)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// SetValue installs or replaces the named member. Replacing a final member
// fails with FINAL_CONFLICT; a locked object fails with LOCKED.
func (o *Object) SetValue(name string, v *Value) error {
	return o.set(name, v, false)
}

// SetFinalValue installs the named member and marks it final.
func (o *Object) SetFinalValue(name string, v *Value) error {
	return o.set(name, v, true)
}

func (o *Object) set(name string, v *Value, final bool) error {
	if o.locked {
		return errors.New(errors.ErrCodeLocked, "object is locked")
	}
	if err := validateUTF8([]byte(name)); err != nil {
		return err
	}
	if v == nil {
		v = Null()
	}
	if i, ok := o.index[name]; ok {
		if o.members[i].final {
			return errors.Newf(errors.ErrCodeFinalConflict, "member %q is final", name)
		}
		o.members[i].value.Invalidate()
		o.members[i].value = v
		o.members[i].final = final
		return nil
	}
	if o.index == nil {
		o.index = make(map[string]int)
	}
	o.index[name] = len(o.members)
	o.members = append(o.members, member{name: name, final: final, value: v})
	return nil
}

// SetString installs a string member.
func (o *Object) SetString(name, s string) error {
	v, err := String(s)
	if err != nil {
		return err
	}
	return o.SetValue(name, v)
}

// SetInt installs an integer member.
func (o *Object) SetInt(name string, i int64) error {
	return o.SetValue(name, Int(i))
}

// Remove deletes the named member and releases its value. Final members may
// be removed; finality protects the value from being replaced, not the
// member from teardown by its owner.
func (o *Object) Remove(name string) error {
	if o.locked {
		return errors.New(errors.ErrCodeLocked, "object is locked")
	}
	i, ok := o.index[name]
	if !ok {
		return errors.Newf(errors.ErrCodeNotFound, "no member %q", name)
	}
	o.members[i].value.Invalidate()
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, name)
	for j := i; j < len(o.members); j++ {
		o.index[o.members[j].name] = j
	}
	return nil
}

// Lock freezes the object and everything below it. One-way.
func (o *Object) Lock() {
	if o.locked {
		return
	}
	o.locked = true
	for _, m := range o.members {
		m.value.lock()
	}
}

// Locked reports whether the object has been locked.
func (o *Object) Locked() bool {
	return o.locked
}

// Clone returns a deep copy. Finality is preserved; the clone is unlocked.
func (o *Object) Clone() *Object {
	c := NewObject()
	for _, m := range o.members {
		c.index[m.name] = len(c.members)
		c.members = append(c.members, member{name: m.name, final: m.final, value: m.value.Clone()})
	}
	return c
}

// Invalidate wipes all contained strings and numbers and releases every
// member. Safe on locked objects.
func (o *Object) Invalidate() {
	for i := range o.members {
		o.members[i].value.Invalidate()
		o.members[i].value = nil
	}
	o.members = nil
	o.index = nil
	o.locked = false
}
