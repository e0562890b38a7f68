// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetauth/signet/pkg/errors"
)

func TestObjectFinality(t *testing.T) {
	obj := NewObject()
	v, err := String("a")
	require.NoError(t, err)
	require.NoError(t, obj.SetFinalValue("iss", v))
	assert.True(t, obj.IsFinal("iss"))

	err = obj.SetString("iss", "b")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFinalConflict, errors.GetErrorCode(err))

	w, err := String("c")
	require.NoError(t, err)
	err = obj.SetFinalValue("iss", w)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFinalConflict, errors.GetErrorCode(err))

	got, err := obj.GetString("iss")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestObjectLock(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetString("iss", "a"))
	obj.Lock()
	assert.True(t, obj.Locked())

	err := obj.SetString("sub", "b")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocked, errors.GetErrorCode(err))

	err = obj.Remove("iss")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocked, errors.GetErrorCode(err))
}

func TestObjectLockPropagates(t *testing.T) {
	inner := NewObject()
	require.NoError(t, inner.SetString("k", "v"))
	outer := NewObject()
	require.NoError(t, outer.SetValue("inner", ObjectValue(inner)))
	outer.Lock()

	err := inner.SetString("k2", "v2")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocked, errors.GetErrorCode(err))
}

func TestObjectRemove(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetString("a", "1"))
	require.NoError(t, obj.SetString("b", "2"))
	require.NoError(t, obj.SetString("c", "3"))

	require.NoError(t, obj.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, obj.Names())
	assert.False(t, obj.Exists("b"))

	got, err := obj.GetString("c")
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	err = obj.Remove("missing")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetErrorCode(err))
}

func TestObjectReplaceReleasesOldValue(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetString("k", "first"))
	require.NoError(t, obj.SetString("k", "second"))
	got, err := obj.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, obj.Count())
}

func TestObjectCloneIndependent(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetFinalValue("iss", Int(1)))
	inner := NewArray()
	require.NoError(t, inner.AppendString("x"))
	require.NoError(t, obj.SetValue("aud", ArrayValue(inner)))

	c := obj.Clone()
	assert.True(t, c.IsFinal("iss"))
	assert.False(t, c.Locked())

	require.NoError(t, inner.AppendString("y"))
	cv, err := c.Get("aud")
	require.NoError(t, err)
	carr, err := cv.AsArray()
	require.NoError(t, err)
	assert.Equal(t, 1, carr.Count())
}

func TestObjectInvalidateWipes(t *testing.T) {
	obj := NewObject()
	secret, err := String("hunter2hunter2")
	require.NoError(t, err)
	raw := secret.text
	require.NoError(t, obj.SetValue("k", secret))
	obj.Lock()

	obj.Invalidate()
	for _, b := range raw {
		assert.Zero(t, b)
	}
	assert.Equal(t, 0, obj.Count())
}

func TestArraySetPadsWithNull(t *testing.T) {
	arr := NewArray()
	require.NoError(t, arr.Set(2, Int(7)))
	assert.Equal(t, 3, arr.Count())

	e0, err := arr.Get(0)
	require.NoError(t, err)
	assert.True(t, e0.IsNull())

	e2, err := arr.Get(2)
	require.NoError(t, err)
	i, err := e2.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	err = arr.Set(-1, Int(1))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetErrorCode(err))
}

func TestArrayRemoveSemantics(t *testing.T) {
	arr := NewArray()
	for i := int64(0); i < 4; i++ {
		require.NoError(t, arr.Append(Int(i)))
	}

	// Interior removal leaves a null hole.
	require.NoError(t, arr.Remove(1))
	assert.Equal(t, 4, arr.Count())
	e1, err := arr.Get(1)
	require.NoError(t, err)
	assert.True(t, e1.IsNull())

	// Trailing removal trims the hole too.
	require.NoError(t, arr.Remove(3))
	assert.Equal(t, 3, arr.Count())
	require.NoError(t, arr.Remove(2))
	assert.Equal(t, 1, arr.Count())
}

func TestValueTypeMismatch(t *testing.T) {
	v := Bool(true)
	_, err := v.AsString()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTypeMismatch, errors.GetErrorCode(err))

	_, err = v.AsInt()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTypeMismatch, errors.GetErrorCode(err))
}

func TestValueNumberConversions(t *testing.T) {
	n, err := Number("42")
	require.NoError(t, err)
	i, err := n.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	text, err := Int(7).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, "7", text)

	frac, err := Number("1.5")
	require.NoError(t, err)
	_, err = frac.AsInt()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTypeMismatch, errors.GetErrorCode(err))
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	_, err := String("ok\x80bad")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnicode, errors.GetErrorCode(err))

	_, err = String("with\x00nul")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnicode, errors.GetErrorCode(err))
}

func TestNumberRejectsBadGrammar(t *testing.T) {
	for _, text := range []string{"", "abc", "1.", "01", "--1", "1e+"} {
		_, err := Number(text)
		assert.Error(t, err, text)
	}
}
