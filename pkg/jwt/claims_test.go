// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
)

func TestStringOrURI(t *testing.T) {
	for _, ok := range []string{"alice", "https://issuer.example/a", "urn:ietf:params:oauth", "mailto:a@b.example"} {
		assert.NoError(t, checkStringOrURI(ok), ok)
	}
	for _, bad := range []string{"::", ":nope", "http://exa mple.com/:x"} {
		err := checkStringOrURI(bad)
		require.Error(t, err, bad)
		assert.Equal(t, errors.ErrCodeBadURI, errors.GetErrorCode(err))
	}
}

func TestClaimsSettersRejectBadURI(t *testing.T) {
	c := NewClaims()
	for _, set := range []func() error{
		func() error { return c.SetIssuer(":x") },
		func() error { return c.SetSubject(":x") },
		func() error { return c.AddAudience(":x") },
	} {
		err := set()
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeBadURI, errors.GetErrorCode(err))
	}
}

func TestSetRejectsRegisteredClaims(t *testing.T) {
	c := NewClaims()
	for _, name := range []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"} {
		err := c.SetString(name, "x")
		require.Error(t, err, name)
		assert.Equal(t, errors.ErrCodeFinalConflict, errors.GetErrorCode(err))
	}
	require.NoError(t, c.SetString("scope", "read"))
}

func TestAudienceAccumulates(t *testing.T) {
	c := NewClaims()
	require.NoError(t, c.AddAudience("x"))
	require.NoError(t, c.AddAudience("y"))
	aud, err := c.Audience()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, aud)
}

func TestClaimsClone(t *testing.T) {
	c := NewClaims()
	require.NoError(t, c.SetIssuer("a"))
	require.NoError(t, c.SetDuration(60))

	d := c.Clone()
	require.NoError(t, d.SetIssuer("b"))

	iss, err := c.Issuer()
	require.NoError(t, err)
	assert.Equal(t, "a", iss)

	dur, set := d.Duration()
	assert.True(t, set)
	assert.Equal(t, int64(60), dur)
}

func TestPrivateClaimKinds(t *testing.T) {
	c := NewClaims()
	require.NoError(t, c.SetInt("level", 3))
	require.NoError(t, c.Set("flag", jsonx.Bool(true)))

	v, err := c.Get("level")
	require.NoError(t, err)
	i, err := v.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)

	v, err = c.Get("flag")
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestNegativeDurationRejected(t *testing.T) {
	c := NewClaims()
	require.Error(t, c.SetDuration(-1))
	require.Error(t, c.SetNotBefore(-1))
}

func TestSerializeInsertionOrder(t *testing.T) {
	c := NewClaims()
	require.NoError(t, c.SetIssuer("a"))
	require.NoError(t, c.SetSubject("b"))
	require.NoError(t, c.SetString("scope", "read"))
	assert.Equal(t, `{"iss":"a","sub":"b","scope":"read"}`, c.Serialize())
}
