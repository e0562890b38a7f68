// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyEngineDeniesEverything(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	ok, err := e.Allow("alice", "api", "read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddRule(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.AddRule("alice", "api", "read"))

	tests := []struct {
		sub, aud, scope string
		want            bool
	}{
		{"alice", "api", "read", true},
		{"alice", "api", "write", false},
		{"alice", "other", "read", false},
		{"bob", "api", "read", false},
	}
	for _, tc := range tests {
		ok, err := e.Allow(tc.sub, tc.aud, tc.scope)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s/%s/%s", tc.sub, tc.aud, tc.scope)
	}
}

func TestWildcardRules(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.AddRule("admin", "*", "*"))
	require.NoError(t, e.AddRule("*", "public", "read"))

	ok, err := e.Allow("admin", "anything", "write")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Allow("stranger", "public", "read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Allow("stranger", "public", "write")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCSV(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	csv := `
# issuance rules
p, alice, api, read
p, bob, api, *
`
	require.NoError(t, e.LoadCSV(csv))

	ok, err := e.Allow("alice", "api", "read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Allow("bob", "api", "admin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadCSVMalformed(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.Error(t, e.LoadCSV("p, alice, api"))
	require.Error(t, e.LoadCSV("g, alice, api, read"))
}

func TestEmptyRuleFieldRejected(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)
	require.Error(t, e.AddRule("", "api", "read"))
}
