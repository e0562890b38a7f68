// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package base64url

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetauth/signet/pkg/errors"
)

func TestEncodeUnpadded(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "Zg", Encode([]byte("f")))
	assert.Equal(t, "Zm8", Encode([]byte("fo")))
	assert.Equal(t, "Zm9v", Encode([]byte("foo")))
}

func TestEncodeURLAlphabet(t *testing.T) {
	// 0xfb 0xff maps onto '-' and '_' in the URL alphabet
	s := Encode([]byte{0xfb, 0xff})
	assert.NotContains(t, s, "+")
	assert.NotContains(t, s, "/")
	assert.Equal(t, "-_8", s)
}

func TestDecodeAcceptsPadding(t *testing.T) {
	for _, in := range []string{"Zm8", "Zm8="} {
		b, err := Decode(in)
		require.NoError(t, err, in)
		assert.Equal(t, []byte("fo"), b)
	}
}

func TestDecodeRejectsNonAlphabet(t *testing.T) {
	_, err := Decode("Zm+v")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedJSON, errors.GetErrorCode(err))
}

func TestDecodeRejectsTruncatedQuantum(t *testing.T) {
	_, err := Decode("Zm9vY")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedJSON, errors.GetErrorCode(err))
}

func TestDecodeString(t *testing.T) {
	s, err := DecodeString("aGVsbG8")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}
