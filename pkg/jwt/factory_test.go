// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetauth/signet/pkg/base64url"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwa"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/jws"
)

const testEpoch = int64(1700000000)

func newHMACFactory(t *testing.T, secret string, now int64) *Factory {
	t.Helper()
	key, err := jwk.NewHMACKey([]byte(secret), "k1", jwa.HS256)
	require.NoError(t, err)
	t.Cleanup(key.Destroy)

	signer, err := jwa.MakeSigner(jwa.HS256, "k1", key)
	require.NoError(t, err)
	jwsf, err := jws.NewFactory(jws.FactoryConfig{
		Signer: signer,
		Resolver: func(alg, kid string) (jwa.Verifier, error) {
			return jwa.MakeVerifier(alg, kid, key)
		},
		VerifierCacheSize: 4,
	})
	require.NoError(t, err)
	t.Cleanup(jwsf.Close)

	f := NewFactory(jwsf)
	if now != 0 {
		require.NoError(t, f.SetTimeFunc(func() int64 { return now }))
	}
	return f
}

func basicClaims(t *testing.T) *Claims {
	t.Helper()
	c := NewClaims()
	require.NoError(t, c.SetIssuer("a"))
	require.NoError(t, c.SetSubject("b"))
	require.NoError(t, c.AddAudience("c"))
	require.NoError(t, c.SetDuration(60))
	return c
}

func TestSignAndDecodeRoundTrip(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)

	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := f.Decode(token, testEpoch+30, 0)
	require.NoError(t, err)
	defer got.Destroy()

	iss, err := got.Issuer()
	require.NoError(t, err)
	assert.Equal(t, "a", iss)

	sub, err := got.Subject()
	require.NoError(t, err)
	assert.Equal(t, "b", sub)

	aud, err := got.Audience()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, aud)

	iat, err := got.IssuedAt()
	require.NoError(t, err)
	assert.Equal(t, testEpoch, iat)

	exp, err := got.Expiration()
	require.NoError(t, err)
	assert.Equal(t, testEpoch+60, exp)

	jti, err := got.ID()
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.True(t, got.Validated())
}

func TestDecodeExpiry(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	_, err = f.Decode(token, testEpoch+61, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExpired, errors.GetErrorCode(err))

	got, err := f.Decode(token, testEpoch+61, 5)
	require.NoError(t, err)
	got.Destroy()
}

func TestDecodeExpiryBoundary(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	// cur_time - skew < exp is the validity condition, so the token dies
	// exactly at exp.
	got, err := f.Decode(token, testEpoch+59, 0)
	require.NoError(t, err)
	got.Destroy()

	_, err = f.Decode(token, testEpoch+60, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExpired, errors.GetErrorCode(err))
}

func TestDecodeTamperedPayload(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	raw, err := base64url.Decode(parts[1])
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	parts[1] = base64url.Encode(raw)

	_, err = f.Decode(strings.Join(parts, "."), testEpoch+1, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSignatureInvalid, errors.GetErrorCode(err))
}

func TestDecodeAlgDowngrade(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = base64url.Encode([]byte(`{"alg":"none","typ":"JWT"}`))
	parts[2] = ""

	_, err = f.Decode(strings.Join(parts, "."), testEpoch+1, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSignatureInvalid, errors.GetErrorCode(err))
}

func TestDecodeNotYetValid(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	c := basicClaims(t)
	require.NoError(t, c.SetNotBefore(30))

	token, err := f.Sign(c)
	require.NoError(t, err)

	_, err = f.Decode(token, testEpoch+10, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotYetValid, errors.GetErrorCode(err))

	got, err := f.Decode(token, testEpoch+10, 20)
	require.NoError(t, err)
	got.Destroy()

	got, err = f.Decode(token, testEpoch+30, 0)
	require.NoError(t, err)
	got.Destroy()
}

func TestDecodeIssuedInFuture(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	_, err = f.Decode(token, testEpoch-10, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIssuedInFuture, errors.GetErrorCode(err))

	got, err := f.Decode(token, testEpoch-10, 10)
	require.NoError(t, err)
	got.Destroy()
}

func TestFactoryDefaultsStamped(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	require.NoError(t, f.SetIssuer("https://issuer.example"))
	require.NoError(t, f.SetSubject("svc"))
	require.NoError(t, f.AddAudience("api"))
	require.NoError(t, f.SetDuration(120))

	token, err := f.Sign(nil)
	require.NoError(t, err)

	got, err := f.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()

	iss, err := got.Issuer()
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example", iss)

	aud, err := got.Audience()
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, aud)

	exp, err := got.Expiration()
	require.NoError(t, err)
	assert.Equal(t, testEpoch+120, exp)
}

func TestClaimsOverrideFactoryDefaults(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	require.NoError(t, f.SetDuration(3600))

	c := NewClaims()
	require.NoError(t, c.SetDuration(60))
	token, err := f.Sign(c)
	require.NoError(t, err)

	got, err := f.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()

	exp, err := got.Expiration()
	require.NoError(t, err)
	assert.Equal(t, testEpoch+60, exp)
}

func TestDecodeIdentityMismatches(t *testing.T) {
	mint := newHMACFactory(t, "secret", testEpoch)
	token, err := mint.Sign(basicClaims(t))
	require.NoError(t, err)

	t.Run("issuer", func(t *testing.T) {
		f := newHMACFactory(t, "secret", testEpoch)
		require.NoError(t, f.SetIssuer("someone-else"))
		_, err := f.Decode(token, testEpoch+1, 0)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeIssuerMismatch, errors.GetErrorCode(err))
	})

	t.Run("subject", func(t *testing.T) {
		f := newHMACFactory(t, "secret", testEpoch)
		require.NoError(t, f.SetSubject("someone-else"))
		_, err := f.Decode(token, testEpoch+1, 0)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeSubjectMismatch, errors.GetErrorCode(err))
	})

	t.Run("audience", func(t *testing.T) {
		f := newHMACFactory(t, "secret", testEpoch)
		require.NoError(t, f.AddAudience("other-api"))
		// the required audience is stamped into minted tokens, so
		// validate a token minted elsewhere
		_, err := f.Decode(token, testEpoch+1, 0)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeAudienceMismatch, errors.GetErrorCode(err))
	})

	t.Run("audience intersection", func(t *testing.T) {
		f := newHMACFactory(t, "secret", testEpoch)
		require.NoError(t, f.AddAudience("other-api"))
		require.NoError(t, f.AddAudience("c"))
		got, err := f.Decode(token, testEpoch+1, 0)
		require.NoError(t, err)
		got.Destroy()
	})
}

func TestDecodeAudienceString(t *testing.T) {
	// aud minted by other implementations may be a bare string
	f := newHMACFactory(t, "secret", testEpoch)
	require.NoError(t, f.AddAudience("c"))

	payload := `{"iss":"a","aud":"c","iat":1700000000}`
	token := signRaw(t, "secret", payload)

	got, err := f.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()

	aud, err := got.Audience()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, aud)
}

// signRaw mints a compact token over an exact payload, bypassing the
// claims engine.
func signRaw(t *testing.T, secret, payload string) string {
	t.Helper()
	key, err := jwk.NewHMACKey([]byte(secret), "k1", jwa.HS256)
	require.NoError(t, err)
	t.Cleanup(key.Destroy)
	signer, err := jwa.MakeSigner(jwa.HS256, "k1", key)
	require.NoError(t, err)
	t.Cleanup(signer.Destroy)

	hdr, err := jws.BuildHeader(jwa.HS256, "k1")
	require.NoError(t, err)
	defer hdr.Invalidate()
	token, err := jws.Sign(hdr, []byte(payload), signer)
	require.NoError(t, err)
	return token
}

func TestDecodeRejectsBadURIClaim(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token := signRaw(t, "secret", `{"iss":"::not a uri","iat":1700000000}`)

	_, err := f.Decode(token, testEpoch+1, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBadURI, errors.GetErrorCode(err))
}

func TestDecodedClaimsAreFinal(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	token, err := f.Sign(basicClaims(t))
	require.NoError(t, err)

	got, err := f.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()

	err = got.SetIssuer("evil")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFinalConflict, errors.GetErrorCode(err))

	err = got.AddAudience("evil")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFinalConflict, errors.GetErrorCode(err))
}

func TestJTIUniqueness(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := f.Sign(nil)
		require.NoError(t, err)
		got, err := f.Decode(token, testEpoch+1, 0)
		require.NoError(t, err)
		jti, err := got.ID()
		require.NoError(t, err)
		got.Destroy()
		require.False(t, seen[jti], "jti %q repeated", jti)
		seen[jti] = true
	}
}

func TestFactoryLock(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	require.NoError(t, f.SetIssuer("a"))
	f.Lock()
	assert.True(t, f.Locked())

	err := f.SetIssuer("b")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocked, errors.GetErrorCode(err))

	err = f.SetDuration(60)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocked, errors.GetErrorCode(err))

	// locked factories still mint and decode
	token, err := f.Sign(nil)
	require.NoError(t, err)
	got, err := f.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	got.Destroy()
}

func TestUnverifiedFactory(t *testing.T) {
	mint := newHMACFactory(t, "secret", testEpoch)
	token, err := mint.Sign(basicClaims(t))
	require.NoError(t, err)

	inspect := NewFactory(nil)
	require.NoError(t, inspect.SetTimeFunc(func() int64 { return testEpoch }))

	_, err = inspect.Sign(NewClaims())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCryptoBackend, errors.GetErrorCode(err))

	got, err := inspect.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()
	iss, err := got.Issuer()
	require.NoError(t, err)
	assert.Equal(t, "a", iss)

	// temporal validation still applies without a verifier
	_, err = inspect.Decode(token, testEpoch+61, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExpired, errors.GetErrorCode(err))
}

func TestFactoryClone(t *testing.T) {
	f := newHMACFactory(t, "secret", testEpoch)
	require.NoError(t, f.SetIssuer("a"))
	f.Lock()

	c := f.Clone()
	assert.False(t, c.Locked())
	require.NoError(t, c.SetIssuer("b"))

	token, err := c.Sign(nil)
	require.NoError(t, err)
	got, err := c.Decode(token, testEpoch+1, 0)
	require.NoError(t, err)
	defer got.Destroy()
	iss, err := got.Issuer()
	require.NoError(t, err)
	assert.Equal(t, "b", iss)
}
