// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetauth/signet/pkg/base64url"
	"github.com/signetauth/signet/pkg/errors"
)

func TestParseJWKHMAC(t *testing.T) {
	text := `{"kty":"oct","k":"` + base64url.Encode([]byte("secret")) + `","kid":"k1","alg":"HS256"}`
	key, err := ParseJWK(text)
	require.NoError(t, err)
	defer key.Destroy()

	assert.Equal(t, TypeHMAC, key.Type())
	assert.True(t, key.IsPrivate())
	assert.Equal(t, "k1", key.Kid())
	assert.Equal(t, "HS256", key.Alg())

	secret, err := key.HMACSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), secret)
}

func TestParseJWKUnknownKty(t *testing.T) {
	_, err := ParseJWK(`{"kty":"OKP","x":"AA"}`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTypeMismatch, errors.GetErrorCode(err))
}

func TestParseJWKMissingParams(t *testing.T) {
	_, err := ParseJWK(`{"kty":"RSA","n":"AQAB"}`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTypeMismatch, errors.GetErrorCode(err))
}

func TestParseJWKESAlias(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key, err := fromECPrivate(priv)
	require.NoError(t, err)
	defer key.Destroy()

	text := key.Serialize()
	aliased := `{"kty":"ES"` + text[len(`{"kty":"EC"`):]
	parsed, err := ParseJWK(aliased)
	require.NoError(t, err)
	defer parsed.Destroy()
	assert.Equal(t, "EC", parsed.Kty())
	assert.Equal(t, TypeECPrivate, parsed.Type())
}

func TestRSARoundTripThroughJWK(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := fromRSAPrivate(priv)
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, TypeRSAPrivate, key.Type())

	back, err := key.RSAPrivateKey()
	require.NoError(t, err)
	assert.Zero(t, back.N.Cmp(priv.N))
	assert.Zero(t, back.D.Cmp(priv.D))
	assert.Equal(t, priv.E, back.E)
	require.NoError(t, back.Validate())
}

func TestECRoundTripThroughJWK(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	key, err := fromECPrivate(priv)
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, "P-384", key.Param("crv"))

	back, err := key.ECPrivateKey()
	require.NoError(t, err)
	assert.Zero(t, back.D.Cmp(priv.D))
	assert.Zero(t, back.X.Cmp(priv.X))
}

func TestToPublicDropsSecrets(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := fromRSAPrivate(priv)
	require.NoError(t, err)
	defer key.Destroy()
	require.NoError(t, key.obj.SetString("kid", "rsa-1"))

	pub, err := key.ToPublic()
	require.NoError(t, err)
	defer pub.Destroy()

	assert.Equal(t, TypeRSAPublic, pub.Type())
	assert.False(t, pub.IsPrivate())
	assert.Equal(t, "rsa-1", pub.Kid())
	for _, name := range secretParams {
		assert.False(t, pub.obj.Exists(name), name)
	}

	_, err = pub.RSAPublicKey()
	assert.NoError(t, err)
}

func TestDestroyWipesSecretBytes(t *testing.T) {
	key, err := NewHMACKey([]byte("super-secret-material"), "k1", "HS256")
	require.NoError(t, err)

	v, err := key.obj.Get("k")
	require.NoError(t, err)
	encoded, err := v.AsString()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	key.Destroy()
	// Destroy invalidates every member value, which wipes its bytes and
	// leaves it null; the key must be unusable.
	assert.True(t, v.IsNull())
	assert.Nil(t, key.obj)
}

func pemEncode(t *testing.T, blockType string, der []byte) string {
	t.Helper()
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

func TestParsePEMRSAPrivate(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	text := pemEncode(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	keys, err := ParsePEM(text, "sig", "RS256", "rsa-1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	defer keys[0].Destroy()

	k := keys[0]
	assert.Equal(t, TypeRSAPrivate, k.Type())
	assert.Equal(t, "sig", k.Use())
	assert.Equal(t, "RS256", k.Alg())
	assert.Equal(t, "rsa-1", k.Kid())

	back, err := k.RSAPrivateKey()
	require.NoError(t, err)
	assert.Zero(t, back.D.Cmp(priv.D))
}

func TestParsePEMECPrivate(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)

	keys, err := ParsePEM(pemEncode(t, "EC PRIVATE KEY", der), "sig", "ES256", "ec-1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	defer keys[0].Destroy()
	assert.Equal(t, TypeECPrivate, keys[0].Type())
}

func TestParsePEMPublicKeys(t *testing.T) {
	rsaPriv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecPriv, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)

	pkix, err := x509.MarshalPKIXPublicKey(&ecPriv.PublicKey)
	require.NoError(t, err)

	text := pemEncode(t, "RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(&rsaPriv.PublicKey)) +
		pemEncode(t, "CERTIFICATE", []byte("not a key")) +
		pemEncode(t, "PUBLIC KEY", pkix)

	keys, err := ParsePEM(text, "sig", "", "")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, TypeRSAPublic, keys[0].Type())
	assert.Equal(t, TypeECPublic, keys[1].Type())
	assert.Equal(t, "P-521", keys[1].Param("crv"))
}

func TestParsePEMNoRecognisedBlock(t *testing.T) {
	_, err := ParsePEM(pemEncode(t, "CERTIFICATE", []byte("zz")), "", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetErrorCode(err))

	_, err = ParsePEM("no pem here", "", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetErrorCode(err))
}
