// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package keys generates signing key material for the accepted
// algorithm families. Generated keys are handed back as JWKs; RSA and
// EC keys also come with a PEM rendering for storage.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwa"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/secure"
)

// MinRSAKeySize is the smallest RSA modulus Generate will produce.
const MinRSAKeySize = 2048

// hmacSecretSize maps an HS algorithm to its hash output size, the
// recommended minimum secret length.
var hmacSecretSize = map[string]int{
	jwa.HS256: 32,
	jwa.HS384: 48,
	jwa.HS512: 64,
}

var ecCurve = map[string]elliptic.Curve{
	jwa.ES256: elliptic.P256(),
	jwa.ES384: elliptic.P384(),
	jwa.ES512: elliptic.P521(),
}

// Generate produces a fresh private key for alg and returns it as a JWK
// together with its PEM rendering. HMAC keys have no PEM form; for them
// the PEM string is empty and the JWK serialization is the portable
// representation. rsaBits selects the RSA modulus size and is ignored
// for the other families; zero means MinRSAKeySize.
func Generate(alg, kid string, rsaBits int) (*jwk.Key, string, error) {
	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		key, err := GenerateHMAC(alg, kid)
		return key, "", err
	case jwa.RS256, jwa.RS384, jwa.RS512, jwa.PS256, jwa.PS384, jwa.PS512:
		return GenerateRSA(alg, kid, rsaBits)
	case jwa.ES256, jwa.ES384, jwa.ES512:
		return GenerateEC(alg, kid)
	default:
		return nil, "", errors.Newf(errors.ErrCodeUnknownAlgorithm, "cannot generate a key for %q", alg)
	}
}

// GenerateHMAC produces a random secret sized to the algorithm's hash.
func GenerateHMAC(alg, kid string) (*jwk.Key, error) {
	size, ok := hmacSecretSize[alg]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownAlgorithm, "%q is not an HMAC algorithm", alg)
	}
	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCryptoBackend, "read random secret")
	}
	key, err := jwk.NewHMACKey(secret, kid, alg)
	secure.Wipe(secret)
	return key, err
}

// GenerateRSA produces an RSA private key for an RS or PS algorithm.
func GenerateRSA(alg, kid string, bits int) (*jwk.Key, string, error) {
	if bits == 0 {
		bits = MinRSAKeySize
	}
	if bits < MinRSAKeySize {
		return nil, "", errors.Newf(errors.ErrCodeCryptoBackend,
			"RSA modulus %d is below the %d bit minimum", bits, MinRSAKeySize)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeCryptoBackend, "generate RSA key")
	}
	text := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	}))
	return keyFromPEM(text, alg, kid)
}

// GenerateEC produces an EC private key on the algorithm's curve.
func GenerateEC(alg, kid string) (*jwk.Key, string, error) {
	curve, ok := ecCurve[alg]
	if !ok {
		return nil, "", errors.Newf(errors.ErrCodeUnknownAlgorithm, "%q is not an EC algorithm", alg)
	}
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeCryptoBackend, "generate EC key")
	}
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeCryptoBackend, "encode EC key")
	}
	text := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	return keyFromPEM(text, alg, kid)
}

func keyFromPEM(text, alg, kid string) (*jwk.Key, string, error) {
	parsed, err := jwk.ParsePEM(text, "sig", alg, kid)
	if err != nil {
		return nil, "", err
	}
	return parsed[0], text, nil
}

// PublicPEM renders the public half of an RSA or EC key as a PKIX
// PUBLIC KEY block. HMAC keys fail with PEM_FORMAT.
func PublicPEM(key *jwk.Key) (string, error) {
	var pub any
	switch key.Type() {
	case jwk.TypeRSAPublic, jwk.TypeRSAPrivate:
		k, err := key.RSAPublicKey()
		if err != nil {
			return "", err
		}
		pub = k
	case jwk.TypeECPublic, jwk.TypeECPrivate:
		k, err := key.ECPublicKey()
		if err != nil {
			return "", err
		}
		pub = k
	default:
		return "", errors.Newf(errors.ErrCodePEMFormat, "%s keys have no PEM form", key.Kty())
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCryptoBackend, "encode public key")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// Save writes key material to path with owner-only permissions,
// creating parent directories as needed.
func Save(path, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create key directory")
	}
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "write key file")
	}
	return nil
}
