// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"math/big"

	"github.com/signetauth/signet/pkg/errors"
)

// HMACSecret returns the raw oct secret. The caller owns the copy and is
// responsible for wiping it.
func (k *Key) HMACSecret() ([]byte, error) {
	if k.Type() != TypeHMAC {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "%s key is not an HMAC key", k.Type())
	}
	return k.ParamBytes("k")
}

// RSAPublicKey materialises the public half from the n and e parameters.
func (k *Key) RSAPublicKey() (*rsa.PublicKey, error) {
	if kty := k.Kty(); kty != "RSA" {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "kty %q is not RSA", kty)
	}
	n, err := k.paramBigInt("n")
	if err != nil {
		return nil, err
	}
	e, err := k.paramBigInt("e")
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() <= 1 {
		return nil, errors.New(errors.ErrCodeCryptoBackend, "RSA exponent out of range")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// RSAPrivateKey materialises the private key. When p and q are present the
// CRT values are recomputed from them (the dp, dq and qi members are not
// read); otherwise signing falls back to the plain d exponent.
func (k *Key) RSAPrivateKey() (*rsa.PrivateKey, error) {
	if k.Type() != TypeRSAPrivate {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "%s key is not an RSA private key", k.Type())
	}
	pub, err := k.RSAPublicKey()
	if err != nil {
		return nil, err
	}
	d, err := k.paramBigInt("d")
	if err != nil {
		return nil, err
	}
	priv := &rsa.PrivateKey{PublicKey: *pub, D: d}
	if k.obj.Exists("p") && k.obj.Exists("q") {
		p, err := k.paramBigInt("p")
		if err != nil {
			return nil, err
		}
		q, err := k.paramBigInt("q")
		if err != nil {
			return nil, err
		}
		priv.Primes = []*big.Int{p, q}
		priv.Precompute()
	}
	return priv, nil
}

// curveByName maps the RFC 7518 crv names onto the NIST curves.
func curveByName(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeCryptoBackend, "unsupported curve %q", crv)
	}
}

// ECPublicKey materialises the public point from crv, x and y.
func (k *Key) ECPublicKey() (*ecdsa.PublicKey, error) {
	if kty := k.Kty(); kty != "EC" {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "kty %q is not EC", kty)
	}
	curve, err := curveByName(k.Param("crv"))
	if err != nil {
		return nil, err
	}
	x, err := k.paramBigInt("x")
	if err != nil {
		return nil, err
	}
	y, err := k.paramBigInt("y")
	if err != nil {
		return nil, err
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	if !curve.IsOnCurve(x, y) {
		return nil, errors.New(errors.ErrCodeCryptoBackend, "EC point not on curve")
	}
	return pub, nil
}

// ECPrivateKey materialises the private scalar together with the point.
func (k *Key) ECPrivateKey() (*ecdsa.PrivateKey, error) {
	if k.Type() != TypeECPrivate {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "%s key is not an EC private key", k.Type())
	}
	pub, err := k.ECPublicKey()
	if err != nil {
		return nil, err
	}
	d, err := k.paramBigInt("d")
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{PublicKey: *pub, D: d}, nil
}

func (k *Key) paramBigInt(name string) (*big.Int, error) {
	raw, err := k.ParamBytes(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeCryptoBackend, "JWK parameter %s", name)
	}
	return new(big.Int).SetBytes(raw), nil
}
