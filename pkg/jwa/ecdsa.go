// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwa

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/secure"
)

func init() {
	for _, alg := range []string{ES256, ES384, ES512} {
		RegisterSigner(alg, newECDSASigner)
		RegisterVerifier(alg, newECDSAVerifier)
	}
}

// ecdsaParams ties each ES algorithm to its curve name and the fixed
// octet width of each half of the r||s signature.
var ecdsaParams = map[string]struct {
	curve string
	width int
}{
	ES256: {"P-256", 32},
	ES384: {"P-384", 48},
	ES512: {"P-521", 66},
}

func checkCurve(alg, crv string) (int, error) {
	p, ok := ecdsaParams[alg]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeUnknownAlgorithm, "no curve for algorithm %q", alg)
	}
	if p.curve != crv {
		return 0, errors.Newf(errors.ErrCodeCryptoBackend, "algorithm %s requires curve %s, key has %s", alg, p.curve, crv)
	}
	return p.width, nil
}

type ecdsaSigner struct {
	alg   string
	kid   string
	priv  *ecdsa.PrivateKey
	hash  crypto.Hash
	width int
}

func newECDSASigner(alg, kid string, key *jwk.Key) (Signer, error) {
	_, h, err := hashForAlg(alg)
	if err != nil {
		return nil, err
	}
	priv, err := key.ECPrivateKey()
	if err != nil {
		return nil, err
	}
	width, err := checkCurve(alg, priv.Curve.Params().Name)
	if err != nil {
		secure.WipeBig(priv.D)
		return nil, err
	}
	return &ecdsaSigner{alg: alg, kid: kid, priv: priv, hash: h, width: width}, nil
}

func (s *ecdsaSigner) Algorithm() string { return s.alg }
func (s *ecdsaSigner) KeyID() string     { return s.kid }

// Sign produces the JOSE fixed-width r||s form rather than ASN.1 DER.
func (s *ecdsaSigner) Sign(input []byte) ([]byte, error) {
	digest := hashBytes(s.hash, input)
	r, sv, err := ecdsa.Sign(rand.Reader, s.priv, digest)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCryptoBackend, "ECDSA sign failed")
	}
	sig := make([]byte, 2*s.width)
	r.FillBytes(sig[:s.width])
	sv.FillBytes(sig[s.width:])
	return sig, nil
}

// Destroy zeroises the private scalar.
func (s *ecdsaSigner) Destroy() {
	if s.priv == nil {
		return
	}
	secure.WipeBig(s.priv.D)
	s.priv = nil
}

type ecdsaVerifier struct {
	alg   string
	kid   string
	pub   *ecdsa.PublicKey
	hash  crypto.Hash
	width int
}

func newECDSAVerifier(alg, kid string, key *jwk.Key) (Verifier, error) {
	_, h, err := hashForAlg(alg)
	if err != nil {
		return nil, err
	}
	pub, err := key.ECPublicKey()
	if err != nil {
		return nil, err
	}
	width, err := checkCurve(alg, pub.Curve.Params().Name)
	if err != nil {
		return nil, err
	}
	return &ecdsaVerifier{alg: alg, kid: kid, pub: pub, hash: h, width: width}, nil
}

func (v *ecdsaVerifier) Algorithm() string { return v.alg }
func (v *ecdsaVerifier) KeyID() string     { return v.kid }

func (v *ecdsaVerifier) Verify(input, sig []byte) error {
	if len(sig) != 2*v.width {
		return errors.New(errors.ErrCodeSignatureInvalid, "signature mismatch")
	}
	r := new(big.Int).SetBytes(sig[:v.width])
	s := new(big.Int).SetBytes(sig[v.width:])
	digest := hashBytes(v.hash, input)
	if !ecdsa.Verify(v.pub, digest, r, s) {
		return errors.New(errors.ErrCodeSignatureInvalid, "signature mismatch")
	}
	return nil
}

// Destroy releases the public key. Nothing secret to wipe.
func (v *ecdsaVerifier) Destroy() {
	v.pub = nil
}
