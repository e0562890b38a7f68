// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwa

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/secure"
)

func init() {
	for _, alg := range []string{RS256, RS384, RS512, PS256, PS384, PS512} {
		RegisterSigner(alg, newRSASigner)
		RegisterVerifier(alg, newRSAVerifier)
	}
}

// pssOptions uses the salt length conventional for JOSE: equal to the
// hash size, on both sign and verify.
var pssOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}

func isPSS(alg string) bool {
	return alg == PS256 || alg == PS384 || alg == PS512
}

type rsaSigner struct {
	alg  string
	kid  string
	priv *rsa.PrivateKey
	hash crypto.Hash
}

func newRSASigner(alg, kid string, key *jwk.Key) (Signer, error) {
	_, h, err := hashForAlg(alg)
	if err != nil {
		return nil, err
	}
	priv, err := key.RSAPrivateKey()
	if err != nil {
		return nil, err
	}
	return &rsaSigner{alg: alg, kid: kid, priv: priv, hash: h}, nil
}

func (s *rsaSigner) Algorithm() string { return s.alg }
func (s *rsaSigner) KeyID() string     { return s.kid }

func (s *rsaSigner) Sign(input []byte) ([]byte, error) {
	digest := hashBytes(s.hash, input)
	var sig []byte
	var err error
	if isPSS(s.alg) {
		opts := *pssOptions
		opts.Hash = s.hash
		sig, err = rsa.SignPSS(rand.Reader, s.priv, s.hash, digest, &opts)
	} else {
		sig, err = rsa.SignPKCS1v15(rand.Reader, s.priv, s.hash, digest)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCryptoBackend, "RSA sign failed")
	}
	return sig, nil
}

// Destroy zeroises the private exponent and primes.
func (s *rsaSigner) Destroy() {
	if s.priv == nil {
		return
	}
	secure.WipeBig(s.priv.D)
	for _, p := range s.priv.Primes {
		secure.WipeBig(p)
	}
	s.priv = nil
}

type rsaVerifier struct {
	alg  string
	kid  string
	pub  *rsa.PublicKey
	hash crypto.Hash
}

func newRSAVerifier(alg, kid string, key *jwk.Key) (Verifier, error) {
	_, h, err := hashForAlg(alg)
	if err != nil {
		return nil, err
	}
	pub, err := key.RSAPublicKey()
	if err != nil {
		return nil, err
	}
	return &rsaVerifier{alg: alg, kid: kid, pub: pub, hash: h}, nil
}

func (v *rsaVerifier) Algorithm() string { return v.alg }
func (v *rsaVerifier) KeyID() string     { return v.kid }

func (v *rsaVerifier) Verify(input, sig []byte) error {
	digest := hashBytes(v.hash, input)
	var err error
	if isPSS(v.alg) {
		opts := *pssOptions
		opts.Hash = v.hash
		err = rsa.VerifyPSS(v.pub, v.hash, digest, sig, &opts)
	} else {
		err = rsa.VerifyPKCS1v15(v.pub, v.hash, digest, sig)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSignatureInvalid, "signature mismatch")
	}
	return nil
}

// Destroy releases the public key. Nothing secret to wipe.
func (v *rsaVerifier) Destroy() {
	v.pub = nil
}

func hashBytes(h crypto.Hash, input []byte) []byte {
	hh := h.New()
	hh.Write(input)
	return hh.Sum(nil)
}
