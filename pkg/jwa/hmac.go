// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwa

import (
	"crypto"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/secure"
)

func init() {
	for _, alg := range []string{HS256, HS384, HS512} {
		RegisterSigner(alg, newHMACSigner)
		RegisterVerifier(alg, newHMACVerifier)
	}
}

// hmacKeyed implements both directions of the HMAC-SHA2 family: signing
// and verifying share the secret and the MAC computation.
type hmacKeyed struct {
	alg  string
	kid  string
	key  []byte
	hash func() hash.Hash
}

func hashForAlg(alg string) (func() hash.Hash, crypto.Hash, error) {
	switch alg {
	case HS256, RS256, ES256, PS256:
		return sha256.New, crypto.SHA256, nil
	case HS384, RS384, ES384, PS384:
		return sha512.New384, crypto.SHA384, nil
	case HS512, RS512, ES512, PS512:
		return sha512.New, crypto.SHA512, nil
	default:
		return nil, 0, errors.Newf(errors.ErrCodeUnknownAlgorithm, "no hash for algorithm %q", alg)
	}
}

func newHMACKeyed(alg, kid string, key *jwk.Key) (*hmacKeyed, error) {
	h, _, err := hashForAlg(alg)
	if err != nil {
		return nil, err
	}
	secret, err := key.HMACSecret()
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New(errors.ErrCodeCryptoBackend, "empty HMAC secret")
	}
	return &hmacKeyed{alg: alg, kid: kid, key: secret, hash: h}, nil
}

func newHMACSigner(alg, kid string, key *jwk.Key) (Signer, error) {
	return newHMACKeyed(alg, kid, key)
}

func newHMACVerifier(alg, kid string, key *jwk.Key) (Verifier, error) {
	return newHMACKeyed(alg, kid, key)
}

func (h *hmacKeyed) Algorithm() string { return h.alg }
func (h *hmacKeyed) KeyID() string     { return h.kid }

func (h *hmacKeyed) Sign(input []byte) ([]byte, error) {
	mac := hmac.New(h.hash, h.key)
	mac.Write(input)
	return mac.Sum(nil), nil
}

func (h *hmacKeyed) Verify(input, sig []byte) error {
	want, err := h.Sign(input)
	if err != nil {
		return err
	}
	defer secure.Wipe(want)
	if !hmac.Equal(want, sig) {
		return errors.New(errors.ErrCodeSignatureInvalid, "signature mismatch")
	}
	return nil
}

// Destroy zeroises the secret copy.
func (h *hmacKeyed) Destroy() {
	secure.Wipe(h.key)
	h.key = nil
}
