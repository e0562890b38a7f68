// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package jws implements the compact JWS serialization of RFC 7515:
// signing emits b64u(header).b64u(payload).b64u(signature), and
// verification walks the same path backwards. Every verification failure
// collapses into a single SIGNATURE_INVALID error at the boundary; the
// internal cause is only written to the debug log.
package jws

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/signetauth/signet/pkg/base64url"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
	"github.com/signetauth/signet/pkg/jwa"
	"github.com/signetauth/signet/pkg/logging"
)

// headerLimits bounds the protected header. A header is one small flat
// object; anything deeper is hostile.
func headerLimits() jsonx.Limits {
	lim := jsonx.DefaultLimits()
	lim.JSONStringSize = 4096
	lim.RecursionDepth = 1
	lim.ObjectMbrCount = 16
	return lim
}

// BuildHeader constructs the protected header {"typ":"JWT","alg":alg} with
// an optional kid member.
func BuildHeader(alg, kid string) (*jsonx.Object, error) {
	if !jwa.Accepted(alg) {
		return nil, errors.Newf(errors.ErrCodeUnknownAlgorithm, "algorithm %q not accepted", alg)
	}
	hdr := jsonx.NewObject()
	if err := hdr.SetString("typ", "JWT"); err != nil {
		return nil, err
	}
	if err := hdr.SetFinalValue("alg", mustString(alg)); err != nil {
		hdr.Invalidate()
		return nil, err
	}
	if kid != "" {
		if err := hdr.SetString("kid", kid); err != nil {
			hdr.Invalidate()
			return nil, err
		}
	}
	return hdr, nil
}

func mustString(s string) *jsonx.Value {
	v, err := jsonx.String(s)
	if err != nil {
		// Callers only pass accept-list names; this cannot fire.
		panic(err)
	}
	return v
}

// Sign emits the compact serialization of payload under the given header.
func Sign(header *jsonx.Object, payload []byte, signer jwa.Signer) (string, error) {
	if signer == nil {
		return "", errors.New(errors.ErrCodeCryptoBackend, "no signer configured")
	}
	var b strings.Builder
	b.WriteString(base64url.Encode([]byte(header.Serialize())))
	b.WriteByte('.')
	b.WriteString(base64url.Encode(payload))
	sig, err := signer.Sign([]byte(b.String()))
	if err != nil {
		return "", err
	}
	b.WriteByte('.')
	b.WriteString(base64url.Encode(sig))
	return b.String(), nil
}

// VerifierResolver produces a verifier for the header's alg and kid.
type VerifierResolver func(alg, kid string) (jwa.Verifier, error)

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	// Signer used by Sign. May be nil for a verify-only factory.
	Signer jwa.Signer

	// Resolver maps (alg, kid) from a token header to a verifier.
	Resolver VerifierResolver

	// VerifierCacheSize bounds the (alg, kid) verifier cache. Zero
	// disables caching.
	VerifierCacheSize int
}

// Factory binds a signer and a verifier resolver into a reusable
// sign/verify pipeline. Resolved verifiers are cached per (alg, kid).
type Factory struct {
	signer   jwa.Signer
	resolver VerifierResolver
	cache    *lru.Cache[string, jwa.Verifier]
	log      zerolog.Logger
}

// NewFactory builds a Factory from the given configuration.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	log := logging.Component("jws")
	if cfg.Signer != nil {
		log = logging.WithKey(log, cfg.Signer.Algorithm(), cfg.Signer.KeyID())
	}
	f := &Factory{
		signer:   cfg.Signer,
		resolver: cfg.Resolver,
		log:      log,
	}
	if cfg.VerifierCacheSize > 0 {
		cache, err := lru.NewWithEvict(cfg.VerifierCacheSize, func(_ string, v jwa.Verifier) {
			v.Destroy()
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "verifier cache")
		}
		f.cache = cache
	}
	return f, nil
}

// Sign emits the compact serialization of payload using the configured
// signer; the header is built from the signer's algorithm and key id.
func (f *Factory) Sign(payload []byte) (string, error) {
	if f.signer == nil {
		return "", errors.New(errors.ErrCodeCryptoBackend, "no signer configured")
	}
	hdr, err := BuildHeader(f.signer.Algorithm(), f.signer.KeyID())
	if err != nil {
		return "", err
	}
	defer hdr.Invalidate()
	return Sign(hdr, payload, f.signer)
}

// signatureInvalid is the only error Verify surfaces. The cause goes to
// the debug log so operators can diagnose without handing an oracle to
// callers.
func (f *Factory) signatureInvalid(stage string, cause error) error {
	logging.Failure(f.log, cause).Str("stage", stage).Msg("token verification failed")
	return errors.New(errors.ErrCodeSignatureInvalid, "signature verification failed")
}

// Verify checks the compact token and returns its payload bytes.
func (f *Factory) Verify(token string) ([]byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, f.signatureInvalid("split", errors.Newf(errors.ErrCodeMalformedJSON, "token has %d segments", len(parts)))
	}

	headerJSON, err := base64url.Decode(parts[0])
	if err != nil {
		return nil, f.signatureInvalid("header decode", err)
	}
	hdr, err := jsonx.ParseObject(string(headerJSON), headerLimits())
	if err != nil {
		return nil, f.signatureInvalid("header parse", err)
	}
	defer hdr.Invalidate()

	if hdr.Exists("typ") {
		typ, err := hdr.GetString("typ")
		if err != nil || typ != "JWT" {
			return nil, f.signatureInvalid("typ", errors.Newf(errors.ErrCodeTypeMismatch, "typ %q", typ))
		}
	}
	alg, err := hdr.GetString("alg")
	if err != nil {
		return nil, f.signatureInvalid("alg", err)
	}
	if alg == "none" || !jwa.Accepted(alg) {
		return nil, f.signatureInvalid("alg", errors.Newf(errors.ErrCodeUnknownAlgorithm, "algorithm %q rejected", alg))
	}
	var kid string
	if hdr.Exists("kid") {
		if kid, err = hdr.GetString("kid"); err != nil {
			return nil, f.signatureInvalid("kid", err)
		}
	}

	verifier, err := f.resolveVerifier(alg, kid)
	if err != nil {
		return nil, f.signatureInvalid("resolve verifier", err)
	}

	sig, err := base64url.Decode(parts[2])
	if err != nil {
		return nil, f.signatureInvalid("signature decode", err)
	}
	signingInput := []byte(parts[0] + "." + parts[1])
	if err := verifier.Verify(signingInput, sig); err != nil {
		return nil, f.signatureInvalid("verify", err)
	}

	payload, err := base64url.Decode(parts[1])
	if err != nil {
		return nil, f.signatureInvalid("payload decode", err)
	}
	return payload, nil
}

func (f *Factory) resolveVerifier(alg, kid string) (jwa.Verifier, error) {
	if f.resolver == nil {
		return nil, errors.New(errors.ErrCodeCryptoBackend, "no verifier resolver configured")
	}
	cacheKey := alg + "\x00" + kid
	if f.cache != nil {
		if v, ok := f.cache.Get(cacheKey); ok {
			return v, nil
		}
	}
	v, err := f.resolver(alg, kid)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Add(cacheKey, v)
	}
	return v, nil
}

// Close destroys the signer and every cached verifier.
func (f *Factory) Close() {
	if f.signer != nil {
		f.signer.Destroy()
		f.signer = nil
	}
	if f.cache != nil {
		f.cache.Purge()
	}
}
