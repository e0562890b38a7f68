// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwa

import (
	"sync"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwk"
)

// SignerFactory builds a signer for an accepted algorithm from a key.
type SignerFactory func(alg, kid string, key *jwk.Key) (Signer, error)

// VerifierFactory builds a verifier for an accepted algorithm from a key.
type VerifierFactory func(alg, kid string, key *jwk.Key) (Verifier, error)

// registry is the process-wide factory table. The zero value is usable so
// init-time self-registration is safe in any package initialisation order;
// the maps are allocated lazily under the mutex.
type registry struct {
	mu            sync.RWMutex
	signerFacts   map[string]SignerFactory
	verifierFacts map[string]VerifierFactory
}

var global registry

// accepted is the closed accept-list. "none" is deliberately absent.
var accepted = map[string]bool{
	HS256: true, HS384: true, HS512: true,
	RS256: true, RS384: true, RS512: true,
	ES256: true, ES384: true, ES512: true,
	PS256: true, PS384: true, PS512: true,
}

// Accepted reports whether alg is in the accept-list.
func Accepted(alg string) bool {
	return accepted[alg]
}

// AcceptedAlgorithms returns the accept-list names in family order.
func AcceptedAlgorithms() []string {
	return []string{HS256, HS384, HS512, RS256, RS384, RS512, ES256, ES384, ES512, PS256, PS384, PS512}
}

// RegisterSigner installs a signer factory for alg, replacing any previous
// one. Registration under a name outside the accept-list is ignored.
func RegisterSigner(alg string, fact SignerFactory) {
	if !accepted[alg] {
		return
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.signerFacts == nil {
		global.signerFacts = make(map[string]SignerFactory)
	}
	global.signerFacts[alg] = fact
}

// RegisterVerifier installs a verifier factory for alg, replacing any
// previous one. Registration under a name outside the accept-list is
// ignored.
func RegisterVerifier(alg string, fact VerifierFactory) {
	if !accepted[alg] {
		return
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.verifierFacts == nil {
		global.verifierFacts = make(map[string]VerifierFactory)
	}
	global.verifierFacts[alg] = fact
}

// MakeSigner builds a signer for alg over key.
func MakeSigner(alg, kid string, key *jwk.Key) (Signer, error) {
	global.mu.RLock()
	fact := global.signerFacts[alg]
	global.mu.RUnlock()
	if fact == nil {
		return nil, errors.Newf(errors.ErrCodeUnknownAlgorithm, "no signer for algorithm %q", alg)
	}
	return fact(alg, kid, key)
}

// MakeVerifier builds a verifier for alg over key.
func MakeVerifier(alg, kid string, key *jwk.Key) (Verifier, error) {
	global.mu.RLock()
	fact := global.verifierFacts[alg]
	global.mu.RUnlock()
	if fact == nil {
		return nil, errors.Newf(errors.ErrCodeUnknownAlgorithm, "no verifier for algorithm %q", alg)
	}
	return fact(alg, kid, key)
}
