// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package jwa implements the JSON Web Algorithm registry of RFC 7518 and
// the signer and verifier implementations behind it. The registry accepts
// only the HS/RS/ES/PS families; "none" is not representable. Algorithm
// implementations self-register during package initialisation.
package jwa

// Accepted algorithm names. The set is closed: registration under any
// other name is silently ignored.
const (
	HS256 = "HS256"
	HS384 = "HS384"
	HS512 = "HS512"
	RS256 = "RS256"
	RS384 = "RS384"
	RS512 = "RS512"
	ES256 = "ES256"
	ES384 = "ES384"
	ES512 = "ES512"
	PS256 = "PS256"
	PS384 = "PS384"
	PS512 = "PS512"
)

// Signer produces signature bytes over a JWS signing input.
type Signer interface {
	// Algorithm returns the JWA name the signer implements.
	Algorithm() string

	// KeyID returns the key identifier, or "" when none was given.
	KeyID() string

	// Sign returns the signature over input.
	Sign(input []byte) ([]byte, error)

	// Destroy zeroises any key material the signer holds.
	Destroy()
}

// Verifier checks signature bytes over a JWS signing input.
type Verifier interface {
	// Algorithm returns the JWA name the verifier implements.
	Algorithm() string

	// KeyID returns the key identifier, or "" when none was given.
	KeyID() string

	// Verify returns nil when sig is a valid signature over input.
	Verify(input, sig []byte) error

	// Destroy zeroises any key material the verifier holds.
	Destroy()
}
