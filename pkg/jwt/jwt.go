// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package jwt implements the claims model and the token factory of RFC
// 7519. Claims are carried in a bounded jsonx object; the registered
// claims become final once a token is minted or decoded, so nothing can
// overwrite what was validated. Factories mint compact tokens through a
// jws.Factory and decode them back under a caller-supplied clock and
// skew.
package jwt

import (
	"net/url"
	"sync/atomic"

	"github.com/signetauth/signet/pkg/errors"
)

// registeredClaims are the RFC 7519 claim names managed by the factory.
// They cannot be installed through the generic claim setter.
var registeredClaims = map[string]bool{
	"iss": true, "sub": true, "aud": true,
	"exp": true, "nbf": true, "iat": true, "jti": true,
}

// checkStringOrURI validates the RFC 7519 StringOrURI rule: a value
// containing ':' must parse as an RFC 3986 URI with a scheme.
func checkStringOrURI(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			u, err := url.Parse(s)
			if err != nil || u.Scheme == "" {
				return errors.Newf(errors.ErrCodeBadURI, "%q contains ':' but is not a URI", s)
			}
			return nil
		}
	}
	return nil
}

// objLock is the single-holder test-and-set lock guarding the mutation
// surface of claims and factories. Acquiring a held lock fails
// immediately with BUSY; there is no blocking wait and no recursion.
type objLock struct {
	held atomic.Bool
}

func (l *objLock) acquire() error {
	if !l.held.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCodeBusy, "object is busy")
	}
	return nil
}

func (l *objLock) release() {
	l.held.Store(false)
}
