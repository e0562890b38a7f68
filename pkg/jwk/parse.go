// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwk

import (
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
)

// requiredParams lists the members each key variant must carry.
var requiredParams = map[KeyType][]string{
	TypeHMAC:       {"k"},
	TypeRSAPublic:  {"n", "e"},
	TypeRSAPrivate: {"n", "e", "d"},
	TypeECPublic:   {"crv", "x", "y"},
	TypeECPrivate:  {"crv", "x", "y", "d"},
}

// ParseJWK parses the RFC 7517 JSON representation of a single key. The
// variant is chosen by kty, with private RSA and EC keys recognised by the
// presence of d. The object is parsed under default limits; an oversized
// or malformed document fails before any key material is retained.
func ParseJWK(text string) (*Key, error) {
	obj, err := jsonx.ParseObject(text, jsonx.DefaultLimits())
	if err != nil {
		return nil, err
	}
	key, err := fromObject(obj)
	if err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := key.validate(); err != nil {
		key.Destroy()
		return nil, err
	}
	return key, nil
}

func (k *Key) validate() error {
	typ := k.Type()
	params, ok := requiredParams[typ]
	if !ok {
		return errors.Newf(errors.ErrCodeTypeMismatch, "unknown kty %q", k.Kty())
	}
	for _, name := range params {
		if _, err := k.obj.GetString(name); err != nil {
			return errors.Wrapf(err, errors.ErrCodeTypeMismatch, "%s JWK missing %s", typ, name)
		}
	}
	return nil
}
