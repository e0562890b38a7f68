// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package jwk implements the JSON Web Key model of RFC 7517. A Key stores
// all of its parameters inside a bounded jsonx object so that JWK
// (de)serialization is a clone, and the typed HMAC/RSA/EC facade is a set
// of accessor wrappers over that object. Secret parameters are zeroised
// when a key is destroyed.
package jwk

import (
	"github.com/signetauth/signet/pkg/base64url"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
)

// KeyType identifies the variant a Key holds.
type KeyType int

const (
	TypeUnknown KeyType = iota
	TypeHMAC
	TypeRSAPublic
	TypeRSAPrivate
	TypeECPublic
	TypeECPrivate
)

// String returns the human-readable name of the key type.
func (t KeyType) String() string {
	switch t {
	case TypeHMAC:
		return "HMAC"
	case TypeRSAPublic:
		return "RSA public"
	case TypeRSAPrivate:
		return "RSA private"
	case TypeECPublic:
		return "EC public"
	case TypeECPrivate:
		return "EC private"
	default:
		return "unknown"
	}
}

// secretParams are the JWK members that carry private key material.
var secretParams = []string{"k", "d", "p", "q", "dp", "dq", "qi"}

// publicParams lists, per kty, the members copied into a public derivation.
var publicParams = map[string][]string{
	"oct": {},
	"RSA": {"n", "e"},
	"EC":  {"crv", "x", "y"},
}

// Key is a JSON Web Key. It exclusively owns the underlying object; sharing
// a Key across trees requires Clone.
type Key struct {
	obj *jsonx.Object
}

// fromObject wraps an owned object after checking its kty.
func fromObject(obj *jsonx.Object) (*Key, error) {
	kty, err := obj.GetString("kty")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTypeMismatch, "JWK has no kty")
	}
	switch kty {
	case "oct", "RSA", "EC":
	case "ES":
		// Compatibility alias seen in the wild; normalise to the RFC 7518 name.
		if err := normaliseKty(obj); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "unknown kty %q", kty)
	}
	return &Key{obj: obj}, nil
}

func normaliseKty(obj *jsonx.Object) error {
	if obj.IsFinal("kty") || obj.Locked() {
		return errors.New(errors.ErrCodeTypeMismatch, "cannot normalise kty")
	}
	return obj.SetString("kty", "EC")
}

// Kty returns the key type member.
func (k *Key) Kty() string {
	s, _ := k.obj.GetString("kty")
	return s
}

// Kid returns the key identifier, or "" when absent.
func (k *Key) Kid() string {
	s, _ := k.obj.GetString("kid")
	return s
}

// Alg returns the intended algorithm, or "" when absent.
func (k *Key) Alg() string {
	s, _ := k.obj.GetString("alg")
	return s
}

// Use returns the intended use, or "" when absent.
func (k *Key) Use() string {
	s, _ := k.obj.GetString("use")
	return s
}

// IsPrivate reports whether the key carries private material.
func (k *Key) IsPrivate() bool {
	switch k.Kty() {
	case "oct":
		return true
	default:
		return k.obj.Exists("d")
	}
}

// Type returns the typed variant of the key.
func (k *Key) Type() KeyType {
	switch k.Kty() {
	case "oct":
		return TypeHMAC
	case "RSA":
		if k.obj.Exists("d") {
			return TypeRSAPrivate
		}
		return TypeRSAPublic
	case "EC":
		if k.obj.Exists("d") {
			return TypeECPrivate
		}
		return TypeECPublic
	default:
		return TypeUnknown
	}
}

// ParamBytes decodes the named base64url parameter into raw bytes.
func (k *Key) ParamBytes(name string) ([]byte, error) {
	s, err := k.obj.GetString(name)
	if err != nil {
		return nil, err
	}
	return base64url.Decode(s)
}

// Param returns the named parameter as a string, or "" when absent.
func (k *Key) Param(name string) string {
	s, _ := k.obj.GetString(name)
	return s
}

// ToPublic derives a key holding only the public parameters, plus
// kty, kid and alg. A public key yields the same reduced member set; other
// members such as use are not copied. HMAC keys fail with TYPE_MISMATCH.
func (k *Key) ToPublic() (*Key, error) {
	kty := k.Kty()
	params, ok := publicParams[kty]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTypeMismatch, "unknown kty %q", kty)
	}
	if kty == "oct" {
		return nil, errors.New(errors.ErrCodeTypeMismatch, "HMAC keys have no public form")
	}
	obj := jsonx.NewObject()
	if err := obj.SetString("kty", kty); err != nil {
		return nil, err
	}
	for _, name := range []string{"kid", "alg"} {
		if s := k.Param(name); s != "" {
			if err := obj.SetString(name, s); err != nil {
				obj.Invalidate()
				return nil, err
			}
		}
	}
	for _, name := range params {
		s, err := k.obj.GetString(name)
		if err != nil {
			obj.Invalidate()
			return nil, errors.Wrapf(err, errors.ErrCodeTypeMismatch, "JWK missing %s", name)
		}
		if err := obj.SetString(name, s); err != nil {
			obj.Invalidate()
			return nil, err
		}
	}
	return &Key{obj: obj}, nil
}

// Clone returns a deep copy of the key.
func (k *Key) Clone() *Key {
	return &Key{obj: k.obj.Clone()}
}

// Serialize renders the key as JWK JSON.
func (k *Key) Serialize() string {
	return k.obj.Serialize()
}

// Destroy zeroises every string parameter held by the key, the secret
// members included, and releases the underlying object. The key is
// unusable afterwards.
func (k *Key) Destroy() {
	if k.obj != nil {
		k.obj.Invalidate()
		k.obj = nil
	}
}

// setParamBytes installs a base64url-encoded parameter.
func setParamBytes(obj *jsonx.Object, name string, raw []byte) error {
	return obj.SetString(name, base64url.Encode(raw))
}

// NewHMACKey builds an oct key over a copy of secret.
func NewHMACKey(secret []byte, kid, alg string) (*Key, error) {
	obj := jsonx.NewObject()
	if err := obj.SetString("kty", "oct"); err != nil {
		return nil, err
	}
	if err := setParamBytes(obj, "k", secret); err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := setOptional(obj, "kid", kid); err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := setOptional(obj, "alg", alg); err != nil {
		obj.Invalidate()
		return nil, err
	}
	return &Key{obj: obj}, nil
}

func setOptional(obj *jsonx.Object, name, value string) error {
	if value == "" {
		return nil
	}
	return obj.SetString(name, value)
}
