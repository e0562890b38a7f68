// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwt

import (
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
)

// Claims is a mutable set of JWT claims. Registered claims go through the
// typed setters so the StringOrURI rule is enforced on ingest; private
// claims go through Set. A claims set returned by Factory.Decode is
// validated: its registered members are final and cannot be replaced.
type Claims struct {
	lock objLock
	obj  *jsonx.Object

	duration     int64
	durationSet  bool
	notBefore    int64
	notBeforeSet bool

	validated bool
}

// NewClaims returns an empty, unvalidated claims set.
func NewClaims() *Claims {
	return &Claims{obj: jsonx.NewObject()}
}

// claimsFromObject wraps a decoded payload object. The claims take
// exclusive ownership of obj.
func claimsFromObject(obj *jsonx.Object) *Claims {
	return &Claims{obj: obj}
}

// SetIssuer sets the iss claim. The value must satisfy StringOrURI.
func (c *Claims) SetIssuer(iss string) error {
	return c.setStringOrURI("iss", iss)
}

// SetSubject sets the sub claim. The value must satisfy StringOrURI.
func (c *Claims) SetSubject(sub string) error {
	return c.setStringOrURI("sub", sub)
}

func (c *Claims) setStringOrURI(name, value string) error {
	if err := checkStringOrURI(value); err != nil {
		return err
	}
	if err := c.lock.acquire(); err != nil {
		return err
	}
	defer c.lock.release()
	return c.obj.SetString(name, value)
}

// AddAudience appends a value to the aud claim, stored as an array. The
// value must satisfy StringOrURI.
func (c *Claims) AddAudience(aud string) error {
	if err := checkStringOrURI(aud); err != nil {
		return err
	}
	if err := c.lock.acquire(); err != nil {
		return err
	}
	defer c.lock.release()
	return appendAudience(c.obj, aud)
}

func appendAudience(obj *jsonx.Object, aud string) error {
	v, err := jsonx.String(aud)
	if err != nil {
		return err
	}
	if !obj.Exists("aud") {
		arr := jsonx.NewArray()
		if err := arr.Append(v); err != nil {
			return err
		}
		return obj.SetValue("aud", jsonx.ArrayValue(arr))
	}
	if obj.IsFinal("aud") {
		return errors.New(errors.ErrCodeFinalConflict, `member "aud" is final`)
	}
	cur, err := obj.Get("aud")
	if err != nil {
		return err
	}
	arr, err := cur.AsArray()
	if err != nil {
		return err
	}
	return arr.Append(v)
}

// Set installs a private claim. Registered claim names are refused; they
// are managed by the typed setters and the factory.
func (c *Claims) Set(name string, v *jsonx.Value) error {
	if registeredClaims[name] {
		return errors.Newf(errors.ErrCodeFinalConflict, "%q is a registered claim", name)
	}
	if err := c.lock.acquire(); err != nil {
		return err
	}
	defer c.lock.release()
	return c.obj.SetValue(name, v)
}

// SetString installs a private string claim.
func (c *Claims) SetString(name, value string) error {
	v, err := jsonx.String(value)
	if err != nil {
		return err
	}
	return c.Set(name, v)
}

// SetInt installs a private integer claim.
func (c *Claims) SetInt(name string, value int64) error {
	return c.Set(name, jsonx.Int(value))
}

// SetDuration sets the token lifetime in seconds; the factory turns it
// into exp = iat + duration at mint time.
func (c *Claims) SetDuration(seconds int64) error {
	if seconds < 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "duration must be non-negative")
	}
	if err := c.lock.acquire(); err != nil {
		return err
	}
	defer c.lock.release()
	if c.validated {
		return errors.New(errors.ErrCodeLocked, "claims are validated")
	}
	c.duration = seconds
	c.durationSet = true
	return nil
}

// SetNotBefore sets the activation delay in seconds; the factory turns
// it into nbf = iat + delay at mint time.
func (c *Claims) SetNotBefore(seconds int64) error {
	if seconds < 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "not-before must be non-negative")
	}
	if err := c.lock.acquire(); err != nil {
		return err
	}
	defer c.lock.release()
	if c.validated {
		return errors.New(errors.ErrCodeLocked, "claims are validated")
	}
	c.notBefore = seconds
	c.notBeforeSet = true
	return nil
}

// Get returns the named claim value.
func (c *Claims) Get(name string) (*jsonx.Value, error) {
	return c.obj.Get(name)
}

// GetString returns the named claim as a string.
func (c *Claims) GetString(name string) (string, error) {
	return c.obj.GetString(name)
}

// Exists reports whether the named claim is present.
func (c *Claims) Exists(name string) bool {
	return c.obj.Exists(name)
}

// Names returns the claim names in insertion order.
func (c *Claims) Names() []string {
	return c.obj.Names()
}

// Issuer returns the iss claim.
func (c *Claims) Issuer() (string, error) {
	return c.obj.GetString("iss")
}

// Subject returns the sub claim.
func (c *Claims) Subject() (string, error) {
	return c.obj.GetString("sub")
}

// Audience returns the aud claim. A bare string becomes a one-element
// slice.
func (c *Claims) Audience() ([]string, error) {
	return audienceList(c.obj)
}

func audienceList(obj *jsonx.Object) ([]string, error) {
	v, err := obj.Get("aud")
	if err != nil {
		return nil, err
	}
	if s, err := v.AsString(); err == nil {
		return []string{s}, nil
	}
	arr, err := v.AsArray()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, arr.Count())
	for i := 0; i < arr.Count(); i++ {
		elem, err := arr.Get(i)
		if err != nil {
			return nil, err
		}
		s, err := elem.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// IssuedAt returns the iat claim.
func (c *Claims) IssuedAt() (int64, error) {
	return c.obj.GetInt("iat")
}

// Expiration returns the exp claim.
func (c *Claims) Expiration() (int64, error) {
	return c.obj.GetInt("exp")
}

// NotBeforeTime returns the nbf claim, falling back to iat when nbf is
// absent.
func (c *Claims) NotBeforeTime() (int64, error) {
	if c.obj.Exists("nbf") {
		return c.obj.GetInt("nbf")
	}
	return c.obj.GetInt("iat")
}

// ID returns the jti claim.
func (c *Claims) ID() (string, error) {
	return c.obj.GetString("jti")
}

// Duration returns the configured lifetime and whether it was set.
func (c *Claims) Duration() (int64, bool) {
	return c.duration, c.durationSet
}

// NotBefore returns the configured activation delay and whether it was
// set.
func (c *Claims) NotBefore() (int64, bool) {
	return c.notBefore, c.notBeforeSet
}

// Validated reports whether the claims came out of a successful decode.
func (c *Claims) Validated() bool {
	return c.validated
}

// Serialize renders the claims as JSON in insertion order.
func (c *Claims) Serialize() string {
	return c.obj.Serialize()
}

// Clone returns a deep copy. The copy is unvalidated and unlocked.
func (c *Claims) Clone() *Claims {
	return &Claims{
		obj:          c.obj.Clone(),
		duration:     c.duration,
		durationSet:  c.durationSet,
		notBefore:    c.notBefore,
		notBeforeSet: c.notBeforeSet,
	}
}

// Destroy wipes every string and number in the claims and releases the
// underlying object.
func (c *Claims) Destroy() {
	if c.obj != nil {
		c.obj.Invalidate()
		c.obj = nil
	}
}

// finalizeRegistered marks the registered members present in obj as final, so a
// validated claims set cannot have its protected claims replaced.
func finalizeRegistered(obj *jsonx.Object) error {
	for _, name := range []string{"iss", "sub", "aud", "iat", "nbf", "exp", "jti"} {
		if !obj.Exists(name) || obj.IsFinal(name) {
			continue
		}
		v, err := obj.Get(name)
		if err != nil {
			return err
		}
		if err := obj.SetFinalValue(name, v.Clone()); err != nil {
			return err
		}
	}
	return nil
}
