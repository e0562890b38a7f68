// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwt

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signetauth/signet/pkg/base64url"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
	"github.com/signetauth/signet/pkg/jws"
	"github.com/signetauth/signet/pkg/logging"
)

// jtiTag is the process-stable half of every jti; the counter half is
// strictly monotonic. Together they are unique for the process lifetime.
var (
	jtiTag     = uuid.NewString()
	jtiCounter atomic.Uint64
)

func makeID() string {
	return jtiTag + "-" + strconv.FormatUint(jtiCounter.Add(1), 10)
}

// Factory mints and decodes JWTs. It carries factory-wide defaults that
// are stamped into every minted token and enforced on every decoded one.
// The JWS factory reference is non-owning; a nil reference puts the
// factory in unverified mode, where Decode inspects a token without
// checking its signature and Sign is refused.
type Factory struct {
	lock objLock
	jwsf *jws.Factory

	iss          string
	sub          string
	aud          []string
	duration     int64
	durationSet  bool
	notBefore    int64
	notBeforeSet bool
	dfltSkew     int64

	locked bool
	nowFn  func() int64
	log    zerolog.Logger
}

// NewFactory returns a factory minting through jwsf. Pass nil for an
// unverified inspection factory.
func NewFactory(jwsf *jws.Factory) *Factory {
	return &Factory{
		jwsf:  jwsf,
		nowFn: func() int64 { return time.Now().Unix() },
		log:   logging.Component("jwt"),
	}
}

func (f *Factory) mutate(apply func() error) error {
	if err := f.lock.acquire(); err != nil {
		return err
	}
	defer f.lock.release()
	if f.locked {
		return errors.New(errors.ErrCodeLocked, "factory is locked")
	}
	return apply()
}

// SetIssuer sets the default and required issuer.
func (f *Factory) SetIssuer(iss string) error {
	if err := checkStringOrURI(iss); err != nil {
		return err
	}
	return f.mutate(func() error { f.iss = iss; return nil })
}

// SetSubject sets the default and required subject.
func (f *Factory) SetSubject(sub string) error {
	if err := checkStringOrURI(sub); err != nil {
		return err
	}
	return f.mutate(func() error { f.sub = sub; return nil })
}

// AddAudience appends a default audience; decoded tokens must intersect
// the configured set.
func (f *Factory) AddAudience(aud string) error {
	if err := checkStringOrURI(aud); err != nil {
		return err
	}
	return f.mutate(func() error { f.aud = append(f.aud, aud); return nil })
}

// SetDuration sets the default token lifetime in seconds.
func (f *Factory) SetDuration(seconds int64) error {
	if seconds < 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "duration must be non-negative")
	}
	return f.mutate(func() error { f.duration = seconds; f.durationSet = true; return nil })
}

// SetNotBefore sets the default activation delay in seconds.
func (f *Factory) SetNotBefore(seconds int64) error {
	if seconds < 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "not-before must be non-negative")
	}
	return f.mutate(func() error { f.notBefore = seconds; f.notBeforeSet = true; return nil })
}

// SetDefaultSkew sets the clock tolerance applied by DecodeNow.
func (f *Factory) SetDefaultSkew(seconds int64) error {
	if seconds < 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "skew must be non-negative")
	}
	return f.mutate(func() error { f.dfltSkew = seconds; return nil })
}

// DefaultSkew returns the configured clock tolerance.
func (f *Factory) DefaultSkew() int64 {
	return f.dfltSkew
}

// SetTimeFunc replaces the clock, in seconds since the Unix epoch. Used
// by hosts that need a current-time override.
func (f *Factory) SetTimeFunc(now func() int64) error {
	if now == nil {
		return errors.New(errors.ErrCodeTypeMismatch, "nil time source")
	}
	return f.mutate(func() error { f.nowFn = now; return nil })
}

// Lock freezes the factory configuration. One-way; every later setter
// fails with LOCKED.
func (f *Factory) Lock() {
	f.locked = true
}

// Locked reports whether the factory configuration is frozen.
func (f *Factory) Locked() bool {
	return f.locked
}

// Clone returns an unlocked copy of the factory sharing the same JWS
// factory reference.
func (f *Factory) Clone() *Factory {
	c := &Factory{
		jwsf:         f.jwsf,
		iss:          f.iss,
		sub:          f.sub,
		aud:          append([]string(nil), f.aud...),
		duration:     f.duration,
		durationSet:  f.durationSet,
		notBefore:    f.notBefore,
		notBeforeSet: f.notBeforeSet,
		dfltSkew:     f.dfltSkew,
		nowFn:        f.nowFn,
		log:          f.log,
	}
	return c
}

// Sign mints a compact token from the given claims. The factory defaults
// are stamped in first, then overlaid with the claims; the registered
// members are made final in the order iss, sub, aud, jti, iat, nbf, exp.
func (f *Factory) Sign(c *Claims) (string, error) {
	if f.jwsf == nil {
		return "", errors.New(errors.ErrCodeCryptoBackend, "factory has no JWS factory")
	}
	if c == nil {
		c = NewClaims()
	}

	// snapshot the claims under their lock
	if err := c.lock.acquire(); err != nil {
		return "", err
	}
	obj := c.obj.Clone()
	duration, durationSet := c.duration, c.durationSet
	notBefore, notBeforeSet := c.notBefore, c.notBeforeSet
	c.lock.release()
	defer obj.Invalidate()

	if !durationSet {
		duration, durationSet = f.duration, f.durationSet
	}
	if !notBeforeSet {
		notBefore, notBeforeSet = f.notBefore, f.notBeforeSet
	}

	if err := f.stampDefaults(obj); err != nil {
		return "", err
	}

	now := f.nowFn()
	if err := finalizeRegistered(obj); err != nil {
		return "", err
	}
	if !obj.Exists("jti") {
		if err := obj.SetFinalValue("jti", mustStringValue(makeID())); err != nil {
			return "", err
		}
	}
	if err := obj.SetFinalValue("iat", jsonx.Int(now)); err != nil {
		return "", err
	}
	if notBeforeSet {
		if err := obj.SetFinalValue("nbf", jsonx.Int(now+notBefore)); err != nil {
			return "", err
		}
	}
	if durationSet {
		if err := obj.SetFinalValue("exp", jsonx.Int(now+duration)); err != nil {
			return "", err
		}
	}

	return f.jwsf.Sign([]byte(obj.Serialize()))
}

// stampDefaults installs the factory identity defaults where the claims
// did not provide their own.
func (f *Factory) stampDefaults(obj *jsonx.Object) error {
	if f.iss != "" && !obj.Exists("iss") {
		if err := obj.SetString("iss", f.iss); err != nil {
			return err
		}
	}
	if f.sub != "" && !obj.Exists("sub") {
		if err := obj.SetString("sub", f.sub); err != nil {
			return err
		}
	}
	for _, aud := range f.aud {
		present, err := hasAudience(obj, aud)
		if err != nil {
			return err
		}
		if !present {
			if err := appendAudience(obj, aud); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasAudience(obj *jsonx.Object, aud string) (bool, error) {
	if !obj.Exists("aud") {
		return false, nil
	}
	auds, err := audienceList(obj)
	if err != nil {
		return false, err
	}
	for _, a := range auds {
		if a == aud {
			return true, nil
		}
	}
	return false, nil
}

func mustStringValue(s string) *jsonx.Value {
	v, err := jsonx.String(s)
	if err != nil {
		panic(err)
	}
	return v
}

// DecodeNow decodes a compact token at the current time with the
// factory's default skew.
func (f *Factory) DecodeNow(token string) (*Claims, error) {
	return f.Decode(token, f.nowFn(), f.dfltSkew)
}

// Decode verifies a compact token, parses its claims and validates them
// at curTime with the given symmetric clock skew. The returned claims
// are validated: their registered members are final. Temporal and
// identity failures keep their distinct error codes; every signature
// level failure is SIGNATURE_INVALID.
func (f *Factory) Decode(token string, curTime, skew int64) (*Claims, error) {
	payload, err := f.payloadBytes(token)
	if err != nil {
		return nil, err
	}

	obj, err := jsonx.ParseObject(string(payload), jsonx.DefaultLimits())
	if err != nil {
		return nil, err
	}

	if err := f.validateObject(obj, curTime, skew); err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := finalizeRegistered(obj); err != nil {
		obj.Invalidate()
		return nil, err
	}

	c := claimsFromObject(obj)
	c.validated = true
	return c, nil
}

// payloadBytes obtains the claims JSON, through signature verification
// when a JWS factory is present and by raw inspection otherwise.
func (f *Factory) payloadBytes(token string) ([]byte, error) {
	if f.jwsf != nil {
		return f.jwsf.Verify(token)
	}
	f.log.Warn().Msg("decoding token without signature verification")
	return unverifiedPayload(token)
}

func unverifiedPayload(token string) ([]byte, error) {
	dot1 := -1
	dot2 := -1
	for i := 0; i < len(token); i++ {
		if token[i] != '.' {
			continue
		}
		switch {
		case dot1 < 0:
			dot1 = i
		case dot2 < 0:
			dot2 = i
		default:
			return nil, errors.New(errors.ErrCodeMalformedJSON, "token has more than 3 segments")
		}
	}
	if dot1 < 0 || dot2 < 0 {
		return nil, errors.New(errors.ErrCodeMalformedJSON, "token does not have 3 segments")
	}
	return base64url.Decode(token[dot1+1 : dot2])
}

// validateObject applies the RFC 7519 temporal and identity checks.
func (f *Factory) validateObject(obj *jsonx.Object, curTime, skew int64) error {
	// StringOrURI holds for every identity claim on ingest
	for _, name := range []string{"iss", "sub"} {
		if !obj.Exists(name) {
			continue
		}
		s, err := obj.GetString(name)
		if err != nil {
			return err
		}
		if err := checkStringOrURI(s); err != nil {
			return err
		}
	}
	var auds []string
	if obj.Exists("aud") {
		var err error
		auds, err = audienceList(obj)
		if err != nil {
			return err
		}
		for _, a := range auds {
			if err := checkStringOrURI(a); err != nil {
				return err
			}
		}
	}

	if obj.Exists("nbf") {
		nbf, err := obj.GetInt("nbf")
		if err != nil {
			return err
		}
		if curTime+skew < nbf {
			return errors.New(errors.ErrCodeNotYetValid, "token is not yet valid")
		}
	}
	if obj.Exists("exp") {
		exp, err := obj.GetInt("exp")
		if err != nil {
			return err
		}
		if curTime-skew >= exp {
			return errors.New(errors.ErrCodeExpired, "token has expired")
		}
	}
	if obj.Exists("iat") {
		iat, err := obj.GetInt("iat")
		if err != nil {
			return err
		}
		if iat > curTime+skew {
			return errors.New(errors.ErrCodeIssuedInFuture, "token was issued in the future")
		}
	}

	if f.iss != "" && obj.Exists("iss") {
		iss, err := obj.GetString("iss")
		if err != nil {
			return err
		}
		if iss != f.iss {
			return errors.New(errors.ErrCodeIssuerMismatch, "issuer mismatch")
		}
	}
	if f.sub != "" && obj.Exists("sub") {
		sub, err := obj.GetString("sub")
		if err != nil {
			return err
		}
		if sub != f.sub {
			return errors.New(errors.ErrCodeSubjectMismatch, "subject mismatch")
		}
	}
	if len(f.aud) > 0 {
		if !intersects(auds, f.aud) {
			return errors.New(errors.ErrCodeAudienceMismatch, "audience mismatch")
		}
	}
	return nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
