// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jwk

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jsonx"
	"github.com/signetauth/signet/pkg/secure"
)

// ParsePEM iterates the labelled blocks of a PEM document and converts the
// recognised ones into keys. Labels handled: RSA PRIVATE KEY, EC PRIVATE
// KEY, RSA PUBLIC KEY, PUBLIC KEY. Other labels are skipped without error.
// The use, alg and kid members of every produced key are injected from the
// caller. A document with no recognised block fails with NOT_FOUND.
func ParsePEM(text string, use, alg, kid string) ([]*Key, error) {
	var out []*Key
	release := func() {
		for _, k := range out {
			k.Destroy()
		}
	}
	rest := []byte(text)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		key, err := keyFromBlock(block)
		if err != nil {
			release()
			return nil, err
		}
		if key == nil {
			continue // unrecognised label
		}
		for _, m := range []struct{ name, val string }{{"use", use}, {"alg", alg}, {"kid", kid}} {
			if err := setOptional(key.obj, m.name, m.val); err != nil {
				key.Destroy()
				release()
				return nil, err
			}
		}
		out = append(out, key)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no recognised KEY block in PEM input")
	}
	return out, nil
}

func keyFromBlock(block *pem.Block) (*Key, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePEMFormat, "bad RSA PRIVATE KEY block")
		}
		return fromRSAPrivate(priv)
	case "EC PRIVATE KEY":
		priv, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePEMFormat, "bad EC PRIVATE KEY block")
		}
		return fromECPrivate(priv)
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePEMFormat, "bad RSA PUBLIC KEY block")
		}
		return fromRSAPublic(pub)
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePEMFormat, "bad PUBLIC KEY block")
		}
		switch p := pub.(type) {
		case *rsa.PublicKey:
			return fromRSAPublic(p)
		case *ecdsa.PublicKey:
			return fromECPublic(p)
		default:
			return nil, errors.Newf(errors.ErrCodePEMFormat, "unsupported PUBLIC KEY type %T", pub)
		}
	default:
		return nil, nil
	}
}

func fromRSAPublic(pub *rsa.PublicKey) (*Key, error) {
	obj := jsonx.NewObject()
	if err := obj.SetString("kty", "RSA"); err != nil {
		return nil, err
	}
	e := make([]byte, 0, 4)
	for v := pub.E; v > 0; v >>= 8 {
		e = append([]byte{byte(v)}, e...)
	}
	if err := setParamBytes(obj, "n", pub.N.Bytes()); err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := setParamBytes(obj, "e", e); err != nil {
		obj.Invalidate()
		return nil, err
	}
	return &Key{obj: obj}, nil
}

func fromRSAPrivate(priv *rsa.PrivateKey) (*Key, error) {
	key, err := fromRSAPublic(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	priv.Precompute()
	params := []struct {
		name string
		raw  []byte
	}{
		{"d", priv.D.Bytes()},
		{"p", priv.Primes[0].Bytes()},
		{"q", priv.Primes[1].Bytes()},
		{"dp", priv.Precomputed.Dp.Bytes()},
		{"dq", priv.Precomputed.Dq.Bytes()},
		{"qi", priv.Precomputed.Qinv.Bytes()},
	}
	for _, p := range params {
		err := setParamBytes(key.obj, p.name, p.raw)
		secure.Wipe(p.raw)
		if err != nil {
			key.Destroy()
			return nil, err
		}
	}
	return key, nil
}

func fromECPublic(pub *ecdsa.PublicKey) (*Key, error) {
	name := pub.Curve.Params().Name
	if _, err := curveByName(name); err != nil {
		return nil, err
	}
	size := (pub.Curve.Params().BitSize + 7) / 8
	obj := jsonx.NewObject()
	if err := obj.SetString("kty", "EC"); err != nil {
		return nil, err
	}
	if err := obj.SetString("crv", name); err != nil {
		obj.Invalidate()
		return nil, err
	}
	x := pub.X.FillBytes(make([]byte, size))
	y := pub.Y.FillBytes(make([]byte, size))
	if err := setParamBytes(obj, "x", x); err != nil {
		obj.Invalidate()
		return nil, err
	}
	if err := setParamBytes(obj, "y", y); err != nil {
		obj.Invalidate()
		return nil, err
	}
	return &Key{obj: obj}, nil
}

func fromECPrivate(priv *ecdsa.PrivateKey) (*Key, error) {
	key, err := fromECPublic(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	size := (priv.Curve.Params().BitSize + 7) / 8
	d := priv.D.FillBytes(make([]byte, size))
	err = setParamBytes(key.obj, "d", d)
	secure.Wipe(d)
	if err != nil {
		key.Destroy()
		return nil, err
	}
	return key, nil
}
