// Package base64url implements the unpadded base64url transform used by the
// JOSE compact serializations.
package base64url

import (
	"encoding/base64"
	"strings"

	"github.com/signetauth/signet/pkg/errors"
)

// Encode returns the unpadded base64url encoding of b.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode decodes a base64url string. Both padded and unpadded input are
// accepted. Non-alphabet characters and a truncated final quantum fail
// with MALFORMED_JSON.
func Decode(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if len(s)%4 == 1 {
		return nil, errors.New(errors.ErrCodeMalformedJSON, "malformed base64url: truncated quantum")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedJSON, "malformed base64url")
	}
	return b, nil
}

// DecodeString decodes a base64url string into a string.
func DecodeString(s string) (string, error) {
	b, err := Decode(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
