// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jsonx

import (
	"github.com/signetauth/signet/pkg/errors"
)

// utf8SeqLen returns the expected sequence length for a leading byte, or 0
// when the byte cannot start a sequence. Extended UTF-8 with 5- and 6-byte
// forms is permitted.
func utf8SeqLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	case b&0xFC == 0xF8:
		return 5
	case b&0xFE == 0xFC:
		return 6
	default:
		return 0
	}
}

// minCodepoint is the smallest codepoint each sequence length may encode;
// shorter encodings of the same codepoint are overlong and rejected.
var minCodepoint = [7]rune{0, 0, 0x80, 0x800, 0x10000, 0x200000, 0x4000000}

// validateUTF8 checks that b is well-formed extended UTF-8: NUL bytes are
// forbidden, continuation bytes must match 10xxxxxx, and overlong forms are
// rejected.
func validateUTF8(b []byte) error {
	for i := 0; i < len(b); {
		c := b[i]
		if c == 0 {
			return errors.New(errors.ErrCodeUnicode, "NUL byte in string")
		}
		n := utf8SeqLen(c)
		if n == 0 {
			return errors.Newf(errors.ErrCodeUnicode, "invalid UTF-8 leading byte 0x%02x", c)
		}
		if i+n > len(b) {
			return errors.New(errors.ErrCodeUnicode, "truncated UTF-8 sequence")
		}
		if n > 1 {
			cp := rune(c & (0x7F >> n))
			for j := 1; j < n; j++ {
				if b[i+j]&0xC0 != 0x80 {
					return errors.Newf(errors.ErrCodeUnicode, "invalid UTF-8 continuation byte 0x%02x", b[i+j])
				}
				cp = cp<<6 | rune(b[i+j]&0x3F)
			}
			if cp < minCodepoint[n] {
				return errors.New(errors.ErrCodeUnicode, "overlong UTF-8 sequence")
			}
		}
		i += n
	}
	return nil
}

// appendUTF8 appends the UTF-8 encoding of cp to dst. Codepoints above the
// 4-byte range are encoded with the extended 5- and 6-byte forms.
func appendUTF8(dst []byte, cp rune) []byte {
	switch {
	case cp < 0x80:
		return append(dst, byte(cp))
	case cp < 0x800:
		return append(dst, byte(0xC0|cp>>6), byte(0x80|cp&0x3F))
	case cp < 0x10000:
		return append(dst, byte(0xE0|cp>>12), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	case cp < 0x200000:
		return append(dst, byte(0xF0|cp>>18), byte(0x80|cp>>12&0x3F), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	case cp < 0x4000000:
		return append(dst, byte(0xF8|cp>>24), byte(0x80|cp>>18&0x3F), byte(0x80|cp>>12&0x3F), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	default:
		return append(dst, byte(0xFC|cp>>30), byte(0x80|cp>>24&0x3F), byte(0x80|cp>>18&0x3F), byte(0x80|cp>>12&0x3F), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	}
}
