// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package jsonx

import (
	"strconv"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/secure"
)

// Parse parses text under the given limits. The top-level value must be an
// object or an array; trailing bytes after it are an error.
func Parse(text string, lim Limits) (*Value, error) {
	p, err := newParser(text, lim)
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos >= len(p.data) {
		return nil, p.malformed("empty input")
	}
	if c := p.data[p.pos]; c != '{' && c != '[' {
		return nil, p.malformed("top-level value must be an object or array")
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		v.Invalidate()
		return nil, err
	}
	return v, nil
}

// ParseObject parses text whose top-level value must be an object.
func ParseObject(text string, lim Limits) (*Object, error) {
	p, err := newParser(text, lim)
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos >= len(p.data) || p.data[p.pos] != '{' {
		return nil, p.malformed("top-level value must be an object")
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		v.Invalidate()
		return nil, err
	}
	obj, _ := v.AsObject()
	return obj, nil
}

type parser struct {
	data  []byte
	pos   int
	lim   Limits
	depth int
}

func newParser(text string, lim Limits) (*parser, error) {
	if lim.JSONStringSize > 0 && len(text) > lim.JSONStringSize {
		return nil, errors.Newf(errors.ErrCodeLimitExceeded,
			"input of %d bytes exceeds json_string_size %d", len(text), lim.JSONStringSize)
	}
	return &parser{data: []byte(text), lim: lim}, nil
}

func (p *parser) malformed(msg string) error {
	return errors.New(errors.ErrCodeMalformedJSON, msg).WithOffset(p.pos)
}

func (p *parser) limit(msg string) error {
	return errors.New(errors.ErrCodeLimitExceeded, msg).WithOffset(p.pos)
}

func (p *parser) skipWS() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expectEnd() error {
	p.skipWS()
	if p.pos < len(p.data) {
		return p.malformed("trailing bytes after top-level value")
	}
	return nil
}

func (p *parser) parseValue() (*Value, error) {
	p.skipWS()
	if p.pos >= len(p.data) {
		return nil, p.malformed("unexpected end of input")
	}
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &Value{kind: KindString, text: s}, nil
	case c == 't':
		if err := p.keyword("true"); err != nil {
			return nil, err
		}
		return Bool(true), nil
	case c == 'f':
		if err := p.keyword("false"); err != nil {
			return nil, err
		}
		return Bool(false), nil
	case c == 'n':
		if err := p.keyword("null"); err != nil {
			return nil, err
		}
		return Null(), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return nil, p.malformed("unexpected character " + strconv.QuoteRune(rune(c)))
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.lim.RecursionDepth > 0 && p.depth > p.lim.RecursionDepth {
		return p.limit("nesting exceeds recursion_depth " + strconv.Itoa(p.lim.RecursionDepth))
	}
	return nil
}

func (p *parser) parseObject() (*Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++ // '{'
	obj := NewObject()
	release := func() { obj.Invalidate() }

	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return ObjectValue(obj), nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.data) || p.data[p.pos] != '"' {
			release()
			return nil, p.malformed("expected member name")
		}
		name, err := p.parseString()
		if err != nil {
			release()
			return nil, err
		}
		p.skipWS()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			release()
			return nil, p.malformed("expected ':' after member name")
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			release()
			return nil, err
		}
		if err := obj.SetValue(string(name), v); err != nil {
			v.Invalidate()
			release()
			return nil, err
		}
		if p.lim.ObjectMbrCount > 0 && obj.Count() > p.lim.ObjectMbrCount {
			release()
			return nil, p.limit("object exceeds object_mbr_count " + strconv.Itoa(p.lim.ObjectMbrCount))
		}
		p.skipWS()
		if p.pos >= len(p.data) {
			release()
			return nil, p.malformed("unterminated object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return ObjectValue(obj), nil
		default:
			release()
			return nil, p.malformed("expected ',' or '}' in object")
		}
	}
}

func (p *parser) parseArray() (*Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++ // '['
	arr := NewArray()
	release := func() { arr.Invalidate() }

	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		return ArrayValue(arr), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			release()
			return nil, err
		}
		arr.values = append(arr.values, v)
		if p.lim.ArrayElemCount > 0 && arr.Count() > p.lim.ArrayElemCount {
			release()
			return nil, p.limit("array exceeds array_elem_count " + strconv.Itoa(p.lim.ArrayElemCount))
		}
		p.skipWS()
		if p.pos >= len(p.data) {
			release()
			return nil, p.malformed("unterminated array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return ArrayValue(arr), nil
		default:
			release()
			return nil, p.malformed("expected ',' or ']' in array")
		}
	}
}

// parseString consumes a quoted string and returns its decoded bytes.
func (p *parser) parseString() ([]byte, error) {
	p.pos++ // opening '"'
	var out []byte
	for {
		if p.pos >= len(p.data) {
			return nil, p.malformed("unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			p.pos++
			if p.lim.StringSize > 0 && len(out) > p.lim.StringSize {
				secure.Wipe(out)
				return nil, p.limit("string exceeds string_size " + strconv.Itoa(p.lim.StringSize))
			}
			if err := validateUTF8(out); err != nil {
				secure.Wipe(out)
				return nil, err
			}
			return out, nil
		case c == '\\':
			b, err := p.parseEscape()
			if err != nil {
				secure.Wipe(out)
				return nil, err
			}
			out = append(out, b...)
		case c == 0:
			secure.Wipe(out)
			return nil, errors.New(errors.ErrCodeUnicode, "NUL byte in string").WithOffset(p.pos)
		case c < 0x20:
			return nil, p.malformed("unescaped control character in string")
		default:
			out = append(out, c)
			p.pos++
		}
		if p.lim.StringSize > 0 && len(out) > p.lim.StringSize {
			secure.Wipe(out)
			return nil, p.limit("string exceeds string_size " + strconv.Itoa(p.lim.StringSize))
		}
	}
}

// parseEscape consumes one backslash escape and returns its UTF-8 bytes.
func (p *parser) parseEscape() ([]byte, error) {
	p.pos++ // '\\'
	if p.pos >= len(p.data) {
		return nil, p.malformed("truncated escape")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"':
		return []byte{'"'}, nil
	case '\\':
		return []byte{'\\'}, nil
	case '/':
		return []byte{'/'}, nil
	case 'b':
		return []byte{'\b'}, nil
	case 'f':
		return []byte{'\f'}, nil
	case 'n':
		return []byte{'\n'}, nil
	case 'r':
		return []byte{'\r'}, nil
	case 't':
		return []byte{'\t'}, nil
	case 'u':
		cp, err := p.hex4()
		if err != nil {
			return nil, err
		}
		if cp >= 0xD800 && cp <= 0xDBFF {
			// High surrogate: the low half must follow as another \u escape.
			if p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
				p.pos += 2
				lo, err := p.hex4()
				if err != nil {
					return nil, err
				}
				if lo < 0xDC00 || lo > 0xDFFF {
					return nil, errors.New(errors.ErrCodeUnicode, "unpaired surrogate escape").WithOffset(p.pos)
				}
				cp = 0x10000 + (cp-0xD800)<<10 + (lo - 0xDC00)
			} else {
				return nil, errors.New(errors.ErrCodeUnicode, "unpaired surrogate escape").WithOffset(p.pos)
			}
		} else if cp >= 0xDC00 && cp <= 0xDFFF {
			return nil, errors.New(errors.ErrCodeUnicode, "unpaired surrogate escape").WithOffset(p.pos)
		}
		if cp == 0 {
			return nil, errors.New(errors.ErrCodeUnicode, "NUL escape in string").WithOffset(p.pos)
		}
		return appendUTF8(nil, cp), nil
	default:
		return nil, p.malformed("unknown escape \\" + string(c))
	}
}

// hex4 consumes exactly four hex digits.
func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.malformed("\\u requires four hex digits")
	}
	var cp rune
	for i := 0; i < 4; i++ {
		c := p.data[p.pos]
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return 0, p.malformed("\\u requires four hex digits")
		}
		cp = cp<<4 | d
		p.pos++
	}
	return cp, nil
}

func (p *parser) parseNumber() (*Value, error) {
	start := p.pos
	isInt := true
	if p.data[p.pos] == '-' {
		p.pos++
	}
	switch {
	case p.pos < len(p.data) && p.data[p.pos] == '0':
		p.pos++
	case p.pos < len(p.data) && p.data[p.pos] >= '1' && p.data[p.pos] <= '9':
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	default:
		return nil, p.malformed("invalid number")
	}
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		isInt = false
		p.pos++
		if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
			return nil, p.malformed("digit required after decimal point")
		}
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		isInt = false
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
			return nil, p.malformed("digit required in exponent")
		}
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	}
	text := p.data[start:p.pos]
	if p.lim.NumeralLength > 0 && len(text) > p.lim.NumeralLength {
		return nil, p.limit("number exceeds numeral_length " + strconv.Itoa(p.lim.NumeralLength))
	}
	if isInt {
		if i, err := strconv.ParseInt(string(text), 10, 64); err == nil {
			return Int(i), nil
		}
	}
	return &Value{kind: KindNumber, text: append([]byte(nil), text...)}, nil
}

func (p *parser) keyword(kw string) error {
	if p.pos+len(kw) > len(p.data) || string(p.data[p.pos:p.pos+len(kw)]) != kw {
		return p.malformed("invalid literal")
	}
	end := p.pos + len(kw)
	if end < len(p.data) {
		c := p.data[end]
		if c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return p.malformed("invalid literal")
		}
	}
	p.pos = end
	return nil
}
