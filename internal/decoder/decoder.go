// Package decoder implements a dependency-free recursive-descent JSON
// parser for the heterogeneous nested payloads returned by map-data
// services. It fails softly: malformed input yields (nil, false) rather
// than an error, so callers can fall back to synthetic data.
package decoder

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Parse decodes a JSON document into nested map[string]any / []any /
// string / float64 / bool / nil values. The boolean result is false when
// the input is not well-formed JSON.
func Parse(text string) (any, bool) {
	p := &parser{src: text}
	p.skipSpace()
	v, ok := p.value()
	if !ok {
		return nil, false
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false
	}
	return v, true
}

// ParseObject decodes a JSON document and asserts the top level is an
// object. Returns (nil, false) for anything else.
func ParseObject(text string) (map[string]any, bool) {
	v, ok := Parse(text)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) value() (any, bool) {
	c, ok := p.peek()
	if !ok {
		return nil, false
	}
	switch {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		return p.stringLit()
	case c == 't':
		return p.literal("true", true)
	case c == 'f':
		return p.literal("false", false)
	case c == 'n':
		return p.literal("null", nil)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return nil, false
	}
}

func (p *parser) literal(word string, v any) (any, bool) {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return nil, false
	}
	p.pos += len(word)
	return v, true
}

func (p *parser) object() (any, bool) {
	p.pos++ // consume '{'
	obj := make(map[string]any)
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return obj, true
	}
	for {
		p.skipSpace()
		key, ok := p.stringLit()
		if !ok {
			return nil, false
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, false
		}
		p.pos++
		p.skipSpace()
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		obj[key.(string)] = v
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, false
		}
		switch c {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, true
		default:
			return nil, false
		}
	}
}

func (p *parser) array() (any, bool) {
	p.pos++ // consume '['
	arr := []any{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return arr, true
	}
	for {
		p.skipSpace()
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		arr = append(arr, v)
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, false
		}
		switch c {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, true
		default:
			return nil, false
		}
	}
}

func (p *parser) stringLit() (any, bool) {
	c, ok := p.peek()
	if !ok || c != '"' {
		return nil, false
	}
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return sb.String(), true
		case c == '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, false
			}
			esc := p.src[p.pos]
			switch esc {
			case '"', '\\', '/':
				sb.WriteByte(esc)
				p.pos++
			case 'b':
				sb.WriteByte('\b')
				p.pos++
			case 'f':
				sb.WriteByte('\f')
				p.pos++
			case 'n':
				sb.WriteByte('\n')
				p.pos++
			case 'r':
				sb.WriteByte('\r')
				p.pos++
			case 't':
				sb.WriteByte('\t')
				p.pos++
			case 'u':
				r, ok := p.unicodeEscape()
				if !ok {
					return nil, false
				}
				sb.WriteRune(r)
			default:
				return nil, false
			}
		case c < 0x20:
			// Raw control characters are not legal inside strings.
			return nil, false
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return nil, false
}

// unicodeEscape consumes "uXXXX" (the backslash is already consumed) and
// returns the decoded rune, combining UTF-16 surrogate pairs when present.
func (p *parser) unicodeEscape() (rune, bool) {
	hi, ok := p.hex4()
	if !ok {
		return 0, false
	}
	if utf16.IsSurrogate(rune(hi)) && p.pos+1 < len(p.src) &&
		p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
		save := p.pos
		p.pos += 2
		lo, ok := p.hex4()
		if !ok {
			return 0, false
		}
		if r := utf16.DecodeRune(rune(hi), rune(lo)); r != 0xFFFD {
			return r, true
		}
		p.pos = save
	}
	return rune(hi), true
}

func (p *parser) hex4() (uint32, bool) {
	p.pos++ // consume 'u'
	if p.pos+4 > len(p.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, false
	}
	p.pos += 4
	return uint32(v), true
}

func (p *parser) number() (any, bool) {
	start := p.pos
	if c, ok := p.peek(); ok && c == '-' {
		p.pos++
	}
	digits := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		return nil, false
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		frac := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			frac++
		}
		if frac == 0 {
			return nil, false
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		exp := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			exp++
		}
		if exp == 0 {
			return nil, false
		}
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

// Helpers for walking decoded documents. Missing keys and type
// mismatches return zero values, matching the soft-failure contract.

// GetString returns obj[key] as a string, or "" if absent or not a string.
func GetString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// GetNumber returns obj[key] as a float64, or 0 if absent or not numeric.
func GetNumber(obj map[string]any, key string) float64 {
	f, _ := obj[key].(float64)
	return f
}

// GetObject returns obj[key] as a nested object, or nil.
func GetObject(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}

// GetArray returns obj[key] as an array, or nil.
func GetArray(obj map[string]any, key string) []any {
	a, _ := obj[key].([]any)
	return a
}
