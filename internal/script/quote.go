// Package script builds the script payloads sent to the renderer surface.
// Every value embedded in a payload goes through Quote or Literal so that no
// caller text can break out of its string literal.
package script

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const hex = "0123456789abcdef"

// Quote encodes s as a double-quoted script string literal. The output is pure
// ASCII and is also a valid JSON string, so the document side can parse it
// either way. Angle brackets and ampersands are escaped so the literal is safe
// to inline inside a <script> element.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			writeUnit(&b, 0xfffd)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\b':
			b.WriteString(`\b`)
		case r == '\f':
			b.WriteString(`\f`)
		case r == '<' || r == '>' || r == '&':
			writeUnit(&b, uint16(r))
		case r < 0x20 || r == 0x7f:
			writeUnit(&b, uint16(r))
		case r < utf8.RuneSelf:
			b.WriteByte(byte(r))
		case r <= 0xffff:
			writeUnit(&b, uint16(r))
		default:
			// Astral plane: encode as a UTF-16 surrogate pair.
			r -= 0x10000
			writeUnit(&b, uint16(0xd800+(r>>10)))
			writeUnit(&b, uint16(0xdc00+(r&0x3ff)))
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeUnit(b *strings.Builder, u uint16) {
	b.WriteString(`\u`)
	b.WriteByte(hex[u>>12&0xf])
	b.WriteByte(hex[u>>8&0xf])
	b.WriteByte(hex[u>>4&0xf])
	b.WriteByte(hex[u&0xf])
}

// Literal encodes a Go value as a script literal.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case fmt.Stringer:
		return Quote(val.String()), nil
	}

	// JSON output is already a valid literal; only non-ASCII needs escaping.
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("script literal for %T: %w", v, err)
	}
	return asciiJSON(string(raw)), nil
}

// asciiJSON escapes every non-ASCII rune of an already valid JSON text.
func asciiJSON(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r <= 0xffff:
			writeUnit(&b, uint16(r))
		default:
			r -= 0x10000
			writeUnit(&b, uint16(0xd800+(r>>10)))
			writeUnit(&b, uint16(0xdc00+(r&0x3ff)))
		}
	}
	return b.String()
}
