package canonical

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// maxParseDepth bounds nesting so hostile inputs cannot exhaust the stack.
const maxParseDepth = 512

// Parse decodes JSON bytes into a canonical Value.
//
// Parse is the mandatory decode choke point: it enforces the rules that a
// general-purpose JSON decoder silently papers over. It rejects invalid
// UTF-8, duplicate object keys (never "last write wins"), lone surrogate
// escapes, and trailing garbage, and it preserves number lexemes exactly so
// canonicalization can judge minimality instead of reformatting.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return Value{}, newError(KindParse, "NR-PARSE-001", "input is not valid UTF-8")
	}
	p := &parser{data: data}
	p.skipSpace()
	v, err := p.parseValue(0)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos != len(p.data) {
		return Value{}, newError(KindParse, "NR-PARSE-002", fmt.Sprintf("trailing data at offset %d", p.pos))
	}
	return v, nil
}

// ParseObject decodes JSON bytes and requires the top-level value to be an
// object, the shape every event envelope has.
func ParseObject(data []byte) (Value, error) {
	v, err := Parse(data)
	if err != nil {
		return Value{}, err
	}
	if !v.IsObject() {
		return Value{}, newError(KindParse, "NR-PARSE-003", "top-level value must be a JSON object")
	}
	return v, nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) errAt(ruleID, msg string) error {
	return newError(KindParse, ruleID, fmt.Sprintf("%s at offset %d", msg, p.pos))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue(depth int) (Value, error) {
	if depth > maxParseDepth {
		return Value{}, p.errAt("NR-PARSE-004", "nesting too deep")
	}
	if p.pos >= len(p.data) {
		return Value{}, p.errAt("NR-PARSE-005", "unexpected end of input")
	}
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.parseObject(depth)
	case c == '[':
		return p.parseArray(depth)
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == 't':
		if err := p.expect("true"); err != nil {
			return Value{}, err
		}
		return Bool(true), nil
	case c == 'f':
		if err := p.expect("false"); err != nil {
			return Value{}, err
		}
		return Bool(false), nil
	case c == 'n':
		if err := p.expect("null"); err != nil {
			return Value{}, err
		}
		return Null(), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return Value{}, p.errAt("NR-PARSE-006", fmt.Sprintf("unexpected character %q", c))
	}
}

func (p *parser) expect(lit string) error {
	if p.pos+len(lit) > len(p.data) || string(p.data[p.pos:p.pos+len(lit)]) != lit {
		return p.errAt("NR-PARSE-006", fmt.Sprintf("invalid literal, expected %q", lit))
	}
	p.pos += len(lit)
	return nil
}

func (p *parser) parseObject(depth int) (Value, error) {
	p.pos++ // consume '{'
	var fields []Field
	seen := make(map[string]bool)
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		return Object(fields...), nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != '"' {
			return Value{}, p.errAt("NR-PARSE-007", "expected object key")
		}
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		if seen[key] {
			return Value{}, newError(KindParse, "NR-PARSE-010", fmt.Sprintf("duplicate object key %q", key))
		}
		seen[key] = true
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return Value{}, p.errAt("NR-PARSE-008", "expected ':' after object key")
		}
		p.pos++
		p.skipSpace()
		child, err := p.parseValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, Field{Key: key, Value: child})
		p.skipSpace()
		if p.pos >= len(p.data) {
			return Value{}, p.errAt("NR-PARSE-005", "unexpected end of input in object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return Object(fields...), nil
		default:
			return Value{}, p.errAt("NR-PARSE-009", "expected ',' or '}' in object")
		}
	}
}

func (p *parser) parseArray(depth int) (Value, error) {
	p.pos++ // consume '['
	var items []Value
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		return Array(items...), nil
	}
	for {
		p.skipSpace()
		child, err := p.parseValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, child)
		p.skipSpace()
		if p.pos >= len(p.data) {
			return Value{}, p.errAt("NR-PARSE-005", "unexpected end of input in array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return Array(items...), nil
		default:
			return Value{}, p.errAt("NR-PARSE-009", "expected ',' or ']' in array")
		}
	}
}

func (p *parser) parseString() (string, error) {
	p.pos++ // consume opening quote
	var out []byte
	for {
		if p.pos >= len(p.data) {
			return "", p.errAt("NR-PARSE-005", "unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			p.pos++
			return string(out), nil
		case c == '\\':
			decoded, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			out = append(out, decoded...)
		case c < 0x20:
			return "", p.errAt("NR-PARSE-011", "unescaped control character in string")
		default:
			// Multi-byte sequences were validated up front by utf8.Valid.
			out = append(out, c)
			p.pos++
		}
	}
}

func (p *parser) parseEscape() ([]byte, error) {
	if p.pos+1 >= len(p.data) {
		return nil, p.errAt("NR-PARSE-005", "unterminated escape")
	}
	switch p.data[p.pos+1] {
	case '"':
		p.pos += 2
		return []byte{'"'}, nil
	case '\\':
		p.pos += 2
		return []byte{'\\'}, nil
	case '/':
		p.pos += 2
		return []byte{'/'}, nil
	case 'b':
		p.pos += 2
		return []byte{'\b'}, nil
	case 'f':
		p.pos += 2
		return []byte{'\f'}, nil
	case 'n':
		p.pos += 2
		return []byte{'\n'}, nil
	case 'r':
		p.pos += 2
		return []byte{'\r'}, nil
	case 't':
		p.pos += 2
		return []byte{'\t'}, nil
	case 'u':
		return p.parseUnicodeEscape()
	default:
		return nil, p.errAt("NR-PARSE-012", fmt.Sprintf("invalid escape \\%c", p.data[p.pos+1]))
	}
}

func (p *parser) parseUnicodeEscape() ([]byte, error) {
	r1, err := p.hex4(p.pos + 2)
	if err != nil {
		return nil, err
	}
	p.pos += 6
	if utf16.IsSurrogate(rune(r1)) {
		// A high surrogate must pair with a following low surrogate escape;
		// anything else is a lone surrogate and is rejected, never replaced.
		if r1 >= 0xDC00 {
			return nil, p.errAt("NR-PARSE-013", "lone low surrogate escape")
		}
		if p.pos+1 >= len(p.data) || p.data[p.pos] != '\\' || p.data[p.pos+1] != 'u' {
			return nil, p.errAt("NR-PARSE-013", "unpaired high surrogate escape")
		}
		r2, err := p.hex4(p.pos + 2)
		if err != nil {
			return nil, err
		}
		if r2 < 0xDC00 || r2 > 0xDFFF {
			return nil, p.errAt("NR-PARSE-013", "unpaired high surrogate escape")
		}
		p.pos += 6
		r := utf16.DecodeRune(rune(r1), rune(r2))
		buf := make([]byte, 4)
		n := utf8.EncodeRune(buf, r)
		return buf[:n], nil
	}
	buf := make([]byte, 4)
	n := utf8.EncodeRune(buf, rune(r1))
	return buf[:n], nil
}

func (p *parser) hex4(at int) (uint32, error) {
	if at+4 > len(p.data) {
		return 0, p.errAt("NR-PARSE-005", "unterminated unicode escape")
	}
	var v uint32
	for i := 0; i < 4; i++ {
		c := p.data[at+i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | uint32(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | uint32(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | uint32(c-'A'+10)
		default:
			return 0, p.errAt("NR-PARSE-012", "invalid unicode escape")
		}
	}
	return v, nil
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	if p.data[p.pos] == '-' {
		p.pos++
	}
	if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
		return Value{}, p.errAt("NR-PARSE-014", "invalid number")
	}
	if p.data[p.pos] == '0' {
		p.pos++
	} else {
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		p.pos++
		if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
			return Value{}, p.errAt("NR-PARSE-014", "invalid number fraction")
		}
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if p.pos >= len(p.data) || p.data[p.pos] < '0' || p.data[p.pos] > '9' {
			return Value{}, p.errAt("NR-PARSE-014", "invalid number exponent")
		}
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
		}
	}
	return Number(string(p.data[start:p.pos])), nil
}
