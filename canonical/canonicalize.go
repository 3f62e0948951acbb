package canonical

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"
)

// Canonicalizer emits deterministic canonical bytes for a value tree under
// one profile. The same semantic input must produce byte-identical output on
// any platform, at any time; everything in this file serves that invariant.
type Canonicalizer struct {
	profile Profile
}

// NewCanonicalizer returns a canonicalizer for the given profile.
func NewCanonicalizer(profile Profile) *Canonicalizer {
	return &Canonicalizer{profile: profile}
}

// Profile returns the profile this canonicalizer runs under.
func (c *Canonicalizer) Profile() Profile { return c.profile }

// Canonicalize produces canonical bytes for v.
//
// The hygiene report is produced on every attempt, success or failure. On
// failure the returned bytes are nil: a canonicalization error is fatal to
// the call and no partial output ever escapes.
func (c *Canonicalizer) Canonicalize(v Value) ([]byte, *HygieneReport, error) {
	report := newHygieneReport(c.profile.ID)
	var buf bytes.Buffer
	if err := c.emit(&buf, v, report); err != nil {
		report.Status = HygieneInvalid
		return nil, report, err
	}
	return buf.Bytes(), report, nil
}

func (c *Canonicalizer) emit(buf *bytes.Buffer, v Value, report *HygieneReport) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindBool:
		if v.BoolValue() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindString:
		return c.emitString(buf, v.Str())
	case KindNumber:
		return c.emitNumber(buf, v.Str(), report)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.emit(buf, item, report); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindObject:
		return c.emitObject(buf, v.Fields(), report)
	default:
		return newError(KindInternal, "NR-CANON-001", fmt.Sprintf("unknown value kind %d", v.Kind()))
	}
}

func (c *Canonicalizer) emitObject(buf *bytes.Buffer, fields []Field, report *HygieneReport) error {
	if tag := quantityTag(fields); tag != "" {
		if err := validateQuantity(tag, fields, c.profile.maxScale()); err != nil {
			return err
		}
	}

	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	// Go's string ordering compares UTF-8 bytes, which for valid UTF-8 is
	// exactly ascending Unicode code point order.
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	buf.WriteByte('{')
	for i, f := range sorted {
		if i > 0 && sorted[i-1].Key == f.Key {
			return newError(KindCanonical, "NR-CANON-002", fmt.Sprintf("duplicate object key %q", f.Key))
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := c.emitString(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := c.emit(buf, f.Value, report); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// emitNumber enforces the profile's number rules. Strict profiles accept
// only minimal integer-form lexemes; anything carrying a fraction, an
// exponent, a leading zero, or "-0" fails. Permissive profiles demote such
// lexemes to strings with a hygiene warning so they can never collide with
// a strictly-hashed integer.
func (c *Canonicalizer) emitNumber(buf *bytes.Buffer, lexeme string, report *HygieneReport) error {
	if isMinimalInteger(lexeme) {
		buf.WriteString(lexeme)
		return nil
	}
	if !c.profile.Permissive {
		if isFloatForm(lexeme) {
			return newError(KindCanonical, "NR-CANON-003", fmt.Sprintf("native floating-point number %q not allowed; use a tagged quantity", lexeme))
		}
		return newError(KindCanonical, "NR-CANON-004", fmt.Sprintf("non-minimal integer %q", lexeme))
	}
	if isFloatForm(lexeme) {
		report.warn(WarnFloatFormNumber)
	} else {
		report.warn(WarnNonMinimalNumber)
	}
	return c.emitString(buf, lexeme)
}

func isFloatForm(lexeme string) bool {
	for i := 0; i < len(lexeme); i++ {
		switch lexeme[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

const hexDigits = "0123456789abcdef"

// emitString writes the smallest unambiguous JSON encoding of s: the two
// mandatory escapes, the five short escapes for the controls that have
// them, \u00XX for the remaining controls, and raw UTF-8 for everything
// else. Lone surrogates cannot survive to here from Parse, but hand-built
// values are checked again.
func (c *Canonicalizer) emitString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return newError(KindCanonical, "NR-CANON-005", "string is not valid UTF-8")
	}
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\t':
			buf.WriteString(`\t`)
		case '\n':
			buf.WriteString(`\n`)
		case '\f':
			buf.WriteString(`\f`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xF])
				continue
			}
			if r >= 0xD800 && r <= 0xDFFF {
				return newError(KindCanonical, "NR-CANON-006", "lone surrogate in string")
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return nil
}
