package canonical

import (
	"fmt"
	"strconv"
)

// DefaultMaxDecimalScale bounds Dec scales unless a profile overrides it.
const DefaultMaxDecimalScale uint32 = 18

// Quantity tag values. A quantity is serialized as a tagged object, never as
// a native floating-point JSON number.
const (
	QuantityDec = "dec"
	QuantityInt = "int"
	QuantityRat = "rat"
	QuantityF64 = "f64"
)

// Dec returns a validated fixed-point decimal quantity value
// {"t":"dec","m":mantissa,"s":scale}. The mantissa must be minimal: no
// leading zeros and no "-0". Violations are rejected, never normalized.
func Dec(mantissa string, scale uint32) (Value, error) {
	if scale > DefaultMaxDecimalScale {
		return Value{}, newError(KindValidation, "NR-VAL-101", fmt.Sprintf("decimal scale %d out of bounds (max %d)", scale, DefaultMaxDecimalScale))
	}
	if !isMinimalInteger(mantissa) {
		return Value{}, newError(KindValidation, "NR-VAL-102", fmt.Sprintf("non-minimal decimal mantissa %q", mantissa))
	}
	return Object(
		F("t", String(QuantityDec)),
		F("m", String(mantissa)),
		F("s", Number(strconv.FormatUint(uint64(scale), 10))),
	), nil
}

// Int returns a validated arbitrary-precision integer quantity value
// {"t":"int","v":value}.
func Int(value string) (Value, error) {
	if !isMinimalInteger(value) {
		return Value{}, newError(KindValidation, "NR-VAL-103", fmt.Sprintf("non-minimal integer %q", value))
	}
	return Object(
		F("t", String(QuantityInt)),
		F("v", String(value)),
	), nil
}

// Rat returns a validated rational quantity value
// {"t":"rat","n":numerator,"d":denominator}. The denominator must be a
// positive integer.
func Rat(numerator, denominator string) (Value, error) {
	if !isMinimalInteger(numerator) {
		return Value{}, newError(KindValidation, "NR-VAL-104", fmt.Sprintf("non-minimal rational numerator %q", numerator))
	}
	if !isPositiveInteger(denominator) {
		return Value{}, newError(KindValidation, "NR-VAL-105", fmt.Sprintf("rational denominator %q must be a positive integer", denominator))
	}
	return Object(
		F("t", String(QuantityRat)),
		F("n", String(numerator)),
		F("d", String(denominator)),
	), nil
}

// F64 returns an explicit, opt-in, lossy IEEE-754 quantity value
// {"t":"f64","bits":bits}. bits is the raw 64-bit pattern as 16 lowercase
// hex digits, which sidesteps float formatting drift entirely.
func F64(bits string) (Value, error) {
	if !isF64Bits(bits) {
		return Value{}, newError(KindValidation, "NR-VAL-106", fmt.Sprintf("invalid f64 bit pattern %q", bits))
	}
	return Object(
		F("t", String(QuantityF64)),
		F("bits", String(bits)),
	), nil
}

// quantityTag returns the quantity tag of an object value, or "" if the
// object does not carry the tagged-variant shape.
func quantityTag(fields []Field) string {
	for _, f := range fields {
		if f.Key == "t" && f.Value.Kind() == KindString {
			switch f.Value.Str() {
			case QuantityDec, QuantityInt, QuantityRat, QuantityF64:
				return f.Value.Str()
			}
		}
	}
	return ""
}

// validateQuantity checks a tagged quantity object against minimality rules.
// maxScale is the profile's decimal scale bound.
func validateQuantity(tag string, fields []Field, maxScale uint32) error {
	members := make(map[string]Value, len(fields))
	for _, f := range fields {
		members[f.Key] = f.Value
	}
	switch tag {
	case QuantityDec:
		if len(fields) != 3 {
			return newError(KindValidation, "NR-VAL-110", "dec quantity must have exactly t, m, s")
		}
		m, ok := members["m"]
		if !ok || m.Kind() != KindString || !isMinimalInteger(m.Str()) {
			return newError(KindValidation, "NR-VAL-102", "dec quantity mantissa must be a minimal integer string")
		}
		s, ok := members["s"]
		if !ok {
			return newError(KindValidation, "NR-VAL-110", "dec quantity missing scale")
		}
		scale, err := scaleFromValue(s)
		if err != nil {
			return err
		}
		if scale > maxScale {
			return newError(KindValidation, "NR-VAL-101", fmt.Sprintf("decimal scale %d out of bounds (max %d)", scale, maxScale))
		}
	case QuantityInt:
		if len(fields) != 2 {
			return newError(KindValidation, "NR-VAL-111", "int quantity must have exactly t, v")
		}
		v, ok := members["v"]
		if !ok || v.Kind() != KindString || !isMinimalInteger(v.Str()) {
			return newError(KindValidation, "NR-VAL-103", "int quantity value must be a minimal integer string")
		}
	case QuantityRat:
		if len(fields) != 3 {
			return newError(KindValidation, "NR-VAL-112", "rat quantity must have exactly t, n, d")
		}
		n, ok := members["n"]
		if !ok || n.Kind() != KindString || !isMinimalInteger(n.Str()) {
			return newError(KindValidation, "NR-VAL-104", "rat quantity numerator must be a minimal integer string")
		}
		d, ok := members["d"]
		if !ok || d.Kind() != KindString || !isPositiveInteger(d.Str()) {
			return newError(KindValidation, "NR-VAL-105", "rat quantity denominator must be a positive integer string")
		}
	case QuantityF64:
		if len(fields) != 2 {
			return newError(KindValidation, "NR-VAL-113", "f64 quantity must have exactly t, bits")
		}
		b, ok := members["bits"]
		if !ok || b.Kind() != KindString || !isF64Bits(b.Str()) {
			return newError(KindValidation, "NR-VAL-106", "f64 quantity bits must be 16 lowercase hex digits")
		}
	}
	return nil
}

// scaleFromValue accepts the scale either as a minimal integer-form JSON
// number or as its string form, and rejects anything else.
func scaleFromValue(v Value) (uint32, error) {
	var lexeme string
	switch v.Kind() {
	case KindNumber, KindString:
		lexeme = v.Str()
	default:
		return 0, newError(KindValidation, "NR-VAL-107", "quantity scale must be an integer")
	}
	if !isPositiveInteger(lexeme) && lexeme != "0" {
		return 0, newError(KindValidation, "NR-VAL-107", fmt.Sprintf("invalid quantity scale %q", lexeme))
	}
	n, err := strconv.ParseUint(lexeme, 10, 32)
	if err != nil {
		return 0, wrapError(KindValidation, "NR-VAL-107", fmt.Sprintf("invalid quantity scale %q", lexeme), err)
	}
	return uint32(n), nil
}

// isMinimalInteger reports whether s is a minimal signed base-10 integer:
// "0", or an optional '-' followed by a nonzero leading digit. "-0" and
// leading zeros are rejected.
func isMinimalInteger(s string) bool {
	if s == "0" {
		return true
	}
	if s == "" || s == "-" || s == "-0" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i >= len(s) || s[i] < '1' || s[i] > '9' {
		return false
	}
	for i++; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isPositiveInteger reports whether s is a minimal base-10 integer > 0.
func isPositiveInteger(s string) bool {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isF64Bits reports whether s is exactly 16 lowercase hex digits.
func isF64Bits(s string) bool {
	if len(s) != 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
