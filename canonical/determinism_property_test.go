package canonical

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildObject assembles an object from parallel key/value slices, dropping
// duplicate keys so the canonicalizer's duplicate check does not fire.
func buildObject(keys []string, values []string) Value {
	seen := make(map[string]bool)
	var fields []Field
	for i := 0; i < len(keys) && i < len(values); i++ {
		if keys[i] == "" || seen[keys[i]] {
			continue
		}
		seen[keys[i]] = true
		fields = append(fields, F(keys[i], String(values[i])))
	}
	return Object(fields...)
}

// reverseFields returns the same object with field order reversed.
func reverseFields(v Value) Value {
	fields := v.Fields()
	reversed := make([]Field, len(fields))
	for i, f := range fields {
		reversed[len(fields)-1-i] = f
	}
	return Object(reversed...)
}

func TestCanonicalize_DeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	c := NewCanonicalizer(DefaultProfile())

	properties.Property("field order never affects canonical bytes", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := buildObject(keys, values)
			a, _, errA := c.Canonicalize(obj)
			b, _, errB := c.Canonicalize(reverseFields(obj))
			if errA != nil || errB != nil {
				return errA != nil && errB != nil
			}
			return bytes.Equal(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("canonicalization is repeatable", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := buildObject(keys, values)
			a, _, errA := c.Canonicalize(obj)
			b, _, errB := c.Canonicalize(obj)
			if errA != nil || errB != nil {
				return errA != nil && errB != nil
			}
			return bytes.Equal(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("canonical output reparses to the same bytes", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := buildObject(keys, values)
			a, _, err := c.Canonicalize(obj)
			if err != nil {
				return true
			}
			reparsed, err := Parse(a)
			if err != nil {
				return false
			}
			b, _, err := c.Canonicalize(reparsed)
			if err != nil {
				return false
			}
			return bytes.Equal(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
