package canonical

import (
	"bytes"
	"testing"
)

func mustCanonical(t *testing.T, v Value) []byte {
	t.Helper()
	c := NewCanonicalizer(DefaultProfile())
	out, report, err := c.Canonicalize(v)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if report == nil {
		t.Fatalf("expected a hygiene report")
	}
	if report.Status != HygieneOk {
		t.Fatalf("expected Ok hygiene, got %s (%v)", report.Status, report.Warnings)
	}
	return out
}

func TestCanonicalize_SortsKeysByCodePoint(t *testing.T) {
	v := Object(
		F("zebra", Null()),
		F("alpha", Bool(true)),
		F("Beta", Number("1")),
	)
	got := mustCanonical(t, v)
	want := `{"Beta":1,"alpha":true,"zebra":null}`
	if string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestCanonicalize_DeterministicAcrossFieldOrder(t *testing.T) {
	a := Object(F("x", Number("1")), F("y", String("two")), F("z", Array(Null(), Bool(false))))
	b := Object(F("z", Array(Null(), Bool(false))), F("y", String("two")), F("x", Number("1")))
	if !bytes.Equal(mustCanonical(t, a), mustCanonical(t, b)) {
		t.Fatalf("semantically equal objects canonicalized differently")
	}
}

func TestCanonicalize_NoWhitespace(t *testing.T) {
	got := mustCanonical(t, Object(F("a", Array(Number("1"), Number("2")))))
	if bytes.ContainsAny(got, " \t\n") {
		t.Fatalf("canonical bytes contain whitespace: %s", got)
	}
}

func TestCanonicalize_DuplicateKeysRejected(t *testing.T) {
	v := Object(F("k", Number("1")), F("k", Number("2")))
	c := NewCanonicalizer(DefaultProfile())
	out, report, err := c.Canonicalize(v)
	if err == nil {
		t.Fatalf("expected duplicate key error, got %s", out)
	}
	if RuleID(err) != "NR-CANON-002" {
		t.Fatalf("expected NR-CANON-002, got %s", RuleID(err))
	}
	if out != nil {
		t.Fatalf("expected nil bytes on failure")
	}
	if report == nil || report.Status != HygieneInvalid {
		t.Fatalf("expected Invalid hygiene report, got %+v", report)
	}
}

func TestCanonicalize_StrictRejectsFloatForm(t *testing.T) {
	for _, lexeme := range []string{"1.5", "1e3", "2E-4", "0.0"} {
		c := NewCanonicalizer(DefaultProfile())
		_, _, err := c.Canonicalize(Object(F("n", Number(lexeme))))
		if err == nil {
			t.Fatalf("%q: expected error", lexeme)
		}
		if RuleID(err) != "NR-CANON-003" {
			t.Fatalf("%q: expected NR-CANON-003, got %s", lexeme, RuleID(err))
		}
	}
}

func TestCanonicalize_StrictRejectsNonMinimalIntegers(t *testing.T) {
	for _, lexeme := range []string{"-0", "01", "007", "-01"} {
		c := NewCanonicalizer(DefaultProfile())
		_, _, err := c.Canonicalize(Object(F("n", Number(lexeme))))
		if err == nil {
			t.Fatalf("%q: expected error", lexeme)
		}
		if RuleID(err) != "NR-CANON-004" {
			t.Fatalf("%q: expected NR-CANON-004, got %s", lexeme, RuleID(err))
		}
	}
}

func TestCanonicalize_PermissiveDemotesFloatForm(t *testing.T) {
	c := NewCanonicalizer(PermissiveProfile())
	out, report, err := c.Canonicalize(Object(F("n", Number("1.5"))))
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(out) != `{"n":"1.5"}` {
		t.Fatalf("got %s", out)
	}
	if report.Status != HygieneLossy {
		t.Fatalf("expected Lossy, got %s", report.Status)
	}
	if len(report.Warnings) != 1 || report.Warnings[0] != WarnFloatFormNumber {
		t.Fatalf("unexpected warnings %v", report.Warnings)
	}
	if report.Metrics[WarnFloatFormNumber] != 1 {
		t.Fatalf("unexpected metrics %v", report.Metrics)
	}
}

func TestCanonicalize_StringEscaping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"quote\"back\\", `"quote\"back\\"`},
		{"\b\t\n\f\r", `"\b\t\n\f\r"`},
		{"\x00\x1f", "\"\\u0000\\u001f\""},
		{"héllo ☃", "\"héllo ☃\""},
	}
	for _, tc := range cases {
		got := mustCanonical(t, String(tc.in))
		if string(got) != tc.want {
			t.Fatalf("%q: got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_InvalidUTF8Rejected(t *testing.T) {
	c := NewCanonicalizer(DefaultProfile())
	_, _, err := c.Canonicalize(String(string([]byte{0xff, 0xfe})))
	if err == nil {
		t.Fatalf("expected error")
	}
	if RuleID(err) != "NR-CANON-005" {
		t.Fatalf("expected NR-CANON-005, got %s", RuleID(err))
	}
}

func TestCanonicalize_RoundTripThroughParse(t *testing.T) {
	input := []byte(`{"b":{"y":"2","x":[1,2,3]},"a":"one"}`)
	v, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first := mustCanonical(t, v)
	reparsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse canonical bytes: %v", err)
	}
	second := mustCanonical(t, reparsed)
	if !bytes.Equal(first, second) {
		t.Fatalf("canonical bytes are not a fixed point: %s vs %s", first, second)
	}
}
