package canonical

import (
	"strings"
	"testing"
)

func TestDigest_RawRoundTrip(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	d, err := DigestFromRaw(AlgSHA256, raw)
	if err != nil {
		t.Fatalf("DigestFromRaw: %v", err)
	}
	back, err := d.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if string(back) != string(raw) {
		t.Fatalf("raw bytes changed through encode/decode")
	}
	if strings.ContainsAny(d.B64, "+/=") {
		t.Fatalf("digest encoding must be base64url without padding, got %q", d.B64)
	}
}

func TestDigest_LengthValidated(t *testing.T) {
	if _, err := DigestFromRaw(AlgSHA256, make([]byte, 31)); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := NewDigest("md5", "abc"); err == nil {
		t.Fatalf("expected unknown algorithm error")
	}
}

func TestDigest_CrossAlgorithmComparisonIsError(t *testing.T) {
	raw := make([]byte, 32)
	a, _ := DigestFromRaw(AlgSHA256, raw)
	b, _ := DigestFromRaw(AlgSHA3256, raw)
	_, err := a.Equal(b)
	if err == nil {
		t.Fatalf("expected cross-algorithm comparison error")
	}
	if RuleID(err) != "NR-VAL-304" {
		t.Fatalf("expected NR-VAL-304, got %s", RuleID(err))
	}
}

func TestDigest_ValueFormRoundTrip(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0xab
	d, _ := DigestFromRaw(AlgSHA256, raw)
	back, err := DigestFromValue(d.Value())
	if err != nil {
		t.Fatalf("DigestFromValue: %v", err)
	}
	match, err := d.Equal(back)
	if err != nil || !match {
		t.Fatalf("value form did not round-trip: %v", err)
	}
}

func TestDigest_ValueFormRejectsExtraMembers(t *testing.T) {
	raw := make([]byte, 32)
	d, _ := DigestFromRaw(AlgSHA256, raw)
	v := d.Value().WithField("extra", Null())
	if _, err := DigestFromValue(v); err == nil {
		t.Fatalf("expected error for extra digest member")
	}
}

func TestParseDigest_StringForm(t *testing.T) {
	raw := make([]byte, 32)
	d, _ := DigestFromRaw(AlgSHA256, raw)
	back, err := ParseDigest(d.String())
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if back != d {
		t.Fatalf("got %+v want %+v", back, d)
	}
	if _, err := ParseDigest("no-separator"); err == nil {
		t.Fatalf("expected error")
	}
}
