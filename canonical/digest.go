package canonical

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// DigestAlg names a supported digest algorithm.
type DigestAlg string

const (
	// AlgSHA256 is the default algorithm for event identities.
	AlgSHA256 DigestAlg = "sha-256"
	// AlgSHA3256 is available for profiles that require a Keccak digest.
	AlgSHA3256 DigestAlg = "sha3-256"
)

// digestSize returns the raw digest length in bytes for alg, or 0 if the
// algorithm is unknown.
func digestSize(alg DigestAlg) int {
	switch alg {
	case AlgSHA256, AlgSHA3256:
		return 32
	default:
		return 0
	}
}

// Digest is an algorithm-tagged content hash, encoded as base64url without
// padding. Digests are only ever produced by hashing a domain separator
// followed by canonical bytes.
type Digest struct {
	Alg DigestAlg
	B64 string
}

// NewDigest validates and returns a digest from its encoded form.
func NewDigest(alg DigestAlg, b64 string) (Digest, error) {
	size := digestSize(alg)
	if size == 0 {
		return Digest{}, newError(KindValidation, "NR-VAL-301", fmt.Sprintf("unknown digest algorithm %q", alg))
	}
	raw, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return Digest{}, wrapError(KindValidation, "NR-VAL-302", "digest is not base64url-no-pad", err)
	}
	if len(raw) != size {
		return Digest{}, newError(KindValidation, "NR-VAL-303", fmt.Sprintf("digest length %d does not match %s", len(raw), alg))
	}
	return Digest{Alg: alg, B64: b64}, nil
}

// DigestFromRaw encodes raw hash bytes as a digest.
func DigestFromRaw(alg DigestAlg, raw []byte) (Digest, error) {
	size := digestSize(alg)
	if size == 0 {
		return Digest{}, newError(KindValidation, "NR-VAL-301", fmt.Sprintf("unknown digest algorithm %q", alg))
	}
	if len(raw) != size {
		return Digest{}, newError(KindValidation, "NR-VAL-303", fmt.Sprintf("raw digest length %d does not match %s", len(raw), alg))
	}
	return Digest{Alg: alg, B64: base64.RawURLEncoding.EncodeToString(raw)}, nil
}

// Raw returns the decoded digest bytes.
func (d Digest) Raw() ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(d.B64)
	if err != nil {
		return nil, wrapError(KindValidation, "NR-VAL-302", "digest is not base64url-no-pad", err)
	}
	return raw, nil
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool { return d.Alg == "" && d.B64 == "" }

// Equal compares two digests. Comparing digests of different algorithms is
// a validation error, never a silent mismatch.
func (d Digest) Equal(other Digest) (bool, error) {
	if d.Alg != other.Alg {
		return false, newError(KindValidation, "NR-VAL-304", fmt.Sprintf("cannot compare %s digest with %s digest", d.Alg, other.Alg))
	}
	return subtle.ConstantTimeCompare([]byte(d.B64), []byte(other.B64)) == 1, nil
}

// String returns the conventional alg:b64 rendering for logs and CLIs.
func (d Digest) String() string { return string(d.Alg) + ":" + d.B64 }

// ParseDigest decodes the alg:b64 rendering produced by String.
func ParseDigest(s string) (Digest, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return NewDigest(DigestAlg(s[:i]), s[i+1:])
		}
	}
	return Digest{}, newError(KindValidation, "NR-VAL-301", fmt.Sprintf("digest %q is not alg:b64", s))
}

// Value returns the canonical object form {"alg":...,"b64":...}.
func (d Digest) Value() Value {
	return Object(
		F("alg", String(string(d.Alg))),
		F("b64", String(d.B64)),
	)
}

// DigestFromValue decodes a digest from its canonical object form.
func DigestFromValue(v Value) (Digest, error) {
	if !v.IsObject() {
		return Digest{}, newError(KindValidation, "NR-VAL-305", "digest must be an object with alg and b64")
	}
	alg, ok := v.StringField("alg")
	if !ok {
		return Digest{}, newError(KindValidation, "NR-VAL-305", "digest missing alg")
	}
	b64, ok := v.StringField("b64")
	if !ok {
		return Digest{}, newError(KindValidation, "NR-VAL-305", "digest missing b64")
	}
	if len(v.Fields()) != 2 {
		return Digest{}, newError(KindValidation, "NR-VAL-305", "digest must have exactly alg and b64")
	}
	return NewDigest(DigestAlg(alg), b64)
}
