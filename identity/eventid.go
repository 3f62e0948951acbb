// Package identity computes content-derived event identities by hashing a
// fixed domain separator followed by canonical bytes. The separator is
// versioned and distinct per use-site so an event identity can never collide
// with an unrelated content digest over the same bytes.
package identity

import (
	"fmt"

	"github.com/multiformats/go-multihash"

	"northroot.dev/northroot/canonical"
)

// Domain separators, one per digest use-site. Each ends with a NUL so no
// separator is a prefix of another.
const (
	// EventDomainSeparator prefixes event identity hashes.
	EventDomainSeparator = "northroot:event:v1\x00"
	// PayloadDomainSeparator prefixes content digests of out-of-band
	// payload bytes referenced from an envelope.
	PayloadDomainSeparator = "northroot:payload:v1\x00"
)

// Envelope members excluded from the identity hash input. The identity
// cannot cover itself, and it cannot cover signatures either: signatures sign
// the identity digest, so including them would make a signed event impossible
// to construct.
const (
	EventIDField    = "event_id"
	SignaturesField = "signatures"
)

// multihashCode maps a digest algorithm to its multihash registry code.
func multihashCode(alg canonical.DigestAlg) (uint64, error) {
	switch alg {
	case canonical.AlgSHA256:
		return multihash.SHA2_256, nil
	case canonical.AlgSHA3256:
		return multihash.SHA3_256, nil
	default:
		return 0, fmt.Errorf("identity: unsupported digest algorithm %q", alg)
	}
}

// hashDomain hashes separator||payload under alg via the multihash registry.
func hashDomain(alg canonical.DigestAlg, separator string, payload []byte) (canonical.Digest, error) {
	code, err := multihashCode(alg)
	if err != nil {
		return canonical.Digest{}, err
	}
	msg := make([]byte, 0, len(separator)+len(payload))
	msg = append(msg, separator...)
	msg = append(msg, payload...)
	sum, err := multihash.Sum(msg, code, -1)
	if err != nil {
		return canonical.Digest{}, fmt.Errorf("identity: multihash: %w", err)
	}
	decoded, err := multihash.Decode(sum)
	if err != nil {
		return canonical.Digest{}, fmt.Errorf("identity: multihash decode: %w", err)
	}
	return canonical.DigestFromRaw(alg, decoded.Digest)
}

// ComputeEventID derives the identity of an event value:
//
//	H(EventDomainSeparator || canonical_bytes(event without event_id, signatures))
//
// The event_id and signatures members, if present, are excluded from the
// hash input; the caller stamps the digest and attaches signatures over it
// to the stored object afterwards. The
// canonicalizer must run a strict profile: permissive (lossy) output must
// never feed hashed bytes.
func ComputeEventID(event canonical.Value, c *canonical.Canonicalizer) (canonical.Digest, error) {
	return ComputeEventIDWithAlg(event, c, canonical.AlgSHA256)
}

// ComputeEventIDWithAlg is ComputeEventID under an explicit algorithm.
func ComputeEventIDWithAlg(event canonical.Value, c *canonical.Canonicalizer, alg canonical.DigestAlg) (canonical.Digest, error) {
	if !event.IsObject() {
		return canonical.Digest{}, fmt.Errorf("identity: event must be an object")
	}
	if c.Profile().Permissive {
		return canonical.Digest{}, fmt.Errorf("identity: refusing to hash under a permissive profile")
	}
	stripped := event.WithoutField(EventIDField).WithoutField(SignaturesField)
	bytes, _, err := c.Canonicalize(stripped)
	if err != nil {
		return canonical.Digest{}, fmt.Errorf("identity: canonicalize: %w", err)
	}
	return hashDomain(alg, EventDomainSeparator, bytes)
}

// VerifyEventID recomputes the event identity and compares it to the claimed
// digest under the claimed digest's algorithm. The claimed event_id field on
// the value itself never participates in the recomputation.
func VerifyEventID(event canonical.Value, claimed canonical.Digest, c *canonical.Canonicalizer) (bool, error) {
	computed, err := ComputeEventIDWithAlg(event, c, claimed.Alg)
	if err != nil {
		return false, err
	}
	return claimed.Equal(computed)
}

// PayloadDigest derives the content digest of raw payload bytes referenced
// from an envelope. It uses its own domain separator: a payload digest and
// an event identity over the same bytes must not collide.
func PayloadDigest(payload []byte) (canonical.Digest, error) {
	return hashDomain(canonical.AlgSHA256, PayloadDomainSeparator, payload)
}
