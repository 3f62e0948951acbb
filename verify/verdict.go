package verify

import "northroot.dev/northroot/canonical"

// Verdict classifies the outcome of verifying one event. A verdict is a
// computed result, never mutated after emission; in particular Invalid is a
// successful computation meaning the evidence does not support trust, which
// is distinct from an error meaning verification could not be attempted.
type Verdict string

const (
	// VerdictOk means the record is structurally sound, its identity
	// recomputes, and every configured check passed.
	VerdictOk Verdict = "Ok"
	// VerdictDenied means a structurally valid event was rejected by the
	// caller's domain predicate.
	VerdictDenied Verdict = "Denied"
	// VerdictViolation means a structurally valid, allowed event breached
	// an externally checked bound.
	VerdictViolation Verdict = "Violation"
	// VerdictInvalid means the record's own evidence fails: undecodable,
	// unknown profile or version, identity mismatch, bad signature, or a
	// broken chain under a policy that requires chain integrity.
	VerdictInvalid Verdict = "Invalid"
)

// Reason codes attached to non-Ok outcomes. Classification is layered:
// structural and identity failures always yield Invalid regardless of
// downstream checks.
const (
	ReasonRecordNotJSON      = "RECORD_NOT_JSON"
	ReasonRecordNotCanonical = "RECORD_NOT_CANONICAL"
	ReasonUnknownProfile     = "UNKNOWN_PROFILE"
	ReasonUnknownVersion     = "UNKNOWN_VERSION"
	ReasonEventIDMissing     = "EVENT_ID_MISSING"
	ReasonEventIDMalformed   = "EVENT_ID_MALFORMED"
	ReasonEventIDMismatch    = "EVENT_ID_MISMATCH"
	ReasonChainBroken        = "CHAIN_BROKEN"
	ReasonSignatureMalformed = "SIGNATURE_MALFORMED"
	ReasonSignatureBadKey    = "SIGNATURE_BAD_KEY"
	ReasonSignatureInvalid   = "SIGNATURE_INVALID"
)

// Outcome is the result of verifying one record.
type Outcome struct {
	// EventID is the recomputed identity digest, zero when recomputation
	// never got far enough to produce one.
	EventID canonical.Digest
	// Verdict is the layered classification.
	Verdict Verdict
	// Reasons lists the codes behind a non-Ok verdict, in check order.
	Reasons []string
	// Report is the hygiene report from re-canonicalizing the record, nil
	// when the record never parsed.
	Report *canonical.HygieneReport
}
