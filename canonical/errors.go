package canonical

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindParse covers malformed input bytes: invalid UTF-8, broken JSON
	// syntax, duplicate object keys, lone surrogates.
	KindParse Kind = "Parse"
	// KindValidation covers well-formed input that violates a canonical
	// rule: non-minimal integers, out-of-bounds scale, malformed
	// identifiers, cross-algorithm digest comparison.
	KindValidation Kind = "Validation"
	// KindCanonical covers structural failures while producing canonical
	// bytes. A KindCanonical error aborts the whole call; no partial
	// bytes are ever returned.
	KindCanonical Kind = "Canonical"
	// KindIdentity covers event-identity computation failures.
	KindIdentity Kind = "Identity"
	// KindInternal covers conditions that indicate a bug in this library.
	KindInternal Kind = "Internal"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., NR-PARSE-003, NR-VAL-101,
// NR-CANON-002) that names the violated invariant or validation rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
