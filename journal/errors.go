package journal

import (
	"errors"
	"fmt"
)

// ErrKind is a stable category for journal failures. Every failure mode a
// caller might branch on (halt vs skip-and-continue) has its own kind.
type ErrKind string

const (
	// KindIO: the underlying file operation failed.
	KindIO ErrKind = "IO"
	// KindHeader: magic, version, flags, or reserved bytes are wrong.
	KindHeader ErrKind = "Header"
	// KindFrame: a frame header is structurally invalid.
	KindFrame ErrKind = "Frame"
	// KindOversize: a payload exceeds the configured ceiling.
	KindOversize ErrKind = "Oversize"
	// KindTruncated: the file ends mid-header or mid-payload. Fatal in
	// strict mode; clean end-of-stream in permissive mode.
	KindTruncated ErrKind = "Truncated"
	// KindUTF8: an event payload is not valid UTF-8.
	KindUTF8 ErrKind = "UTF8"
	// KindState: the writer or reader was used out of order.
	KindState ErrKind = "State"
)

// Error is the journal's structured error type. Offset is the byte position
// the failure was detected at, or -1 when no position applies.
type Error struct {
	Kind   ErrKind
	Offset int64
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("journal: %s at offset %d", e.Msg, e.Offset)
	}
	return "journal: " + e.Msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func errHeader(msg string) error {
	return &Error{Kind: KindHeader, Offset: -1, Msg: msg}
}

func errFrame(offset int64, msg string) error {
	return &Error{Kind: KindFrame, Offset: offset, Msg: msg}
}

func errOversize(offset int64, size, max uint32) error {
	return &Error{Kind: KindOversize, Offset: offset, Msg: fmt.Sprintf("payload size %d exceeds maximum %d", size, max)}
}

func errTruncated(offset int64) error {
	return &Error{Kind: KindTruncated, Offset: offset, Msg: "truncated frame"}
}

func errState(msg string) error {
	return &Error{Kind: KindState, Offset: -1, Msg: msg}
}

func wrapIO(err error, msg string) error {
	return &Error{Kind: KindIO, Offset: -1, Msg: msg + ": " + err.Error(), Cause: err}
}

// IsKind reports whether err is (or wraps) a journal *Error of the given kind.
func IsKind(err error, kind ErrKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsTruncated reports whether err is a strict-mode truncation failure.
func IsTruncated(err error) bool { return IsKind(err, KindTruncated) }
