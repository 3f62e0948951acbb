package canonical

import (
	"fmt"
	"strings"
	"time"
)

// ProfileID identifies a canonicalization profile.
// Pattern: [A-Za-z0-9_-]{16,128}.
type ProfileID string

// ParseProfileID validates and returns a profile identifier.
func ParseProfileID(s string) (ProfileID, error) {
	if len(s) < 16 || len(s) > 128 {
		return "", newError(KindValidation, "NR-VAL-201", fmt.Sprintf("profile id length %d outside 16..128", len(s)))
	}
	for _, c := range []byte(s) {
		if !isIdentByte(c) {
			return "", newError(KindValidation, "NR-VAL-201", fmt.Sprintf("invalid character %q in profile id", c))
		}
	}
	return ProfileID(s), nil
}

// PrincipalID is a stable principal identifier of the form kind:name where
// kind is one of human, service, agent, org and name is lowercase URL-safe.
type PrincipalID string

// ParsePrincipalID validates and returns a principal identifier.
func ParsePrincipalID(s string) (PrincipalID, error) {
	kind, name, ok := strings.Cut(s, ":")
	if !ok {
		return "", newError(KindValidation, "NR-VAL-202", fmt.Sprintf("principal id %q missing kind", s))
	}
	switch kind {
	case "human", "service", "agent", "org":
	default:
		return "", newError(KindValidation, "NR-VAL-202", fmt.Sprintf("unknown principal kind %q", kind))
	}
	if name == "" || len(name) > 63 {
		return "", newError(KindValidation, "NR-VAL-202", fmt.Sprintf("principal name length %d outside 1..63", len(name)))
	}
	if name[0] < 'a' || name[0] > 'z' {
		return "", newError(KindValidation, "NR-VAL-202", "principal name must start with a lowercase letter")
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			continue
		}
		return "", newError(KindValidation, "NR-VAL-202", fmt.Sprintf("invalid character %q in principal name", c))
	}
	return PrincipalID(s), nil
}

// ToolName is a dotted lowercase tool identifier like "canon.hash", with at
// most eight segments.
type ToolName string

// ParseToolName validates and returns a tool name.
func ParseToolName(s string) (ToolName, error) {
	segments := strings.Split(s, ".")
	if len(segments) == 0 || len(segments) > 8 {
		return "", newError(KindValidation, "NR-VAL-203", fmt.Sprintf("tool name %q has %d segments, max 8", s, len(segments)))
	}
	for _, seg := range segments {
		if seg == "" || seg[0] < 'a' || seg[0] > 'z' {
			return "", newError(KindValidation, "NR-VAL-203", fmt.Sprintf("tool name segment %q must start with a lowercase letter", seg))
		}
		for i := 1; i < len(seg); i++ {
			c := seg[i]
			if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
				continue
			}
			return "", newError(KindValidation, "NR-VAL-203", fmt.Sprintf("invalid character %q in tool name", c))
		}
	}
	return ToolName(s), nil
}

// Timestamp is a strict RFC 3339 UTC timestamp with an explicit "Z" suffix
// and an optional fractional second of 1 to 9 digits. No other offset form
// is accepted; "+00:00" is not the same evidence as "Z".
type Timestamp string

// ParseTimestamp validates and returns a timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	if err := checkTimestampShape(s); err != nil {
		return "", err
	}
	// Shape is strict; time.Parse then validates the calendar (month/day
	// ranges, leap seconds are rejected).
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		return "", wrapError(KindValidation, "NR-VAL-204", fmt.Sprintf("invalid timestamp %q", s), err)
	}
	return Timestamp(s), nil
}

func checkTimestampShape(s string) error {
	bad := func() error {
		return newError(KindValidation, "NR-VAL-204", fmt.Sprintf("timestamp %q is not strict RFC 3339 UTC", s))
	}
	// Minimal form: 2006-01-02T15:04:05Z (20 bytes).
	if len(s) < 20 || s[len(s)-1] != 'Z' {
		return bad()
	}
	for i, c := range []byte(s[:19]) {
		switch i {
		case 4, 7:
			if c != '-' {
				return bad()
			}
		case 10:
			if c != 'T' {
				return bad()
			}
		case 13, 16:
			if c != ':' {
				return bad()
			}
		default:
			if c < '0' || c > '9' {
				return bad()
			}
		}
	}
	frac := s[19 : len(s)-1]
	if frac == "" {
		return nil
	}
	if frac[0] != '.' || len(frac) < 2 || len(frac) > 10 {
		return bad()
	}
	for _, c := range []byte(frac[1:]) {
		if c < '0' || c > '9' {
			return bad()
		}
	}
	return nil
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}
