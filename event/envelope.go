package event

import (
	"fmt"
	"strconv"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/identity"
)

// Envelope field names. Everything else on an event object is a
// schema-defined field the kernel carries opaquely.
const (
	FieldType          = "event_type"
	FieldVersion       = "event_version"
	FieldEventID       = "event_id"
	FieldOccurredAt    = "occurred_at"
	FieldPrincipal     = "principal_id"
	FieldProfile       = "canonical_profile_id"
	FieldPrevEventID   = "prev_event_id"
	FieldPayloadDigest = "payload_digest"
	FieldSignatures    = "signatures"
)

// MaxSignatures bounds the signatures array on one envelope.
const MaxSignatures = 16

var envelopeFields = map[string]bool{
	FieldType:          true,
	FieldVersion:       true,
	FieldEventID:       true,
	FieldOccurredAt:    true,
	FieldPrincipal:     true,
	FieldProfile:       true,
	FieldPrevEventID:   true,
	FieldPayloadDigest: true,
	FieldSignatures:    true,
}

// Draft is an event under construction: the envelope without its identity.
// Sealing a draft computes the identity over these fields and produces the
// final immutable envelope. A draft never carries an event_id placeholder;
// the identity is computed with the field absent, exactly as verifiers
// recompute it.
type Draft struct {
	Type       string
	Version    string
	OccurredAt canonical.Timestamp
	Principal  canonical.PrincipalID
	Profile    canonical.ProfileID

	// PrevEventID links this event to its predecessor (hash chain).
	PrevEventID *canonical.Digest
	// PayloadDigest references out-of-band payload bytes. It is a
	// deliberately independent field: it is never assumed equal to the
	// event identity.
	PayloadDigest *canonical.Digest
	Signatures    []Signature

	// Fields are the schema-defined members. The kernel hashes them all
	// but never interprets them.
	Fields []canonical.Field
}

// Value assembles the draft's canonical object, without event_id.
func (d Draft) Value() (canonical.Value, error) {
	if d.Type == "" {
		return canonical.Value{}, fmt.Errorf("event: draft missing event_type")
	}
	if d.Version == "" {
		return canonical.Value{}, fmt.Errorf("event: draft missing event_version")
	}
	fields := []canonical.Field{
		canonical.F(FieldType, canonical.String(d.Type)),
		canonical.F(FieldVersion, canonical.String(d.Version)),
		canonical.F(FieldOccurredAt, canonical.String(string(d.OccurredAt))),
		canonical.F(FieldPrincipal, canonical.String(string(d.Principal))),
		canonical.F(FieldProfile, canonical.String(string(d.Profile))),
	}
	if d.PrevEventID != nil {
		fields = append(fields, canonical.F(FieldPrevEventID, d.PrevEventID.Value()))
	}
	if d.PayloadDigest != nil {
		fields = append(fields, canonical.F(FieldPayloadDigest, d.PayloadDigest.Value()))
	}
	if len(d.Signatures) > 0 {
		if len(d.Signatures) > MaxSignatures {
			return canonical.Value{}, fmt.Errorf("event: %d signatures exceeds maximum %d", len(d.Signatures), MaxSignatures)
		}
		sigs := make([]canonical.Value, len(d.Signatures))
		for i, s := range d.Signatures {
			sigs[i] = s.Value()
		}
		fields = append(fields, canonical.F(FieldSignatures, canonical.Array(sigs...)))
	}
	for _, f := range d.Fields {
		if envelopeFields[f.Key] {
			return canonical.Value{}, fmt.Errorf("event: schema field %q collides with an envelope field", f.Key)
		}
		fields = append(fields, f)
	}
	return canonical.Object(fields...), nil
}

// Seal computes the draft's identity and returns the finished envelope.
//
// The two steps are strictly ordered and pure: first the object is built
// without the identity field and hashed, then a second immutable object is
// produced with the field populated. Nothing is ever hashed with an
// identity placeholder in place.
func Seal(d Draft, c *canonical.Canonicalizer) (*Envelope, error) {
	if _, err := canonical.ParseTimestamp(string(d.OccurredAt)); err != nil {
		return nil, err
	}
	if _, err := canonical.ParsePrincipalID(string(d.Principal)); err != nil {
		return nil, err
	}
	if _, err := canonical.ParseProfileID(string(d.Profile)); err != nil {
		return nil, err
	}
	unsealed, err := d.Value()
	if err != nil {
		return nil, err
	}
	id, err := identity.ComputeEventID(unsealed, c)
	if err != nil {
		return nil, err
	}
	sealed := unsealed.WithField(FieldEventID, id.Value())
	env, err := FromValue(sealed)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Envelope is one sealed event: the full canonical object including its
// identity, plus the envelope fields extracted into typed form. Envelopes
// are immutable once produced.
type Envelope struct {
	Type       string
	Version    string
	EventID    canonical.Digest
	OccurredAt canonical.Timestamp
	Principal  canonical.PrincipalID
	Profile    canonical.ProfileID

	PrevEventID   *canonical.Digest
	PayloadDigest *canonical.Digest
	Signatures    []Signature

	value canonical.Value
}

// Value returns the full canonical object, identity field included.
func (e *Envelope) Value() canonical.Value { return e.value }

// EncodeCanonical returns the canonical bytes of the full envelope, the form
// the journal stores so round-trips are byte-identical.
func (e *Envelope) EncodeCanonical(c *canonical.Canonicalizer) ([]byte, error) {
	bytes, _, err := c.Canonicalize(e.value)
	return bytes, err
}

// Decode parses raw JSON bytes into an envelope.
func Decode(data []byte) (*Envelope, error) {
	v, err := canonical.ParseObject(data)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// FromValue extracts and validates the envelope fields of an event object.
// Schema-defined fields stay on the underlying value untouched.
func FromValue(v canonical.Value) (*Envelope, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("event: envelope must be an object")
	}
	env := &Envelope{value: v}

	var ok bool
	if env.Type, ok = v.StringField(FieldType); !ok || env.Type == "" {
		return nil, fmt.Errorf("event: missing or invalid %s", FieldType)
	}
	if env.Version, ok = v.StringField(FieldVersion); !ok || env.Version == "" {
		return nil, fmt.Errorf("event: missing or invalid %s", FieldVersion)
	}

	occurredAt, ok := v.StringField(FieldOccurredAt)
	if !ok {
		return nil, fmt.Errorf("event: missing %s", FieldOccurredAt)
	}
	ts, err := canonical.ParseTimestamp(occurredAt)
	if err != nil {
		return nil, err
	}
	env.OccurredAt = ts

	principal, ok := v.StringField(FieldPrincipal)
	if !ok {
		return nil, fmt.Errorf("event: missing %s", FieldPrincipal)
	}
	pid, err := canonical.ParsePrincipalID(principal)
	if err != nil {
		return nil, err
	}
	env.Principal = pid

	profile, ok := v.StringField(FieldProfile)
	if !ok {
		return nil, fmt.Errorf("event: missing %s", FieldProfile)
	}
	prof, err := canonical.ParseProfileID(profile)
	if err != nil {
		return nil, err
	}
	env.Profile = prof

	idValue, ok := v.Lookup(FieldEventID)
	if !ok {
		return nil, fmt.Errorf("event: missing %s", FieldEventID)
	}
	if env.EventID, err = canonical.DigestFromValue(idValue); err != nil {
		return nil, err
	}

	if prevValue, ok := v.Lookup(FieldPrevEventID); ok {
		prev, err := canonical.DigestFromValue(prevValue)
		if err != nil {
			return nil, err
		}
		env.PrevEventID = &prev
	}
	if payloadValue, ok := v.Lookup(FieldPayloadDigest); ok {
		pd, err := canonical.DigestFromValue(payloadValue)
		if err != nil {
			return nil, err
		}
		env.PayloadDigest = &pd
	}
	if sigsValue, ok := v.Lookup(FieldSignatures); ok {
		if sigsValue.Kind() != canonical.KindArray {
			return nil, fmt.Errorf("event: %s must be an array", FieldSignatures)
		}
		items := sigsValue.Items()
		if len(items) == 0 || len(items) > MaxSignatures {
			return nil, fmt.Errorf("event: %s must have 1..%d entries, got %d", FieldSignatures, MaxSignatures, len(items))
		}
		env.Signatures = make([]Signature, len(items))
		for i, item := range items {
			sig, err := SignatureFromValue(item)
			if err != nil {
				return nil, fmt.Errorf("event: signature %s: %w", strconv.Itoa(i), err)
			}
			env.Signatures[i] = sig
		}
	}
	return env, nil
}

// WithSignatures returns a new envelope with the given signatures appended.
// The identity is unchanged since signatures are excluded from the hash
// input, which is what makes sign-after-seal possible.
func (e *Envelope) WithSignatures(sigs ...Signature) (*Envelope, error) {
	all := make([]Signature, 0, len(e.Signatures)+len(sigs))
	all = append(all, e.Signatures...)
	all = append(all, sigs...)
	if len(all) == 0 || len(all) > MaxSignatures {
		return nil, fmt.Errorf("event: %d signatures out of range 1..%d", len(all), MaxSignatures)
	}
	values := make([]canonical.Value, len(all))
	for i, s := range all {
		values[i] = s.Value()
	}
	return FromValue(e.value.WithField(FieldSignatures, canonical.Array(values...)))
}

// CheckPayloadConsistency recomputes the payload digest of raw payload bytes
// and compares it to the envelope's payload_digest field. It is an explicit
// check precisely because the two identities are independent: a future
// profile may cover more than the payload in event_id.
func (e *Envelope) CheckPayloadConsistency(payload []byte) error {
	if e.PayloadDigest == nil {
		return fmt.Errorf("event: envelope has no %s", FieldPayloadDigest)
	}
	computed, err := identity.PayloadDigest(payload)
	if err != nil {
		return err
	}
	match, err := e.PayloadDigest.Equal(computed)
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("event: payload bytes do not match %s", FieldPayloadDigest)
	}
	return nil
}
