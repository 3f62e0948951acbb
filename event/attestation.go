package event

import (
	"fmt"

	"northroot.dev/northroot/canonical"
)

// Attestation event type and version.
const (
	AttestationType    = "northroot.attestation"
	AttestationVersion = "1"
)

// NewAttestationDraft builds an attestation event draft over a sealed
// checkpoint. An attestation is a principal's signature over a checkpoint's
// identity: the draft records which checkpoint is attested and chains onto
// it, and the signatures themselves are attached after sealing with
// WithSignatures, since they cover the attestation's own identity digest.
func NewAttestationDraft(checkpointID canonical.Digest, occurredAt canonical.Timestamp, principal canonical.PrincipalID, profile canonical.ProfileID) Draft {
	return Draft{
		Type:        AttestationType,
		Version:     AttestationVersion,
		OccurredAt:  occurredAt,
		Principal:   principal,
		Profile:     profile,
		PrevEventID: &checkpointID,
		Fields: []canonical.Field{
			canonical.F("checkpoint_event_id", checkpointID.Value()),
		},
	}
}

// AttestationInfo is the attestation-specific content of a sealed envelope.
type AttestationInfo struct {
	CheckpointEventID canonical.Digest
	Signatures        []Signature
}

// ParseAttestation extracts the attested checkpoint identity from an
// attestation envelope. An attestation without signatures is rejected: the
// event exists only to carry them.
func ParseAttestation(env *Envelope) (AttestationInfo, error) {
	if env.Type != AttestationType {
		return AttestationInfo{}, fmt.Errorf("event: %q is not an attestation", env.Type)
	}
	cpValue, ok := env.Value().Lookup("checkpoint_event_id")
	if !ok {
		return AttestationInfo{}, fmt.Errorf("event: attestation missing checkpoint_event_id")
	}
	checkpointID, err := canonical.DigestFromValue(cpValue)
	if err != nil {
		return AttestationInfo{}, err
	}
	if len(env.Signatures) == 0 {
		return AttestationInfo{}, fmt.Errorf("event: attestation carries no signatures")
	}
	return AttestationInfo{
		CheckpointEventID: checkpointID,
		Signatures:        env.Signatures,
	}, nil
}
