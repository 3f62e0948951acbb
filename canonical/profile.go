package canonical

// DefaultProfileID is the profile every shipped event uses today.
const DefaultProfileID ProfileID = "northroot-canonical-v1"

// Profile is the caller-constructed rule set a canonicalization runs under.
// There is no process-wide default profile: one embedder's profile must
// never leak into another's, so every call takes the profile explicitly.
type Profile struct {
	// ID names the rule set; it is recorded in every hygiene report and
	// in every event envelope as canonical_profile_id.
	ID ProfileID

	// MaxDecimalScale bounds Dec quantity scales. Zero means the default
	// bound of 18.
	MaxDecimalScale uint32

	// Permissive enables the lossy ingestion mode: float-form numbers are
	// accepted and recorded as hygiene warnings instead of failing the
	// call. Permissive output must never feed hashed bytes; the identity
	// engine refuses permissive profiles outright.
	Permissive bool
}

// DefaultProfile returns the strict northroot-canonical-v1 profile.
func DefaultProfile() Profile {
	return Profile{ID: DefaultProfileID}
}

// PermissiveProfile returns the lossy ingestion variant of the default
// profile, for diagnostics and repair tooling only.
func PermissiveProfile() Profile {
	return Profile{ID: DefaultProfileID, Permissive: true}
}

func (p Profile) maxScale() uint32 {
	if p.MaxDecimalScale == 0 {
		return DefaultMaxDecimalScale
	}
	return p.MaxDecimalScale
}
