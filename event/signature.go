package event

import (
	"encoding/base64"
	"fmt"

	"northroot.dev/northroot/canonical"
)

// Signature algorithm identifiers as they appear on the wire.
const (
	SigAlgEd25519    = "ed25519"
	SigAlgDilithium3 = "dilithium3"
)

// Signature is one detached signature over an event's identity digest.
// Signatures bind the digest, not the JSON text, so re-serialization under
// the same canonical profile never invalidates them.
type Signature struct {
	// Alg names the signature scheme.
	Alg string
	// KeyID identifies the signing key. Its format is a deployment concern;
	// the kernel treats it as an opaque non-empty string.
	KeyID string
	// Sig is the raw signature bytes.
	Sig []byte
}

// KnownSigAlg reports whether alg names a scheme this build can verify.
func KnownSigAlg(alg string) bool {
	return alg == SigAlgEd25519 || alg == SigAlgDilithium3
}

// Value returns the signature's canonical object form.
func (s Signature) Value() canonical.Value {
	return canonical.Object(
		canonical.F("alg", canonical.String(s.Alg)),
		canonical.F("key_id", canonical.String(s.KeyID)),
		canonical.F("sig", canonical.String(base64.RawURLEncoding.EncodeToString(s.Sig))),
	)
}

// SignatureFromValue decodes one signature object.
func SignatureFromValue(v canonical.Value) (Signature, error) {
	if !v.IsObject() {
		return Signature{}, fmt.Errorf("signature must be an object")
	}
	if len(v.Fields()) != 3 {
		return Signature{}, fmt.Errorf("signature must have exactly alg, key_id and sig members")
	}
	alg, ok := v.StringField("alg")
	if !ok || alg == "" {
		return Signature{}, fmt.Errorf("missing or invalid alg")
	}
	keyID, ok := v.StringField("key_id")
	if !ok || keyID == "" {
		return Signature{}, fmt.Errorf("missing or invalid key_id")
	}
	encoded, ok := v.StringField("sig")
	if !ok {
		return Signature{}, fmt.Errorf("missing or invalid sig")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Signature{}, fmt.Errorf("sig is not base64url without padding: %w", err)
	}
	if len(raw) == 0 {
		return Signature{}, fmt.Errorf("sig is empty")
	}
	return Signature{Alg: alg, KeyID: keyID, Sig: raw}, nil
}
