package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// KeyIDFromSeed returns the key identifier string for an Ed25519 seed:
// "ed25519:" + base64url(pubkey), no padding. The same string appears as
// key_id on signatures produced with that seed.
func KeyIDFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return AlgEd25519 + ":" + base64.RawURLEncoding.EncodeToString(pub)
}

// PrivateKeyFromSeed expands an Ed25519 seed into signing key material.
func PrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return PrivateKey{}, fmt.Errorf("keys: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}, nil
}

// KeyIDFromPublicKey encodes an encoded public key into a key identifier.
func KeyIDFromPublicKey(alg string, pub []byte) (string, error) {
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
		}
	case AlgDilithium3:
		if len(pub) != Dilithium3PublicKeySize {
			return "", fmt.Errorf("keys: dilithium3 public key must be %d bytes, got %d", Dilithium3PublicKeySize, len(pub))
		}
	default:
		return "", fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
	return alg + ":" + base64.RawURLEncoding.EncodeToString(pub), nil
}

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from
// a root seed, so one root can issue per-role signing keys without storing
// extra secrets.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("northroot-keys-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("keys: kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
