package keys

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Signature algorithm names, matching the wire values on event envelopes.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// Public key sizes per algorithm, used to validate resolved key material
// before it reaches the underlying scheme.
const (
	Ed25519PublicKeySize    = ed25519.PublicKeySize
	Dilithium3PublicKeySize = mode3.PublicKeySize
	Dilithium3SignatureSize = mode3.SignatureSize
)

// SignDigest signs a recomputed event digest under the named algorithm.
// The message is the raw digest bytes; signatures therefore survive any
// re-serialization that preserves the canonical form.
func SignDigest(alg string, priv PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) == 0 {
		return nil, fmt.Errorf("keys: empty digest")
	}
	switch alg {
	case AlgEd25519:
		if priv.Ed25519 == nil {
			return nil, fmt.Errorf("keys: no ed25519 private key")
		}
		return ed25519.Sign(priv.Ed25519, digest), nil
	case AlgDilithium3:
		if priv.Dilithium3 == nil {
			return nil, fmt.Errorf("keys: no dilithium3 private key")
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(priv.Dilithium3, digest, sig)
		return sig, nil
	default:
		return nil, fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
}

// VerifyDigest checks a signature over raw digest bytes. The public key is
// passed in its encoded form and validated for the algorithm before use.
// A malformed key or unknown algorithm is an error; a well-formed signature
// that simply does not verify returns (false, nil).
func VerifyDigest(alg string, pub []byte, digest, sig []byte) (bool, error) {
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return false, fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
		}
		if len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(pub), digest, sig), nil
	case AlgDilithium3:
		if len(pub) != mode3.PublicKeySize {
			return false, fmt.Errorf("keys: dilithium3 public key must be %d bytes, got %d", mode3.PublicKeySize, len(pub))
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false, fmt.Errorf("keys: decode dilithium3 public key: %w", err)
		}
		if len(sig) != mode3.SignatureSize {
			return false, nil
		}
		return mode3.Verify(&pk, digest, sig), nil
	default:
		return false, fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
}

// PrivateKey holds the private key material for exactly one algorithm.
type PrivateKey struct {
	Ed25519    ed25519.PrivateKey
	Dilithium3 *mode3.PrivateKey
}

// Public returns the encoded public key for the held material.
func (p PrivateKey) Public() ([]byte, error) {
	switch {
	case p.Ed25519 != nil:
		return []byte(p.Ed25519.Public().(ed25519.PublicKey)), nil
	case p.Dilithium3 != nil:
		pk := p.Dilithium3.Public().(*mode3.PublicKey)
		return pk.MarshalBinary()
	default:
		return nil, fmt.Errorf("keys: empty private key")
	}
}

// Generate creates a fresh keypair for the named algorithm.
func Generate(alg string, rand io.Reader) (PrivateKey, error) {
	switch alg {
	case AlgEd25519:
		_, priv, err := ed25519.GenerateKey(rand)
		if err != nil {
			return PrivateKey{}, fmt.Errorf("keys: generate ed25519: %w", err)
		}
		return PrivateKey{Ed25519: priv}, nil
	case AlgDilithium3:
		_, priv, err := mode3.GenerateKey(rand)
		if err != nil {
			return PrivateKey{}, fmt.Errorf("keys: generate dilithium3: %w", err)
		}
		return PrivateKey{Dilithium3: priv}, nil
	default:
		return PrivateKey{}, fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
}
