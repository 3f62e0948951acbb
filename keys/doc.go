// Package keys provides the signing primitives behind the signatures array
// on event envelopes: Ed25519 and Dilithium3 over raw digest bytes, key
// identifier formatting, deterministic role-seed derivation, and a
// filesystem-backed key store for the CLI.
//
// The store is a local-first convenience, not a protocol surface; the stable
// pieces are the pure sign/verify and derivation functions.
package keys
