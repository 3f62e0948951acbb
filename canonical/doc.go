// Package canonical implements the deterministic value model at the bottom
// of the trust kernel: parsing JSON into a canonical value tree, validating
// quantities and identifiers against minimal-encoding rules, and emitting
// canonical bytes suitable for hashing.
//
// Determinism is load-bearing. Identical semantic input must canonicalize to
// byte-identical output on any platform, at any time: a bug here invalidates
// every digest ever computed. The package therefore never reformats numbers,
// never coerces invalid input, and rejects rather than normalizes anything
// ambiguous (duplicate keys, lone surrogates, non-minimal integers, "-0").
package canonical
