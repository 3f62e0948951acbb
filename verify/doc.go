// Package verify classifies stored event records offline. The engine
// re-canonicalizes each record, recomputes its identity, and layers the
// optional chain, signature, and domain-predicate checks on top, producing
// one immutable verdict per event.
//
// The engine needs no network and never mutates what it reads. Chain
// resolution and Denied/Violation classification are injected by the caller
// because both depend on state or schema knowledge outside the kernel.
package verify
