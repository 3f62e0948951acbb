// Package event defines the event envelope: the typed fields the kernel
// itself understands (type, version, identity, timestamp, principal, profile,
// chain link, payload digest, signatures) wrapped around schema-defined
// fields it carries opaquely.
//
// Construction is two-phase. A Draft holds everything but the identity;
// Seal canonicalizes it, hashes it under the event domain separator, and
// produces the final Envelope with event_id populated. The identity field is
// never part of its own hash input.
package event
