// Package journal implements the append-only binary container for event
// records: a 16-byte "NRJ1" header followed by length-prefixed frames.
//
// Frames are appended whole and never mutated or deleted. Readers iterate
// lazily in two modes: strict, where a torn trailing frame is a fatal error,
// and permissive, where it is treated as clean end-of-stream so a journal
// survives a crash mid-write. Unknown frame kinds are skipped by their
// declared length, not rejected, so old readers keep working as kinds are
// added.
package journal
