// Package store provides read-side views over event journals: a forward-only
// Reader interface, composable envelope filters, and sequential-scan lookup
// by event identity usable as the verification engine's chain resolver.
//
// Everything here is a linear pass over the file. There is no index and no
// cache; callers that need faster lookup build their own on top.
package store
