package store

import (
	"errors"
	"io"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
	"northroot.dev/northroot/journal"
	"northroot.dev/northroot/verify"
)

// ResolveEvent scans a journal front to back for the event with the given
// identity and returns its raw record bytes. The scan is sequential; there
// is no index, so cost is linear in journal size.
func ResolveEvent(path string, id canonical.Digest, opts journal.ReadOptions) ([]byte, bool, error) {
	r, err := OpenJournal(path, opts)
	if err != nil {
		return nil, false, err
	}
	defer r.Close()

	want := ByEventID(id)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		v, err := canonical.ParseObject(rec)
		if err != nil {
			continue
		}
		if want.Match(v) {
			return rec, true, nil
		}
	}
}

// ChainResolver returns a verification-engine chain resolver backed by
// sequential journal scans. Each resolution reopens the file, so verifying a
// long chain is quadratic; acceptable for audit tooling, not for hot paths.
func ChainResolver(path string, opts journal.ReadOptions) verify.ChainResolver {
	return verify.ChainResolverFunc(func(id canonical.Digest) ([]byte, bool, error) {
		return ResolveEvent(path, id, opts)
	})
}

// ChainTip scans a journal and returns the tip of the hash chain: the last
// event record in file order and the count of events seen. The bool result
// is false for a journal with no event frames.
func ChainTip(path string, opts journal.ReadOptions) (event.ChainTip, bool, error) {
	r, err := OpenJournal(path, opts)
	if err != nil {
		return event.ChainTip{}, false, err
	}
	defer r.Close()

	var tip event.ChainTip
	var found bool
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return tip, found, nil
		}
		if err != nil {
			return event.ChainTip{}, false, err
		}
		v, err := canonical.ParseObject(rec)
		if err != nil {
			continue
		}
		idValue, ok := v.Lookup(event.FieldEventID)
		if !ok {
			continue
		}
		id, err := canonical.DigestFromValue(idValue)
		if err != nil {
			continue
		}
		tip.EventID = id
		tip.Height++
		found = true
	}
}
