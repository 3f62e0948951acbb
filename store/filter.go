package store

import (
	"io"
	"time"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
)

// Filter selects events by their envelope fields. Filters see the parsed
// canonical value, not a fully validated envelope, so scans tolerate records
// produced under looser identifier rules.
type Filter interface {
	Match(v canonical.Value) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(v canonical.Value) bool

func (f FilterFunc) Match(v canonical.Value) bool { return f(v) }

// ByType matches events with the given event_type.
func ByType(eventType string) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		t, ok := v.StringField(event.FieldType)
		return ok && t == eventType
	})
}

// ByPrincipal matches events with the given principal_id.
func ByPrincipal(principal string) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		p, ok := v.StringField(event.FieldPrincipal)
		return ok && p == principal
	})
}

// ByEventID matches the event whose event_id equals id.
func ByEventID(id canonical.Digest) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		idValue, ok := v.Lookup(event.FieldEventID)
		if !ok {
			return false
		}
		d, err := canonical.DigestFromValue(idValue)
		if err != nil {
			return false
		}
		match, err := d.Equal(id)
		return err == nil && match
	})
}

// ByTimeRange matches events whose occurred_at falls in [from, to). A zero
// bound is open on that side. Events with an unparseable occurred_at never
// match.
func ByTimeRange(from, to time.Time) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		raw, ok := v.StringField(event.FieldOccurredAt)
		if !ok {
			return false
		}
		if _, err := canonical.ParseTimestamp(raw); err != nil {
			return false
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return false
		}
		if !from.IsZero() && t.Before(from) {
			return false
		}
		if !to.IsZero() && !t.Before(to) {
			return false
		}
		return true
	})
}

// And matches when every inner filter matches.
func And(filters ...Filter) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		for _, f := range filters {
			if !f.Match(v) {
				return false
			}
		}
		return true
	})
}

// Or matches when any inner filter matches.
func Or(filters ...Filter) Filter {
	return FilterFunc(func(v canonical.Value) bool {
		for _, f := range filters {
			if f.Match(v) {
				return true
			}
		}
		return false
	})
}

// filteredReader wraps a Reader, yielding only records that parse as JSON
// objects and match the filter. Non-JSON records are skipped, not surfaced;
// a filtered view is a query, not a verification pass.
type filteredReader struct {
	inner  Reader
	filter Filter
}

// NewFilteredReader returns a Reader view of inner restricted to matching
// records.
func NewFilteredReader(inner Reader, filter Filter) Reader {
	return &filteredReader{inner: inner, filter: filter}
}

func (f *filteredReader) Next() ([]byte, error) {
	for {
		rec, err := f.inner.Next()
		if err != nil {
			return nil, err
		}
		v, err := canonical.ParseObject(rec)
		if err != nil {
			continue
		}
		if f.filter.Match(v) {
			return rec, nil
		}
	}
}

func (f *filteredReader) Close() error { return f.inner.Close() }

// Collect drains a Reader into memory. Intended for small result sets; full
// journal passes should stream instead.
func Collect(r Reader) ([][]byte, error) {
	var records [][]byte
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
