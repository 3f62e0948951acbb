package event

import (
	"fmt"
	"strconv"

	"northroot.dev/northroot/canonical"
)

// ContentRef points at out-of-band content by digest. Events embed refs for
// payloads too large or too sensitive to inline; the bytes live in a
// content-addressed store keyed by the same digest.
type ContentRef struct {
	Digest canonical.Digest
	// SizeBytes is the content length when known, nil when the producer
	// did not record it.
	SizeBytes *uint64
	// MediaType is an optional RFC 6838 media type hint.
	MediaType string
}

// Value returns the ref's canonical object form.
func (r ContentRef) Value() canonical.Value {
	fields := []canonical.Field{
		canonical.F("digest", r.Digest.Value()),
	}
	if r.MediaType != "" {
		fields = append(fields, canonical.F("media_type", canonical.String(r.MediaType)))
	}
	if r.SizeBytes != nil {
		fields = append(fields, canonical.F("size_bytes", canonical.Number(strconv.FormatUint(*r.SizeBytes, 10))))
	}
	return canonical.Object(fields...)
}

// ContentRefFromValue decodes a ref from its canonical object form.
func ContentRefFromValue(v canonical.Value) (ContentRef, error) {
	if !v.IsObject() {
		return ContentRef{}, fmt.Errorf("event: content ref must be an object")
	}
	digestValue, ok := v.Lookup("digest")
	if !ok {
		return ContentRef{}, fmt.Errorf("event: content ref missing digest")
	}
	digest, err := canonical.DigestFromValue(digestValue)
	if err != nil {
		return ContentRef{}, err
	}
	ref := ContentRef{Digest: digest}
	for _, f := range v.Fields() {
		switch f.Key {
		case "digest":
		case "media_type":
			if f.Value.Kind() != canonical.KindString {
				return ContentRef{}, fmt.Errorf("event: content ref media_type must be a string")
			}
			ref.MediaType = f.Value.Str()
		case "size_bytes":
			if f.Value.Kind() != canonical.KindNumber {
				return ContentRef{}, fmt.Errorf("event: content ref size_bytes must be a number")
			}
			size, err := strconv.ParseUint(f.Value.Str(), 10, 64)
			if err != nil {
				return ContentRef{}, fmt.Errorf("event: invalid size_bytes: %w", err)
			}
			ref.SizeBytes = &size
		default:
			return ContentRef{}, fmt.Errorf("event: content ref has unknown member %q", f.Key)
		}
	}
	return ref, nil
}
