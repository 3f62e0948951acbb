package journal

import (
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

// ReadMode selects the truncation policy for a Reader.
type ReadMode int

const (
	// Strict treats a truncated header or payload as a fatal error.
	Strict ReadMode = iota
	// Permissive treats the same truncation as clean end-of-stream, which
	// is how a journal is recovered after a crash mid-write.
	Permissive
)

// ReadOptions configures a Reader.
type ReadOptions struct {
	Mode ReadMode
	// MaxPayload overrides the payload ceiling. Zero means the default;
	// values above MaxPayloadSize are rejected at open.
	MaxPayload uint32
}

// Reader iterates the frames of a journal lazily, front to back. There is no
// persisted cursor: restart means reopening and scanning from the beginning.
// One decode allocates at most the frame's declared length, so a full-journal
// pass streams in bounded memory regardless of event count.
//
// Readers never mutate the file; any number of them may scan concurrently,
// including alongside an active appender, since flushed bytes are never
// rewritten.
type Reader struct {
	f       *os.File
	mode    ReadMode
	pos     int64
	ceiling uint32
}

// OpenReader opens a journal, validates its header, and positions the
// iterator at the first frame.
func OpenReader(path string, opts ReadOptions) (*Reader, error) {
	ceiling := opts.MaxPayload
	if ceiling == 0 {
		ceiling = MaxPayloadSize
	}
	if ceiling > MaxPayloadSize {
		return nil, errState("payload ceiling above hard maximum")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapIO(err, "open journal for read")
	}
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		f.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errHeader("file too short for a journal header")
		}
		return nil, wrapIO(err, "read journal header")
	}
	if err := decodeHeader(hdr[:]); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, mode: opts.Mode, pos: HeaderSize, ceiling: ceiling}, nil
}

// Offset returns the file position of the next frame header.
func (r *Reader) Offset() int64 { return r.pos }

// Next decodes and returns the next frame, of any kind. It returns io.EOF at
// end-of-stream, which in permissive mode includes a trailing torn frame.
func (r *Reader) Next() (*Record, error) {
	frameStart := r.pos

	var hdr [FrameHeaderSize]byte
	n, err := r.f.ReadAt(hdr[:], frameStart)
	if n == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if n < FrameHeaderSize {
		if errors.Is(err, io.EOF) {
			if r.mode == Permissive {
				return nil, io.EOF
			}
			return nil, errTruncated(frameStart)
		}
		return nil, wrapIO(err, "read frame header")
	}

	kind, length, err := decodeFrameHeader(hdr[:], frameStart, r.ceiling)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	payloadStart := frameStart + FrameHeaderSize
	if length > 0 {
		n, err := r.f.ReadAt(payload, payloadStart)
		if n < int(length) {
			if errors.Is(err, io.EOF) {
				if r.mode == Permissive {
					return nil, io.EOF
				}
				return nil, errTruncated(payloadStart)
			}
			return nil, wrapIO(err, "read frame payload")
		}
	}

	r.pos = payloadStart + int64(length)
	return &Record{Kind: kind, Payload: payload, Offset: frameStart}, nil
}

// NextEvent returns the payload of the next KindEventJSON frame, skipping
// unknown kinds by their declared length. The payload is validated as UTF-8
// here; JSON decoding is the caller's concern. Returns io.EOF at
// end-of-stream.
func (r *Reader) NextEvent() ([]byte, error) {
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !rec.IsEvent() {
			continue
		}
		if !utf8.Valid(rec.Payload) {
			return nil, &Error{Kind: KindUTF8, Offset: rec.Offset, Msg: "event payload is not valid UTF-8"}
		}
		return rec.Payload, nil
	}
}

// Close releases the file handle.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return wrapIO(err, "close journal")
	}
	return nil
}
