package journal

import (
	"encoding/binary"
	"fmt"
)

// Journal file constants. The layout is normative: a 16-byte header followed
// by a sequence of frames, no footer.
const (
	// Magic identifies a journal file: "NRJ1".
	Magic = "NRJ1"
	// Version is the current format version, little-endian on disk.
	Version uint16 = 0x0001
	// HeaderSize is the fixed file header size in bytes.
	HeaderSize = 16
	// FrameHeaderSize is the fixed per-record header size in bytes.
	FrameHeaderSize = 8
	// MaxPayloadSize is the hard payload ceiling: 16 MiB.
	MaxPayloadSize uint32 = 16 * 1024 * 1024
)

// Frame kinds. Known kinds are a closed set; everything else is carried as
// an unrecognized record that readers skip by declared length, which keeps
// old readers forward-compatible with new kinds.
const (
	// KindEventJSON frames hold one UTF-8 JSON event object.
	KindEventJSON byte = 0x01
)

// encodeHeader serializes the 16-byte file header.
func encodeHeader() [HeaderSize]byte {
	var b [HeaderSize]byte
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint16(b[4:6], Version)
	// Bytes 6..16 are flags and reserved space; both must be zero.
	return b
}

// decodeHeader validates the 16-byte file header.
func decodeHeader(b []byte) error {
	if len(b) < HeaderSize {
		return errHeader(fmt.Sprintf("header too short: %d bytes", len(b)))
	}
	if string(b[0:4]) != Magic {
		return errHeader(fmt.Sprintf("invalid magic %q", b[0:4]))
	}
	if v := binary.LittleEndian.Uint16(b[4:6]); v != Version {
		return errHeader(fmt.Sprintf("unsupported version 0x%04x", v))
	}
	if f := binary.LittleEndian.Uint16(b[6:8]); f != 0 {
		return errHeader(fmt.Sprintf("non-zero flags 0x%04x", f))
	}
	for _, c := range b[8:16] {
		if c != 0 {
			return errHeader("non-zero reserved bytes")
		}
	}
	return nil
}

// encodeFrameHeader serializes one 8-byte frame header.
func encodeFrameHeader(kind byte, length uint32) [FrameHeaderSize]byte {
	var b [FrameHeaderSize]byte
	b[0] = kind
	// Bytes 1..4 are reserved and must be zero.
	binary.LittleEndian.PutUint32(b[4:8], length)
	return b
}

// decodeFrameHeader validates one 8-byte frame header read at offset.
// ceiling is the reader's payload bound (never above MaxPayloadSize).
func decodeFrameHeader(b []byte, offset int64, ceiling uint32) (kind byte, length uint32, err error) {
	if len(b) < FrameHeaderSize {
		return 0, 0, errFrame(offset, fmt.Sprintf("frame header too short: %d bytes", len(b)))
	}
	if b[1] != 0 || b[2] != 0 || b[3] != 0 {
		return 0, 0, errFrame(offset, "non-zero reserved bytes in frame header")
	}
	length = binary.LittleEndian.Uint32(b[4:8])
	if length > ceiling {
		return 0, 0, errOversize(offset, length, ceiling)
	}
	return b[0], length, nil
}

// Record is one decoded frame. Unknown kinds keep their raw payload so
// callers can pass them through untouched.
type Record struct {
	// Kind is the frame kind byte.
	Kind byte
	// Payload is the raw frame payload.
	Payload []byte
	// Offset is the file position of the frame header.
	Offset int64
}

// IsEvent reports whether the record is a UTF-8 JSON event frame.
func (r *Record) IsEvent() bool { return r.Kind == KindEventJSON }
