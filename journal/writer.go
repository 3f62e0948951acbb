package journal

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// WriteOptions configures a Writer.
type WriteOptions struct {
	// Sync fsyncs after every append. When false, appends are batched and
	// durability happens on Sync or Close.
	Sync bool
	// Create creates the file if it does not exist.
	Create bool
	// MaxPayload overrides the payload ceiling. Zero means the default;
	// values above MaxPayloadSize are rejected at open.
	MaxPayload uint32
}

// DefaultWriteOptions returns batched-durability, create-if-missing options.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Create: true}
}

// Writer appends framed records to a journal file.
//
// The writer owns the on-disk byte sequence: it writes the header exactly
// once and thereafter only appends whole frames, never seeking backward.
// Single-writer discipline is the caller's job; the package provides no
// cross-process locking.
type Writer struct {
	f       *os.File
	sync    bool
	ceiling uint32
	closed  bool
}

// OpenWriter opens or creates a journal for appending. A new file gets the
// 16-byte header; an existing file has its header validated and is appended
// to at the end.
func OpenWriter(path string, opts WriteOptions) (*Writer, error) {
	ceiling := opts.MaxPayload
	if ceiling == 0 {
		ceiling = MaxPayloadSize
	}
	if ceiling > MaxPayloadSize {
		return nil, errState(fmt.Sprintf("payload ceiling %d above hard maximum %d", ceiling, MaxPayloadSize))
	}

	flags := os.O_WRONLY | os.O_APPEND
	if opts.Create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, wrapIO(err, "open journal for append")
	}

	w := &Writer{f: f, sync: opts.Sync, ceiling: ceiling}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapIO(err, "stat journal")
	}
	if info.Size() == 0 {
		if err := w.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
		return w, nil
	}
	if info.Size() < HeaderSize {
		f.Close()
		return nil, errHeader(fmt.Sprintf("existing file too short for a journal header: %d bytes", info.Size()))
	}
	// Validate the existing header through a separate read-only handle so
	// the append handle never moves backward.
	rf, err := os.Open(path)
	if err != nil {
		f.Close()
		return nil, wrapIO(err, "open journal for header check")
	}
	defer rf.Close()
	var hdr [HeaderSize]byte
	if _, err := rf.ReadAt(hdr[:], 0); err != nil {
		f.Close()
		return nil, wrapIO(err, "read journal header")
	}
	if err := decodeHeader(hdr[:]); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	hdr := encodeHeader()
	if _, err := w.f.Write(hdr[:]); err != nil {
		return wrapIO(err, "write journal header")
	}
	if w.sync {
		if err := w.f.Sync(); err != nil {
			return wrapIO(err, "sync journal header")
		}
	}
	return nil
}

// Append writes one whole frame: kind, zeroed reserved bytes, little-endian
// length, payload. Oversized payloads are rejected before any byte reaches
// the file, so a frame is either fully appended or never started.
func (w *Writer) Append(kind byte, payload []byte) error {
	if w.closed {
		return errState("append on closed writer")
	}
	if uint64(len(payload)) > uint64(w.ceiling) {
		return errOversize(-1, uint32(min64(uint64(len(payload)), uint64(MaxPayloadSize))), w.ceiling)
	}

	hdr := encodeFrameHeader(kind, uint32(len(payload)))
	buf := make([]byte, 0, FrameHeaderSize+len(payload))
	buf = append(buf, hdr[:]...)
	buf = append(buf, payload...)
	// One write call for header+payload keeps the whole-frame atomicity
	// window as small as the OS allows.
	if _, err := w.f.Write(buf); err != nil {
		return wrapIO(err, "append frame")
	}
	if w.sync {
		if err := w.f.Sync(); err != nil {
			return wrapIO(err, "sync after append")
		}
	}
	return nil
}

// AppendEvent appends a UTF-8 JSON event payload as a KindEventJSON frame.
func (w *Writer) AppendEvent(payload []byte) error {
	if !utf8.Valid(payload) {
		return &Error{Kind: KindUTF8, Offset: -1, Msg: "event payload is not valid UTF-8"}
	}
	return w.Append(KindEventJSON, payload)
}

// Sync flushes batched appends to stable storage.
func (w *Writer) Sync() error {
	if w.closed {
		return errState("sync on closed writer")
	}
	if err := w.f.Sync(); err != nil {
		return wrapIO(err, "sync journal")
	}
	return nil
}

// Close syncs and closes the file. The writer is unusable afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	if syncErr != nil {
		return wrapIO(syncErr, "sync journal on close")
	}
	if closeErr != nil {
		return wrapIO(closeErr, "close journal")
	}
	return nil
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
