package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func tempJournal(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "events.nrj")
}

func writeEvents(t *testing.T, path string, payloads ...[]byte) {
	t.Helper()
	w, err := OpenWriter(path, DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	for _, p := range payloads {
		if err := w.AppendEvent(p); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestJournal_RoundTripPreservesOrderAndBytes(t *testing.T) {
	path := tempJournal(t)
	var want [][]byte
	for i := 0; i < 10; i++ {
		want = append(want, []byte(fmt.Sprintf(`{"seq":%d}`, i)))
	}
	writeEvents(t, path, want...)

	r, err := OpenReader(path, ReadOptions{Mode: Strict})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	for i, w := range want {
		got, err := r.NextEvent()
		if err != nil {
			t.Fatalf("NextEvent %d: %v", i, err)
		}
		if string(got) != string(w) {
			t.Fatalf("record %d: got %s want %s", i, got, w)
		}
	}
	if _, err := r.NextEvent(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestJournal_AppendToExistingFile(t *testing.T) {
	path := tempJournal(t)
	writeEvents(t, path, []byte(`{"a":1}`))
	writeEvents(t, path, []byte(`{"b":2}`))

	r, err := OpenReader(path, ReadOptions{Mode: Strict})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	first, err := r.NextEvent()
	if err != nil || string(first) != `{"a":1}` {
		t.Fatalf("first record: %s, %v", first, err)
	}
	second, err := r.NextEvent()
	if err != nil || string(second) != `{"b":2}` {
		t.Fatalf("second record: %s, %v", second, err)
	}
}

func TestJournal_HeaderValidation(t *testing.T) {
	path := tempJournal(t)
	if err := os.WriteFile(path, []byte("NOPE"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenReader(path, ReadOptions{}); err == nil {
		t.Fatalf("expected header error for short file")
	}

	var hdr [HeaderSize]byte
	copy(hdr[0:4], "NRJX")
	binary.LittleEndian.PutUint16(hdr[4:6], Version)
	if err := os.WriteFile(path, hdr[:], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := OpenReader(path, ReadOptions{})
	var je *Error
	if !errors.As(err, &je) || je.Kind != KindHeader {
		t.Fatalf("expected KindHeader error, got %v", err)
	}

	copy(hdr[0:4], Magic)
	hdr[8] = 1 // reserved must be zero
	if err := os.WriteFile(path, hdr[:], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenReader(path, ReadOptions{}); err == nil {
		t.Fatalf("expected reserved-bytes error")
	}
}

func TestJournal_TruncationModes(t *testing.T) {
	path := tempJournal(t)
	writeEvents(t, path, []byte(`{"a":1}`), []byte(`{"b":2}`))

	// Chop the last record mid-payload.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	strict, err := OpenReader(path, ReadOptions{Mode: Strict})
	if err != nil {
		t.Fatalf("OpenReader strict: %v", err)
	}
	defer strict.Close()
	if _, err := strict.NextEvent(); err != nil {
		t.Fatalf("first record should survive: %v", err)
	}
	_, err = strict.NextEvent()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("strict mode must fail on truncation, got %v", err)
	}
	if !IsTruncated(err) {
		t.Fatalf("expected truncation error, got %v", err)
	}

	permissive, err := OpenReader(path, ReadOptions{Mode: Permissive})
	if err != nil {
		t.Fatalf("OpenReader permissive: %v", err)
	}
	defer permissive.Close()
	if _, err := permissive.NextEvent(); err != nil {
		t.Fatalf("first record should survive: %v", err)
	}
	if _, err := permissive.NextEvent(); !errors.Is(err, io.EOF) {
		t.Fatalf("permissive mode must treat truncation as EOF, got %v", err)
	}
}

func TestJournal_TruncatedFrameHeader(t *testing.T) {
	path := tempJournal(t)
	writeEvents(t, path, []byte(`{"a":1}`))

	// Leave only 3 bytes of a following frame header.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.Write([]byte{KindEventJSON, 0, 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	strict, err := OpenReader(path, ReadOptions{Mode: Strict})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer strict.Close()
	if _, err := strict.NextEvent(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := strict.NextEvent(); !IsTruncated(err) {
		t.Fatalf("expected truncation error, got %v", err)
	}
}

func TestJournal_WriterRejectsOversizedPayload(t *testing.T) {
	path := tempJournal(t)
	w, err := OpenWriter(path, WriteOptions{Create: true, MaxPayload: 64})
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()

	if err := w.AppendEvent(make([]byte, 65)); err == nil {
		t.Fatalf("expected oversize rejection")
	}
	var je *Error
	if err := w.Append(KindEventJSON, make([]byte, 65)); !errors.As(err, &je) || je.Kind != KindOversize {
		t.Fatalf("expected KindOversize, got %v", err)
	}

	// Nothing may have reached the file: header only.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != HeaderSize {
		t.Fatalf("oversized append wrote bytes: file size %d", info.Size())
	}
}

func TestJournal_ReaderRejectsOversizedDeclaredLength(t *testing.T) {
	path := tempJournal(t)
	writeEvents(t, path)

	// Hand-craft a frame header declaring a payload above the ceiling.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	var hdr [FrameHeaderSize]byte
	hdr[0] = KindEventJSON
	binary.LittleEndian.PutUint32(hdr[4:8], MaxPayloadSize+1)
	if _, err := f.Write(hdr[:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	r, err := OpenReader(path, ReadOptions{Mode: Permissive})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	_, err = r.Next()
	var je *Error
	if !errors.As(err, &je) || je.Kind != KindOversize {
		t.Fatalf("expected KindOversize, got %v", err)
	}
}

func TestJournal_CeilingAboveHardMaximumRejected(t *testing.T) {
	path := tempJournal(t)
	if _, err := OpenWriter(path, WriteOptions{Create: true, MaxPayload: MaxPayloadSize + 1}); err == nil {
		t.Fatalf("expected writer ceiling rejection")
	}
	writeEvents(t, path)
	if _, err := OpenReader(path, ReadOptions{MaxPayload: MaxPayloadSize + 1}); err == nil {
		t.Fatalf("expected reader ceiling rejection")
	}
}

func TestJournal_UnknownKindSkipped(t *testing.T) {
	path := tempJournal(t)
	w, err := OpenWriter(path, DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if err := w.AppendEvent([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := w.Append(0x02, []byte{0xde, 0xad, 0xbe, 0xef}); err != nil {
		t.Fatalf("Append unknown kind: %v", err)
	}
	if err := w.AppendEvent([]byte(`{"b":2}`)); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path, ReadOptions{Mode: Strict})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	first, err := r.NextEvent()
	if err != nil || string(first) != `{"a":1}` {
		t.Fatalf("first event: %s, %v", first, err)
	}
	second, err := r.NextEvent()
	if err != nil || string(second) != `{"b":2}` {
		t.Fatalf("second event after unknown kind: %s, %v", second, err)
	}
	if _, err := r.NextEvent(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestJournal_EventPayloadMustBeUTF8(t *testing.T) {
	path := tempJournal(t)
	w, err := OpenWriter(path, DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()
	err = w.AppendEvent([]byte{0xff, 0xfe})
	var je *Error
	if !errors.As(err, &je) || je.Kind != KindUTF8 {
		t.Fatalf("expected KindUTF8, got %v", err)
	}
}

func TestJournal_WriterClosedState(t *testing.T) {
	path := tempJournal(t)
	w, err := OpenWriter(path, DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close must be a no-op: %v", err)
	}
	var je *Error
	if err := w.Append(KindEventJSON, []byte("{}")); !errors.As(err, &je) || je.Kind != KindState {
		t.Fatalf("expected KindState after close, got %v", err)
	}
}

func TestJournal_EmptyJournalReadsCleanEOF(t *testing.T) {
	path := tempJournal(t)
	writeEvents(t, path)
	for _, mode := range []ReadMode{Strict, Permissive} {
		r, err := OpenReader(path, ReadOptions{Mode: mode})
		if err != nil {
			t.Fatalf("OpenReader: %v", err)
		}
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF, got %v", err)
		}
		r.Close()
	}
}
