package store

import (
	"io"

	"northroot.dev/northroot/journal"
)

// Reader is a forward-only stream of raw event records. Next returns io.EOF
// at end-of-stream. Implementations are not safe for concurrent use; open
// one reader per scan.
type Reader interface {
	// Next returns the next event record's raw bytes.
	Next() ([]byte, error)
	Close() error
}

// JournalReader adapts a journal file to the Reader interface, yielding only
// event frames and skipping other kinds.
type JournalReader struct {
	r *journal.Reader
}

// OpenJournal opens a journal file as an event Reader.
func OpenJournal(path string, opts journal.ReadOptions) (*JournalReader, error) {
	r, err := journal.OpenReader(path, opts)
	if err != nil {
		return nil, err
	}
	return &JournalReader{r: r}, nil
}

func (j *JournalReader) Next() ([]byte, error) { return j.r.NextEvent() }

// Offset exposes the underlying journal position for diagnostics.
func (j *JournalReader) Offset() int64 { return j.r.Offset() }

func (j *JournalReader) Close() error { return j.r.Close() }

// sliceReader serves records from memory, mainly for tests and for replaying
// a filtered subset.
type sliceReader struct {
	records [][]byte
	next    int
}

// NewSliceReader returns a Reader over in-memory records.
func NewSliceReader(records [][]byte) Reader {
	return &sliceReader{records: records}
}

func (s *sliceReader) Next() ([]byte, error) {
	if s.next >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

func (s *sliceReader) Close() error { return nil }
