package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
	"northroot.dev/northroot/identity"
	"northroot.dev/northroot/journal"
)

func strictCanonicalizer() *canonical.Canonicalizer {
	return canonical.NewCanonicalizer(canonical.DefaultProfile())
}

// makeRecord builds a sealed event record and returns its bytes and identity.
func makeRecord(t *testing.T, eventType, principal, occurredAt, data string) ([]byte, canonical.Digest) {
	t.Helper()
	c := strictCanonicalizer()
	v := canonical.Object(
		canonical.F(event.FieldType, canonical.String(eventType)),
		canonical.F(event.FieldVersion, canonical.String("1")),
		canonical.F(event.FieldOccurredAt, canonical.String(occurredAt)),
		canonical.F(event.FieldPrincipal, canonical.String(principal)),
		canonical.F(event.FieldProfile, canonical.String(string(canonical.DefaultProfileID))),
		canonical.F("data", canonical.String(data)),
	)
	id, err := identity.ComputeEventID(v, c)
	if err != nil {
		t.Fatalf("ComputeEventID: %v", err)
	}
	record, _, err := c.Canonicalize(v.WithField(event.FieldEventID, id.Value()))
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	return record, id
}

func mustParse(t *testing.T, record []byte) canonical.Value {
	t.Helper()
	v, err := canonical.ParseObject(record)
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	return v
}

func TestFilters(t *testing.T) {
	deposit, depositID := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T09:00:00Z", "a")
	withdraw, _ := makeRecord(t, "ledger.withdraw", "human:alice", "2024-03-01T10:00:00Z", "b")

	dv := mustParse(t, deposit)
	wv := mustParse(t, withdraw)

	if !ByType("ledger.deposit").Match(dv) || ByType("ledger.deposit").Match(wv) {
		t.Fatalf("ByType misclassified")
	}
	if !ByPrincipal("human:alice").Match(wv) || ByPrincipal("human:alice").Match(dv) {
		t.Fatalf("ByPrincipal misclassified")
	}
	if !ByEventID(depositID).Match(dv) || ByEventID(depositID).Match(wv) {
		t.Fatalf("ByEventID misclassified")
	}

	from := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if ByTimeRange(from, time.Time{}).Match(dv) || !ByTimeRange(from, time.Time{}).Match(wv) {
		t.Fatalf("ByTimeRange lower bound misclassified")
	}
	to := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// The range is half-open: an event exactly at the upper bound is out.
	if ByTimeRange(time.Time{}, to).Match(wv) || !ByTimeRange(time.Time{}, to).Match(dv) {
		t.Fatalf("ByTimeRange upper bound misclassified")
	}

	both := And(ByType("ledger.withdraw"), ByPrincipal("human:alice"))
	if !both.Match(wv) || both.Match(dv) {
		t.Fatalf("And misclassified")
	}
	either := Or(ByType("ledger.deposit"), ByPrincipal("human:alice"))
	if !either.Match(dv) || !either.Match(wv) {
		t.Fatalf("Or misclassified")
	}
}

func TestFilteredReader(t *testing.T) {
	deposit, _ := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T09:00:00Z", "a")
	withdraw, _ := makeRecord(t, "ledger.withdraw", "human:alice", "2024-03-01T10:00:00Z", "b")
	records := [][]byte{
		deposit,
		[]byte("not even json"),
		withdraw,
		deposit,
	}

	r := NewFilteredReader(NewSliceReader(records), ByType("ledger.deposit"))
	defer r.Close()
	got, err := Collect(r)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("collected %d records, want 2", len(got))
	}
	for _, rec := range got {
		if string(rec) != string(deposit) {
			t.Fatalf("wrong record passed the filter: %s", rec)
		}
	}
}

func TestSliceReader_EOF(t *testing.T) {
	r := NewSliceReader(nil)
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func writeStoreJournal(t *testing.T, records ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.nrj")
	w, err := journal.OpenWriter(path, journal.DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()
	for _, rec := range records {
		if err := w.AppendEvent(rec); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}
	return path
}

func TestResolveEvent(t *testing.T) {
	first, firstID := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T09:00:00Z", "a")
	second, secondID := makeRecord(t, "ledger.withdraw", "human:alice", "2024-03-01T10:00:00Z", "b")
	path := writeStoreJournal(t, first, second)

	got, found, err := ResolveEvent(path, secondID, journal.ReadOptions{})
	if err != nil {
		t.Fatalf("ResolveEvent: %v", err)
	}
	if !found || string(got) != string(second) {
		t.Fatalf("resolution returned the wrong record")
	}

	// An identity not in the journal resolves to not-found, no error.
	_, absent := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T11:00:00Z", "c")
	_, found, err = ResolveEvent(path, absent, journal.ReadOptions{})
	if err != nil {
		t.Fatalf("ResolveEvent absent: %v", err)
	}
	if found {
		t.Fatalf("resolved an identity that was never stored")
	}

	resolver := ChainResolver(path, journal.ReadOptions{})
	got, found, err = resolver.ResolveEvent(firstID)
	if err != nil || !found || string(got) != string(first) {
		t.Fatalf("ChainResolver: found=%v err=%v", found, err)
	}
}

func TestChainTip(t *testing.T) {
	first, _ := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T09:00:00Z", "a")
	second, secondID := makeRecord(t, "ledger.withdraw", "human:alice", "2024-03-01T10:00:00Z", "b")
	path := writeStoreJournal(t, first, second)

	tip, found, err := ChainTip(path, journal.ReadOptions{})
	if err != nil {
		t.Fatalf("ChainTip: %v", err)
	}
	if !found {
		t.Fatalf("tip not found in a populated journal")
	}
	if tip.Height != 2 {
		t.Fatalf("height %d, want 2", tip.Height)
	}
	match, err := tip.EventID.Equal(secondID)
	if err != nil || !match {
		t.Fatalf("tip is not the last event")
	}

	empty := writeStoreJournal(t)
	_, found, err = ChainTip(empty, journal.ReadOptions{})
	if err != nil {
		t.Fatalf("ChainTip empty: %v", err)
	}
	if found {
		t.Fatalf("found a tip in an empty journal")
	}
}

func TestJournalReader_SkipsNonEventFrames(t *testing.T) {
	record, _ := makeRecord(t, "ledger.deposit", "service:teller", "2024-03-01T09:00:00Z", "a")
	path := filepath.Join(t.TempDir(), "events.nrj")
	w, err := journal.OpenWriter(path, journal.DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	if err := w.Append(0x02, []byte{0x01}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.AppendEvent(record); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenJournal(path, journal.ReadOptions{})
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer r.Close()
	got, err := r.Next()
	if err != nil || string(got) != string(record) {
		t.Fatalf("Next: %s, %v", got, err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
