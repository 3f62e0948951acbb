package verify

import (
	"os"
	"path/filepath"
	"testing"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/journal"
)

// writeBatchJournal lays out: good event, malformed event, unknown-kind
// frame, good event.
func writeBatchJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.nrj")
	w, err := journal.OpenWriter(path, journal.DefaultWriteOptions())
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()

	first, _ := sealRecord(t, scenarioValue(), profV1)
	if err := w.AppendEvent(first); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := w.AppendEvent([]byte(`{"event_type":`)); err != nil {
		t.Fatalf("AppendEvent malformed: %v", err)
	}
	if err := w.Append(0x02, []byte{0xde, 0xad}); err != nil {
		t.Fatalf("Append unknown kind: %v", err)
	}
	second, _ := sealRecord(t, scenarioValue().WithField("data", canonical.String("world")), profV1)
	if err := w.AppendEvent(second); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	return path
}

func TestVerifyJournal_ContinuesPastFailures(t *testing.T) {
	path := writeBatchJournal(t)
	e := newEngine(t, Options{Profiles: []canonical.Profile{profV1}})

	result, err := e.VerifyJournal(path, BatchOptions{})
	if err != nil {
		t.Fatalf("VerifyJournal: %v", err)
	}
	if result.Checked != 3 {
		t.Fatalf("checked %d, want 3", result.Checked)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped %d, want 1", result.Skipped)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures %d, want 1", len(result.Failures))
	}
	failure := result.Failures[0]
	if failure.Outcome.Verdict != VerdictInvalid || !hasReason(failure.Outcome, ReasonRecordNotJSON) {
		t.Fatalf("failure outcome %+v", failure.Outcome)
	}
	if failure.Offset <= 0 {
		t.Fatalf("failure offset %d", failure.Offset)
	}
}

func TestVerifyJournal_HaltOnFailure(t *testing.T) {
	path := writeBatchJournal(t)
	e := newEngine(t, Options{Profiles: []canonical.Profile{profV1}})

	result, err := e.VerifyJournal(path, BatchOptions{HaltOnFailure: true})
	if err != nil {
		t.Fatalf("VerifyJournal: %v", err)
	}
	// The pass stops at the malformed second record.
	if result.Checked != 2 {
		t.Fatalf("checked %d, want 2", result.Checked)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures %d, want 1", len(result.Failures))
	}
}

func TestVerifyJournal_StrictTruncationIsAnError(t *testing.T) {
	path := writeBatchJournal(t)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-2); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	e := newEngine(t, Options{Profiles: []canonical.Profile{profV1}})
	_, err = e.VerifyJournal(path, BatchOptions{Read: journal.ReadOptions{Mode: journal.Strict}})
	if !journal.IsTruncated(err) {
		t.Fatalf("expected truncation error, got %v", err)
	}

	// Permissive mode recovers the intact prefix instead.
	result, err := e.VerifyJournal(path, BatchOptions{Read: journal.ReadOptions{Mode: journal.Permissive}})
	if err != nil {
		t.Fatalf("VerifyJournal permissive: %v", err)
	}
	if result.Checked != 2 {
		t.Fatalf("checked %d, want 2", result.Checked)
	}
}
