package verify

import (
	"errors"
	"io"

	"northroot.dev/northroot/journal"
)

// RecordOutcome pairs an outcome with the journal offset of the record that
// produced it.
type RecordOutcome struct {
	Offset  int64
	Outcome Outcome
}

// BatchResult summarizes one streaming pass over a journal.
type BatchResult struct {
	// Checked counts event records verified.
	Checked int
	// Skipped counts frames of unrecognized kind passed over.
	Skipped int
	// Failures holds the outcome of every record that did not verify Ok,
	// in journal order.
	Failures []RecordOutcome
}

// BatchOptions configures VerifyJournal.
type BatchOptions struct {
	// Read selects the journal read mode and payload ceiling.
	Read journal.ReadOptions
	// HaltOnFailure aborts the pass at the first non-Ok record instead of
	// continuing and reporting every offender.
	HaltOnFailure bool
}

// VerifyJournal streams a journal front to back, verifying each event frame.
// It never loads more than one record at a time, so memory stays bounded
// regardless of event count. The default behavior continues past bad records
// and reports each one; HaltOnFailure stops at the first.
//
// The error return carries journal-level failures, strict-mode truncation or
// I/O errors. Per-record judgments, including undecodable payloads, land in
// the result as Invalid outcomes.
func (e *Engine) VerifyJournal(path string, opts BatchOptions) (BatchResult, error) {
	r, err := journal.OpenReader(path, opts.Read)
	if err != nil {
		return BatchResult{}, err
	}
	defer r.Close()

	var result BatchResult
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		if !rec.IsEvent() {
			result.Skipped++
			continue
		}
		outcome, err := e.Verify(rec.Payload)
		if err != nil {
			return result, err
		}
		result.Checked++
		if outcome.Verdict != VerdictOk {
			result.Failures = append(result.Failures, RecordOutcome{Offset: rec.Offset, Outcome: outcome})
			if opts.HaltOnFailure {
				return result, nil
			}
		}
	}
}
