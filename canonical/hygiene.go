package canonical

import "sort"

// HygieneStatus classifies how cleanly an input canonicalized.
type HygieneStatus string

const (
	// HygieneOk: the input canonicalized without issues.
	HygieneOk HygieneStatus = "Ok"
	// HygieneLossy: the input was accepted but information was dropped;
	// warnings say what. Lossy input never reaches hashed bytes.
	HygieneLossy HygieneStatus = "Lossy"
	// HygieneAmbiguous: the input required normalization that a different
	// producer might have performed differently.
	HygieneAmbiguous HygieneStatus = "Ambiguous"
	// HygieneInvalid: the input was rejected.
	HygieneInvalid HygieneStatus = "Invalid"
)

// Stable hygiene warning codes.
const (
	WarnFloatFormNumber  = "FloatFormNumber"
	WarnNonMinimalNumber = "NonMinimalNumber"
)

// HygieneReport is the structured diagnostic every canonicalization attempt
// produces. It is always emitted, even when the attempt fails.
type HygieneReport struct {
	Status    HygieneStatus
	Warnings  []string
	Metrics   map[string]uint64
	ProfileID ProfileID
}

func newHygieneReport(profile ProfileID) *HygieneReport {
	return &HygieneReport{
		Status:    HygieneOk,
		Metrics:   map[string]uint64{},
		ProfileID: profile,
	}
}

// warn records a warning code once per occurrence and bumps its metric.
func (r *HygieneReport) warn(code string) {
	r.Warnings = append(r.Warnings, code)
	r.Metrics[code]++
	if r.Status == HygieneOk {
		r.Status = HygieneLossy
	}
}

// MetricNames returns the metric keys in sorted order, for deterministic
// rendering.
func (r *HygieneReport) MetricNames() []string {
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
