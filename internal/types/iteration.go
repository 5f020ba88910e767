package types

import "time"

// IterationResult is the audit record for one collection round.
// It is created when the round starts and sealed by Complete when the
// round's merge finishes.
type IterationResult struct {
	Round                int       `json:"round"`
	SourcesUsed          []string  `json:"sources_used"`
	DataPointsCollected  int       `json:"data_points_collected"`
	NewSourcesDiscovered []string  `json:"new_sources_discovered"`
	StartedAt            time.Time `json:"started_at"`
	CompletedAt          time.Time `json:"completed_at"`
	Duration             float64   `json:"duration_seconds"`
}

// NewIterationResult starts the audit record for a round.
func NewIterationResult(round int) *IterationResult {
	return &IterationResult{
		Round:                round,
		SourcesUsed:          []string{},
		NewSourcesDiscovered: []string{},
		StartedAt:            time.Now(),
	}
}

// Complete seals the record and computes its duration.
func (r *IterationResult) Complete() {
	r.CompletedAt = time.Now()
	r.Duration = r.CompletedAt.Sub(r.StartedAt).Seconds()
}

// ReportVersion is the current valuation report format version.
const ReportVersion = "1.0"

// ValuationReport is the complete output of one valuation run: the final
// profile plus the immutable per-round history.
type ValuationReport struct {
	Company       *CompanyProfile   `json:"company"`
	Iterations    []IterationResult `json:"iterations"`
	GeneratedAt   time.Time         `json:"generated_at"`
	ReportVersion string            `json:"report_version"`
}

// NewValuationReport creates a report wrapping a profile.
func NewValuationReport(profile *CompanyProfile) *ValuationReport {
	return &ValuationReport{
		Company:       profile,
		Iterations:    []IterationResult{},
		GeneratedAt:   time.Now(),
		ReportVersion: ReportVersion,
	}
}
