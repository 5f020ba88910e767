// Package collect defines the collector contract and the concrete data
// collectors. Each collector pulls signals from one kind of external
// source and appends them to the company ledger as data points.
package collect

import (
	"context"
	"time"

	"github.com/jonathan/company-valuator/internal/types"
)

// Collector gathers data points about a company from one source kind.
// Implementations must treat the profile they receive as read-only: the
// orchestrator hands each collector a snapshot and merges results itself.
type Collector interface {
	// Name is a human-readable collector name for logs and progress output.
	Name() string
	// Kind is the source kind stamped on every emitted data point.
	Kind() types.SourceKind
	// Priority is the first round on which the collector becomes eligible.
	Priority() int
	// ShouldRunOnRound reports whether the collector runs on the given
	// 1-based round.
	ShouldRunOnRound(round int) bool
	// Collect gathers data points for the round. An error marks the
	// collector as failed for the round; it never aborts sibling collectors.
	Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error)
	// DiscoverSources derives follow-up source hints purely from already
	// collected data. It must not perform network calls.
	DiscoverSources(profile *types.CompanyProfile) []string
}

// Base carries the identity shared by all collectors and provides the
// default round-gating rule: a collector with priority p first runs on
// round p and on every round after it.
type Base struct {
	name     string
	kind     types.SourceKind
	priority int
}

// NewBase constructs the shared collector identity.
func NewBase(name string, kind types.SourceKind, priority int) Base {
	return Base{name: name, kind: kind, priority: priority}
}

func (b Base) Name() string          { return b.name }
func (b Base) Kind() types.SourceKind { return b.kind }
func (b Base) Priority() int         { return b.priority }

// ShouldRunOnRound implements the default eligibility rule.
func (b Base) ShouldRunOnRound(round int) bool {
	return b.priority <= round
}

// NewDataPoint builds a data point stamped with the collector's source
// kind and the current collection time.
func (b Base) NewDataPoint(key, value, locator string, confidence types.Confidence, round int) types.DataPoint {
	return types.DataPoint{
		SourceKind:    b.kind,
		SourceLocator: locator,
		Key:           key,
		Value:         value,
		Confidence:    confidence,
		CollectedAt:   time.Now().UTC(),
		Round:         round,
	}
}
