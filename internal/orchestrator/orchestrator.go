// Package orchestrator drives the iterative valuation loop: in each round
// it fans collection out to the eligible collectors, merges their results
// into the profile ledger, and runs a synthesis pass.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/company-valuator/internal/collect"
	"github.com/jonathan/company-valuator/internal/types"
	"github.com/jonathan/company-valuator/internal/valuation"
)

// State names the orchestrator's current phase.
type State string

const (
	StateIdle         State = "idle"
	StateRunningRound State = "running_round"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
)

// ProgressFunc receives human-readable progress updates during a run.
type ProgressFunc func(message string, currentRound, totalRounds int)

// ReportFunc receives a profile snapshot after each round's synthesis.
type ReportFunc func(snapshot *types.CompanyProfile, round int)

// SynthesizeFunc recomputes the profile's derived state from its ledger.
type SynthesizeFunc func(profile *types.CompanyProfile)

// Options configures an Orchestrator. All fields are optional.
type Options struct {
	Progress    ProgressFunc
	RoundReport ReportFunc
	// Synthesize defaults to the valuation engine's Analyze.
	Synthesize SynthesizeFunc
	Logger     *log.Logger
}

// Orchestrator runs multi-round collection against an ordered collector
// list. The list is fixed at construction; merge order follows it.
type Orchestrator struct {
	collectors []collect.Collector
	progress   ProgressFunc
	report     ReportFunc
	synthesize SynthesizeFunc
	logger     *log.Logger

	mu    sync.RWMutex
	state State
	round int
}

// New creates an orchestrator over the given collectors. The slice order
// is the merge order. A nil opts uses defaults.
func New(collectors []collect.Collector, opts *Options) *Orchestrator {
	if opts == nil {
		opts = &Options{}
	}
	o := &Orchestrator{
		collectors: collectors,
		progress:   opts.Progress,
		report:     opts.RoundReport,
		synthesize: opts.Synthesize,
		logger:     opts.Logger,
		state:      StateIdle,
	}
	if o.synthesize == nil {
		o.synthesize = valuation.Analyze
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// State returns the current phase and round.
func (o *Orchestrator) State() (State, int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state, o.round
}

func (o *Orchestrator) setState(state State, round int) {
	o.mu.Lock()
	o.state = state
	o.round = round
	o.mu.Unlock()
}

func (o *Orchestrator) emitProgress(message string, current, total int) {
	if o.progress != nil {
		o.progress(message, current, total)
	}
}

// Run executes totalRounds collection rounds for the domain and returns
// the finished report. Zero rounds and zero collectors are valid: the run
// completes with an empty ledger and a zero valuation. Collector failures
// are logged and absorbed; they never abort the run.
func (o *Orchestrator) Run(ctx context.Context, domain string, totalRounds int) (*types.ValuationReport, error) {
	profile := types.NewCompanyProfile(NormalizeDomain(domain), totalRounds)
	report := types.NewValuationReport(profile)

	seenSources := make(map[string]bool)

	for round := 1; round <= totalRounds; round++ {
		o.setState(StateRunningRound, round)
		profile.CurrentRound = round

		var eligible []collect.Collector
		for _, c := range o.collectors {
			if c.ShouldRunOnRound(round) {
				eligible = append(eligible, c)
			}
		}
		o.emitProgress(fmt.Sprintf("Round %d: collecting from %d sources", round, len(eligible)), round, totalRounds)

		result := types.NewIterationResult(round)
		o.runRound(ctx, profile, eligible, round, result)

		for _, c := range eligible {
			for _, src := range c.DiscoverSources(profile) {
				if !seenSources[src] {
					seenSources[src] = true
					result.NewSourcesDiscovered = append(result.NewSourcesDiscovered, src)
				}
			}
		}

		result.Complete()
		report.Iterations = append(report.Iterations, *result)

		o.setState(StateSynthesizing, round)
		o.emitProgress(fmt.Sprintf("Round %d: synthesizing %d data points", round, len(profile.DataPoints)), round, totalRounds)
		o.synthesize(profile)

		if o.report != nil {
			o.report(profile.Snapshot(), round)
		}
	}

	// Final pass so the report reflects the complete ledger even when the
	// last round collected nothing.
	o.setState(StateSynthesizing, totalRounds)
	o.synthesize(profile)

	o.setState(StateDone, totalRounds)
	o.emitProgress("Valuation complete", totalRounds, totalRounds)

	return report, nil
}

// roundOutcome buffers one collector's results until the merge.
type roundOutcome struct {
	points []types.DataPoint
	err    error
}

// runRound fans collection out to the eligible collectors and merges the
// outcomes back into the profile in registration order. Every collector
// sees the same pre-round snapshot; a failing collector never cancels its
// siblings.
func (o *Orchestrator) runRound(ctx context.Context, profile *types.CompanyProfile, eligible []collect.Collector, round int, result *types.IterationResult) {
	if len(eligible) == 0 {
		return
	}

	snapshot := profile.Snapshot()
	outcomes := make([]roundOutcome, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range eligible {
		i, c := i, c
		g.Go(func() error {
			points, err := c.Collect(gctx, snapshot, round)
			outcomes[i] = roundOutcome{points: points, err: err}
			// Failures are buffered, not returned: returning an error here
			// would cancel gctx for the sibling collectors.
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range eligible {
		outcome := outcomes[i]
		if outcome.err != nil {
			o.logger.Printf("[WARN] collector %s failed on round %d: %v", c.Name(), round, outcome.err)
			continue
		}
		for _, dp := range outcome.points {
			profile.AddDataPoint(dp)
		}
		result.SourcesUsed = append(result.SourcesUsed, c.Name())
		result.DataPointsCollected += len(outcome.points)
	}
}

// NormalizeDomain reduces a user-supplied company reference to a bare
// domain: scheme, www prefix, and path are stripped and the host is
// lowercased.
func NormalizeDomain(raw string) string {
	domain := strings.TrimSpace(raw)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	return strings.ToLower(domain)
}
