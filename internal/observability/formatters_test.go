package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/company-valuator/internal/types"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBanner("example.com", 3)

	out := buf.String()
	assert.Contains(t, out, "COMPANY VALUATOR")
	assert.Contains(t, out, "Target: example.com")
	assert.Contains(t, out, "Rounds: 3")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress("collecting", 1, 2)
	assert.Contains(t, buf.String(), "1/2")
	assert.Contains(t, buf.String(), "collecting")

	buf.Reset()
	p.PrintProgress("done", 2, 2)
	assert.NotContains(t, buf.String(), "░", "a finished run renders a full bar")
}

func TestPrintProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress("idle", 0, 0)
	assert.Equal(t, "idle\n", buf.String())
}

func TestPrintProfileSummary(t *testing.T) {
	profile := types.NewCompanyProfile("example.com", 3)
	profile.Name = "Example Inc"
	profile.Industry = "Software"
	profile.AddDataPoint(types.DataPoint{Key: "k", Value: "v"})

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfileSummary(profile)

	out := buf.String()
	assert.Contains(t, out, "Example Inc")
	assert.Contains(t, out, "Software")
	assert.Contains(t, out, "Data points collected: 1")
}

func TestPrintValuationSummary(t *testing.T) {
	profile := types.NewCompanyProfile("example.com", 1)
	profile.EstimatedValuation = 4_000_000_000
	profile.ValuationRange = types.ValuationRange{Low: 2_800_000_000, High: 5_200_000_000}
	profile.ConfidenceScore = 0.9

	var buf bytes.Buffer
	NewPrinter(&buf).PrintValuationSummary(profile)

	out := buf.String()
	assert.Contains(t, out, "$4.0B")
	assert.Contains(t, out, "$2.8B - $5.2B")
	assert.Contains(t, out, "90%")
}

func TestPrintValuationSummary_NoEstimate(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintValuationSummary(types.NewCompanyProfile("example.com", 1))
	assert.Contains(t, buf.String(), "Insufficient data")
}

func TestPrintIterations(t *testing.T) {
	iterations := []types.IterationResult{
		{Round: 1, SourcesUsed: []string{"a", "b"}, DataPointsCollected: 12, Duration: 1.5},
		{Round: 2, SourcesUsed: []string{"a"}, DataPointsCollected: 3, NewSourcesDiscovered: []string{"x"}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintIterations(iterations)

	out := buf.String()
	assert.Contains(t, out, "Round 1: 12 points from 2 sources")
	assert.Contains(t, out, "discovered 1 new sources")
}

func TestPrintFactors_BoxShape(t *testing.T) {
	factors := []types.ValuationFactor{
		{Name: "Financial", Score: 100, Weight: 0.35},
		{Name: "Growth", Score: 34.5, Weight: 0.25},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFactors(factors)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "└"))
	assert.Contains(t, buf.String(), "Financial")
}
