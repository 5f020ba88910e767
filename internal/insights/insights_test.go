package insights

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/types"
)

func sampleReport() *types.ValuationReport {
	profile := types.NewCompanyProfile("example.com", 2)
	profile.Name = "Example Inc"
	profile.Industry = "Software"
	profile.EstimatedValuation = 4_000_000_000
	profile.ValuationRange = types.ValuationRange{Low: 2_800_000_000, High: 5_200_000_000}
	profile.ConfidenceScore = 0.85
	profile.ValuationFactors = []types.ValuationFactor{
		{Name: "Financial Health", Score: 92, Weight: 0.35},
	}
	profile.AddDataPoint(types.DataPoint{Key: "market_cap", Value: "4.0B", Confidence: types.ConfidenceVerified})

	report := types.NewValuationReport(profile)
	report.Iterations = append(report.Iterations, types.IterationResult{
		Round:               1,
		SourcesUsed:         []string{"website", "financial"},
		DataPointsCollected: 12,
	})
	return report
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := buildSummaryPrompt(sampleReport())

	assert.Contains(t, prompt, "Example Inc (example.com)")
	assert.Contains(t, prompt, "Industry: Software")
	assert.Contains(t, prompt, "$4.0B")
	assert.Contains(t, prompt, "$2.8B - $5.2B")
	assert.Contains(t, prompt, "confidence 85%")
	assert.Contains(t, prompt, "Financial Health: 92.0 (weight 0.35)")
	assert.Contains(t, prompt, "Round 1: 12 data points from 2 sources")
	assert.Contains(t, prompt, "market_cap = 4.0B (verified)")
}

func TestBuildSummaryPrompt_NoEstimate(t *testing.T) {
	report := types.NewValuationReport(types.NewCompanyProfile("quiet.io", 1))

	prompt := buildSummaryPrompt(report)

	assert.Contains(t, prompt, "quiet.io")
	assert.Contains(t, prompt, "No valuation estimate could be computed")
	assert.NotContains(t, prompt, "Valuation factors")
}

func TestBuildSummaryPrompt_CapsDataPoints(t *testing.T) {
	report := sampleReport()
	for i := 0; i < maxPromptDataPoints+10; i++ {
		report.Company.AddDataPoint(types.DataPoint{Key: "k", Value: "v"})
	}

	prompt := buildSummaryPrompt(report)
	assert.Contains(t, prompt, "... and 11 more")
}

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{
						genai.Text("Example Inc is a "),
						genai.Text("mature software company."),
					},
				},
			},
		},
	}

	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Example Inc is a mature software company.", text)
}

func TestExtractTextFromResponse_NoCandidates(t *testing.T) {
	_, err := extractTextFromResponse(&genai.GenerateContentResponse{})
	assert.ErrorContains(t, err, "no candidates")
}

func TestExtractTextFromResponse_NoContent(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: nil}},
	}

	_, err := extractTextFromResponse(resp)
	assert.ErrorContains(t, err, "no content")
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "")
	assert.Error(t, err)
}
