// Package insights generates an executive summary for a finished valuation
// run using the Gemini API. The summary is optional: runs without an API key
// simply skip it.
package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/company-valuator/internal/types"
	"github.com/jonathan/company-valuator/internal/valuation"
)

// defaultModel is the Gemini model used for summaries. Summaries are short
// prose over structured inputs, so the flash tier is sufficient.
const defaultModel = "gemini-2.5-flash"

// maxPromptDataPoints caps how many ledger entries are inlined into the
// prompt. Large runs can collect hundreds of points; the factors already
// carry the aggregated signal.
const maxPromptDataPoints = 40

// Generator produces report prose from a completed profile.
type Generator interface {
	// Summarize returns a short executive summary of the valuation.
	Summarize(ctx context.Context, report *types.ValuationReport) (string, error)
	// Close releases any resources held by the generator.
	Close() error
}

// GeminiGenerator implements Generator using Google Gemini.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: defaultModel}, nil
}

// Summarize generates an executive summary for the report.
func (g *GeminiGenerator) Summarize(ctx context.Context, report *types.ValuationReport) (string, error) {
	if report == nil || report.Company == nil {
		return "", fmt.Errorf("report has no company profile")
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)

	prompt := buildSummaryPrompt(report)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the generator.
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// buildSummaryPrompt renders the profile's identity, factors, valuation, and
// a sample of the ledger into a single instruction prompt.
func buildSummaryPrompt(report *types.ValuationReport) string {
	profile := report.Company

	var sb strings.Builder
	sb.WriteString("You are a financial analyst. Write a concise executive summary ")
	sb.WriteString("(3-5 paragraphs, plain prose, no headings or bullet lists) of the ")
	sb.WriteString("following automated company valuation. Note where confidence is low ")
	sb.WriteString("and which signals drove the estimate. Do not invent facts beyond ")
	sb.WriteString("the data provided.\n\n")

	sb.WriteString(fmt.Sprintf("Company: %s (%s)\n", displayName(profile), profile.Domain))
	if profile.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", profile.Industry))
	}
	if profile.Headquarters != "" {
		sb.WriteString(fmt.Sprintf("Headquarters: %s\n", profile.Headquarters))
	}
	if profile.EmployeeCount != "" {
		sb.WriteString(fmt.Sprintf("Employees: %s\n", profile.EmployeeCount))
	}

	if profile.EstimatedValuation > 0 {
		sb.WriteString(fmt.Sprintf("\nEstimated valuation: %s (range %s - %s, confidence %.0f%%)\n",
			valuation.FormatValuation(profile.EstimatedValuation),
			valuation.FormatValuation(profile.ValuationRange.Low),
			valuation.FormatValuation(profile.ValuationRange.High),
			profile.ConfidenceScore*100))
	} else {
		sb.WriteString("\nNo valuation estimate could be computed from the collected data.\n")
	}

	if len(profile.ValuationFactors) > 0 {
		sb.WriteString("\nValuation factors (score 0-100, weight):\n")
		for _, f := range profile.ValuationFactors {
			sb.WriteString(fmt.Sprintf("- %s: %.1f (weight %.2f)\n", f.Name, f.Score, f.Weight))
		}
	}

	if len(report.Iterations) > 0 {
		sb.WriteString("\nCollection rounds:\n")
		for _, it := range report.Iterations {
			sb.WriteString(fmt.Sprintf("- Round %d: %d data points from %d sources\n",
				it.Round, it.DataPointsCollected, len(it.SourcesUsed)))
		}
	}

	points := profile.DataPoints
	if len(points) > 0 {
		sb.WriteString("\nSelected data points (key = value, confidence):\n")
		shown := len(points)
		if shown > maxPromptDataPoints {
			shown = maxPromptDataPoints
		}
		for _, dp := range points[:shown] {
			sb.WriteString(fmt.Sprintf("- %s = %s (%s)\n", dp.Key, dp.Value, dp.Confidence))
		}
		if len(points) > shown {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(points)-shown))
		}
	}

	return sb.String()
}

// displayName prefers the extracted company name over the bare domain.
func displayName(profile *types.CompanyProfile) string {
	if profile.Name != "" {
		return profile.Name
	}
	return profile.Domain
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
