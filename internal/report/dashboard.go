package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/jonathan/company-valuator/internal/types"
	"github.com/jonathan/company-valuator/internal/valuation"
)

// maxPointsPerSource limits how many ledger rows each source section of
// the dashboard shows.
const maxPointsPerSource = 20

// factorColors are the chart colors cycled across valuation factors.
var factorColors = []string{
	"rgba(99, 102, 241, 0.8)",
	"rgba(139, 92, 246, 0.8)",
	"rgba(236, 72, 153, 0.8)",
	"rgba(34, 197, 94, 0.8)",
	"rgba(251, 146, 60, 0.8)",
}

type keyMetric struct {
	Label string
	Value string
	Color string
}

type metricRow struct {
	Name        string
	Value       string
	Unit        string
	Description string
}

type metricTable struct {
	Category string
	Metrics  []metricRow
}

type iterationRow struct {
	Round    int
	Points   int
	Sources  string
	Duration string
}

type pointRow struct {
	Key             string
	Value           string
	ConfidenceLabel string
	ConfidenceClass string
	Round           int
}

type sourceSection struct {
	Title  string
	Count  int
	Points []pointRow
}

type dashboardData struct {
	Title             string
	CompanyName       string
	Domain            string
	GeneratedAt       string
	RoundsDisplay     string
	Summary           string
	ValuationDisplay  string
	RangeDisplay      string
	ConfidenceDisplay string
	ConfidenceColor   string
	KeyMetrics        []keyMetric
	MetricTables      []metricTable
	Iterations        []iterationRow
	SourceSections    []sourceSection
	FactorLabels      template.JS
	FactorScores      template.JS
	FactorColors      template.JS
	SourceLabels      template.JS
	SourceValues      template.JS
}

// RenderDashboard renders the report as a self-contained HTML dashboard.
// The optional summary is prose placed above the metrics, typically the
// generated executive summary.
func RenderDashboard(report *types.ValuationReport, summary string) (string, error) {
	if report == nil || report.Company == nil {
		return "", &TemplateError{Message: "report has no company profile"}
	}

	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return "", &TemplateError{Message: "failed to parse dashboard template", Cause: err}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, buildDashboardData(report, summary)); err != nil {
		return "", &TemplateError{Message: "failed to execute dashboard template", Cause: err}
	}
	return sb.String(), nil
}

func buildDashboardData(report *types.ValuationReport, summary string) *dashboardData {
	profile := report.Company

	data := &dashboardData{
		Title:         "Company Valuation Dashboard",
		CompanyName:   displayName(profile),
		Domain:        profile.Domain,
		GeneratedAt:   report.GeneratedAt.Format("January 2, 2006 at 15:04"),
		RoundsDisplay: fmt.Sprintf("%d/%d", profile.CurrentRound, profile.TotalRounds),
		Summary:       summary,
	}

	if profile.EstimatedValuation > 0 {
		data.ValuationDisplay = valuation.FormatValuation(profile.EstimatedValuation)
		data.RangeDisplay = fmt.Sprintf("%s - %s",
			valuation.FormatValuation(profile.ValuationRange.Low),
			valuation.FormatValuation(profile.ValuationRange.High))
		data.ConfidenceDisplay = fmt.Sprintf("%.0f%%", profile.ConfidenceScore*100)
		switch {
		case profile.ConfidenceScore >= 0.7:
			data.ConfidenceColor = "text-green-600"
		case profile.ConfidenceScore >= 0.4:
			data.ConfidenceColor = "text-yellow-600"
		default:
			data.ConfidenceColor = "text-red-600"
		}
	} else {
		data.ValuationDisplay = "Insufficient Data"
		data.RangeDisplay = "N/A"
		data.ConfidenceDisplay = "0%"
		data.ConfidenceColor = "text-gray-500"
	}

	data.KeyMetrics = buildKeyMetrics(profile)
	data.MetricTables = buildMetricTables(profile)
	data.Iterations = buildIterationRows(report.Iterations)
	data.SourceSections = buildSourceSections(profile)

	labels, scores, colors := factorChartData(profile.ValuationFactors)
	data.FactorLabels = labels
	data.FactorScores = scores
	data.FactorColors = colors

	sourceLabels, sourceValues := sourceChartData(profile.DataPoints)
	data.SourceLabels = sourceLabels
	data.SourceValues = sourceValues

	return data
}

func buildKeyMetrics(profile *types.CompanyProfile) []keyMetric {
	return []keyMetric{
		{Label: "Industry", Value: orUnknown(profile.Industry, "Not determined"), Color: "text-blue-600"},
		{Label: "Employees", Value: orUnknown(profile.EmployeeCount, "Unknown"), Color: "text-purple-600"},
		{Label: "Headquarters", Value: orUnknown(profile.Headquarters, "Unknown"), Color: "text-indigo-600"},
		{Label: "Founded", Value: foundedDisplay(profile.FoundedYear), Color: "text-pink-600"},
		{Label: "Data Points", Value: fmt.Sprintf("%d", len(profile.DataPoints)), Color: "text-green-600"},
		{Label: "Metrics", Value: fmt.Sprintf("%d", len(profile.Metrics)), Color: "text-yellow-600"},
	}
}

// buildMetricTables groups metrics by category in first-seen order.
func buildMetricTables(profile *types.CompanyProfile) []metricTable {
	var order []string
	grouped := make(map[string][]metricRow)
	for _, m := range profile.Metrics {
		if _, seen := grouped[m.Category]; !seen {
			order = append(order, m.Category)
		}
		grouped[m.Category] = append(grouped[m.Category], metricRow{
			Name:        m.Name,
			Value:       fmt.Sprintf("%.1f", m.Value),
			Unit:        m.Unit,
			Description: m.Description,
		})
	}

	tables := make([]metricTable, 0, len(order))
	for _, category := range order {
		tables = append(tables, metricTable{
			Category: titleWords(category),
			Metrics:  grouped[category],
		})
	}
	return tables
}

func buildIterationRows(iterations []types.IterationResult) []iterationRow {
	rows := make([]iterationRow, 0, len(iterations))
	for _, it := range iterations {
		sources := it.SourcesUsed
		display := strings.Join(truncateList(sources, 3), ", ")
		if len(sources) > 3 {
			display += fmt.Sprintf(" +%d more", len(sources)-3)
		}
		rows = append(rows, iterationRow{
			Round:    it.Round,
			Points:   it.DataPointsCollected,
			Sources:  display,
			Duration: fmt.Sprintf("%.1fs", it.Duration),
		})
	}
	return rows
}

// buildSourceSections groups ledger entries by source kind in first-seen
// order, capping each section's rows.
func buildSourceSections(profile *types.CompanyProfile) []sourceSection {
	var order []types.SourceKind
	grouped := make(map[types.SourceKind][]types.DataPoint)
	for _, dp := range profile.DataPoints {
		if _, seen := grouped[dp.SourceKind]; !seen {
			order = append(order, dp.SourceKind)
		}
		grouped[dp.SourceKind] = append(grouped[dp.SourceKind], dp)
	}

	sections := make([]sourceSection, 0, len(order))
	for _, kind := range order {
		points := grouped[kind]
		section := sourceSection{
			Title: titleWords(string(kind)),
			Count: len(points),
		}
		shown := len(points)
		if shown > maxPointsPerSource {
			shown = maxPointsPerSource
		}
		for _, dp := range points[:shown] {
			label, class := confidenceDisplay(dp.Confidence)
			value := dp.Value
			if len(value) > 100 {
				value = value[:100] + "..."
			}
			section.Points = append(section.Points, pointRow{
				Key:             dp.Key,
				Value:           value,
				ConfidenceLabel: label,
				ConfidenceClass: class,
				Round:           dp.Round,
			})
		}
		sections = append(sections, section)
	}
	return sections
}

func factorChartData(factors []types.ValuationFactor) (labels, scores, colors template.JS) {
	shown := len(factors)
	if shown > 5 {
		shown = 5
	}

	names := make([]string, 0, shown)
	values := make([]float64, 0, shown)
	palette := make([]string, 0, shown)
	for i, f := range factors[:shown] {
		names = append(names, f.Name)
		values = append(values, roundTenth(f.Score))
		palette = append(palette, factorColors[i%len(factorColors)])
	}
	return jsonJS(names), jsonJS(values), jsonJS(palette)
}

func sourceChartData(points []types.DataPoint) (labels, values template.JS) {
	var order []string
	counts := make(map[string]int)
	for _, dp := range points {
		name := titleWords(string(dp.SourceKind))
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	vals := make([]int, 0, len(order))
	for _, name := range order {
		vals = append(vals, counts[name])
	}
	return jsonJS(order), jsonJS(vals)
}

func confidenceDisplay(confidence types.Confidence) (label, class string) {
	switch confidence {
	case types.ConfidenceVerified:
		return "verified", "confidence-high"
	case types.ConfidenceHigh:
		return "high", "confidence-high"
	case types.ConfidenceMedium:
		return "medium", "confidence-medium"
	default:
		return "low", "confidence-low"
	}
}

func displayName(profile *types.CompanyProfile) string {
	if profile.Name != "" {
		return profile.Name
	}
	return profile.Domain
}

func orUnknown(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func foundedDisplay(year int) string {
	if year == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d", year)
}

func titleWords(snake string) string {
	words := strings.Split(snake, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// jsonJS marshals a value for direct inclusion in the dashboard's inline
// script. Inputs are server-built slices of plain strings and numbers.
func jsonJS(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return template.JS("[]")
	}
	return template.JS(data) //nolint:gosec // values are not user-controlled markup
}
