// Package observability provides formatted console output for the CLI:
// the run banner, per-round progress, and boxed verbose summaries.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/company-valuator/internal/types"
	"github.com/jonathan/company-valuator/internal/valuation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// progressBarWidth is the character width of the round progress bar
	progressBarWidth = 30
)

// Printer handles formatted console output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBanner outputs the run header with the target domain and round count.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintBanner(domain string, rounds int) {
	border := strings.Repeat("═", boxWidth-2)
	fmt.Fprintf(p.out, "╔%s╗\n", border)
	fmt.Fprintf(p.out, "║ %-*s ║\n", boxWidth-4, "COMPANY VALUATOR")
	fmt.Fprintf(p.out, "║ %-*s ║\n", boxWidth-4, fmt.Sprintf("Target: %s", domain))
	fmt.Fprintf(p.out, "║ %-*s ║\n", boxWidth-4, fmt.Sprintf("Rounds: %d", rounds))
	fmt.Fprintf(p.out, "╚%s╝\n", border)
}

// PrintProgress renders a one-line progress bar for the current round.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(message string, current, total int) {
	if total <= 0 {
		fmt.Fprintf(p.out, "%s\n", message)
		return
	}
	filled := current * progressBarWidth / total
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	fmt.Fprintf(p.out, "[%s] %d/%d  %s\n", bar, current, total, message)
}

// PrintProfileSummary outputs the identity fields gathered for the company.
func (p *Printer) PrintProfileSummary(profile *types.CompanyProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Domain:    %s\n", profile.Domain))
	if profile.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:      %s\n", profile.Name))
	}
	if profile.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry:  %s\n", profile.Industry))
	}
	if profile.Headquarters != "" {
		sb.WriteString(fmt.Sprintf("HQ:        %s\n", profile.Headquarters))
	}
	if profile.EmployeeCount != "" {
		sb.WriteString(fmt.Sprintf("Employees: %s\n", profile.EmployeeCount))
	}
	if profile.FoundedYear != 0 {
		sb.WriteString(fmt.Sprintf("Founded:   %d\n", profile.FoundedYear))
	}
	sb.WriteString(fmt.Sprintf("Data points collected: %d", len(profile.DataPoints)))

	p.printBox("COMPANY PROFILE", sb.String())
}

// PrintFactors outputs the valuation factors with simple score bars.
func (p *Printer) PrintFactors(factors []types.ValuationFactor) {
	if len(factors) == 0 {
		return
	}

	var sb strings.Builder
	for i, f := range factors {
		filled := int(f.Score) / 10
		if filled > 10 {
			filled = 10
		}
		bar := strings.Repeat("■", filled) + strings.Repeat("·", 10-filled)
		sb.WriteString(fmt.Sprintf("%-16s %s %5.1f (w %.2f)", f.Name, bar, f.Score, f.Weight))
		if i < len(factors)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("VALUATION FACTORS", sb.String())
}

// PrintIterations outputs the per-round collection history.
func (p *Printer) PrintIterations(iterations []types.IterationResult) {
	if len(iterations) == 0 {
		return
	}

	var sb strings.Builder
	count := len(iterations)
	if count > maxItemsToShow {
		count = maxItemsToShow
	}
	for i := 0; i < count; i++ {
		it := iterations[i]
		sb.WriteString(fmt.Sprintf("Round %d: %d points from %d sources (%.1fs)\n",
			it.Round, it.DataPointsCollected, len(it.SourcesUsed), it.Duration))
		if len(it.NewSourcesDiscovered) > 0 {
			sb.WriteString(fmt.Sprintf("  discovered %d new sources\n", len(it.NewSourcesDiscovered)))
		}
	}
	if len(iterations) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more rounds\n", len(iterations)-maxItemsToShow))
	}

	p.printBox("COLLECTION ROUNDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValuationSummary outputs the final estimate, range, and confidence.
func (p *Printer) PrintValuationSummary(profile *types.CompanyProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	if profile.EstimatedValuation > 0 {
		sb.WriteString(fmt.Sprintf("Estimated value: %s\n", valuation.FormatValuation(profile.EstimatedValuation)))
		sb.WriteString(fmt.Sprintf("Range:           %s - %s\n",
			valuation.FormatValuation(profile.ValuationRange.Low),
			valuation.FormatValuation(profile.ValuationRange.High)))
		sb.WriteString(fmt.Sprintf("Confidence:      %.0f%%", profile.ConfidenceScore*100))
	} else {
		sb.WriteString("Insufficient data for a valuation estimate.")
	}

	p.printBox("VALUATION", sb.String())
}
