// Package valuation derives normalized metrics, category factors, and a
// blended valuation estimate from a company profile's data point ledger.
package valuation

import (
	"fmt"
	"strconv"
	"strings"
)

// moneySuffixes maps magnitude suffixes to their multipliers.
// Ordered largest-first so formatting picks the widest bucket.
var moneySuffixes = []struct {
	suffix string
	mult   float64
}{
	{"T", 1_000_000_000_000},
	{"B", 1_000_000_000},
	{"M", 1_000_000},
	{"K", 1_000},
}

// ParseMoney parses a human-formatted money string such as "$4.0B",
// "12.5M", or "1,250,000" into a dollar amount. The boolean result
// distinguishes "absent or unparseable" from a measured zero.
func ParseMoney(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return 0, false
	}

	value = strings.ReplaceAll(value, "$", "")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimSpace(value)

	upper := strings.ToUpper(value)
	for _, s := range moneySuffixes {
		if strings.HasSuffix(upper, s.suffix) {
			n, err := strconv.ParseFloat(value[:len(value)-1], 64)
			if err != nil {
				return 0, false
			}
			return n * s.mult, true
		}
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatValuation renders a dollar amount for display, e.g. "$4.0B".
func FormatValuation(value float64) string {
	switch {
	case value >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", value/1_000_000_000)
	case value >= 1_000_000:
		return fmt.Sprintf("$%.1fM", value/1_000_000)
	case value >= 1_000:
		return fmt.Sprintf("$%.1fK", value/1_000)
	default:
		return fmt.Sprintf("$%.0f", value)
	}
}
