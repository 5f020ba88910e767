package valuation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/company-valuator/internal/types"
)

// employeeRangePattern matches coded bracket strings like "c_00051_00100".
var employeeRangePattern = regexp.MustCompile(`(\d+).*?(\d+)`)

// EstimateEmployeeCount resolves a headcount figure from whichever ledger
// signal is available, in priority order: an explicit or ranged
// linkedin_employees value, then a coded employee_range bracket.
// Unparseable inputs are skipped rather than treated as zero.
func EstimateEmployeeCount(profile *types.CompanyProfile) (int, bool) {
	if raw, ok := profile.LatestValue("linkedin_employees"); ok {
		if n, ok := parseEmployeeValue(raw); ok {
			return n, true
		}
	}

	if raw, ok := profile.LatestValue("employee_range"); ok {
		if m := employeeRangePattern.FindStringSubmatch(raw); m != nil {
			low, errLow := strconv.Atoi(m[1])
			high, errHigh := strconv.Atoi(m[2])
			if errLow == nil && errHigh == nil {
				return (low + high) / 2, true
			}
		}
	}

	return 0, false
}

// parseEmployeeValue handles "1,234" and textual ranges like "201-500",
// returning the midpoint for ranges.
func parseEmployeeValue(raw string) (int, bool) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" {
		return 0, false
	}

	if strings.Contains(value, "-") {
		parts := strings.SplitN(value, "-", 2)
		low, errLow := strconv.Atoi(strings.TrimSpace(parts[0]))
		high, errHigh := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errLow != nil || errHigh != nil {
			return 0, false
		}
		return (low + high) / 2, true
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
