package valuation

import (
	"strings"

	"github.com/jonathan/company-valuator/internal/types"
)

// DefaultIndustry is the multiplier bucket used when no industry signal
// can be classified.
const DefaultIndustry = "default"

// revenueMultipliers maps detected industries to revenue-multiple
// valuation multipliers.
var revenueMultipliers = map[string]float64{
	"technology":    8.0,
	"software":      10.0,
	"saas":          12.0,
	"e-commerce":    3.0,
	"fintech":       8.0,
	"healthcare":    4.0,
	"manufacturing": 1.5,
	"retail":        1.0,
	"services":      2.0,
	DefaultIndustry: 3.0,
}

// RevenueMultiplier returns the revenue-multiple for an industry,
// falling back to the default bucket for unknown industries.
func RevenueMultiplier(industry string) float64 {
	if m, ok := revenueMultipliers[industry]; ok {
		return m
	}
	return revenueMultipliers[DefaultIndustry]
}

// DetectIndustry classifies the company into a known multiplier bucket.
// It prefers an explicit linkedin_industry label, then falls back to
// detected technology categories, then to the default bucket.
func DetectIndustry(profile *types.CompanyProfile) string {
	if industry, ok := profile.LatestValue("linkedin_industry"); ok && industry != "" {
		lower := strings.ToLower(industry)
		switch {
		case strings.Contains(lower, "software"), strings.Contains(lower, "saas"):
			return "saas"
		case strings.Contains(lower, "technology"):
			return "technology"
		case strings.Contains(lower, "fintech"), strings.Contains(lower, "financial"):
			return "fintech"
		case strings.Contains(lower, "health"):
			return "healthcare"
		case strings.Contains(lower, "retail"), strings.Contains(lower, "e-commerce"):
			return "e-commerce"
		}
	}

	for _, dp := range profile.DataPoints {
		if strings.HasPrefix(dp.Key, "tech_category_") {
			if strings.Contains(dp.Value, "frontend") || strings.Contains(dp.Value, "backend") {
				return "technology"
			}
		}
	}

	return DefaultIndustry
}
