package valuation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jonathan/company-valuator/internal/types"
)

// Metric categories.
const (
	CategoryWebPresence    = "web_presence"
	CategorySocialPresence = "social_presence"
	CategoryGrowth         = "growth"
	CategoryTechnology     = "technology"
	CategoryFinancial      = "financial"
)

// categoryOrder fixes the emission order of valuation factors so repeated
// synthesis passes over an unchanged ledger produce identical output.
var categoryOrder = []string{
	CategoryWebPresence,
	CategorySocialPresence,
	CategoryGrowth,
	CategoryTechnology,
	CategoryFinancial,
}

// categoryWeights is the fixed policy table for category-level weights.
// Hard financial signals dominate soft presence signals. Absent categories
// simply contribute no factor; present factors keep their table weight.
var categoryWeights = map[string]float64{
	CategoryWebPresence:    0.10,
	CategorySocialPresence: 0.15,
	CategoryGrowth:         0.25,
	CategoryTechnology:     0.15,
	CategoryFinancial:      0.35,
}

// defaultCategoryWeight applies to categories missing from the policy table.
const defaultCategoryWeight = 0.10

// Method confidences for the independent valuation estimation techniques.
const (
	confidenceMarketCap      = 1.0
	confidenceRevenueMult    = 0.8
	confidenceEmployeeBased  = 0.4
	confidenceFundingBased   = 0.5
	fundingValuationMultiple = 4.0 // typical post-money is ~4x the last round
)

// employeeBracket maps a headcount band to a valuation band.
type employeeBracket struct {
	minEmployees int
	maxEmployees int
	lowValuation float64
	highValuation float64
}

var employeeBrackets = []employeeBracket{
	{1, 10, 500_000, 5_000_000},
	{11, 50, 2_000_000, 20_000_000},
	{51, 200, 10_000_000, 100_000_000},
	{201, 500, 50_000_000, 500_000_000},
	{501, 1000, 200_000_000, 2_000_000_000},
	{1001, 5000, 500_000_000, 10_000_000_000},
	{5001, math.MaxInt, 2_000_000_000, 100_000_000_000},
}

// importantPages are the site sections whose presence feeds the website
// completeness metric.
var importantPages = []string{"about", "contact", "careers", "blog", "investors"}

// socialPlatforms are the platforms whose follower counts feed the social
// reach metric.
var socialPlatforms = []string{"linkedin", "twitter", "facebook", "instagram", "github"}

// Analyze runs a full synthesis pass over the profile's ledger: it
// recomputes every metric from scratch, rolls metrics into weighted
// category factors, blends the applicable valuation methods into a point
// estimate with an uncertainty band, and fills still-empty identity
// fields. It is a pure function of the ledger: running it twice on an
// unchanged profile produces identical output.
func Analyze(profile *types.CompanyProfile) {
	profile.Metrics = deriveMetrics(profile)
	profile.ValuationFactors = deriveFactors(profile.Metrics)

	estimate, rng, confidence := estimateValuation(profile)
	profile.EstimatedValuation = estimate
	profile.ValuationRange = rng
	profile.ConfidenceScore = confidence

	fillCompanyInfo(profile)
}

func deriveMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric
	metrics = append(metrics, webMetrics(profile)...)
	metrics = append(metrics, socialMetrics(profile)...)
	metrics = append(metrics, growthMetrics(profile)...)
	metrics = append(metrics, techMetrics(profile)...)
	metrics = append(metrics, financialMetrics(profile)...)
	return metrics
}

func webMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric

	if raw, ok := profile.LatestValue("domain_age_years"); ok {
		if age, err := strconv.ParseFloat(raw, 64); err == nil {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Domain Age Score",
				Value:       clampScore(age * 10), // 10 points per year
				Unit:        "points",
				Category:    CategoryWebPresence,
				Description: "Score based on domain registration age",
				Weight:      0.5,
			})
		}
	}

	// Completeness is only meaningful once the website has been observed;
	// with no website data at all the signal is unmeasured, not zero.
	if len(profile.DataBySource(types.SourceWebsite)) > 0 {
		pageCount := 0
		for _, page := range importantPages {
			if _, ok := profile.LatestValue("page_" + page); ok {
				pageCount++
			}
		}
		metrics = append(metrics, types.CompanyMetric{
			Name:        "Website Completeness",
			Value:       float64(pageCount) / float64(len(importantPages)) * 100,
			Unit:        "percent",
			Category:    CategoryWebPresence,
			Description: "Percentage of important pages present",
			Weight:      0.3,
		})
	}

	return metrics
}

func socialMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric

	totalFollowers := 0
	for _, platform := range socialPlatforms {
		if raw, ok := profile.LatestValue(platform + "_followers"); ok {
			if n, ok := parseEmployeeValue(raw); ok {
				totalFollowers += n
			}
		}
	}

	if totalFollowers > 0 {
		// Follower counts span five-plus orders of magnitude; a log scale
		// keeps mid-size companies distinguishable from the giants.
		score := clampScore(math.Log10(float64(totalFollowers)) * 20)
		metrics = append(metrics, types.CompanyMetric{
			Name:        "Social Media Reach",
			Value:       score,
			Unit:        "points",
			Category:    CategorySocialPresence,
			Description: fmt.Sprintf("Total followers: %d", totalFollowers),
			Weight:      0.6,
		})
	}

	rawStars, hasStars := profile.LatestValue("github_total_stars")
	rawRepos, hasRepos := profile.LatestValue("github_repos")
	if hasStars || hasRepos {
		stars, _ := strconv.Atoi(rawStars)
		repos, _ := strconv.Atoi(rawRepos)
		score := clampScore(math.Log10(math.Max(float64(stars), 1))*15 + float64(repos)*2)
		metrics = append(metrics, types.CompanyMetric{
			Name:        "Open Source Presence",
			Value:       score,
			Unit:        "points",
			Category:    CategorySocialPresence,
			Description: fmt.Sprintf("Stars: %d, Repos: %d", stars, repos),
			Weight:      0.4,
		})
	}

	return metrics
}

func growthMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric

	if raw, ok := profile.LatestValue("total_job_postings"); ok {
		if jobs, err := strconv.Atoi(raw); err == nil {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Hiring Activity",
				Value:       clampScore(float64(jobs) * 5),
				Unit:        "points",
				Category:    CategoryGrowth,
				Description: fmt.Sprintf("Active job postings: %d", jobs),
				Weight:      0.7,
			})
		}
	}

	if raw, ok := profile.LatestValue("jobs_engineering"); ok {
		if eng, err := strconv.Atoi(raw); err == nil {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Engineering Growth",
				Value:       clampScore(float64(eng) * 10),
				Unit:        "points",
				Category:    CategoryGrowth,
				Description: fmt.Sprintf("Engineering positions: %d", eng),
				Weight:      0.5,
			})
		}
	}

	if raw, ok := profile.LatestValue("recent_news_count"); ok {
		if news, err := strconv.Atoi(raw); err == nil {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Media Presence",
				Value:       clampScore(float64(news) * 10),
				Unit:        "points",
				Category:    CategoryGrowth,
				Description: fmt.Sprintf("Recent news mentions: %d", news),
				Weight:      0.4,
			})
		}
	}

	if funding, ok := profile.LatestValue("funding_amount"); ok && funding != "" {
		// Having raised at all is a strong growth signal.
		metrics = append(metrics, types.CompanyMetric{
			Name:        "Funding Raised",
			Value:       100,
			Unit:        "points",
			Category:    CategoryGrowth,
			Description: fmt.Sprintf("Reported funding: %s", funding),
			Weight:      0.8,
		})
	}

	return metrics
}

func techMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric

	if raw, ok := profile.LatestValue("tech_sophistication_score"); ok {
		if score, err := strconv.Atoi(raw); err == nil {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Technology Sophistication",
				Value:       clampScore(float64(score)),
				Unit:        "points",
				Category:    CategoryTechnology,
				Description: "Score based on technologies used",
				Weight:      0.6,
			})
		}
	}

	if ssl, ok := profile.LatestValue("ssl_enabled"); ok && ssl == "true" {
		metrics = append(metrics, types.CompanyMetric{
			Name:        "Security Basics",
			Value:       100,
			Unit:        "points",
			Category:    CategoryTechnology,
			Description: "SSL/HTTPS enabled",
			Weight:      0.3,
		})
	}

	return metrics
}

func financialMetrics(profile *types.CompanyProfile) []types.CompanyMetric {
	var metrics []types.CompanyMetric

	if raw, ok := profile.LatestValue("market_cap"); ok {
		if value, ok := ParseMoney(raw); ok {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Market Capitalization",
				Value:       value,
				Unit:        "USD",
				Category:    CategoryFinancial,
				Description: fmt.Sprintf("Market cap: %s", raw),
				Weight:      1.0,
			})
		}
	}

	if raw, ok := profile.LatestValue("revenue_ttm"); ok {
		if value, ok := ParseMoney(raw); ok {
			metrics = append(metrics, types.CompanyMetric{
				Name:        "Annual Revenue",
				Value:       value,
				Unit:        "USD",
				Category:    CategoryFinancial,
				Description: fmt.Sprintf("TTM Revenue: %s", raw),
				Weight:      0.9,
			})
		}
	}

	return metrics
}

// deriveFactors groups metrics by category and rolls each group into a
// weighted 0-100 factor. Factors are emitted in fixed category order,
// with unknown categories appended in first-appearance order.
func deriveFactors(metrics []types.CompanyMetric) []types.ValuationFactor {
	grouped := make(map[string][]types.CompanyMetric)
	var extraOrder []string
	known := make(map[string]bool, len(categoryOrder))
	for _, c := range categoryOrder {
		known[c] = true
	}

	for _, m := range metrics {
		if _, seen := grouped[m.Category]; !seen && !known[m.Category] {
			extraOrder = append(extraOrder, m.Category)
		}
		grouped[m.Category] = append(grouped[m.Category], m)
	}

	var factors []types.ValuationFactor
	for _, category := range append(append([]string{}, categoryOrder...), extraOrder...) {
		catMetrics := grouped[category]
		if len(catMetrics) == 0 {
			continue
		}

		totalWeight := 0.0
		for _, m := range catMetrics {
			totalWeight += m.Weight
		}

		var score float64
		if totalWeight > 0 {
			for _, m := range catMetrics {
				score += m.Value * m.Weight
			}
			score /= totalWeight
		} else {
			for _, m := range catMetrics {
				score += m.Value
			}
			score /= float64(len(catMetrics))
		}

		weight, ok := categoryWeights[category]
		if !ok {
			weight = defaultCategoryWeight
		}

		factors = append(factors, types.ValuationFactor{
			Name:        titleCategory(category),
			Score:       clampScore(score),
			Weight:      weight,
			Category:    category,
			Description: fmt.Sprintf("Based on %d metrics", len(catMetrics)),
			Metrics:     catMetrics,
		})
	}

	return factors
}

// estimateValuation blends the applicable estimation methods into a
// confidence-weighted point estimate with a fixed ±30% uncertainty band.
// Zero applicable methods is a valid outcome: everything stays zero.
func estimateValuation(profile *types.CompanyProfile) (float64, types.ValuationRange, float64) {
	type method struct {
		estimate   float64
		confidence float64
	}
	var methods []method

	// Method 1: market cap, only public companies with a located ticker.
	if raw, ok := profile.LatestValue("market_cap"); ok {
		if value, ok := ParseMoney(raw); ok && value > 0 {
			methods = append(methods, method{value, confidenceMarketCap})
		}
	}

	// Method 2: revenue multiple, selected by detected industry.
	if raw, ok := profile.LatestValue("revenue_ttm"); ok {
		if revenue, ok := ParseMoney(raw); ok && revenue > 0 {
			multiplier := RevenueMultiplier(DetectIndustry(profile))
			methods = append(methods, method{revenue * multiplier, confidenceRevenueMult})
		}
	}

	// Method 3: employee bracket midpoint. Headcount is a coarse proxy,
	// hence the low confidence.
	if employees, ok := EstimateEmployeeCount(profile); ok && employees > 0 {
		for _, b := range employeeBrackets {
			if employees >= b.minEmployees && employees <= b.maxEmployees {
				methods = append(methods, method{(b.lowValuation + b.highValuation) / 2, confidenceEmployeeBased})
				break
			}
		}
	}

	// Method 4: funding multiple for startups.
	funding, ok := profile.LatestValue("total_funding")
	if !ok {
		funding, ok = profile.LatestValue("news_reported_funding")
	}
	if ok {
		if value, ok := ParseMoney(funding); ok && value > 0 {
			methods = append(methods, method{value * fundingValuationMultiple, confidenceFundingBased})
		}
	}

	if len(methods) == 0 {
		return 0, types.ValuationRange{}, 0
	}

	totalWeight := 0.0
	weightedSum := 0.0
	confidenceSum := 0.0
	for _, m := range methods {
		totalWeight += m.confidence
		weightedSum += m.estimate * m.confidence
		confidenceSum += m.confidence
	}

	estimate := weightedSum / totalWeight
	rng := types.ValuationRange{Low: estimate * 0.7, High: estimate * 1.3}
	confidence := confidenceSum / float64(len(methods))

	return estimate, rng, confidence
}

// fillCompanyInfo populates still-empty identity fields from the ledger.
// First non-empty value wins; fields are never overwritten once set.
func fillCompanyInfo(profile *types.CompanyProfile) {
	if profile.Name == "" {
		if name, ok := profile.LatestValue("company_name"); ok {
			profile.Name = name
		}
	}
	if profile.Description == "" {
		if desc, ok := profile.LatestValue("company_description"); ok {
			profile.Description = desc
		}
	}
	if profile.Industry == "" {
		if industry, ok := profile.LatestValue("linkedin_industry"); ok {
			profile.Industry = industry
		}
	}
	if profile.Headquarters == "" {
		if hq, ok := profile.LatestValue("linkedin_headquarters"); ok {
			profile.Headquarters = hq
		}
	}
	if profile.EmployeeCount == "" {
		if employees, ok := EstimateEmployeeCount(profile); ok && employees > 0 {
			profile.EmployeeCount = strconv.Itoa(employees)
		}
	}
	if profile.FoundedYear == 0 {
		if raw, ok := profile.LatestValue("founded_year"); ok {
			if year, err := strconv.Atoi(raw); err == nil {
				profile.FoundedYear = year
			}
		}
	}
}

func clampScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func titleCategory(category string) string {
	out := []rune{}
	upperNext := true
	for _, r := range category {
		if r == '_' {
			out = append(out, ' ')
			upperNext = true
			continue
		}
		if upperNext && r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		upperNext = false
		out = append(out, r)
	}
	return string(out)
}
