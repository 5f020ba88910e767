package collect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
)

// techSignature fingerprints one technology in homepage HTML.
type techSignature struct {
	name     string
	category string
	patterns []*regexp.Regexp
}

func sig(name, category string, patterns ...string) techSignature {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return techSignature{name: name, category: category, patterns: compiled}
}

// techSignatures is ordered so detection output is deterministic.
var techSignatures = []techSignature{
	sig("react", "frontend", `_react`, `__REACT`, `data-reactroot`),
	sig("vue", "frontend", `vue\.js`, `__vue__`, `v-bind`),
	sig("angular", "frontend", `ng-version`, `angular`),
	sig("svelte", "frontend", `svelte`),
	sig("next.js", "frontend", `__NEXT_DATA__`, `/_next/`),
	sig("nuxt", "frontend", `__NUXT__`),
	sig("django", "backend", `csrfmiddlewaretoken`),
	sig("rails", "backend", `csrf-token`, `rails`),
	sig("laravel", "backend", `laravel`),
	sig("wordpress", "cms", `wp-content`, `wp-includes`),
	sig("shopify", "cms", `cdn\.shopify`, `shopify`),
	sig("wix", "cms", `wixstatic`, `wix\.com`),
	sig("squarespace", "cms", `squarespace`),
	sig("webflow", "cms", `webflow`),
	sig("google analytics", "analytics", `google-analytics`, `gtag\(`),
	sig("google tag manager", "analytics", `googletagmanager`),
	sig("mixpanel", "analytics", `mixpanel`),
	sig("amplitude", "analytics", `amplitude`),
	sig("segment", "analytics", `segment\.com`, `analytics\.js`),
	sig("hotjar", "analytics", `hotjar`),
	sig("facebook pixel", "marketing", `fbq\(`, `facebook.*pixel`),
	sig("hubspot", "marketing", `hubspot`, `hs-scripts`),
	sig("cloudflare", "infrastructure", `cloudflare`, `cf-ray`),
	sig("aws", "infrastructure", `amazonaws\.com`),
	sig("google cloud", "infrastructure", `googleapis\.com`, `gstatic`),
	sig("azure", "infrastructure", `azureedge`, `microsoftonline`),
	sig("vercel", "infrastructure", `vercel`),
	sig("netlify", "infrastructure", `netlify`),
	sig("fastly", "infrastructure", `fastly`),
	sig("cloudfront", "infrastructure", `cloudfront\.net`),
	sig("stripe", "payments", `stripe\.com`, `stripe\.js`),
	sig("intercom", "customer_support", `intercom`),
	sig("zendesk", "customer_support", `zendesk`),
	sig("drift", "customer_support", `drift\.com`),
	sig("sentry", "monitoring", `sentry\.io`),
	sig("datadog", "monitoring", `datadoghq`),
}

// techCategoryOrder fixes the emission order of tech_category_* points.
var techCategoryOrder = []string{
	"frontend", "backend", "cms", "analytics", "marketing",
	"infrastructure", "payments", "customer_support", "monitoring",
}

// TechStackCollector fingerprints the technologies visible in homepage
// HTML and scores overall technical sophistication.
type TechStackCollector struct {
	Base
	client *fetch.Client
}

// NewTechStackCollector creates a technology stack collector.
func NewTechStackCollector(client *fetch.Client) *TechStackCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &TechStackCollector{
		Base:   NewBase("Technology Stack Analyzer", types.SourceTechStack, 2),
		client: client,
	}
}

// Collect fetches the homepage, detects technology signatures, and emits
// per-technology, per-category, sophistication, and SSL data points.
func (c *TechStackCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	result, baseURL, err := fetchHomepage(ctx, c.client, profile.Domain)
	if err != nil {
		return nil, err
	}

	detected := detectTechnologies(result.Body)

	var points []types.DataPoint
	add := func(key, value string, confidence types.Confidence) {
		points = append(points, c.NewDataPoint(key, value, baseURL, confidence, round))
	}

	byCategory := make(map[string][]string)
	for _, tech := range detected {
		slug := strings.NewReplacer(" ", "_", ".", "_").Replace(tech.name)
		add("tech_"+slug, "detected", types.ConfidenceHigh)
		byCategory[tech.category] = append(byCategory[tech.category], tech.name)
	}
	for _, category := range techCategoryOrder {
		if names := byCategory[category]; len(names) > 0 {
			add("tech_category_"+category, strings.Join(names, ", "), types.ConfidenceMedium)
		}
	}

	add("tech_sophistication_score", fmt.Sprintf("%d", sophisticationScore(byCategory)), types.ConfidenceMedium)
	add("ssl_enabled", fmt.Sprintf("%t", strings.HasPrefix(baseURL, "https://")), types.ConfidenceHigh)

	return points, nil
}

// DiscoverSources points follow-up collection at the company's GitHub
// organization when the website linked one.
func (c *TechStackCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	if gh, ok := profile.LatestValue("social_github"); ok && gh != "" {
		sources = append(sources, gh)
	}
	return sources
}

func detectTechnologies(html string) []techSignature {
	var detected []techSignature
	for _, s := range techSignatures {
		for _, p := range s.patterns {
			if p.MatchString(html) {
				detected = append(detected, s)
				break
			}
		}
	}
	return detected
}

// sophisticationScore maps the breadth of detected tooling to a 0-100
// score. Each category contributes a fixed slice.
func sophisticationScore(byCategory map[string][]string) int {
	score := 0
	if len(byCategory["frontend"]) > 0 {
		score += 20
	}
	if len(byCategory["infrastructure"]) > 0 {
		score += 25
	}
	if len(byCategory["analytics"]) > 0 {
		score += 10
	}
	if len(byCategory["payments"]) > 0 {
		score += 10
	}
	if len(byCategory["customer_support"]) > 0 {
		score += 10
	}
	if len(byCategory["monitoring"]) > 0 {
		score += 10
	}
	if len(byCategory["marketing"]) > 0 {
		score += 10
	}
	if len(byCategory["cms"]) == 0 {
		// Custom-built sites signal in-house engineering.
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}
