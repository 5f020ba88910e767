package collect

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/company-valuator/internal/research"
	"github.com/jonathan/company-valuator/internal/types"
)

const newsResultLimit = 10

var fundingAmountPattern = regexp.MustCompile(`(?i)\$?(\d+(?:\.\d+)?)\s*(million|billion|M|B)\b`)

// newsTopics maps a topic label to the headline keywords that signal it.
// Ordered so topic emission is deterministic.
var newsTopics = []struct {
	topic    string
	keywords []string
}{
	{"funding", []string{"funding", "raised", "investment", "series"}},
	{"product", []string{"launch", "release", "announces", "new product"}},
	{"expansion", []string{"expand", "growth", "new market"}},
	{"partnership", []string{"partner", "collaboration", "deal"}},
	{"acquisition", []string{"acquire", "merger", "bought"}},
	{"ipo", []string{"ipo", "public offering", "listing"}},
	{"layoffs", []string{"layoff", "job cut"}},
	{"leadership", []string{"ceo", "cto", "appoints"}},
	{"revenue", []string{"revenue", "profit", "earnings"}},
}

// NewsCollector measures press coverage through web search: overall and
// recent mention counts, dominant topics, reported funding, and headlines.
type NewsCollector struct {
	Base
	searcher research.Searcher
}

// NewNewsCollector creates a news collector backed by the given searcher.
func NewNewsCollector(searcher research.Searcher) *NewsCollector {
	return &NewsCollector{
		Base:     NewBase("News & Press Collector", types.SourceNews, 3),
		searcher: searcher,
	}
}

// Collect searches for company news and emits coverage data points.
func (c *NewsCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	companyName := profile.Name
	if companyName == "" {
		companyName = strings.Split(profile.Domain, ".")[0]
	}

	items, err := c.searcher.Search(ctx, research.CompanyQuery(companyName, "news"), newsResultLimit, "")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var points []types.DataPoint
	points = append(points, c.NewDataPoint("news_count", fmt.Sprintf("%d", len(items)), "aggregated", types.ConfidenceHigh, round))

	// A second, recency-restricted query measures current momentum.
	recent, err := c.searcher.Search(ctx, research.CompanyQuery(companyName, "news"), newsResultLimit, "m1")
	if err == nil {
		points = append(points, c.NewDataPoint("recent_news_count", fmt.Sprintf("%d", len(recent)), "aggregated", types.ConfidenceMedium, round))
	}

	if topics := extractTopics(items); len(topics) > 0 {
		points = append(points, c.NewDataPoint("news_topics", strings.Join(topics, ", "), "aggregated", types.ConfidenceMedium, round))
	}

	fundingHits := 0
	for _, item := range items {
		if !mentionsAny(item.Title, newsTopics[0].keywords) {
			continue
		}
		fundingHits++
		if amount := extractFundingAmount(item.Title + " " + item.Snippet); amount != "" {
			dp := c.NewDataPoint("funding_amount", amount, item.Link, types.ConfidenceLow, round)
			dp.Metadata = map[string]string{"title": item.Title}
			points = append(points, dp)
		}
	}
	if fundingHits > 0 {
		points = append(points, c.NewDataPoint("funding_mentions", fmt.Sprintf("%d", fundingHits), "aggregated", types.ConfidenceMedium, round))
	}

	for i, item := range items {
		if i >= 5 {
			break
		}
		title := item.Title
		if len(title) > 200 {
			title = title[:200]
		}
		points = append(points, c.NewDataPoint(fmt.Sprintf("news_headline_%d", i+1), title, item.Link, types.ConfidenceHigh, round))
	}

	return points, nil
}

// DiscoverSources surfaces headline article URLs for deeper analysis.
func (c *NewsCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	for _, dp := range profile.DataBySource(c.Kind()) {
		if strings.HasPrefix(dp.Key, "news_headline_") && dp.SourceLocator != "" {
			sources = append(sources, dp.SourceLocator)
		}
	}
	return sources
}

// extractTopics buckets headlines by keyword and returns topics sorted by
// frequency, ties broken by bucket order.
func extractTopics(items []research.Result) []string {
	counts := make(map[string]int)
	for _, item := range items {
		for _, t := range newsTopics {
			if mentionsAny(item.Title, t.keywords) {
				counts[t.topic]++
			}
		}
	}

	var topics []string
	for _, t := range newsTopics {
		if counts[t.topic] > 0 {
			topics = append(topics, t.topic)
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return counts[topics[i]] > counts[topics[j]]
	})
	return topics
}

func mentionsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractFundingAmount normalizes a funding mention to $<n>M or $<n>B.
func extractFundingAmount(text string) string {
	m := fundingAmountPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	switch strings.ToLower(m[2]) {
	case "million", "m":
		return "$" + m[1] + "M"
	case "billion", "b":
		return "$" + m[1] + "B"
	}
	return "$" + m[1]
}
