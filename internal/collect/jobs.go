package collect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
)

// jobDepartments maps department labels to the title keywords that place a
// posting there. Ordered so jobs_* emission is deterministic; a posting
// counts toward the first department that matches.
var jobDepartments = []struct {
	name     string
	keywords []string
}{
	{"engineering", []string{"engineer", "developer", "software", "devops", "sre", "backend", "frontend", "fullstack"}},
	{"product", []string{"product"}},
	{"design", []string{"design", "ux", "ui"}},
	{"data", []string{"data", "analyst", "scientist", "machine learning"}},
	{"sales", []string{"sales", "account executive", "business development"}},
	{"marketing", []string{"marketing", "content", "seo", "growth"}},
	{"hr", []string{"recruiter", "talent", "people"}},
	{"finance", []string{"finance", "accounting"}},
	{"customer", []string{"customer", "support", "success"}},
	{"executive", []string{"ceo", "cto", "cfo", "vp ", "director", "head of"}},
}

var seniorTitleKeywords = []string{"senior", "lead", "principal", "staff", "director", "head", "vp", "chief"}

var jobJSONTitlePattern = regexp.MustCompile(`"(?:jobTitle|title)"\s*:\s*"([^"]{5,150})"`)

// JobsCollector scrapes the company's careers page for open positions,
// a direct proxy for hiring-driven growth.
type JobsCollector struct {
	Base
	client *fetch.Client
}

// NewJobsCollector creates a job postings collector.
func NewJobsCollector(client *fetch.Client) *JobsCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &JobsCollector{
		Base:   NewBase("Job Postings Analyzer", types.SourceJobs, 3),
		client: client,
	}
}

// Collect scrapes the careers page located by an earlier round and emits
// posting counts. Without a known careers page there is nothing to measure.
func (c *JobsCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	careersURL, ok := profile.LatestValue("page_careers")
	if !ok || careersURL == "" {
		return nil, nil
	}

	result, err := c.client.Get(ctx, careersURL)
	if err != nil {
		return nil, err
	}

	titles := extractJobTitles(result.Body)

	var points []types.DataPoint
	add := func(key, value string, confidence types.Confidence) {
		points = append(points, c.NewDataPoint(key, value, careersURL, confidence, round))
	}

	add("careers_page_url", careersURL, types.ConfidenceHigh)
	if len(titles) == 0 {
		return points, nil
	}

	add("total_job_postings", fmt.Sprintf("%d", len(titles)), types.ConfidenceMedium)

	for _, dept := range jobDepartments {
		count := 0
		for _, title := range titles {
			if mentionsAny(title, dept.keywords) {
				count++
			}
		}
		if count > 0 {
			add("jobs_"+dept.name, fmt.Sprintf("%d", count), types.ConfidenceMedium)
		}
	}

	remote := 0
	senior := 0
	for _, title := range titles {
		if mentionsAny(title, []string{"remote", "work from home"}) {
			remote++
		}
		if mentionsAny(title, seniorTitleKeywords) {
			senior++
		}
	}
	add("remote_positions", fmt.Sprintf("%d", remote), types.ConfidenceMedium)
	add("senior_positions", fmt.Sprintf("%d", senior), types.ConfidenceMedium)

	return points, nil
}

// DiscoverSources re-surfaces the careers page so later rounds track it.
func (c *JobsCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	for _, dp := range profile.DataBySource(c.Kind()) {
		if dp.Key == "careers_page_url" && dp.Value != "" {
			sources = append(sources, dp.Value)
		}
	}
	return sources
}

// extractJobTitles pulls posting titles from careers-page markup: links and
// headings that reference jobs, plus titles embedded in JSON blobs.
func extractJobTitles(html string) []string {
	seen := make(map[string]bool)
	var titles []string
	record := func(raw string) {
		title := cleanInline(raw)
		if len(title) < 5 || len(title) > 150 {
			return
		}
		key := strings.ToLower(title)
		if !seen[key] {
			seen[key] = true
			titles = append(titles, title)
		}
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find(`a[href*='job'], a[href*='career'], a[href*='position']`).Each(func(_ int, s *goquery.Selection) {
			record(s.Text())
		})
		doc.Find(`h1[class*='job'], h2[class*='job'], h3[class*='job'], h4[class*='job'], li[class*='job'] a`).Each(func(_ int, s *goquery.Selection) {
			record(s.Text())
		})
	}

	for _, m := range jobJSONTitlePattern.FindAllStringSubmatch(html, -1) {
		record(m[1])
	}

	return titles
}
