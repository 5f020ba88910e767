package collect

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
)

const defaultGitHubAPIBase = "https://api.github.com"

var (
	linkedinFollowerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"followerCount"\s*:\s*(\d+)`),
		regexp.MustCompile(`(?i)([\d,]+)\s*followers`),
	}
	linkedinEmployeePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"staffCount"\s*:\s*(\d+)`),
		regexp.MustCompile(`(?i)([\d,]+(?:-[\d,]+)?)\s*employees`),
	}
	linkedinIndustryPattern = regexp.MustCompile(`"industry"\s*:\s*"([^"]+)"`)
	linkedinHQPattern       = regexp.MustCompile(`"headquarter"\s*:\s*\{[^}]*"city"\s*:\s*"([^"]+)"`)

	twitterFollowerPattern = regexp.MustCompile(`"followers_count"\s*:\s*(\d+)`)
	twitterTweetPattern    = regexp.MustCompile(`"statuses_count"\s*:\s*(\d+)`)

	facebookLikePattern     = regexp.MustCompile(`(?i)([\d,]+)\s*people\s*like\s*this`)
	facebookFollowerPattern = regexp.MustCompile(`(?i)([\d,]+)\s*people\s*follow`)

	instagramFollowerPattern = regexp.MustCompile(`"edge_followed_by"\s*:\s*\{\s*"count"\s*:\s*(\d+)`)
)

// SocialCollector analyzes company presence on social platforms: follower
// counts from profile pages and organization data from the GitHub API.
type SocialCollector struct {
	Base
	client *fetch.Client

	// githubAPIBase overrides the GitHub API endpoint in tests.
	githubAPIBase string
}

// NewSocialCollector creates a social media collector.
func NewSocialCollector(client *fetch.Client) *SocialCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &SocialCollector{
		Base:          NewBase("Social Media Analyzer", types.SourceSocialMedia, 2),
		client:        client,
		githubAPIBase: defaultGitHubAPIBase,
	}
}

// Collect analyzes every social profile URL the ledger already knows
// about. When the website collector found none, it probes conventional
// profile URLs derived from the domain name.
func (c *SocialCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	profiles := c.knownProfiles(profile)
	if len(profiles) == 0 {
		profiles = c.probeProfiles(ctx, profile.Domain)
	}

	var points []types.DataPoint
	for _, p := range profiles {
		switch p.platform {
		case "linkedin":
			points = append(points, c.analyzeLinkedIn(ctx, p.url, round)...)
		case "twitter":
			points = append(points, c.analyzeTwitter(ctx, p.url, round)...)
		case "facebook":
			points = append(points, c.analyzeFacebook(ctx, p.url, round)...)
		case "instagram":
			points = append(points, c.analyzeInstagram(ctx, p.url, round)...)
		case "github":
			points = append(points, c.analyzeGitHub(ctx, p.url, round)...)
		}
	}
	return points, nil
}

// DiscoverSources surfaces the GitHub org blog as a follow-up source.
func (c *SocialCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	for _, dp := range profile.DataBySource(c.Kind()) {
		if dp.Key == "github_blog" && dp.Value != "" {
			sources = append(sources, dp.Value)
		}
	}
	return sources
}

func (c *SocialCollector) knownProfiles(profile *types.CompanyProfile) []socialLink {
	var links []socialLink
	seen := make(map[string]bool)
	for _, dp := range profile.DataPoints {
		if !strings.HasPrefix(dp.Key, "social_") || dp.Value == "" {
			continue
		}
		platform := strings.TrimPrefix(dp.Key, "social_")
		if !seen[platform] {
			seen[platform] = true
			links = append(links, socialLink{platform, dp.Value})
		}
	}
	return links
}

// probeProfiles checks the conventional profile URL on each major platform.
func (c *SocialCollector) probeProfiles(ctx context.Context, domain string) []socialLink {
	handle := strings.Split(domain, ".")[0]
	candidates := []socialLink{
		{"linkedin", "https://www.linkedin.com/company/" + handle},
		{"twitter", "https://x.com/" + handle},
		{"facebook", "https://www.facebook.com/" + handle},
		{"instagram", "https://www.instagram.com/" + handle},
		{"github", "https://github.com/" + handle},
	}

	var found []socialLink
	for _, cand := range candidates {
		result, err := c.client.Get(ctx, cand.url)
		if err != nil || looksLikeMissingPage(result.Body) {
			continue
		}
		found = append(found, cand)
	}
	return found
}

func looksLikeMissingPage(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range []string{"page not found", "doesn't exist", "this page isn't available", "sorry, this page"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (c *SocialCollector) analyzeLinkedIn(ctx context.Context, pageURL string, round int) []types.DataPoint {
	result, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return nil
	}

	var points []types.DataPoint
	if v := firstMatch(linkedinFollowerPatterns, result.Body); v != "" {
		points = append(points, c.NewDataPoint("linkedin_followers", strings.ReplaceAll(v, ",", ""), pageURL, types.ConfidenceMedium, round))
	}
	if v := firstMatch(linkedinEmployeePatterns, result.Body); v != "" {
		points = append(points, c.NewDataPoint("linkedin_employees", v, pageURL, types.ConfidenceMedium, round))
	}
	if m := linkedinIndustryPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("linkedin_industry", m[1], pageURL, types.ConfidenceMedium, round))
	}
	if m := linkedinHQPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("linkedin_headquarters", m[1], pageURL, types.ConfidenceMedium, round))
	}
	return points
}

func (c *SocialCollector) analyzeTwitter(ctx context.Context, pageURL string, round int) []types.DataPoint {
	pageURL = strings.Replace(pageURL, "twitter.com", "x.com", 1)
	result, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return nil
	}

	var points []types.DataPoint
	if m := twitterFollowerPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("twitter_followers", m[1], pageURL, types.ConfidenceMedium, round))
	}
	if m := twitterTweetPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("twitter_tweets", m[1], pageURL, types.ConfidenceMedium, round))
	}
	lower := strings.ToLower(result.Body)
	verified := strings.Contains(lower, `"verified":true`) || strings.Contains(lower, `"is_blue_verified":true`)
	points = append(points, c.NewDataPoint("twitter_verified", fmt.Sprintf("%t", verified), pageURL, types.ConfidenceHigh, round))
	return points
}

func (c *SocialCollector) analyzeFacebook(ctx context.Context, pageURL string, round int) []types.DataPoint {
	result, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return nil
	}

	var points []types.DataPoint
	if m := facebookLikePattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("facebook_likes", strings.ReplaceAll(m[1], ",", ""), pageURL, types.ConfidenceMedium, round))
	}
	if m := facebookFollowerPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("facebook_followers", strings.ReplaceAll(m[1], ",", ""), pageURL, types.ConfidenceMedium, round))
	}
	return points
}

func (c *SocialCollector) analyzeInstagram(ctx context.Context, pageURL string, round int) []types.DataPoint {
	result, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return nil
	}

	var points []types.DataPoint
	if m := instagramFollowerPattern.FindStringSubmatch(result.Body); m != nil {
		points = append(points, c.NewDataPoint("instagram_followers", m[1], pageURL, types.ConfidenceMedium, round))
	}
	return points
}

// githubOrg is the subset of the GitHub organization object we read.
type githubOrg struct {
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Blog        string `json:"blog"`
	Description string `json:"description"`
}

type githubRepo struct {
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
}

func (c *SocialCollector) analyzeGitHub(ctx context.Context, pageURL string, round int) []types.DataPoint {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	org := strings.Split(strings.Trim(parsed.Path, "/"), "/")[0]
	if org == "" {
		return nil
	}

	var points []types.DataPoint
	var orgData githubOrg
	if err := c.client.GetJSON(ctx, c.githubAPIBase+"/orgs/"+org, &orgData); err == nil {
		points = append(points,
			c.NewDataPoint("github_repos", fmt.Sprintf("%d", orgData.PublicRepos), pageURL, types.ConfidenceVerified, round),
			c.NewDataPoint("github_followers", fmt.Sprintf("%d", orgData.Followers), pageURL, types.ConfidenceVerified, round),
		)
		if orgData.Blog != "" {
			points = append(points, c.NewDataPoint("github_blog", orgData.Blog, pageURL, types.ConfidenceVerified, round))
		}
		if orgData.Description != "" {
			points = append(points, c.NewDataPoint("github_description", orgData.Description, pageURL, types.ConfidenceVerified, round))
		}
	}

	var repos []githubRepo
	if err := c.client.GetJSON(ctx, c.githubAPIBase+"/orgs/"+org+"/repos?sort=stars&per_page=5", &repos); err == nil && len(repos) > 0 {
		totalStars := 0
		languageSet := make(map[string]bool)
		for _, r := range repos {
			totalStars += r.StargazersCount
			if r.Language != "" {
				languageSet[r.Language] = true
			}
		}
		points = append(points, c.NewDataPoint("github_total_stars", fmt.Sprintf("%d", totalStars), pageURL, types.ConfidenceVerified, round))

		if len(languageSet) > 0 {
			languages := make([]string, 0, len(languageSet))
			for lang := range languageSet {
				languages = append(languages, lang)
			}
			sort.Strings(languages)
			points = append(points, c.NewDataPoint("github_languages", strings.Join(languages, ", "), pageURL, types.ConfidenceVerified, round))
		}
	}

	return points
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
