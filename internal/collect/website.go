package collect

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
)

// importantPages are the site sections probed for on the homepage.
var importantPages = []string{"about", "contact", "careers", "team", "products", "blog", "investors"}

// socialHosts maps a platform name to the host fragments that identify it
// in outbound links.
var socialHosts = []struct {
	platform string
	hosts    []string
}{
	{"linkedin", []string{"linkedin.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"facebook", []string{"facebook.com"}},
	{"instagram", []string{"instagram.com"}},
	{"youtube", []string{"youtube.com"}},
	{"github", []string{"github.com"}},
	{"tiktok", []string{"tiktok.com"}},
	{"telegram", []string{"t.me"}},
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9 ().\-]{7,18}[0-9]`)
)

// WebsiteCollector scrapes the company homepage: identity, contact data,
// social links, and which standard site sections exist.
type WebsiteCollector struct {
	Base
	client     *fetch.Client
	useBrowser bool
}

// NewWebsiteCollector creates a website collector using the given fetch
// client. A nil client uses defaults.
func NewWebsiteCollector(client *fetch.Client) *WebsiteCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &WebsiteCollector{
		Base:   NewBase("Website Analyzer", types.SourceWebsite, 1),
		client: client,
	}
}

// EnableBrowser turns on headless browser re-rendering for homepages that
// come back nearly empty over plain HTTP. Requires a local Chrome.
func (c *WebsiteCollector) EnableBrowser() {
	c.useBrowser = true
}

// Collect scrapes the homepage and emits identity, contact, social, and
// page-presence data points.
func (c *WebsiteCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	result, baseURL, err := fetchHomepage(ctx, c.client, profile.Domain)
	if err != nil {
		return nil, err
	}

	body := result.Body
	if c.useBrowser {
		if text, err := fetch.ExtractMainText(body, fetch.CompanyPageSelectors()); err == nil && fetch.ShouldUseBrowser(text) {
			if rendered, err := fetch.WithBrowser(ctx, baseURL, 30*time.Second, false); err == nil {
				body = rendered
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var points []types.DataPoint
	add := func(key, value string, confidence types.Confidence) {
		if value != "" {
			points = append(points, c.NewDataPoint(key, value, baseURL, confidence, round))
		}
	}

	add("website_title", strings.TrimSpace(doc.Find("title").First().Text()), types.ConfidenceHigh)
	add("meta_description", metaContent(doc, "description"), types.ConfidenceHigh)
	add("company_name", extractCompanyName(doc, profile.Domain), types.ConfidenceMedium)
	if desc := metaContent(doc, "description"); desc != "" {
		add("company_description", desc, types.ConfidenceMedium)
	}

	for _, link := range socialLinks(doc) {
		add("social_"+link.platform, link.url, types.ConfidenceHigh)
	}

	for i, email := range extractEmails(body) {
		if i >= 5 {
			break
		}
		add("email", email, types.ConfidenceMedium)
	}
	for i, phone := range extractPhones(doc.Find("a[href^='tel:'], .phone, footer").Text()) {
		if i >= 3 {
			break
		}
		add("phone", phone, types.ConfidenceLow)
	}
	doc.Find("address").EachWithBreak(func(i int, s *goquery.Selection) bool {
		add("address", cleanInline(s.Text()), types.ConfidenceMedium)
		return i < 1
	})

	for _, page := range importantPages {
		if pageURL := findPageLink(doc, baseURL, page); pageURL != "" {
			add("page_"+page, pageURL, types.ConfidenceHigh)
		}
	}

	return points, nil
}

// DiscoverSources surfaces the social profiles and site sections found on
// the homepage as follow-up sources.
func (c *WebsiteCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	for _, dp := range profile.DataBySource(c.Kind()) {
		if strings.HasPrefix(dp.Key, "social_") || strings.HasPrefix(dp.Key, "page_") {
			sources = append(sources, dp.Value)
		}
	}
	return sources
}

// fetchHomepage retrieves the company homepage, preferring HTTPS and
// falling back to plain HTTP.
func fetchHomepage(ctx context.Context, client *fetch.Client, domain string) (*fetch.Result, string, error) {
	baseURL := "https://" + domain
	result, err := client.Get(ctx, baseURL)
	if err != nil {
		baseURL = "http://" + domain
		result, err = client.Get(ctx, baseURL)
		if err != nil {
			return nil, "", err
		}
	}
	return result, baseURL, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[name='` + name + `']`).First().Attr("content")
	if content == "" {
		content, _ = doc.Find(`meta[property='og:` + name + `']`).First().Attr("content")
	}
	return strings.TrimSpace(content)
}

// extractCompanyName tries the logo alt text, then the first h1, then
// title-cases the domain's first label.
func extractCompanyName(doc *goquery.Document, domain string) string {
	if alt, ok := doc.Find("img[class*='logo'], header img, .logo img").First().Attr("alt"); ok {
		if name := cleanInline(alt); name != "" {
			return name
		}
	}
	if h1 := cleanInline(doc.Find("h1").First().Text()); h1 != "" && len(h1) < 80 {
		return h1
	}
	label := strings.Split(domain, ".")[0]
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

type socialLink struct {
	platform string
	url      string
}

func socialLinks(doc *goquery.Document) []socialLink {
	found := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		parsed, err := url.Parse(href)
		if err != nil || parsed.Host == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		for _, sh := range socialHosts {
			for _, h := range sh.hosts {
				if host == h && found[sh.platform] == "" {
					found[sh.platform] = href
				}
			}
		}
	})

	var links []socialLink
	for _, sh := range socialHosts {
		if u := found[sh.platform]; u != "" {
			links = append(links, socialLink{sh.platform, u})
		}
	}
	return links
}

func extractEmails(html string) []string {
	var emails []string
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(html, -1) {
		lower := strings.ToLower(m)
		// Asset references match the email pattern shape.
		if strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") ||
			strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".gif") {
			continue
		}
		if !seen[lower] {
			seen[lower] = true
			emails = append(emails, m)
		}
	}
	return emails
}

func extractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)
	for _, m := range phonePattern.FindAllString(text, -1) {
		digits := strings.Count(m, "0") + strings.Count(m, "1") + strings.Count(m, "2") +
			strings.Count(m, "3") + strings.Count(m, "4") + strings.Count(m, "5") +
			strings.Count(m, "6") + strings.Count(m, "7") + strings.Count(m, "8") +
			strings.Count(m, "9")
		if digits < 8 || digits > 15 {
			continue
		}
		m = strings.TrimSpace(m)
		if !seen[m] {
			seen[m] = true
			phones = append(phones, m)
		}
	}
	return phones
}

// findPageLink looks for a same-site link to the given section and returns
// its absolute URL.
func findPageLink(doc *goquery.Document, baseURL, page string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		parsed, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Host != base.Host {
			return true
		}
		if strings.Contains(strings.ToLower(resolved.Path), page) {
			found = resolved.String()
			return false
		}
		return true
	})
	return found
}

func cleanInline(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
