package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/types"
)

const homepageHTML = `<html>
<head>
	<title>Acme Robotics - Automation for Everyone</title>
	<meta name="description" content="Acme builds warehouse robots.">
</head>
<body>
	<header><img class="logo" src="/logo.svg" alt="Acme Robotics"></header>
	<h1>Automation for Everyone</h1>
	<nav>
		<a href="/about">About us</a>
		<a href="/careers">Careers</a>
		<a href="/blog">Blog</a>
	</nav>
	<footer>
		<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
		<a href="https://github.com/acme">GitHub</a>
		<a href="https://x.com/acme">X</a>
		<a href="mailto:hello@acme.example">hello@acme.example</a>
		<address>1 Main Street, Springfield</address>
	</footer>
</body>
</html>`

func websiteTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(homepageHTML))
	}))
	t.Cleanup(srv.Close)
	return srv, strings.TrimPrefix(srv.URL, "http://")
}

func TestWebsiteCollector_Collect(t *testing.T) {
	_, domain := websiteTestServer(t)

	c := NewWebsiteCollector(testFetchClient())
	profile := types.NewCompanyProfile(domain, 1)

	points, err := c.Collect(context.Background(), profile, 1)
	require.NoError(t, err)

	assert.Equal(t, "Acme Robotics - Automation for Everyone", pointValue(t, points, "website_title"))
	assert.Equal(t, "Acme builds warehouse robots.", pointValue(t, points, "meta_description"))
	assert.Equal(t, "Acme Robotics", pointValue(t, points, "company_name"), "logo alt text wins over h1")
	assert.Equal(t, "https://www.linkedin.com/company/acme", pointValue(t, points, "social_linkedin"))
	assert.Equal(t, "https://github.com/acme", pointValue(t, points, "social_github"))
	assert.Equal(t, "https://x.com/acme", pointValue(t, points, "social_twitter"))
	assert.Equal(t, "hello@acme.example", pointValue(t, points, "email"))
	assert.Equal(t, "1 Main Street, Springfield", pointValue(t, points, "address"))

	assert.Contains(t, pointValue(t, points, "page_about"), "/about")
	assert.Contains(t, pointValue(t, points, "page_careers"), "/careers")
	assert.Contains(t, pointValue(t, points, "page_blog"), "/blog")
	assert.False(t, hasPoint(points, "page_investors"))

	for _, dp := range points {
		assert.Equal(t, types.SourceWebsite, dp.SourceKind)
		assert.Equal(t, 1, dp.Round)
	}
}

func TestWebsiteCollector_UnreachableSite(t *testing.T) {
	c := NewWebsiteCollector(testFetchClient())
	profile := types.NewCompanyProfile("127.0.0.1:1", 1)

	_, err := c.Collect(context.Background(), profile, 1)
	assert.Error(t, err)
}

func TestWebsiteCollector_DiscoverSources(t *testing.T) {
	c := NewWebsiteCollector(testFetchClient())
	profile := types.NewCompanyProfile("acme.example", 1)
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "social_github", Value: "https://github.com/acme", Round: 1})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "page_careers", Value: "https://acme.example/careers", Round: 1})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "website_title", Value: "Acme", Round: 1})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceNews, Key: "social_youtube", Value: "ignored, wrong source", Round: 1})

	sources := c.DiscoverSources(profile)
	assert.Equal(t, []string{"https://github.com/acme", "https://acme.example/careers"}, sources)
}

func TestExtractEmails_SkipsAssetReferences(t *testing.T) {
	emails := extractEmails(`contact sales@acme.example or see hero@2x.png and sales@acme.example again`)
	assert.Equal(t, []string{"sales@acme.example"}, emails)
}
