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

const techHomepage = `<html>
<head>
	<script src="https://js.stripe.com/v3/stripe.js"></script>
	<script>gtag('config', 'G-XXXX');</script>
</head>
<body>
	<div id="root" data-reactroot=""></div>
	<script src="https://cdn.cloudflare.com/app.js"></script>
</body>
</html>`

func TestTechStackCollector_Collect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(techHomepage))
	}))
	defer srv.Close()
	domain := strings.TrimPrefix(srv.URL, "http://")

	c := NewTechStackCollector(testFetchClient())
	points, err := c.Collect(context.Background(), types.NewCompanyProfile(domain, 1), 2)
	require.NoError(t, err)

	assert.Equal(t, "detected", pointValue(t, points, "tech_react"))
	assert.Equal(t, "detected", pointValue(t, points, "tech_stripe"))
	assert.Equal(t, "detected", pointValue(t, points, "tech_cloudflare"))
	assert.Equal(t, "react", pointValue(t, points, "tech_category_frontend"))
	assert.Equal(t, "stripe", pointValue(t, points, "tech_category_payments"))
	assert.Equal(t, "google analytics", pointValue(t, points, "tech_category_analytics"))

	// frontend 20 + infrastructure 25 + analytics 10 + payments 10 + no CMS 5
	assert.Equal(t, "70", pointValue(t, points, "tech_sophistication_score"))

	// Plain HTTP test server, so the HTTPS probe failed.
	assert.Equal(t, "false", pointValue(t, points, "ssl_enabled"))

	for _, dp := range points {
		assert.Equal(t, types.SourceTechStack, dp.SourceKind)
	}
}

func TestTechStackCollector_BareSiteScoresLow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>hand written page</p></body></html>`))
	}))
	defer srv.Close()
	domain := strings.TrimPrefix(srv.URL, "http://")

	c := NewTechStackCollector(testFetchClient())
	points, err := c.Collect(context.Background(), types.NewCompanyProfile(domain, 1), 2)
	require.NoError(t, err)

	assert.Equal(t, "5", pointValue(t, points, "tech_sophistication_score"))
	assert.False(t, hasPoint(points, "tech_category_frontend"))
}

func TestTechStackCollector_DiscoverSources(t *testing.T) {
	c := NewTechStackCollector(testFetchClient())
	profile := types.NewCompanyProfile("acme.example", 1)
	assert.Empty(t, c.DiscoverSources(profile))

	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "social_github", Value: "https://github.com/acme", Round: 1})
	assert.Equal(t, []string{"https://github.com/acme"}, c.DiscoverSources(profile))
}
