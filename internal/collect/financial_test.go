package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/types"
)

func marketDataServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/finance/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Robotics", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"quotes": [
			{"symbol": "ZZZZ", "shortname": "Unrelated Corp", "longname": "Unrelated Corporation"},
			{"symbol": "ACME", "shortname": "Acme Robotics Inc", "longname": "Acme Robotics Incorporated"}
		]}`))
	})
	mux.HandleFunc("/v8/finance/chart/ACME", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [{"meta": {
			"marketCap": 4000000000,
			"regularMarketPrice": 31.5,
			"currency": "USD",
			"exchangeName": "NasdaqGS"
		}}]}}`))
	})
	mux.HandleFunc("/v7/finance/quote", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse": {"result": [{
			"trailingPE": 24.8,
			"totalRevenue": 800000000,
			"profitMargins": 0.125
		}]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFinancialCollector_PublicCompany(t *testing.T) {
	srv := marketDataServer(t)

	c := NewFinancialCollector(testFetchClient())
	c.quoteAPIBase = srv.URL

	profile := types.NewCompanyProfile("acme.example", 1)
	profile.Name = "Acme Robotics"

	points, err := c.Collect(context.Background(), profile, 4)
	require.NoError(t, err)

	assert.Equal(t, "ACME", pointValue(t, points, "ticker"))
	assert.Equal(t, "4.0B", pointValue(t, points, "market_cap"))
	assert.Equal(t, "31.50", pointValue(t, points, "current_price"))
	assert.Equal(t, "USD", pointValue(t, points, "currency"))
	assert.Equal(t, "NasdaqGS", pointValue(t, points, "exchange"))
	assert.Equal(t, "800.0M", pointValue(t, points, "revenue_ttm"))
	assert.Equal(t, "24.80", pointValue(t, points, "pe_ratio"))
	assert.Equal(t, "12.5%", pointValue(t, points, "profit_margin"))
}

func TestFinancialCollector_NoTickerMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quotes": []}`))
	}))
	defer srv.Close()

	c := NewFinancialCollector(testFetchClient())
	c.quoteAPIBase = srv.URL

	profile := types.NewCompanyProfile("acme.example", 1)
	points, err := c.Collect(context.Background(), profile, 4)
	require.NoError(t, err)
	assert.False(t, hasPoint(points, "ticker"))
	assert.False(t, hasPoint(points, "market_cap"))
}

func TestFinancialCollector_PrivateCompanySignals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quotes": []}`))
	}))
	defer srv.Close()

	c := NewFinancialCollector(testFetchClient())
	c.quoteAPIBase = srv.URL

	profile := types.NewCompanyProfile("acme.example", 1)
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceNews, Key: "funding_amount", Value: "$25M", Round: 3})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceSocialMedia, Key: "linkedin_employees", Value: "100", Round: 2})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceTechStack, Key: "tech_sophistication_score", Value: "75", Round: 2})

	points, err := c.Collect(context.Background(), profile, 4)
	require.NoError(t, err)

	assert.Equal(t, "$25M", pointValue(t, points, "news_reported_funding"))
	// 100 employees at $350k each (high sophistication), banded 0.6x-1.5x.
	assert.Equal(t, "$21.0M - $52.5M", pointValue(t, points, "estimated_revenue_range"))
}

func TestFormatLargeNumber(t *testing.T) {
	assert.Equal(t, "4.0B", formatLargeNumber(4_000_000_000))
	assert.Equal(t, "2.5M", formatLargeNumber(2_500_000))
	assert.Equal(t, "1.2K", formatLargeNumber(1_200))
	assert.Equal(t, "900", formatLargeNumber(900))
}

func TestFinancialCollector_DiscoverSources(t *testing.T) {
	c := NewFinancialCollector(testFetchClient())
	profile := types.NewCompanyProfile("acme.example", 1)
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceFinancial, Key: "ticker", Value: "ACME", Round: 4})
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "page_investors", Value: "https://acme.example/investors", Round: 1})

	assert.Equal(t, []string{
		"https://finance.yahoo.com/quote/ACME",
		"https://acme.example/investors",
	}, c.DiscoverSources(profile))
}
