package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/types"
	"github.com/jonathan/company-valuator/internal/valuation"
)

const defaultQuoteAPIBase = "https://query1.finance.yahoo.com"

// FinancialCollector locates a stock ticker for the company and pulls
// market data; for private companies it falls back to funding signals
// already on the ledger and an employee-based revenue estimate.
type FinancialCollector struct {
	Base
	client *fetch.Client

	// quoteAPIBase overrides the market data endpoint in tests.
	quoteAPIBase string
}

// NewFinancialCollector creates a financial data collector.
func NewFinancialCollector(client *fetch.Client) *FinancialCollector {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	return &FinancialCollector{
		Base:         NewBase("Financial Data Collector", types.SourceFinancial, 4),
		client:       client,
		quoteAPIBase: defaultQuoteAPIBase,
	}
}

type tickerSearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		Shortname string `json:"shortname"`
		Longname  string `json:"longname"`
	} `json:"quotes"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				MarketCap          float64 `json:"marketCap"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			TrailingPE    float64 `json:"trailingPE"`
			TotalRevenue  float64 `json:"totalRevenue"`
			ProfitMargins float64 `json:"profitMargins"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Collect gathers market data when a ticker can be located and always
// folds in funding and estimated-revenue signals.
func (c *FinancialCollector) Collect(ctx context.Context, profile *types.CompanyProfile, round int) ([]types.DataPoint, error) {
	companyName := profile.Name
	if companyName == "" {
		companyName = strings.Split(profile.Domain, ".")[0]
	}

	var points []types.DataPoint

	ticker := c.findTicker(ctx, companyName, profile.Domain)
	if ticker != "" {
		quoteURL := "https://finance.yahoo.com/quote/" + ticker
		points = append(points, c.NewDataPoint("ticker", ticker, "market_search", types.ConfidenceMedium, round))

		var chart chartResponse
		if err := c.client.GetJSON(ctx, c.quoteAPIBase+"/v8/finance/chart/"+ticker+"?interval=1d&range=1d", &chart); err == nil && len(chart.Chart.Result) > 0 {
			meta := chart.Chart.Result[0].Meta
			if meta.MarketCap > 0 {
				points = append(points, c.NewDataPoint("market_cap", formatLargeNumber(meta.MarketCap), quoteURL, types.ConfidenceVerified, round))
			}
			if meta.RegularMarketPrice > 0 {
				points = append(points, c.NewDataPoint("current_price", fmt.Sprintf("%.2f", meta.RegularMarketPrice), quoteURL, types.ConfidenceVerified, round))
			}
			if meta.Currency != "" {
				points = append(points, c.NewDataPoint("currency", meta.Currency, quoteURL, types.ConfidenceVerified, round))
			}
			if meta.ExchangeName != "" {
				points = append(points, c.NewDataPoint("exchange", meta.ExchangeName, quoteURL, types.ConfidenceVerified, round))
			}
		}

		var quote quoteResponse
		if err := c.client.GetJSON(ctx, c.quoteAPIBase+"/v7/finance/quote?symbols="+ticker, &quote); err == nil && len(quote.QuoteResponse.Result) > 0 {
			q := quote.QuoteResponse.Result[0]
			if q.TotalRevenue > 0 {
				points = append(points, c.NewDataPoint("revenue_ttm", formatLargeNumber(q.TotalRevenue), quoteURL, types.ConfidenceVerified, round))
			}
			if q.TrailingPE > 0 {
				points = append(points, c.NewDataPoint("pe_ratio", fmt.Sprintf("%.2f", q.TrailingPE), quoteURL, types.ConfidenceVerified, round))
			}
			if q.ProfitMargins != 0 {
				points = append(points, c.NewDataPoint("profit_margin", fmt.Sprintf("%.1f%%", q.ProfitMargins*100), quoteURL, types.ConfidenceVerified, round))
			}
		}
	}

	// Funding already spotted in news coverage feeds the valuation methods.
	if funding, ok := profile.LatestValue("funding_amount"); ok && funding != "" {
		points = append(points, c.NewDataPoint("news_reported_funding", funding, "news_aggregated", types.ConfidenceLow, round))
	}

	if estimate := estimateRevenueRange(profile); estimate != "" {
		dp := c.NewDataPoint("estimated_revenue_range", estimate, "calculated", types.ConfidenceLow, round)
		dp.Metadata = map[string]string{"method": "signal_based_estimation"}
		points = append(points, dp)
	}

	return points, nil
}

// DiscoverSources points at the ticker's quote page and any investor
// relations page the website collector found.
func (c *FinancialCollector) DiscoverSources(profile *types.CompanyProfile) []string {
	var sources []string
	if ticker, ok := profile.LatestValue("ticker"); ok && ticker != "" {
		sources = append(sources, "https://finance.yahoo.com/quote/"+ticker)
	}
	if investors, ok := profile.LatestValue("page_investors"); ok && investors != "" {
		sources = append(sources, investors)
	}
	return sources
}

// findTicker searches the market symbol directory and matches hits by
// name or domain overlap.
func (c *FinancialCollector) findTicker(ctx context.Context, companyName, domain string) string {
	searchURL := c.quoteAPIBase + "/v1/finance/search?q=" + url.QueryEscape(companyName) + "&quotesCount=5"
	var resp tickerSearchResponse
	if err := c.client.GetJSON(ctx, searchURL, &resp); err != nil {
		return ""
	}

	nameLower := strings.ToLower(companyName)
	domainLabel := strings.ToLower(strings.Split(domain, ".")[0])
	for _, q := range resp.Quotes {
		short := strings.ToLower(q.Shortname)
		if short != "" && (strings.Contains(short, nameLower) || strings.Contains(nameLower, short)) {
			return q.Symbol
		}
		if domainLabel != "" && strings.Contains(strings.ToLower(q.Longname), domainLabel) {
			return q.Symbol
		}
	}
	return ""
}

// estimateRevenueRange derives a coarse revenue band from headcount and
// technical sophistication: revenue per employee scales with how much of
// the product is software.
func estimateRevenueRange(profile *types.CompanyProfile) string {
	employees, ok := valuation.EstimateEmployeeCount(profile)
	if !ok || employees == 0 {
		return ""
	}

	revenuePerEmployee := 200_000.0
	if raw, ok := profile.LatestValue("tech_sophistication_score"); ok {
		var score int
		if _, err := fmt.Sscanf(raw, "%d", &score); err == nil {
			switch {
			case score > 70:
				revenuePerEmployee = 350_000
			case score > 50:
				revenuePerEmployee = 250_000
			}
		}
	}

	estimated := float64(employees) * revenuePerEmployee
	return fmt.Sprintf("$%s - $%s", formatLargeNumber(estimated*0.6), formatLargeNumber(estimated*1.5))
}

// formatLargeNumber renders a magnitude with a K/M/B suffix, the form the
// money parser accepts back.
func formatLargeNumber(n float64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", n/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	default:
		return fmt.Sprintf("%d", int(n))
	}
}
