package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/research"
	"github.com/jonathan/company-valuator/internal/types"
)

// fakeSearcher serves canned results keyed by date restriction.
type fakeSearcher struct {
	all     []research.Result
	recent  []research.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int64, dateRestrict string) ([]research.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if dateRestrict != "" {
		return f.recent, nil
	}
	return f.all, nil
}

func TestNewsCollector_Collect(t *testing.T) {
	searcher := &fakeSearcher{
		all: []research.Result{
			{Title: "Acme Robotics raises $25 million Series B", Link: "https://news.example/1", Snippet: "funding round led by..."},
			{Title: "Acme announces new warehouse robot", Link: "https://news.example/2"},
			{Title: "Acme revenue doubles", Link: "https://news.example/3"},
			{Title: "Acme partners with retailer", Link: "https://news.example/4"},
			{Title: "Interview with Acme CEO", Link: "https://news.example/5"},
			{Title: "Acme opens Berlin office", Link: "https://news.example/6"},
		},
		recent: []research.Result{
			{Title: "Acme opens Berlin office", Link: "https://news.example/6"},
			{Title: "Acme revenue doubles", Link: "https://news.example/3"},
		},
	}

	c := NewNewsCollector(searcher)
	profile := types.NewCompanyProfile("acme.example", 1)
	profile.Name = "Acme Robotics"

	points, err := c.Collect(context.Background(), profile, 3)
	require.NoError(t, err)

	assert.Equal(t, "6", pointValue(t, points, "news_count"))
	assert.Equal(t, "2", pointValue(t, points, "recent_news_count"))
	assert.Equal(t, "1", pointValue(t, points, "funding_mentions"))
	assert.Equal(t, "$25M", pointValue(t, points, "funding_amount"))

	topics := pointValue(t, points, "news_topics")
	assert.Contains(t, topics, "funding")
	assert.Contains(t, topics, "revenue")

	assert.Equal(t, "Acme Robotics raises $25 million Series B", pointValue(t, points, "news_headline_1"))
	assert.True(t, hasPoint(points, "news_headline_5"))
	assert.False(t, hasPoint(points, "news_headline_6"), "headlines cap at five")

	require.NotEmpty(t, searcher.queries)
	assert.Equal(t, `"Acme Robotics" news`, searcher.queries[0])
}

func TestNewsCollector_NoResults(t *testing.T) {
	c := NewNewsCollector(&fakeSearcher{})
	points, err := c.Collect(context.Background(), types.NewCompanyProfile("acme.example", 1), 3)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestNewsCollector_SearchFailure(t *testing.T) {
	c := NewNewsCollector(&fakeSearcher{err: errors.New("quota exceeded")})
	_, err := c.Collect(context.Background(), types.NewCompanyProfile("acme.example", 1), 3)
	assert.Error(t, err)
}

func TestNewsCollector_FallsBackToDomainLabel(t *testing.T) {
	searcher := &fakeSearcher{}
	c := NewNewsCollector(searcher)

	_, err := c.Collect(context.Background(), types.NewCompanyProfile("acme.example", 1), 3)
	require.NoError(t, err)
	assert.Equal(t, `"acme" news`, searcher.queries[0])
}

func TestExtractFundingAmount(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"raises $25 million Series B", "$25M"},
		{"secures $1.2 billion valuation round", "$1.2B"},
		{"raised 40M in new funding", "$40M"},
		{"no amounts here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractFundingAmount(tt.text), tt.text)
	}
}

func TestNewsCollector_DiscoverSources(t *testing.T) {
	c := NewNewsCollector(&fakeSearcher{})
	profile := types.NewCompanyProfile("acme.example", 1)
	profile.AddDataPoint(types.DataPoint{
		SourceKind:    types.SourceNews,
		Key:           "news_headline_1",
		Value:         "Acme raises $25M",
		SourceLocator: "https://news.example/1",
		Round:         3,
	})
	profile.AddDataPoint(types.DataPoint{
		SourceKind: types.SourceNews,
		Key:        "news_count",
		Value:      "6",
		Round:      3,
	})

	assert.Equal(t, []string{"https://news.example/1"}, c.DiscoverSources(profile))
}
