// Package research wraps Google Programmable Search for news and page
// discovery queries issued by collectors.
package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Result is a single search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher issues web searches. Collectors depend on this interface so
// tests can substitute a fake.
type Searcher interface {
	// Search returns up to num results for the query. dateRestrict limits
	// results by recency using the API's syntax ("d30", "m1", ...); empty
	// means no restriction.
	Search(ctx context.Context, query string, num int64, dateRestrict string) ([]Result, error)
}

// GoogleSearcher is a Searcher backed by the Custom Search JSON API.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher using the given API key and search
// engine ID.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string) (*GoogleSearcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search implements Searcher.
func (s *GoogleSearcher) Search(ctx context.Context, query string, num int64, dateRestrict string) ([]Result, error) {
	call := s.svc.Cse.List().Cx(s.cx).Q(query).Context(ctx)
	if num > 0 {
		call = call.Num(num)
	}
	if dateRestrict != "" {
		call = call.DateRestrict(dateRestrict)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", query, err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

// CompanyQuery builds a quoted company search query with extra terms.
func CompanyQuery(companyName string, terms ...string) string {
	q := fmt.Sprintf("%q", companyName)
	for _, t := range terms {
		q += " " + t
	}
	return q
}
