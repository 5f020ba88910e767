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

const careersHTML = `<html><body>
	<h2>Open positions</h2>
	<ul>
		<li><a href="/jobs/1">Senior Backend Engineer</a></li>
		<li><a href="/jobs/2">Frontend Developer (Remote)</a></li>
		<li><a href="/jobs/3">Product Manager</a></li>
		<li><a href="/jobs/4">Account Executive</a></li>
		<li><a href="/jobs/5">Senior Backend Engineer</a></li>
	</ul>
</body></html>`

func jobsProfile(careersURL string) *types.CompanyProfile {
	p := types.NewCompanyProfile("acme.example", 1)
	if careersURL != "" {
		p.AddDataPoint(types.DataPoint{SourceKind: types.SourceWebsite, Key: "page_careers", Value: careersURL, Round: 1})
	}
	return p
}

func TestJobsCollector_Collect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(careersHTML))
	}))
	defer srv.Close()

	c := NewJobsCollector(testFetchClient())
	points, err := c.Collect(context.Background(), jobsProfile(srv.URL), 3)
	require.NoError(t, err)

	// Duplicate titles collapse, so five links become four postings.
	assert.Equal(t, "4", pointValue(t, points, "total_job_postings"))
	assert.Equal(t, "2", pointValue(t, points, "jobs_engineering"))
	assert.Equal(t, "1", pointValue(t, points, "jobs_product"))
	assert.Equal(t, "1", pointValue(t, points, "jobs_sales"))
	assert.Equal(t, "1", pointValue(t, points, "remote_positions"))
	assert.Equal(t, "1", pointValue(t, points, "senior_positions"))
	assert.Equal(t, srv.URL, pointValue(t, points, "careers_page_url"))
}

func TestJobsCollector_NoCareersPageKnown(t *testing.T) {
	c := NewJobsCollector(testFetchClient())

	points, err := c.Collect(context.Background(), jobsProfile(""), 3)
	require.NoError(t, err)
	assert.Empty(t, points, "nothing to measure without a careers page")
}

func TestJobsCollector_EmptyCareersPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>No openings right now.</p></body></html>`))
	}))
	defer srv.Close()

	c := NewJobsCollector(testFetchClient())
	points, err := c.Collect(context.Background(), jobsProfile(srv.URL), 3)
	require.NoError(t, err)

	assert.True(t, hasPoint(points, "careers_page_url"))
	assert.False(t, hasPoint(points, "total_job_postings"))
}

func TestExtractJobTitles_FromJSONBlob(t *testing.T) {
	titles := extractJobTitles(`<script>{"jobs":[{"jobTitle":"Data Scientist"},{"jobTitle":"Data Scientist"}]}</script>`)
	assert.Equal(t, []string{"Data Scientist"}, titles)
}

func TestJobsCollector_DiscoverSources(t *testing.T) {
	c := NewJobsCollector(testFetchClient())
	profile := types.NewCompanyProfile("acme.example", 1)
	profile.AddDataPoint(types.DataPoint{SourceKind: types.SourceJobs, Key: "careers_page_url", Value: "https://acme.example/careers", Round: 3})

	assert.Equal(t, []string{"https://acme.example/careers"}, c.DiscoverSources(profile))
}
