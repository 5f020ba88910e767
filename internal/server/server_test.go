package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-valuator/internal/db"
	"github.com/jonathan/company-valuator/internal/orchestrator"
	"github.com/jonathan/company-valuator/internal/types"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]*db.Run
	reports map[uuid.UUID]*types.ValuationReport
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:    make(map[uuid.UUID]*db.Run),
		reports: make(map[uuid.UUID]*types.ValuationReport),
	}
}

func (f *fakeStore) CreateRun(_ context.Context, domain string, rounds int) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.runs[id] = &db.Run{ID: id, Domain: domain, Rounds: rounds, Status: db.StatusRunning, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) CompleteRun(_ context.Context, runID uuid.UUID, status string, profile *types.CompanyProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	run.Status = status
	now := time.Now()
	run.CompletedAt = &now
	if profile != nil {
		run.CompanyName = profile.Name
		run.EstimatedValuation = profile.EstimatedValuation
		run.ConfidenceScore = profile.ConfidenceScore
	}
	return nil
}

func (f *fakeStore) SaveReport(_ context.Context, runID uuid.UUID, report *types.ValuationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[runID] = report
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (f *fakeStore) GetReport(_ context.Context, runID uuid.UUID) (*types.ValuationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[runID], nil
}

func (f *fakeStore) ListRuns(_ context.Context, filters db.RunFilters) ([]db.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Run
	for _, run := range f.runs {
		if filters.Status != "" && run.Status != filters.Status {
			continue
		}
		if filters.Domain != "" && !strings.Contains(run.Domain, filters.Domain) {
			continue
		}
		out = append(out, *run)
	}
	return out, nil
}

func (f *fakeStore) DeleteRun(_ context.Context, runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[runID]; !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	delete(f.runs, runID)
	delete(f.reports, runID)
	return nil
}

// runRecorder provides a RunFunc producing a fixed report and recording
// the arguments it was called with.
type runRecorder struct {
	mu     sync.Mutex
	domain string
	rounds int
	called chan struct{}
}

func newRunRecorder() *runRecorder {
	return &runRecorder{called: make(chan struct{}, 1)}
}

func (r *runRecorder) run(_ context.Context, domain string, rounds int, progress orchestrator.ProgressFunc) (*types.ValuationReport, error) {
	r.mu.Lock()
	r.domain = domain
	r.rounds = rounds
	r.mu.Unlock()

	if progress != nil {
		progress("Round 1 complete", 1, rounds)
	}

	profile := types.NewCompanyProfile(domain, rounds)
	profile.Name = "Example Inc"
	profile.EstimatedValuation = 1_000_000_000
	profile.ConfidenceScore = 0.8
	report := types.NewValuationReport(profile)

	select {
	case r.called <- struct{}{}:
	default:
	}
	return report, nil
}

func failingRun(_ context.Context, _ string, _ int, _ orchestrator.ProgressFunc) (*types.ValuationReport, error) {
	return nil, fmt.Errorf("collection failed")
}

func newTestServer(t *testing.T, store Store, run RunFunc) *Server {
	t.Helper()
	s, err := New(Config{Addr: ":0", Store: store, Run: run, DefaultRounds: 3})
	require.NoError(t, err)
	return s
}

func doJSON(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNew_RequiresStoreAndRun(t *testing.T) {
	_, err := New(Config{Addr: ":0"})
	assert.Error(t, err)

	_, err = New(Config{Addr: ":0", Store: newFakeStore()})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCreateValuation(t *testing.T) {
	store := newFakeStore()
	rec := newRunRecorder()
	s := newTestServer(t, store, rec.run)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations", `{"domain": "https://www.Example.com/about", "rounds": 2}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp ValuationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "example.com", resp.Domain, "domain is normalized before the run starts")
	assert.Equal(t, 2, resp.Rounds)
	assert.Equal(t, db.StatusRunning, resp.Status)

	runID, err := uuid.Parse(resp.RunID)
	require.NoError(t, err)

	select {
	case <-rec.called:
	case <-time.After(2 * time.Second):
		t.Fatal("background run never executed")
	}

	require.Eventually(t, func() bool {
		run, _ := store.GetRun(context.Background(), runID)
		return run != nil && run.Status == db.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	run, _ := store.GetRun(context.Background(), runID)
	assert.Equal(t, "Example Inc", run.CompanyName)
	assert.Equal(t, 1_000_000_000.0, run.EstimatedValuation)

	report, _ := store.GetReport(context.Background(), runID)
	require.NotNil(t, report, "report is persisted alongside the run")
}

func TestCreateValuation_DefaultRounds(t *testing.T) {
	store := newFakeStore()
	rec := newRunRecorder()
	s := newTestServer(t, store, rec.run)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations", `{"domain": "example.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-rec.called:
	case <-time.After(2 * time.Second):
		t.Fatal("background run never executed")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 3, rec.rounds)
}

func TestCreateValuation_Validation(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Domain")

	w = doJSON(s, http.MethodPost, "/api/v1/valuations", `{"domain": "example.com", "rounds": 20}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(s, http.MethodPost, "/api/v1/valuations", `{invalid json}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateValuation_FailedRunRecorded(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, failingRun)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations", `{"domain": "example.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp ValuationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	runID := uuid.MustParse(resp.RunID)

	require.Eventually(t, func() bool {
		run, _ := store.GetRun(context.Background(), runID)
		return run != nil && run.Status == db.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamValuation(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations/stream", `{"domain": "example.com", "rounds": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, "Round 1 complete")
	assert.Contains(t, body, "event: complete")
	assert.Contains(t, body, db.StatusCompleted)
}

func TestStreamValuation_Error(t *testing.T) {
	s := newTestServer(t, newFakeStore(), failingRun)

	w := doJSON(s, http.MethodPost, "/api/v1/valuations/stream", `{"domain": "example.com"}`)
	body := w.Body.String()
	assert.Contains(t, body, "event: error")
	assert.NotContains(t, body, "event: complete")
}

func TestGetValuation(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	runID, err := store.CreateRun(context.Background(), "example.com", 3)
	require.NoError(t, err)

	w := doJSON(s, http.MethodGet, "/api/v1/valuations/"+runID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "example.com", resp.Domain)
	assert.Equal(t, db.StatusRunning, resp.Status)
}

func TestGetValuation_NotFound(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodGet, "/api/v1/valuations/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetValuation_InvalidID(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodGet, "/api/v1/valuations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	runID, err := store.CreateRun(context.Background(), "example.com", 1)
	require.NoError(t, err)

	profile := types.NewCompanyProfile("example.com", 1)
	profile.EstimatedValuation = 500_000_000
	require.NoError(t, store.SaveReport(context.Background(), runID, types.NewValuationReport(profile)))

	w := doJSON(s, http.MethodGet, "/api/v1/valuations/"+runID.String()+"/report", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report types.ValuationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 500_000_000.0, report.Company.EstimatedValuation)
}

func TestGetReport_NotFound(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	runID, err := store.CreateRun(context.Background(), "example.com", 1)
	require.NoError(t, err)

	w := doJSON(s, http.MethodGet, "/api/v1/valuations/"+runID.String()+"/report", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListValuations(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	id1, _ := store.CreateRun(context.Background(), "alpha.com", 1)
	_, _ = store.CreateRun(context.Background(), "beta.com", 1)
	require.NoError(t, store.CompleteRun(context.Background(), id1, db.StatusCompleted, nil))

	w := doJSON(s, http.MethodGet, "/api/v1/valuations?status=completed", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Runs []RunStatusResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "alpha.com", resp.Runs[0].Domain)
}

func TestListValuations_InvalidLimit(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodGet, "/api/v1/valuations?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteValuation(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, newRunRecorder().run)

	runID, err := store.CreateRun(context.Background(), "example.com", 1)
	require.NoError(t, err)

	w := doJSON(s, http.MethodDelete, "/api/v1/valuations/"+runID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(s, http.MethodGet, "/api/v1/valuations/"+runID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteValuation_NotFound(t *testing.T) {
	s := newTestServer(t, newFakeStore(), newRunRecorder().run)

	w := doJSON(s, http.MethodDelete, "/api/v1/valuations/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
