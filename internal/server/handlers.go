package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/company-valuator/internal/db"
	"github.com/jonathan/company-valuator/internal/orchestrator"
)

// ValuationRequest is the request body for starting a valuation run.
type ValuationRequest struct {
	Domain string `json:"domain" validate:"required,min=4"`
	Rounds int    `json:"rounds" validate:"omitempty,min=1,max=10"`
}

// ValuationResponse is returned when a run is accepted.
type ValuationResponse struct {
	RunID  string `json:"run_id"`
	Domain string `json:"domain"`
	Rounds int    `json:"rounds"`
	Status string `json:"status"`
}

// RunStatusResponse is the response for a status lookup.
type RunStatusResponse struct {
	RunID              string  `json:"run_id"`
	Domain             string  `json:"domain"`
	CompanyName        string  `json:"company_name,omitempty"`
	Status             string  `json:"status"`
	Rounds             int     `json:"rounds"`
	EstimatedValuation float64 `json:"estimated_valuation,omitempty"`
	ConfidenceScore    float64 `json:"confidence_score,omitempty"`
	CreatedAt          string  `json:"created_at"`
	CompletedAt        string  `json:"completed_at,omitempty"`
}

// decodeValuationRequest decodes and validates the run request, applying
// the server's default round count.
func (s *Server) decodeValuationRequest(r *http.Request) (*ValuationRequest, error) {
	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%s", extractValidationErrors(err))
	}

	if req.Rounds == 0 {
		req.Rounds = s.defaultRounds
	}
	req.Domain = orchestrator.NormalizeDomain(req.Domain)
	return &req, nil
}

// handleCreateValuation starts a valuation run in the background and
// returns immediately with the run ID.
func (s *Server) handleCreateValuation(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeValuationRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := s.store.CreateRun(r.Context(), req.Domain, req.Rounds)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create run: "+err.Error())
		return
	}

	log.Printf("Starting valuation run %s for %s (%d rounds)", runID, req.Domain, req.Rounds)

	go s.executeRun(context.Background(), runID, req.Domain, req.Rounds, nil)

	s.jsonResponse(w, http.StatusAccepted, ValuationResponse{
		RunID:  runID.String(),
		Domain: req.Domain,
		Rounds: req.Rounds,
		Status: db.StatusRunning,
	})
}

// handleStreamValuation runs a valuation synchronously, streaming round
// progress over SSE before the final complete event.
func (s *Server) handleStreamValuation(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeValuationRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := s.store.CreateRun(r.Context(), req.Domain, req.Rounds)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create run: "+err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("Starting streaming valuation run %s for %s", runID, req.Domain)

	progress := func(message string, currentRound, totalRounds int) {
		sse.WriteProgress(message, currentRound, totalRounds)
	}

	status := s.executeRun(r.Context(), runID, req.Domain, req.Rounds, progress)
	if status != db.StatusCompleted {
		sse.WriteError("valuation run failed")
		return
	}
	sse.WriteComplete(runID.String(), status)
}

// executeRun runs the valuation and persists its outcome. Returns the
// final run status.
func (s *Server) executeRun(ctx context.Context, runID uuid.UUID, domain string, rounds int, progress orchestrator.ProgressFunc) string {
	report, err := s.run(ctx, domain, rounds, progress)
	if err != nil {
		log.Printf("Valuation run %s failed: %v", runID, err)
		if err := s.store.CompleteRun(ctx, runID, db.StatusFailed, nil); err != nil {
			log.Printf("Failed to record run failure for %s: %v", runID, err)
		}
		return db.StatusFailed
	}

	if err := s.store.SaveReport(ctx, runID, report); err != nil {
		log.Printf("Failed to save report for run %s: %v", runID, err)
	}
	if err := s.store.CompleteRun(ctx, runID, db.StatusCompleted, report.Company); err != nil {
		log.Printf("Failed to complete run %s: %v", runID, err)
	}
	return db.StatusCompleted
}

// handleGetValuation returns the status of a run.
func (s *Server) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, runStatusResponse(run))
}

// handleGetReport returns the full valuation report for a run.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	report, err := s.store.GetReport(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if report == nil {
		s.errorResponse(w, http.StatusNotFound, "Report not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleListValuations returns recent runs, optionally filtered by
// domain substring and status.
func (s *Server) handleListValuations(w http.ResponseWriter, r *http.Request) {
	filters := db.RunFilters{
		Domain: r.URL.Query().Get("domain"),
		Status: r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	responses := make([]RunStatusResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, runStatusResponse(&runs[i]))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": responses})
}

// handleDeleteValuation deletes a run and its report.
func (s *Server) handleDeleteValuation(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete run: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseRunID extracts and parses the {id} path value, writing the error
// response itself on failure.
func (s *Server) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Run ID is required")
		return uuid.Nil, false
	}

	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return uuid.Nil, false
	}
	return runID, true
}

// runStatusResponse converts a stored run into its API representation.
func runStatusResponse(run *db.Run) RunStatusResponse {
	resp := RunStatusResponse{
		RunID:              run.ID.String(),
		Domain:             run.Domain,
		CompanyName:        run.CompanyName,
		Status:             run.Status,
		Rounds:             run.Rounds,
		EstimatedValuation: run.EstimatedValuation,
		ConfidenceScore:    run.ConfidenceScore,
		CreatedAt:          run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
