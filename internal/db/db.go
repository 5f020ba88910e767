// Package db provides PostgreSQL persistence for valuation runs and their
// reports.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/company-valuator/internal/types"
)

// schema creates the tables the valuator writes to. Applied idempotently
// on connect by EnsureSchema.
const schema = `
CREATE TABLE IF NOT EXISTS valuation_runs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	domain TEXT NOT NULL,
	company_name TEXT,
	status TEXT NOT NULL,
	rounds INT NOT NULL,
	estimated_valuation DOUBLE PRECISION,
	confidence_score DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS valuation_reports (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	run_id UUID NOT NULL REFERENCES valuation_runs(id) ON DELETE CASCADE,
	report JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id)
);
`

// Run is a persisted valuation run record.
type Run struct {
	ID                 uuid.UUID  `json:"id"`
	Domain             string     `json:"domain"`
	CompanyName        string     `json:"company_name,omitempty"`
	Status             string     `json:"status"`
	Rounds             int        `json:"rounds"`
	EstimatedValuation float64    `json:"estimated_valuation"`
	ConfidenceScore    float64    `json:"confidence_score"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the valuator tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun creates a new valuation run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, domain string, rounds int) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO valuation_runs (domain, rounds, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		domain, rounds, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as finished and records the headline outcome
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, profile *types.CompanyProfile) error {
	name := ""
	valuation := 0.0
	confidence := 0.0
	if profile != nil {
		name = profile.Name
		valuation = profile.EstimatedValuation
		confidence = profile.ConfidenceScore
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE valuation_runs
		 SET status = $1, company_name = $2, estimated_valuation = $3,
		     confidence_score = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, name, valuation, confidence, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveReport stores the full valuation report for a run
func (db *DB) SaveReport(ctx context.Context, runID uuid.UUID, report *types.ValuationReport) error {
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO valuation_reports (run_id, report)
		 VALUES ($1, $2)
		 ON CONFLICT (run_id) DO UPDATE SET report = $2, created_at = NOW()`,
		runID, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a run's report. Returns nil when no report exists.
func (db *DB) GetReport(ctx context.Context, runID uuid.UUID) (*types.ValuationReport, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT report FROM valuation_reports WHERE run_id = $1`,
		runID,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report types.ValuationReport
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// GetRun retrieves a valuation run by ID. Returns nil when not found.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, domain, COALESCE(company_name, ''), status, rounds,
		        COALESCE(estimated_valuation, 0), COALESCE(confidence_score, 0),
		        created_at, completed_at
		 FROM valuation_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Domain, &run.CompanyName, &run.Status, &run.Rounds,
		&run.EstimatedValuation, &run.ConfidenceScore, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Domain string
	Status string
	Limit  int
}

// ListRuns retrieves recent valuation runs with optional filters
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, domain, COALESCE(company_name, ''), status, rounds,
	                 COALESCE(estimated_valuation, 0), COALESCE(confidence_score, 0),
	                 created_at, completed_at
	          FROM valuation_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Domain != "" {
		query += fmt.Sprintf(" AND domain ILIKE $%d", argNum)
		args = append(args, "%"+filters.Domain+"%")
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Domain, &run.CompanyName, &run.Status, &run.Rounds,
			&run.EstimatedValuation, &run.ConfidenceScore, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun deletes a run and its report (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM valuation_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
