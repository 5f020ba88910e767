// Package server provides the HTTP REST API for the company valuator.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/company-valuator/internal/db"
	"github.com/jonathan/company-valuator/internal/orchestrator"
	"github.com/jonathan/company-valuator/internal/types"
)

// Store is the persistence surface the handlers need. *db.DB satisfies it.
type Store interface {
	CreateRun(ctx context.Context, domain string, rounds int) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, profile *types.CompanyProfile) error
	SaveReport(ctx context.Context, runID uuid.UUID, report *types.ValuationReport) error
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	GetReport(ctx context.Context, runID uuid.UUID) (*types.ValuationReport, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// RunFunc executes one valuation run. The server owns persistence; the
// function only collects and synthesizes.
type RunFunc func(ctx context.Context, domain string, rounds int, progress orchestrator.ProgressFunc) (*types.ValuationReport, error)

// Config holds server configuration
type Config struct {
	Addr          string
	Store         Store
	Run           RunFunc
	DefaultRounds int
}

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	store         Store
	run           RunFunc
	defaultRounds int
	validator     *validator.Validate
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("a store is required")
	}
	if cfg.Run == nil {
		return nil, fmt.Errorf("a run function is required")
	}
	if cfg.DefaultRounds <= 0 {
		cfg.DefaultRounds = 3
	}

	s := &Server{
		store:         cfg.Store,
		run:           cfg.Run,
		defaultRounds: cfg.DefaultRounds,
		validator:     validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/valuations", s.handleCreateValuation)
	mux.HandleFunc("POST /api/v1/valuations/stream", s.handleStreamValuation)
	mux.HandleFunc("GET /api/v1/valuations", s.handleListValuations)
	mux.HandleFunc("GET /api/v1/valuations/{id}", s.handleGetValuation)
	mux.HandleFunc("GET /api/v1/valuations/{id}/report", s.handleGetReport)
	mux.HandleFunc("DELETE /api/v1/valuations/{id}", s.handleDeleteValuation)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Streaming runs hold the connection open
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests and blocks until an interrupt
// triggers graceful shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Handler exposes the configured handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
