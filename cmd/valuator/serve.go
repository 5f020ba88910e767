package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-valuator/internal/config"
	"github.com/jonathan/company-valuator/internal/db"
	"github.com/jonathan/company-valuator/internal/orchestrator"
	"github.com/jonathan/company-valuator/internal/server"
	"github.com/jonathan/company-valuator/internal/types"
)

var (
	serveAddr       string
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running valuations and retrieving their reports. Requires PostgreSQL for run persistence.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to :8080)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("addr") {
		cfg.ServerAddr = serveAddr
	}
	cfg = cfg.MergeWithDefaults(config.Config{
		ServerAddr:     ":8080",
		TimeoutSeconds: 30,
		MaxRetries:     3,
	})

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or config 'database_url' is required")
	}
	if cfg.SearchAPIKey == "" {
		cfg.SearchAPIKey = os.Getenv("SEARCH_API_KEY")
	}
	if cfg.SearchCx == "" {
		cfg.SearchCx = os.Getenv("SEARCH_CX")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return err
	}

	run := func(ctx context.Context, domain string, rounds int, progress orchestrator.ProgressFunc) (*types.ValuationReport, error) {
		collectors, err := buildCollectors(ctx, cfg)
		if err != nil {
			return nil, err
		}
		orch := orchestrator.New(collectors, &orchestrator.Options{Progress: progress})
		return orch.Run(ctx, domain, rounds)
	}

	srv, err := server.New(server.Config{
		Addr:          cfg.ServerAddr,
		Store:         database,
		Run:           run,
		DefaultRounds: cfg.Rounds,
	})
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	defer database.Close()
	return srv.Start()
}
