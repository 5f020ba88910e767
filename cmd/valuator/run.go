package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-valuator/internal/collect"
	"github.com/jonathan/company-valuator/internal/config"
	"github.com/jonathan/company-valuator/internal/db"
	"github.com/jonathan/company-valuator/internal/fetch"
	"github.com/jonathan/company-valuator/internal/insights"
	"github.com/jonathan/company-valuator/internal/observability"
	"github.com/jonathan/company-valuator/internal/orchestrator"
	"github.com/jonathan/company-valuator/internal/report"
	"github.com/jonathan/company-valuator/internal/research"
	"github.com/jonathan/company-valuator/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run <domain>",
	Short: "Run an iterative valuation for a company domain",
	Long: `Collects public data about the company behind the given domain across
multiple rounds and synthesizes a valuation estimate. Each round runs the
eligible collectors concurrently, merges their observations into the data
ledger, and recomputes the valuation.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runValuationCmd,
}

var (
	runConfigPath   string
	runRounds       int
	runOutputDir    string
	runUseBrowser   bool
	runVerbose      bool
	runTimeout      int
	runMaxRetries   int
	runSearchAPIKey string
	runSearchCx     string
	runGeminiAPIKey string
	runDatabaseURL  string
	runNoReports    bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().IntVarP(&runRounds, "rounds", "r", 0, "Number of collection rounds")
	runCommand.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for report files")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")
	runCommand.Flags().IntVar(&runTimeout, "timeout", 0, "Per-request timeout in seconds")
	runCommand.Flags().IntVar(&runMaxRetries, "max-retries", 0, "Fetch retry attempts")
	runCommand.Flags().BoolVar(&runNoReports, "no-reports", false, "Skip writing JSON and HTML report files")

	// External services default to env vars when flags are not set
	runCommand.Flags().StringVar(&runSearchAPIKey, "search-api-key", "", "Google Custom Search API key (defaults to SEARCH_API_KEY env var)")
	runCommand.Flags().StringVar(&runSearchCx, "search-cx", "", "Custom Search engine ID (defaults to SEARCH_CX env var)")
	runCommand.Flags().StringVar(&runGeminiAPIKey, "api-key", "", "Gemini API key for the executive summary (defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// resolveRunConfig loads the optional config file, applies explicitly set
// CLI flags on top, fills remaining gaps from defaults and env vars, and
// validates the result.
func resolveRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("rounds") {
		cfg.Rounds = runRounds
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = runTimeout
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = runMaxRetries
	}
	if cmd.Flags().Changed("search-api-key") {
		cfg.SearchAPIKey = runSearchAPIKey
	}
	if cmd.Flags().Changed("search-cx") {
		cfg.SearchCx = runSearchCx
	}
	if cmd.Flags().Changed("api-key") {
		cfg.GeminiAPIKey = runGeminiAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		OutputDir:      "reports",
		TimeoutSeconds: 30,
		MaxRetries:     3,
	})

	if cfg.SearchAPIKey == "" {
		cfg.SearchAPIKey = os.Getenv("SEARCH_API_KEY")
	}
	if cfg.SearchCx == "" {
		cfg.SearchCx = os.Getenv("SEARCH_CX")
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildCollectors assembles the collector list in priority order. The
// news collector joins only when the search API is configured.
func buildCollectors(ctx context.Context, cfg config.Config) ([]collect.Collector, error) {
	client := fetch.NewClient(&fetch.Options{
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.MaxRetries,
	})

	website := collect.NewWebsiteCollector(client)
	if cfg.UseBrowser {
		website.EnableBrowser()
	}

	collectors := []collect.Collector{
		website,
		collect.NewWhoisCollector(client),
		collect.NewTechStackCollector(client),
		collect.NewSocialCollector(client),
		collect.NewJobsCollector(client),
		collect.NewFinancialCollector(client),
	}

	if cfg.SearchAPIKey != "" && cfg.SearchCx != "" {
		searcher, err := research.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchCx)
		if err != nil {
			return nil, fmt.Errorf("failed to create search client: %w", err)
		}
		collectors = append(collectors, collect.NewNewsCollector(searcher))
	}

	return collectors, nil
}

func runValuationCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	domain := orchestrator.NormalizeDomain(args[0])
	if domain == "" {
		return fmt.Errorf("invalid domain: %q", args[0])
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintBanner(domain, cfg.Rounds)

	collectors, err := buildCollectors(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Verbose && cfg.SearchAPIKey == "" {
		fmt.Println("Note: search API not configured; skipping the news collector.")
	}

	opts := &orchestrator.Options{
		Progress: printer.PrintProgress,
	}
	if cfg.Verbose {
		opts.RoundReport = func(snapshot *types.CompanyProfile, round int) {
			printer.PrintProfileSummary(snapshot)
		}
	}

	orch := orchestrator.New(collectors, opts)
	valuationReport, err := orch.Run(ctx, domain, cfg.Rounds)
	if err != nil {
		return fmt.Errorf("valuation run failed: %w", err)
	}
	profile := valuationReport.Company

	printer.PrintProfileSummary(profile)
	if cfg.Verbose {
		printer.PrintFactors(profile.ValuationFactors)
		printer.PrintIterations(valuationReport.Iterations)
	}
	printer.PrintValuationSummary(profile)

	summary := generateSummary(ctx, cfg, valuationReport)
	if summary != "" {
		fmt.Println()
		fmt.Println(summary)
	}

	if !runNoReports {
		writer := report.NewWriter(cfg.OutputDir)
		jsonPath, err := writer.WriteJSON(valuationReport)
		if err != nil {
			return err
		}
		htmlPath, err := writer.WriteDashboard(valuationReport, summary)
		if err != nil {
			return err
		}
		fmt.Printf("\nReports written:\n  %s\n  %s\n", jsonPath, htmlPath)
	}

	if cfg.DatabaseURL != "" {
		if err := persistRun(ctx, cfg.DatabaseURL, domain, cfg.Rounds, valuationReport); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to persist run: %v\n", err)
		}
	}

	return nil
}

// generateSummary asks Gemini for an executive summary when an API key is
// configured. Failures are reported but never fail the run.
func generateSummary(ctx context.Context, cfg config.Config, valuationReport *types.ValuationReport) string {
	if cfg.GeminiAPIKey == "" {
		return ""
	}

	generator, err := insights.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: summary generation unavailable: %v\n", err)
		return ""
	}
	defer func() { _ = generator.Close() }()

	summary, err := generator.Summarize(ctx, valuationReport)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: summary generation failed: %v\n", err)
		return ""
	}
	return summary
}

// persistRun stores the finished run and its report in PostgreSQL.
func persistRun(ctx context.Context, databaseURL, domain string, rounds int, valuationReport *types.ValuationReport) error {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	runID, err := database.CreateRun(ctx, domain, rounds)
	if err != nil {
		return err
	}
	if err := database.SaveReport(ctx, runID, valuationReport); err != nil {
		return err
	}
	if err := database.CompleteRun(ctx, runID, db.StatusCompleted, valuationReport.Company); err != nil {
		return err
	}

	fmt.Printf("Run persisted: %s\n", runID)
	return nil
}
