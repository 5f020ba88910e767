// Package main provides the entry point for the company valuator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "valuator",
	Short: "Iterative company valuation from public sources",
	Long:  "Valuator collects public signals about a company across multiple rounds (website, domain records, social presence, tech stack, news, jobs, market data) and synthesizes them into a valuation estimate with a confidence score.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
