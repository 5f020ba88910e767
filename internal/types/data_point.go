// Package types provides type definitions for structured data used throughout the company-valuator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// SourceKind identifies the category of public source a data point came from.
type SourceKind string

const (
	// SourceWebsite is the company's own website
	SourceWebsite SourceKind = "website"
	// SourceWhois is domain registration data (WHOIS/RDAP)
	SourceWhois SourceKind = "whois"
	// SourceSocialMedia covers social platforms (LinkedIn, GitHub, X, ...)
	SourceSocialMedia SourceKind = "social_media"
	// SourceNews covers press and news coverage
	SourceNews SourceKind = "news"
	// SourceJobs covers job boards and careers pages
	SourceJobs SourceKind = "jobs"
	// SourceTechStack covers detected technologies
	SourceTechStack SourceKind = "tech_stack"
	// SourceFinancial covers market data and financial filings
	SourceFinancial SourceKind = "financial"
	// SourceReviews covers review platforms
	SourceReviews SourceKind = "reviews"
	// SourcePatents covers patent registries
	SourcePatents SourceKind = "patents"
	// SourceLegal covers legal and regulatory records
	SourceLegal SourceKind = "legal"
)

// Confidence expresses how much trust a collector places in an observation.
type Confidence string

const (
	// ConfidenceLow marks weakly supported observations
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium is the default for scraped values
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh marks observations from authoritative pages
	ConfidenceHigh Confidence = "high"
	// ConfidenceVerified marks observations backed by an official API
	ConfidenceVerified Confidence = "verified"
)

// DataPoint is a single atomic observation with provenance and confidence.
// Data points are immutable once created: collectors append them to the
// profile ledger and nothing ever mutates or removes them. When several
// data points share a key, the most recently appended one wins.
type DataPoint struct {
	SourceKind    SourceKind        `json:"source_kind"`
	SourceLocator string            `json:"source_locator"`
	Key           string            `json:"key"`
	Value         string            `json:"value"`
	Confidence    Confidence        `json:"confidence"`
	CollectedAt   time.Time         `json:"collected_at"`
	Round         int               `json:"round"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}
