package types

import "time"

// CompanyMetric is a derived, normalized numeric signal computed from the
// data point ledger. Metrics are recomputed from scratch on every synthesis
// pass, so they never drift from the ledger's current state.
type CompanyMetric struct {
	Name        string      `json:"name"`
	Value       float64     `json:"value"`
	Unit        string      `json:"unit"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Weight      float64     `json:"weight"`
	DataPoints  []DataPoint `json:"data_points,omitempty"`
}

// ValuationFactor aggregates one category's metrics into a 0-100 score with
// a policy-assigned category weight.
type ValuationFactor struct {
	Name        string          `json:"name"`
	Score       float64         `json:"score"`
	Weight      float64         `json:"weight"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Metrics     []CompanyMetric `json:"metrics,omitempty"`
}

// ValuationRange is the uncertainty band around the point estimate.
type ValuationRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// CompanyProfile is the aggregate root for a valuation run. Collectors
// append to the ledger, the synthesis engine replaces the derived fields
// (metrics, factors, valuation), and the orchestrator advances the round
// counters. Identity fields are populated at most once: the first non-empty
// value wins and is never overwritten.
type CompanyProfile struct {
	Domain        string `json:"domain"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	Industry      string `json:"industry,omitempty"`
	FoundedYear   int    `json:"founded_year,omitempty"`
	Headquarters  string `json:"headquarters,omitempty"`
	EmployeeCount string `json:"employee_count,omitempty"`

	DataPoints       []DataPoint       `json:"data_points"`
	Metrics          []CompanyMetric   `json:"metrics"`
	ValuationFactors []ValuationFactor `json:"valuation_factors"`

	EstimatedValuation float64        `json:"estimated_valuation"`
	ValuationRange     ValuationRange `json:"valuation_range"`
	ConfidenceScore    float64        `json:"confidence_score"`

	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CurrentRound int       `json:"current_round"`
	TotalRounds  int       `json:"total_rounds"`
}

// NewCompanyProfile creates an empty profile for a normalized domain.
func NewCompanyProfile(domain string, totalRounds int) *CompanyProfile {
	now := time.Now()
	return &CompanyProfile{
		Domain:      domain,
		CreatedAt:   now,
		UpdatedAt:   now,
		TotalRounds: totalRounds,
	}
}

// AddDataPoint appends an observation to the ledger.
func (p *CompanyProfile) AddDataPoint(dp DataPoint) {
	p.DataPoints = append(p.DataPoints, dp)
	p.UpdatedAt = time.Now()
}

// LatestValue returns the most recently appended value for a key.
// Conflicts resolve by append order, not by timestamp.
func (p *CompanyProfile) LatestValue(key string) (string, bool) {
	for i := len(p.DataPoints) - 1; i >= 0; i-- {
		if p.DataPoints[i].Key == key {
			return p.DataPoints[i].Value, true
		}
	}
	return "", false
}

// DataBySource returns all data points collected from one kind of source.
func (p *CompanyProfile) DataBySource(kind SourceKind) []DataPoint {
	var out []DataPoint
	for _, dp := range p.DataPoints {
		if dp.SourceKind == kind {
			out = append(out, dp)
		}
	}
	return out
}

// DataByRound returns all data points produced in a given round.
func (p *CompanyProfile) DataByRound(round int) []DataPoint {
	var out []DataPoint
	for _, dp := range p.DataPoints {
		if dp.Round == round {
			out = append(out, dp)
		}
	}
	return out
}

// Snapshot returns a copy of the profile safe to hand to concurrently
// running collectors. The ledger slice is copied; individual data points
// are immutable records, so sharing them is safe.
func (p *CompanyProfile) Snapshot() *CompanyProfile {
	cp := *p
	cp.DataPoints = append([]DataPoint(nil), p.DataPoints...)
	cp.Metrics = append([]CompanyMetric(nil), p.Metrics...)
	cp.ValuationFactors = append([]ValuationFactor(nil), p.ValuationFactors...)
	return &cp
}
