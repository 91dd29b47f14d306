// Package reporting renders per-session trade reports from the journal.
package reporting

import (
	"time"

	"solana-razor/internal/domain"
)

// Report is the journal view of one session.
type Report struct {
	GeneratedAt time.Time
	SessionID   string

	// Summary is the runner's final record. Nil when the report is built
	// from the journal alone.
	Summary *domain.SessionSummary

	Legs      LegSummary
	Attempts  AttemptSummary
	Endpoints []EndpointRow // sorted by endpoint
	Trades    []*domain.TradeRecord
}

// LegSummary counts finished trade legs by direction and result.
type LegSummary struct {
	Buys         int
	BuysFailed   int
	Sells        int
	SellsFailed  int
	FirstStartMs int64
	LastEndMs    int64
}

// Total returns the number of legs.
func (s LegSummary) Total() int {
	return s.Buys + s.Sells
}

// Failed returns the number of exhausted legs.
func (s LegSummary) Failed() int {
	return s.BuysFailed + s.SellsFailed
}

// AttemptSummary aggregates the attempt log. Available is false when no
// attempt store was given.
type AttemptSummary struct {
	Available bool
	Total     int
	Rotations int
	ByOutcome map[string]int
	LatencyMs LatencyStats
}

// LatencyStats describes per-attempt latency in milliseconds.
type LatencyStats struct {
	Min  int64
	Max  int64
	Mean float64
	P50  int64
	P90  int64
}

// EndpointRow is the per-endpoint breakdown of finished legs, keyed by the
// endpoint of each leg's last attempt.
type EndpointRow struct {
	Endpoint  string
	Legs      int
	Successes int
	Attempts  int
}

// SuccessRate returns the successful share of legs in percent.
func (r EndpointRow) SuccessRate() float64 {
	if r.Legs == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Legs) * 100
}
