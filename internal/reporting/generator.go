package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage"
)

// Generator builds session reports from stored journal data.
type Generator struct {
	trades   storage.TradeRecordStore
	attempts storage.AttemptStore // optional
	now      func() time.Time
}

// NewGenerator creates a report generator. attempts may be nil.
func NewGenerator(trades storage.TradeRecordStore, attempts storage.AttemptStore) *Generator {
	return &Generator{
		trades:   trades,
		attempts: attempts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads every leg of sessionID and its attempts and builds the report.
// A session without legs yields an empty report, not an error.
func (g *Generator) Generate(ctx context.Context, sessionID string) (*Report, error) {
	trades, err := g.trades.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load trades of session %s: %w", sessionID, err)
	}

	r := &Report{
		GeneratedAt: g.now(),
		SessionID:   sessionID,
		Legs:        summarizeLegs(trades),
		Endpoints:   endpointRows(trades),
		Trades:      trades,
	}

	if g.attempts != nil {
		r.Attempts, err = g.summarizeAttempts(ctx, trades)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func summarizeLegs(trades []*domain.TradeRecord) LegSummary {
	var s LegSummary
	for i, t := range trades {
		switch t.Direction {
		case domain.DirectionBuy:
			s.Buys++
			if !t.Success {
				s.BuysFailed++
			}
		case domain.DirectionSell:
			s.Sells++
			if !t.Success {
				s.SellsFailed++
			}
		}
		if i == 0 || t.StartedAt < s.FirstStartMs {
			s.FirstStartMs = t.StartedAt
		}
		if t.FinishedAt > s.LastEndMs {
			s.LastEndMs = t.FinishedAt
		}
	}
	return s
}

func endpointRows(trades []*domain.TradeRecord) []EndpointRow {
	byEndpoint := make(map[string]*EndpointRow)
	for _, t := range trades {
		row, ok := byEndpoint[t.Endpoint]
		if !ok {
			row = &EndpointRow{Endpoint: t.Endpoint}
			byEndpoint[t.Endpoint] = row
		}
		row.Legs++
		row.Attempts += t.Attempts
		if t.Success {
			row.Successes++
		}
	}

	rows := make([]EndpointRow, 0, len(byEndpoint))
	for _, row := range byEndpoint {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Endpoint < rows[j].Endpoint
	})
	return rows
}

func (g *Generator) summarizeAttempts(ctx context.Context, trades []*domain.TradeRecord) (AttemptSummary, error) {
	s := AttemptSummary{Available: true, ByOutcome: make(map[string]int)}
	var latencies []int64

	for _, t := range trades {
		attempts, err := g.attempts.GetByTradeID(ctx, t.TradeID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return AttemptSummary{}, fmt.Errorf("load attempts of trade %s: %w", t.TradeID, err)
		}
		for _, a := range attempts {
			s.Total++
			s.ByOutcome[a.Outcome]++
			if a.Rotated {
				s.Rotations++
			}
			latencies = append(latencies, a.LatencyMs)
		}
	}

	s.LatencyMs = latencyStats(latencies)
	return s, nil
}

func latencyStats(values []int64) LatencyStats {
	if len(values) == 0 {
		return LatencyStats{}
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, v := range sorted {
		sum += v
	}

	return LatencyStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: float64(sum) / float64(len(sorted)),
		P50:  percentile(sorted, 50),
		P90:  percentile(sorted, 90),
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []int64, p int) int64 {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
