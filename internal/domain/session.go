package domain

import "time"

// SessionStats holds cumulative trade counters for one session.
// Counters only grow; TotalTrades always equals SuccessfulTrades + FailedTrades.
type SessionStats struct {
	TotalTrades      int
	SuccessfulTrades int
	FailedTrades     int
	StartTime        time.Time
}

// NewSessionStats returns zeroed stats starting at start.
func NewSessionStats(start time.Time) SessionStats {
	return SessionStats{StartTime: start}
}

// Record counts one finished trade leg.
func (s *SessionStats) Record(success bool) {
	s.TotalTrades++
	if success {
		s.SuccessfulTrades++
	} else {
		s.FailedTrades++
	}
}

// TradesPerMinute returns total trades scaled to a per-minute rate over elapsed.
// Returns 0 when elapsed is not positive.
func (s SessionStats) TradesPerMinute(elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.TotalTrades) / secs * 60
}

// SuccessRate returns the successful share of trades in percent.
func (s SessionStats) SuccessRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.SuccessfulTrades) / float64(s.TotalTrades) * 100
}

// SessionSummary is the final record of a session run.
type SessionSummary struct {
	SessionID        string  `json:"session_id"`
	Mint             string  `json:"mint"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Cycles           int     `json:"cycles"`
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"successful_trades"`
	FailedTrades     int     `json:"failed_trades"`
	TradesPerMinute  float64 `json:"trades_per_minute"`
	SuccessRate      float64 `json:"success_rate"`
	Interrupted      bool    `json:"interrupted"`
}
