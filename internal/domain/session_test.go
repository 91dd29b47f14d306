package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSessionStats_TradesPerMinute_ZeroElapsed(t *testing.T) {
	stats := NewSessionStats(time.Now())
	stats.Record(true)
	stats.Record(false)

	if got := stats.TradesPerMinute(0); got != 0 {
		t.Errorf("expected 0 TPM at zero elapsed, got %f", got)
	}
	if got := stats.TradesPerMinute(-time.Second); got != 0 {
		t.Errorf("expected 0 TPM at negative elapsed, got %f", got)
	}
}

func TestSessionStats_TradesPerMinute(t *testing.T) {
	stats := NewSessionStats(time.Now())
	for i := 0; i < 10; i++ {
		stats.Record(i%2 == 0)
	}

	if got := stats.TradesPerMinute(30 * time.Second); got != 20 {
		t.Errorf("expected 20 TPM, got %f", got)
	}
}

func TestSessionStats_CountersStayConsistent(t *testing.T) {
	stats := NewSessionStats(time.Now())
	pattern := []bool{true, false, false, true, true, false, true}

	for i, ok := range pattern {
		stats.Record(ok)
		if stats.TotalTrades != stats.SuccessfulTrades+stats.FailedTrades {
			t.Fatalf("after %d records: total %d != success %d + failed %d",
				i+1, stats.TotalTrades, stats.SuccessfulTrades, stats.FailedTrades)
		}
	}

	if stats.TotalTrades != len(pattern) {
		t.Errorf("expected %d total trades, got %d", len(pattern), stats.TotalTrades)
	}
	if stats.SuccessfulTrades != 4 {
		t.Errorf("expected 4 successful trades, got %d", stats.SuccessfulTrades)
	}
}

func TestSessionStats_SuccessRate(t *testing.T) {
	stats := NewSessionStats(time.Now())
	if got := stats.SuccessRate(); got != 0 {
		t.Errorf("expected 0 success rate without trades, got %f", got)
	}

	stats.Record(true)
	stats.Record(true)
	stats.Record(true)
	stats.Record(false)
	if got := stats.SuccessRate(); got != 75 {
		t.Errorf("expected 75%% success rate, got %f", got)
	}
}

func TestAmount_String(t *testing.T) {
	if got := EntireBalance().String(); got != "100%" {
		t.Errorf("expected 100%%, got %s", got)
	}
	if got := FixedAmount(decimal.RequireFromString("0.015")).String(); got != "0.015" {
		t.Errorf("expected 0.015, got %s", got)
	}
}

func TestTradeRequest_WithEndpoint(t *testing.T) {
	req := TradeRequest{Direction: DirectionBuy, Endpoint: "a"}
	next := req.WithEndpoint("b")

	if next.Endpoint != "b" {
		t.Errorf("expected endpoint b, got %s", next.Endpoint)
	}
	if req.Endpoint != "a" {
		t.Errorf("original request mutated: %s", req.Endpoint)
	}
}
