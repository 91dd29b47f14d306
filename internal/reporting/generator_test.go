package reporting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solana-razor/internal/domain"
	"solana-razor/internal/storage/memory"
)

const testSession = "sess-1"

func setupTestData(t *testing.T) (*memory.TradeRecordStore, *memory.AttemptStore) {
	ctx := context.Background()

	tradeStore := memory.NewTradeRecordStore()
	attemptStore := memory.NewAttemptStore()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", SessionID: testSession, Direction: domain.DirectionBuy, Mint: "mintA", Amount: "0.015",
			Endpoint: "https://rpc-a", Signature: "sig1", Success: true, Attempts: 1, StartedAt: 1000, FinishedAt: 1200},
		{TradeID: "t2", SessionID: testSession, Direction: domain.DirectionSell, Mint: "mintA", Amount: "100%",
			Endpoint: "https://rpc-b", Signature: "sig2", Success: true, Attempts: 2, StartedAt: 1300, FinishedAt: 1900},
		{TradeID: "t3", SessionID: testSession, Direction: domain.DirectionBuy, Mint: "mintA", Amount: "0.015",
			Endpoint: "https://rpc-b", Success: false, Attempts: 3, Reason: "slippage, exceeded", StartedAt: 2000, FinishedAt: 2600},
		{TradeID: "other", SessionID: "sess-2", Direction: domain.DirectionBuy, Mint: "mintB", Amount: "0.015",
			Endpoint: "https://rpc-a", Success: true, Attempts: 1, StartedAt: 500, FinishedAt: 600},
	}
	for _, tr := range trades {
		if err := tradeStore.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert trade failed: %v", err)
		}
	}

	attempts := []*domain.AttemptRecord{
		{TradeID: "t1", Attempt: 1, Endpoint: "https://rpc-a", Outcome: "success", LatencyMs: 100},
		{TradeID: "t2", Attempt: 1, Endpoint: "https://rpc-a", Outcome: "rate_limited", Rotated: true, LatencyMs: 40},
		{TradeID: "t2", Attempt: 2, Endpoint: "https://rpc-b", Outcome: "success", LatencyMs: 300},
		{TradeID: "t3", Attempt: 1, Endpoint: "https://rpc-b", Outcome: "recoverable_failure", LatencyMs: 200},
		{TradeID: "t3", Attempt: 2, Endpoint: "https://rpc-b", Outcome: "recoverable_failure", LatencyMs: 250},
		{TradeID: "t3", Attempt: 3, Endpoint: "https://rpc-b", Outcome: "transport_error", LatencyMs: 10},
	}
	if err := attemptStore.InsertBulk(ctx, attempts); err != nil {
		t.Fatalf("InsertBulk attempts failed: %v", err)
	}

	return tradeStore, attemptStore
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
}

func TestGenerate_Legs(t *testing.T) {
	tradeStore, attemptStore := setupTestData(t)
	report, err := NewGenerator(tradeStore, attemptStore).WithClock(fixedClock).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixedClock())
	}
	if len(report.Trades) != 3 {
		t.Fatalf("Expected 3 trades of session, got %d", len(report.Trades))
	}

	legs := report.Legs
	if legs.Buys != 2 || legs.BuysFailed != 1 || legs.Sells != 1 || legs.SellsFailed != 0 {
		t.Errorf("Unexpected legs: %+v", legs)
	}
	if legs.Total() != 3 || legs.Failed() != 1 {
		t.Errorf("Total/Failed = %d/%d, want 3/1", legs.Total(), legs.Failed())
	}
	if legs.FirstStartMs != 1000 || legs.LastEndMs != 2600 {
		t.Errorf("Window = %d..%d, want 1000..2600", legs.FirstStartMs, legs.LastEndMs)
	}
}

func TestGenerate_Endpoints(t *testing.T) {
	tradeStore, attemptStore := setupTestData(t)
	report, err := NewGenerator(tradeStore, attemptStore).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(report.Endpoints) != 2 {
		t.Fatalf("Expected 2 endpoint rows, got %d", len(report.Endpoints))
	}
	a, b := report.Endpoints[0], report.Endpoints[1]
	if a.Endpoint != "https://rpc-a" || a.Legs != 1 || a.Successes != 1 || a.Attempts != 1 {
		t.Errorf("Unexpected row for rpc-a: %+v", a)
	}
	if b.Endpoint != "https://rpc-b" || b.Legs != 2 || b.Successes != 1 || b.Attempts != 5 {
		t.Errorf("Unexpected row for rpc-b: %+v", b)
	}
	if b.SuccessRate() != 50 {
		t.Errorf("SuccessRate = %v, want 50", b.SuccessRate())
	}
}

func TestGenerate_Attempts(t *testing.T) {
	tradeStore, attemptStore := setupTestData(t)
	report, err := NewGenerator(tradeStore, attemptStore).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	a := report.Attempts
	if !a.Available {
		t.Fatal("Expected attempts to be available")
	}
	if a.Total != 6 || a.Rotations != 1 {
		t.Errorf("Total/Rotations = %d/%d, want 6/1", a.Total, a.Rotations)
	}
	if a.ByOutcome["success"] != 2 || a.ByOutcome["recoverable_failure"] != 2 ||
		a.ByOutcome["rate_limited"] != 1 || a.ByOutcome["transport_error"] != 1 {
		t.Errorf("Unexpected outcome counts: %v", a.ByOutcome)
	}

	// sorted: 10 40 100 200 250 300
	l := a.LatencyMs
	if l.Min != 10 || l.Max != 300 || l.P50 != 100 || l.P90 != 300 {
		t.Errorf("Unexpected latency stats: %+v", l)
	}
	if l.Mean != 150 {
		t.Errorf("Mean = %v, want 150", l.Mean)
	}
}

func TestGenerate_WithoutAttemptStore(t *testing.T) {
	tradeStore, _ := setupTestData(t)
	report, err := NewGenerator(tradeStore, nil).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Attempts.Available {
		t.Error("Expected attempts to be unavailable")
	}
	if strings.Contains(RenderMarkdown(report), "## Attempts") {
		t.Error("Markdown should omit the attempts section")
	}
}

func TestGenerate_EmptySession(t *testing.T) {
	report, err := NewGenerator(memory.NewTradeRecordStore(), memory.NewAttemptStore()).Generate(context.Background(), "none")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Legs.Total() != 0 || len(report.Endpoints) != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
	if !strings.Contains(RenderMarkdown(report), "No trades journaled") {
		t.Error("Expected empty-session notice")
	}
}

func TestRenderMarkdown_ContainsSections(t *testing.T) {
	tradeStore, attemptStore := setupTestData(t)
	report, err := NewGenerator(tradeStore, attemptStore).WithClock(fixedClock).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	report.Summary = &domain.SessionSummary{
		SessionID:        testSession,
		Mint:             "mintA",
		DurationSeconds:  60,
		Cycles:           2,
		TotalTrades:      3,
		SuccessfulTrades: 2,
		FailedTrades:     1,
		TradesPerMinute:  3,
		SuccessRate:      66.666,
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Session Report",
		"Session: `sess-1`",
		"Generated: 2024-06-15T10:30:00Z",
		"## Session",
		"| Success Rate | 66.7% |",
		"## Legs",
		"| buy | 2 | 1 |",
		"| sell | 1 | 0 |",
		"## Endpoints",
		"| https://rpc-b | 2 | 1 | 5 | 50.0% |",
		"## Attempts",
		"Total: 6 | Rotations: 1",
		"| rate_limited | 1 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	tradeStore, _ := setupTestData(t)
	trades, err := tradeStore.GetBySession(context.Background(), testSession)
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}

	out, err := RenderCSV(trades)
	if err != nil {
		t.Fatalf("RenderCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,direction,mint,amount") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "t1,buy,mintA,0.015,https://rpc-a,sig1,true,1,,1000,1200" {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
	// reasons containing commas are quoted
	if !strings.Contains(lines[3], `"slippage, exceeded"`) {
		t.Errorf("Expected quoted reason, got: %s", lines[3])
	}
}

func TestWriteFiles(t *testing.T) {
	tradeStore, attemptStore := setupTestData(t)
	report, err := NewGenerator(tradeStore, attemptStore).Generate(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	paths, err := WriteFiles(dir, report)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 files, got %v", paths)
	}
	if filepath.Base(paths[0]) != "session-sess-1.md" || filepath.Base(paths[1]) != "session-sess-1.csv" {
		t.Errorf("Unexpected file names: %v", paths)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile %s: %v", p, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", p)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 50); got != 5 {
		t.Errorf("p50 = %d, want 5", got)
	}
	if got := percentile(sorted, 90); got != 9 {
		t.Errorf("p90 = %d, want 9", got)
	}
	if got := percentile([]int64{42}, 90); got != 42 {
		t.Errorf("p90 of single = %d, want 42", got)
	}
}
