package domain

// TradeRecord is the append-only journal entry for one finished trade leg.
type TradeRecord struct {
	TradeID    string // deterministic hash, see idhash.ComputeTradeID
	SessionID  string
	Direction  Direction
	Mint       string
	Amount     string // wire form, e.g. "0.015" or "100%"
	Endpoint   string // endpoint of the last attempt
	Signature  string
	Success    bool
	Attempts   int
	Reason     string // last failure reason, empty on success
	StartedAt  int64  // unix ms
	FinishedAt int64  // unix ms
}

// AttemptRecord is the append-only journal entry for one attempt of a trade leg.
type AttemptRecord struct {
	TradeID   string
	Attempt   int // 1-based
	Direction Direction
	Mint      string
	Endpoint  string
	Outcome   string // OutcomeKind label
	Reason    string
	Rotated   bool // the executor rotated the endpoint after this attempt
	LatencyMs int64
	Timestamp int64 // unix ms
}
