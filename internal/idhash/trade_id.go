// Package idhash derives deterministic journal identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-razor/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(session_id|direction|mint|seq)
// seq is the session-wide leg counter, so a buy and its sell get distinct ids.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	sessionID string,
	direction domain.Direction,
	mint string,
	seq int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		sessionID,
		string(direction),
		mint,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
