package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"solana-razor/internal/domain"
)

var csvHeader = []string{
	"trade_id", "direction", "mint", "amount", "endpoint", "signature",
	"success", "attempts", "reason", "started_at", "finished_at",
}

// RenderCSV renders trade legs as CSV, one row per leg.
func RenderCSV(trades []*domain.TradeRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, t := range trades {
		row := []string{
			t.TradeID,
			string(t.Direction),
			t.Mint,
			t.Amount,
			t.Endpoint,
			t.Signature,
			strconv.FormatBool(t.Success),
			strconv.Itoa(t.Attempts),
			t.Reason,
			strconv.FormatInt(t.StartedAt, 10),
			strconv.FormatInt(t.FinishedAt, 10),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
