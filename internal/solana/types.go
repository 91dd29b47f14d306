package solana

import "github.com/shopspring/decimal"

// TokenProgramID is the SPL token program that owns fungible token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// TokenBalance is one non-empty token account held by a wallet.
type TokenBalance struct {
	Account  string // token account address
	Mint     string
	Amount   decimal.Decimal // UI amount, already scaled by Decimals
	Decimals int
}

// SignatureStatus is the confirmation result of a submitted transaction.
type SignatureStatus struct {
	Signature string
	Slot      int64
	Err       interface{} // on-chain error, nil when the transaction succeeded
}

// Failed reports whether the transaction landed with an error.
func (s SignatureStatus) Failed() bool {
	return s.Err != nil
}
