package domain

import (
	"github.com/shopspring/decimal"
)

// Direction is the side of a trade request.
type Direction string

// Trade directions accepted by the trade API.
const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// EntireBalanceAmount is the wire form of a sell of the whole held balance.
const EntireBalanceAmount = "100%"

// Amount is either a fixed quantity or the entire held balance.
type Amount struct {
	Value         decimal.Decimal
	EntireBalance bool
}

// FixedAmount returns an amount of exactly v units.
func FixedAmount(v decimal.Decimal) Amount {
	return Amount{Value: v}
}

// EntireBalance returns the "sell everything held" amount.
func EntireBalance() Amount {
	return Amount{EntireBalance: true}
}

// String returns the textual decimal form sent over the wire.
func (a Amount) String() string {
	if a.EntireBalance {
		return EntireBalanceAmount
	}
	return a.Value.String()
}

// TradeRequest is one buy or sell order sent to the trade API.
// Endpoint is the only field that changes between attempts of the same trade.
type TradeRequest struct {
	ID               string // journal trade id
	Direction        Direction
	Mint             string // trimmed token mint address
	Amount           Amount
	DenominatedInSOL bool // true for buys, false for sells
	SlippagePercent  decimal.Decimal
	PriorityFee      decimal.Decimal // SOL
	Endpoint         string          // RPC endpoint the API should submit through
	SkipPreflight    bool
}

// WithEndpoint returns a copy of the request targeting endpoint.
func (r TradeRequest) WithEndpoint(endpoint string) TradeRequest {
	r.Endpoint = endpoint
	return r
}

// Fill is the success payload of one executed trade leg.
type Fill struct {
	TradeID        string
	Direction      Direction
	Mint           string
	Signature      string           // empty when the API did not return one
	ReceivedAmount *decimal.Decimal // amount_out hint, nil when absent
	Endpoint       string           // endpoint of the successful attempt
	Attempts       int
}
