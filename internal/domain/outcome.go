package domain

import (
	"github.com/shopspring/decimal"
)

// OutcomeKind classifies the result of a single trade attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRecoverableFailure
	OutcomeRateLimited
	OutcomeTransportError
)

// String returns the label used in logs, metrics and the attempt journal.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRecoverableFailure:
		return "recoverable_failure"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one attempt.
// Signature and ReceivedAmount are only meaningful for OutcomeSuccess;
// Reason is set for every failure kind.
type Outcome struct {
	Kind           OutcomeKind
	Signature      string
	Reason         string
	ReceivedAmount *decimal.Decimal
}

// Succeeded reports whether the attempt succeeded.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
