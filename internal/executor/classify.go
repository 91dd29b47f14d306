package executor

import (
	"errors"
	"strings"

	"solana-razor/internal/domain"
	"solana-razor/internal/pumpportal"
)

// unknownReason is reported when a failed response names no error.
const unknownReason = "Unknown error"

// Classify maps one API call result onto an attempt outcome.
//
//	err wraps pumpportal.ErrRateLimited          -> RateLimited
//	any other err, or nil response               -> TransportError
//	success flag truthy                          -> Success
//	signature present, errors absent or empty    -> Success
//	anything else                                -> RecoverableFailure
//
// The failure reason prefers the joined non-empty errors list over the error field.
func Classify(resp *pumpportal.TradeResponse, err error) domain.Outcome {
	if err != nil {
		if errors.Is(err, pumpportal.ErrRateLimited) {
			return domain.Outcome{Kind: domain.OutcomeRateLimited, Reason: err.Error()}
		}
		return domain.Outcome{Kind: domain.OutcomeTransportError, Reason: err.Error()}
	}
	if resp == nil {
		return domain.Outcome{Kind: domain.OutcomeTransportError, Reason: "empty trade response"}
	}

	if resp.Success || (resp.SignaturePresent && resp.NoErrors()) {
		return domain.Outcome{
			Kind:           domain.OutcomeSuccess,
			Signature:      resp.TransactionID(),
			ReceivedAmount: resp.AmountOut,
		}
	}

	return domain.Outcome{Kind: domain.OutcomeRecoverableFailure, Reason: failureReason(resp)}
}

func failureReason(resp *pumpportal.TradeResponse) string {
	if len(resp.Errors) > 0 {
		return strings.Join(resp.Errors, ", ")
	}
	if resp.Error != "" {
		return resp.Error
	}
	return unknownReason
}

// RotationClassifier decides whether a recoverable failure points at the
// current RPC endpoint, in which case the executor rotates.
type RotationClassifier interface {
	ShouldRotate(reason string) bool
}

// RotationClassifierFunc adapts a function to RotationClassifier.
type RotationClassifierFunc func(reason string) bool

// ShouldRotate calls f(reason).
func (f RotationClassifierFunc) ShouldRotate(reason string) bool {
	return f(reason)
}

// DefaultRotationKeywords are matched against failure reasons by KeywordClassifier.
var DefaultRotationKeywords = []string{"rpc", "timeout"}

// KeywordClassifier rotates when the reason contains any keyword, ignoring case.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier builds a classifier over keywords.
// A nil slice selects DefaultRotationKeywords; an empty non-nil slice never rotates.
func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	if keywords == nil {
		keywords = DefaultRotationKeywords
	}
	list := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			list = append(list, k)
		}
	}
	return &KeywordClassifier{keywords: list}
}

// ShouldRotate reports whether reason mentions one of the keywords.
func (c *KeywordClassifier) ShouldRotate(reason string) bool {
	reason = strings.ToLower(reason)
	for _, k := range c.keywords {
		if strings.Contains(reason, k) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword list.
func (c *KeywordClassifier) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}
