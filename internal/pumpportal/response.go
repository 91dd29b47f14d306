package pumpportal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeResponse is the decoded body of a 2xx /trade response.
// The API answers with several shapes, so presence of a field is tracked
// separately from its value.
type TradeResponse struct {
	// Success is the truthiness of the "success" field; false when absent.
	Success bool

	// SignaturePresent reports whether a "signature" key exists, whatever its value.
	SignaturePresent bool
	Signature        string
	TxID             string

	// ErrorsPresent reports whether an "errors" key exists. Errors is non-nil
	// only when that value is a list; its items are rendered as text.
	ErrorsPresent bool
	Errors        []string

	// Error is the "error" field rendered as text, empty when absent.
	Error string

	// AmountOut is the received-amount hint, nil when absent or unparsable.
	AmountOut *decimal.Decimal
}

// NoErrors reports whether "errors" is absent or an empty list.
func (r *TradeResponse) NoErrors() bool {
	return !r.ErrorsPresent || (r.Errors != nil && len(r.Errors) == 0)
}

// TransactionID returns txid when present, otherwise the signature.
func (r *TradeResponse) TransactionID() string {
	if r.TxID != "" {
		return r.TxID
	}
	return r.Signature
}

// ParseTradeResponse decodes a /trade body. The body must be a JSON object.
func ParseTradeResponse(body []byte) (*TradeResponse, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is null", ErrMalformedResponse)
	}

	resp := &TradeResponse{}

	if raw, ok := fields["success"]; ok {
		v, err := decodeAny(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: success: %v", ErrMalformedResponse, err)
		}
		resp.Success = truthy(v)
	}

	if raw, ok := fields["signature"]; ok {
		resp.SignaturePresent = true
		resp.Signature = textOf(raw)
	}

	if raw, ok := fields["txid"]; ok {
		resp.TxID = textOf(raw)
	}

	if raw, ok := fields["errors"]; ok {
		resp.ErrorsPresent = true
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && items != nil {
			resp.Errors = make([]string, 0, len(items))
			for _, item := range items {
				resp.Errors = append(resp.Errors, textOf(item))
			}
		}
	}

	if raw, ok := fields["error"]; ok {
		resp.Error = textOf(raw)
	}

	if raw, ok := fields["amount_out"]; ok {
		if d, err := decimal.NewFromString(strings.Trim(string(raw), `"`)); err == nil {
			resp.AmountOut = &d
		}
	}

	return resp, nil
}

func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// truthy mirrors JSON value truthiness: false, null, 0, "" and empty
// containers are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// textOf renders a JSON value as text: strings unquoted, null as empty,
// anything else as compact JSON.
func textOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return trimmed
}
