// Package pumpportal is a client for the PumpPortal trade-execution API.
package pumpportal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-razor/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://pumpportal.fun/api"
	DefaultUserAgent = "RazorBot/1.0"
	DefaultTimeout   = 30 * time.Second
)

// maxErrorBody caps how much of a non-2xx body is kept in a StatusError.
const maxErrorBody = 512

var (
	// ErrRateLimited matches a StatusError carrying HTTP 429.
	ErrRateLimited = errors.New("rate limited (429)")

	// ErrMalformedResponse is returned when a 2xx body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed trade response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is ErrRateLimited and the status is 429.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// Client sends trade requests to the API. One Client, and its http.Client,
// is shared by every call so connections are reused.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL (without the /trade suffix).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the overall HTTP client timeout.
// Per-call timeouts are set by the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new API client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		userAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tradeBody is the /trade JSON body. Every value is sent as a string.
type tradeBody struct {
	Action           string `json:"action"`
	Mint             string `json:"mint"`
	Amount           string `json:"amount"`
	DenominatedInSol string `json:"denominatedInSol"`
	Slippage         string `json:"slippage"`
	PriorityFee      string `json:"priorityFee"`
	RPCEndpoint      string `json:"rpcEndpoint"`
	SkipPreflight    string `json:"skipPreflight"`
}

func newTradeBody(req domain.TradeRequest) tradeBody {
	return tradeBody{
		Action:           string(req.Direction),
		Mint:             req.Mint,
		Amount:           req.Amount.String(),
		DenominatedInSol: strconv.FormatBool(req.DenominatedInSOL),
		Slippage:         req.SlippagePercent.String(),
		PriorityFee:      req.PriorityFee.String(),
		RPCEndpoint:      req.Endpoint,
		SkipPreflight:    strconv.FormatBool(req.SkipPreflight),
	}
}

// Trade submits req and returns the decoded response.
//
// Non-2xx statuses are returned as *StatusError (429 matches ErrRateLimited);
// a 2xx body that is not a JSON object yields ErrMalformedResponse.
// Business failures reported inside a 2xx body are not errors.
func (c *Client) Trade(ctx context.Context, req domain.TradeRequest) (*TradeResponse, error) {
	body, err := json.Marshal(newTradeBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/trade?" + url.Values{"api-key": []string{c.apiKey}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: text}
	}

	return ParseTradeResponse(respBody)
}
