// Package stub provides in-memory Solana clients for tests.
package stub

import (
	"context"
	"sync"

	"solana-razor/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu       sync.Mutex
	Balances map[string][]solana.TokenBalance // by owner
	Err      error                            // returned by every call when set
	Calls    int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances: make(map[string][]solana.TokenBalance),
	}
}

// GetTokenAccountsByOwner returns the owner's positive balances from the stub store.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]solana.TokenBalance, 0, len(c.Balances[owner]))
	for _, b := range c.Balances[owner] {
		if b.Amount.IsPositive() {
			out = append(out, b)
		}
	}
	return out, nil
}

// WSClient implements solana.WSClient for testing.
type WSClient struct {
	mu       sync.Mutex
	Statuses map[string]solana.SignatureStatus // by signature
	Err      error
	Waited   []string
	closed   bool
}

var _ solana.WSClient = (*WSClient)(nil)

// NewWSClient creates a new stub websocket client.
func NewWSClient() *WSClient {
	return &WSClient{
		Statuses: make(map[string]solana.SignatureStatus),
	}
}

// WaitForSignature returns the stored status, or a successful one for unknown signatures.
func (c *WSClient) WaitForSignature(_ context.Context, signature string) (solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return solana.SignatureStatus{}, solana.ErrClientClosed
	}
	c.Waited = append(c.Waited, signature)
	if c.Err != nil {
		return solana.SignatureStatus{}, c.Err
	}
	if s, ok := c.Statuses[signature]; ok {
		return s, nil
	}
	return solana.SignatureStatus{Signature: signature}, nil
}

// Close marks the stub closed.
func (c *WSClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}
