// Package solana provides the small part of the Solana JSON-RPC and
// websocket APIs the liquidation tool needs.
package solana

import "context"

// RPCClient defines the Solana RPC calls used by this module.
type RPCClient interface {
	// GetTokenAccountsByOwner returns the owner's SPL token accounts with a
	// positive balance.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenBalance, error)
}
