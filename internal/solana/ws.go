package solana

import (
	"context"
	"errors"
)

// Websocket client errors.
var (
	ErrClientClosed   = errors.New("solana: websocket client closed")
	ErrConnectionLost = errors.New("solana: websocket connection lost")
)

// WSClient defines the Solana websocket subscription interface.
type WSClient interface {
	// WaitForSignature blocks until the signature reaches the configured
	// commitment or ctx is done.
	WaitForSignature(ctx context.Context, signature string) (SignatureStatus, error)

	// Close closes the websocket connection.
	Close() error
}
