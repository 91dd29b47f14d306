package trade

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// pubkeyLen is the size of a Solana public key.
const pubkeyLen = 32

// decodeKey decodes a base58 Solana address into its 32 raw bytes.
func decodeKey(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != pubkeyLen {
		return nil, fmt.Errorf("decoded length %d, want %d", len(raw), pubkeyLen)
	}
	return raw, nil
}

// ValidateMint checks that mint is a base58-encoded 32-byte address.
// Mints may be program-derived, so no curve check is applied.
func ValidateMint(mint string) error {
	if _, err := decodeKey(mint); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrInvalidMint, mint, err)
	}
	return nil
}

// ValidateWallet checks that addr is a base58 ed25519 public key that lies on
// the curve, which every keypair-owned wallet address does.
func ValidateWallet(addr string) error {
	raw, err := decodeKey(addr)
	if err != nil {
		return fmt.Errorf("%w: wallet %s: %v", ErrInvalidInput, addr, err)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: wallet %s is not an ed25519 public key: %v", ErrInvalidInput, addr, err)
	}
	return nil
}
