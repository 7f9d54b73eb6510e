package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Sizes of base58-decoded identifiers.
const (
	PubkeyLen    = 32
	SignatureLen = 64
)

// DecodePubkey decodes a base58 public key and checks its length.
func DecodePubkey(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", addr, err)
	}
	if len(raw) != PubkeyLen {
		return nil, fmt.Errorf("pubkey %q: expected %d bytes, got %d", addr, PubkeyLen, len(raw))
	}
	return raw, nil
}

// ValidateWalletAddress checks that addr is a well-formed wallet
// pubkey: 32 base58 bytes that decode to a point on the ed25519 curve.
// Program-derived addresses are off-curve and rejected here — a wallet
// must be able to sign.
func ValidateWalletAddress(addr string) error {
	raw, err := DecodePubkey(addr)
	if err != nil {
		return err
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("pubkey %q not on curve: %w", addr, err)
	}
	return nil
}

// ValidateSignature checks that sig is a well-formed base58 transaction
// signature (64 bytes). It does not verify the signature against any
// message.
func ValidateSignature(sig string) error {
	raw, err := base58.Decode(sig)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != SignatureLen {
		return fmt.Errorf("signature: expected %d bytes, got %d", SignatureLen, len(raw))
	}
	return nil
}
