package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidateWalletAddress_RealKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := base58.Encode(pub)

	if err := ValidateWalletAddress(addr); err != nil {
		t.Errorf("valid wallet rejected: %v", err)
	}
}

func TestValidateWalletAddress_Invalid(t *testing.T) {
	cases := []struct {
		name string
		addr string
	}{
		{"empty", ""},
		{"bad base58", "0OIl+/="},
		{"wrong length", base58.Encode([]byte("short"))},
		// A program-derived address: its y coordinate yields no valid
		// x, so ed25519 point decoding fails. Wallets must be able to
		// sign, so PDAs are rejected.
		{"off curve", "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"},
	}
	for _, tc := range cases {
		if err := ValidateWalletAddress(tc.addr); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestValidateSignature(t *testing.T) {
	sig := base58.Encode(make([]byte, SignatureLen))
	if err := ValidateSignature(sig); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}

	if err := ValidateSignature(base58.Encode(make([]byte, 30))); err == nil {
		t.Error("short signature accepted")
	}
	if err := ValidateSignature(strings.Repeat("!", 10)); err == nil {
		t.Error("non-base58 signature accepted")
	}
}
