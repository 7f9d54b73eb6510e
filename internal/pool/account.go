package pool

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
)

// Bonding-curve account layout, little-endian:
//
//	offset 0   8-byte discriminator
//	offset 8   u64 base reserves (post-token base units)
//	offset 16  u64 quote reserves (lamports)
//	offset 24  u16 fee in basis points
//	offset 26  32-byte authority pubkey
//	offset 58  u8  requires-authority-cosign flag
const poolAccountLen = 59

// poolDiscriminator identifies bonding-curve state accounts.
var poolDiscriminator = [8]byte{0x17, 0xa4, 0x5b, 0xc1, 0x09, 0x3e, 0x88, 0x52}

// DecodePoolAccount parses raw bonding-curve account bytes into a
// PoolState. The pool address and read slot are filled in by the
// caller.
func DecodePoolAccount(data []byte) (*domain.PoolState, error) {
	if len(data) < poolAccountLen {
		return nil, fmt.Errorf("pool account: expected at least %d bytes, got %d", poolAccountLen, len(data))
	}
	for i, b := range poolDiscriminator {
		if data[i] != b {
			return nil, fmt.Errorf("pool account: bad discriminator")
		}
	}

	state := &domain.PoolState{
		BaseReserves:      binary.LittleEndian.Uint64(data[8:16]),
		QuoteReserves:     binary.LittleEndian.Uint64(data[16:24]),
		FeeBps:            binary.LittleEndian.Uint16(data[24:26]),
		Authority:         base58.Encode(data[26:58]),
		RequiresAuthority: data[58] != 0,
	}
	return state, nil
}

// DecodePoolAccountBase64 decodes the base64 payload returned by RPC
// account reads and notifications.
func DecodePoolAccountBase64(encoded string) (*domain.PoolState, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("pool account: decode base64: %w", err)
	}
	return DecodePoolAccount(raw)
}

// EncodePoolAccount is the inverse of DecodePoolAccount. Used by tests
// and fixtures.
func EncodePoolAccount(s *domain.PoolState) ([]byte, error) {
	authority, err := base58.Decode(s.Authority)
	if err != nil {
		return nil, fmt.Errorf("pool account: decode authority: %w", err)
	}
	if len(authority) != 32 {
		return nil, fmt.Errorf("pool account: authority must be 32 bytes, got %d", len(authority))
	}

	buf := make([]byte, poolAccountLen)
	copy(buf[0:8], poolDiscriminator[:])
	binary.LittleEndian.PutUint64(buf[8:16], s.BaseReserves)
	binary.LittleEndian.PutUint64(buf[16:24], s.QuoteReserves)
	binary.LittleEndian.PutUint16(buf[24:26], s.FeeBps)
	copy(buf[26:58], authority)
	if s.RequiresAuthority {
		buf[58] = 1
	}
	return buf, nil
}
