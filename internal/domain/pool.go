package domain

// PoolState is a snapshot of the bonding-curve pool reserves for a
// post token. Reserves are in smallest units: base tokens in base
// units, SOL in lamports. All swap math runs on these integers;
// conversion to decimal SOL happens only at the display boundary.
type PoolState struct {
	PoolAddress   string
	BaseReserves  uint64 // post tokens remaining in the curve
	QuoteReserves uint64 // lamports held by the curve
	FeeBps        uint16 // pool fee in basis points
	Authority     string // pool authority pubkey (base58)
	// RequiresAuthority marks pools whose swap instruction must be
	// co-signed by the pool authority before the trader signs.
	RequiresAuthority bool

	Slot      int64 // slot the snapshot was read at
	FetchedAt int64 // Unix timestamp in milliseconds
}
