package pool

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/adityaslyf/redcircle-trading/internal/solana"
)

// Swap instruction opcodes understood by the bonding-curve program.
const (
	opcodeBuy  byte = 0x01
	opcodeSell byte = 0x02
)

type swapTxParams struct {
	Program      string
	Pool         string
	Trader       string
	Blockhash    string
	AmountIn     uint64
	MinimumOut   uint64
	Direction    Direction
	AuthorityKey ed25519.PrivateKey // non-nil when the pool requires a co-signature
}

// buildSwapTransaction serializes a legacy Solana transaction for the
// swap instruction. Account order: trader (writable signer, fee
// payer), authority (readonly signer, only when required), pool
// (writable), program (readonly). The trader's signature slot is
// zeroed for client-side signing.
func buildSwapTransaction(p swapTxParams) (string, error) {
	trader, err := solana.DecodePubkey(p.Trader)
	if err != nil {
		return "", fmt.Errorf("trader pubkey: %w", err)
	}
	pool, err := solana.DecodePubkey(p.Pool)
	if err != nil {
		return "", fmt.Errorf("pool pubkey: %w", err)
	}
	program, err := solana.DecodePubkey(p.Program)
	if err != nil {
		return "", fmt.Errorf("program pubkey: %w", err)
	}
	blockhash, err := base58.Decode(p.Blockhash)
	if err != nil || len(blockhash) != solana.PubkeyLen {
		return "", fmt.Errorf("invalid blockhash %q", p.Blockhash)
	}

	// Message header and account table. Signers come first, then
	// writable non-signers, then readonly non-signers.
	keys := [][]byte{trader}
	numSigners := byte(1)
	numReadonlySigners := byte(0)
	if p.AuthorityKey != nil {
		authPub := p.AuthorityKey.Public().(ed25519.PublicKey)
		keys = append(keys, []byte(authPub))
		numSigners = 2
		numReadonlySigners = 1
	}
	keys = append(keys, pool)
	programIdx := byte(len(keys))
	keys = append(keys, program)
	numReadonlyUnsigned := byte(1) // the program account

	opcode := opcodeBuy
	if p.Direction == DirectionSell {
		opcode = opcodeSell
	}
	data := make([]byte, 17)
	data[0] = opcode
	binary.LittleEndian.PutUint64(data[1:9], p.AmountIn)
	binary.LittleEndian.PutUint64(data[9:17], p.MinimumOut)

	// Instruction account indices: every key except the program.
	accountIndices := make([]byte, 0, len(keys)-1)
	for i := byte(0); i < programIdx; i++ {
		accountIndices = append(accountIndices, i)
	}

	var msg bytes.Buffer
	msg.WriteByte(numSigners)
	msg.WriteByte(numReadonlySigners)
	msg.WriteByte(numReadonlyUnsigned)
	writeShortvecLen(&msg, len(keys))
	for _, k := range keys {
		msg.Write(k)
	}
	msg.Write(blockhash)
	writeShortvecLen(&msg, 1) // one instruction
	msg.WriteByte(programIdx)
	writeShortvecLen(&msg, len(accountIndices))
	msg.Write(accountIndices)
	writeShortvecLen(&msg, len(data))
	msg.Write(data)

	// Signature section. Slot 0 (trader) stays zeroed; the authority
	// slot is filled when the pool requires co-signing.
	var tx bytes.Buffer
	writeShortvecLen(&tx, int(numSigners))
	tx.Write(make([]byte, solana.SignatureLen))
	if p.AuthorityKey != nil {
		tx.Write(ed25519.Sign(p.AuthorityKey, msg.Bytes()))
	}
	tx.Write(msg.Bytes())

	return base64.StdEncoding.EncodeToString(tx.Bytes()), nil
}

// writeShortvecLen appends a compact-u16 length prefix.
func writeShortvecLen(buf *bytes.Buffer, n int) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
