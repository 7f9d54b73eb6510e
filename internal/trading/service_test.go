package trading

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/pool"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/solana/stub"
	"github.com/adityaslyf/redcircle-trading/internal/storage/memory"
)

const (
	testPoolAddr  = "8tzCx4rULWFMHXhVYicfGW2gWjEWLTLDnbRgNYBEqHcq"
	testProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

	// ed25519 pubkey for seed 0x01 x 32; must be on-curve so wallet
	// validation accepts it.
	testWallet = "AKnL4NNf3DGWZJS6cPknBuEGnVsV4A4m5tgebLHaRSZ9"

	// Well-formed 64-byte base58 signatures.
	sigA = "2AXDGYSE4f2sz7tvMMzyHvUfcoJmxudvdhBcmiUSo6ijwfYmfZYsKRxboQMPh3R4kUhXRVdtSXFXMheka4Rc4P2"
	sigB = "3L3RY5sT8K4kyEnqhizwaqxLEbcYvpGrGPNEYRwtbCSUtL6YL86jdrvCbohnP5q8VxQ3qzGmt3W3iQJW97rD7m3"
	sigC = "4VZdodJgBy6dxMgm45zusmRzrPvKtiumu5YrK9RLPJADpzeJzgebxHsoQD4B58FCFS6aGUufKZka56xFiBGpB94"
)

// Reserve fixture: 800k of 1M tokens still in the curve (6 decimals),
// 30 SOL of quote liquidity, 1% pool fee.
const (
	testTokenSupply   = int64(1_000_000_000_000)
	testBaseReserves  = uint64(800_000_000_000)
	testQuoteReserves = uint64(30_000_000_000)
	testFeeBps        = uint16(100)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	svc      *Service
	rpc      *stub.RPCClient
	posts    *memory.PostStore
	holdings *memory.HoldingStore
	txs      *memory.TransactionStore
	prices   *memory.PriceHistoryStore
	nowMs    int64
}

func testPost(postID string) *domain.Post {
	return &domain.Post{
		PostID:        postID,
		RedditURL:     "https://reddit.com/r/golang/" + postID,
		Title:         "post " + postID,
		Subreddit:     "golang",
		Author:        "author1",
		TokenSupply:   testTokenSupply,
		TokenDecimals: 6,
		InitialPrice:  dec("0.00003"),
		CurrentPrice:  decimal.Zero,
		PoolAddress:   testPoolAddr,
		Status:        domain.PostStatusActive,
		CreatedAt:     1000,
	}
}

func poolAccountData(t *testing.T, base, quote uint64) string {
	t.Helper()
	raw, err := pool.EncodePoolAccount(&domain.PoolState{
		BaseReserves:  base,
		QuoteReserves: quote,
		FeeBps:        testFeeBps,
		Authority:     testProgramID,
	})
	if err != nil {
		t.Fatalf("encode pool account: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rpc := stub.NewRPCClient()
	rpc.Accounts[testPoolAddr] = &solana.AccountInfo{
		Data: poolAccountData(t, testBaseReserves, testQuoteReserves),
		Slot: 42,
	}

	posts := memory.NewPostStore()
	holdings := memory.NewHoldingStore()
	txs := memory.NewTransactionStore()
	prices := memory.NewPriceHistoryStore()

	if err := posts.Insert(context.Background(), testPost("p1")); err != nil {
		t.Fatalf("seed post: %v", err)
	}

	f := &fixture{
		rpc:      rpc,
		posts:    posts,
		holdings: holdings,
		txs:      txs,
		prices:   prices,
		nowMs:    1_700_000_000_000,
	}
	f.svc = NewService(Deps{
		Posts:        posts,
		Holdings:     holdings,
		Transactions: txs,
		Settlements:  memory.NewSettlementStore(posts, holdings, txs),
		Prices:       prices,
		Gateway:      pool.NewGateway(rpc, pool.Config{ProgramID: testProgramID}, nil),
	})
	f.svc.now = func() int64 { return f.nowMs }
	return f
}

// settleBuy seeds a position through the normal settlement path.
func (f *fixture) settleBuy(t *testing.T, sig string, amount int64, totalSOL string) *SettleResult {
	t.Helper()
	res, err := f.svc.Settle(context.Background(), SettleRequest{
		Signature: sig,
		UserID:    "u1",
		PostID:    "p1",
		Side:      domain.SideBuy,
		Amount:    amount,
		TotalSOL:  dec(totalSOL),
		Wallet:    testWallet,
	})
	if err != nil {
		t.Fatalf("settle buy %s: %v", sig, err)
	}
	return res
}

// staticReserves is a ReserveSource stub serving one fixed snapshot.
type staticReserves struct {
	state *domain.PoolState
}

func (r *staticReserves) Snapshot(poolAddress string) (*domain.PoolState, bool) {
	if r.state == nil || r.state.PoolAddress != poolAddress {
		return nil, false
	}
	s := *r.state
	return &s, true
}
