package accounting

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply_FirstBuy(t *testing.T) {
	// 100 tokens for 1.0 SOL → avg 0.01
	res, err := Apply(nil, domain.SideBuy, 100, d("1.0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created {
		t.Error("expected Created")
	}
	h := res.Holding
	if h.Amount != 100 {
		t.Errorf("amount = %d, want 100", h.Amount)
	}
	if !h.AvgBuyPrice.Equal(d("0.01")) {
		t.Errorf("avg = %s, want 0.01", h.AvgBuyPrice)
	}
	if !h.TotalInvested.Equal(d("1.0")) {
		t.Errorf("invested = %s, want 1.0", h.TotalInvested)
	}
	if !h.TotalRealized.IsZero() {
		t.Errorf("realized = %s, want 0", h.TotalRealized)
	}
}

func TestApply_SecondBuy_WeightedAverage(t *testing.T) {
	// After 100 @ 1.0: buy another 100 for 3.0 → 200 held, avg 0.02
	first, _ := Apply(nil, domain.SideBuy, 100, d("1.0"))
	res, err := Apply(first.Holding, domain.SideBuy, 100, d("3.0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := res.Holding
	if h.Amount != 200 {
		t.Errorf("amount = %d, want 200", h.Amount)
	}
	if !h.AvgBuyPrice.Equal(d("0.02")) {
		t.Errorf("avg = %s, want 0.02", h.AvgBuyPrice)
	}
	if !h.TotalInvested.Equal(d("4.0")) {
		t.Errorf("invested = %s, want 4.0", h.TotalInvested)
	}
}

func TestApply_PartialSell_CostBasisUnchanged(t *testing.T) {
	// Hold 200 @ avg 0.02, invested 4.0. Sell 50 for 1.5.
	h := &domain.Holding{
		Amount:        200,
		AvgBuyPrice:   d("0.02"),
		TotalInvested: d("4.0"),
		TotalRealized: decimal.Zero,
	}
	res, err := Apply(h, domain.SideSell, 50, d("1.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.Holding
	if got.Amount != 150 {
		t.Errorf("amount = %d, want 150", got.Amount)
	}
	if !got.AvgBuyPrice.Equal(d("0.02")) {
		t.Errorf("avg changed on sell: %s", got.AvgBuyPrice)
	}
	if !got.TotalInvested.Equal(d("4.0")) {
		t.Errorf("invested changed on sell: %s", got.TotalInvested)
	}
	if !got.TotalRealized.Equal(d("1.5")) {
		t.Errorf("realized = %s, want 1.5", got.TotalRealized)
	}
	// Realized P&L on this sell: 1.5 - 50*0.02 = 0.5
	pnl := res.Realized.Sub(got.AvgBuyPrice.Mul(decimal.NewFromInt(50)))
	if !pnl.Equal(d("0.5")) {
		t.Errorf("realized pnl = %s, want 0.5", pnl)
	}
	// Input holding untouched.
	if h.Amount != 200 || !h.TotalRealized.IsZero() {
		t.Error("input holding mutated")
	}
}

func TestApply_FullClose(t *testing.T) {
	h := &domain.Holding{
		Amount:        150,
		AvgBuyPrice:   d("0.02"),
		TotalInvested: d("4.0"),
		TotalRealized: d("1.5"),
	}
	res, err := Apply(h, domain.SideSell, 150, d("4.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Closed {
		t.Error("expected Closed")
	}
	if res.Holding != nil {
		t.Error("expected nil holding on full close")
	}

	// A subsequent sell has no position to settle against.
	_, err = Apply(nil, domain.SideSell, 1, d("0.01"))
	if !errors.Is(err, ErrNoPosition) {
		t.Errorf("err = %v, want ErrNoPosition", err)
	}
}

func TestApply_SellExceedsHolding(t *testing.T) {
	h := &domain.Holding{Amount: 10, AvgBuyPrice: d("0.01"), TotalInvested: d("0.1"), TotalRealized: decimal.Zero}
	_, err := Apply(h, domain.SideSell, 11, d("0.2"))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Errorf("err = %v, want ErrInsufficientPosition", err)
	}
	if h.Amount != 10 {
		t.Error("holding mutated by failed sell")
	}
}

func TestApply_InvalidTrades(t *testing.T) {
	cases := []struct {
		name   string
		side   domain.Side
		amount int64
		value  string
	}{
		{"zero amount", domain.SideBuy, 0, "1.0"},
		{"negative amount", domain.SideBuy, -5, "1.0"},
		{"negative value", domain.SideBuy, 10, "-1.0"},
		{"unknown side", domain.Side("short"), 10, "1.0"},
	}
	for _, tc := range cases {
		if _, err := Apply(nil, tc.side, tc.amount, d(tc.value)); !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("%s: err = %v, want ErrInvalidTrade", tc.name, err)
		}
	}
}

func TestApply_AverageCostIndependentOfOrdering(t *testing.T) {
	// For any sequence of buys, avg == sum(cost)/sum(amount) no matter
	// the order the buys arrive in.
	type buy struct {
		amount int64
		value  decimal.Decimal
	}
	buys := []buy{
		{100, d("1.0")},
		{250, d("3.75")},
		{40, d("2.0")},
		{1000, d("7.5")},
		{1, d("0.004")},
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]buy, len(buys))
		copy(shuffled, buys)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		var h *domain.Holding
		totalAmt := int64(0)
		totalCost := decimal.Zero
		for _, b := range shuffled {
			res, err := Apply(h, domain.SideBuy, b.amount, b.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			h = res.Holding
			totalAmt += b.amount
			totalCost = totalCost.Add(b.value)
		}

		want := totalCost.Div(decimal.NewFromInt(totalAmt))
		if !h.AvgBuyPrice.Equal(want) {
			t.Fatalf("trial %d: avg = %s, want %s", trial, h.AvgBuyPrice, want)
		}
	}
}

func TestApply_AmountNeverNegative(t *testing.T) {
	// Random buy/sell sequences: amount stays >= 0 and oversells fail
	// without mutating state.
	rng := rand.New(rand.NewSource(7))
	var h *domain.Holding
	for i := 0; i < 500; i++ {
		amount := rng.Int63n(50) + 1
		value := decimal.NewFromInt(amount).Mul(d("0.01"))
		if rng.Intn(2) == 0 {
			res, err := Apply(h, domain.SideBuy, amount, value)
			if err != nil {
				t.Fatalf("buy failed: %v", err)
			}
			h = res.Holding
		} else {
			res, err := Apply(h, domain.SideSell, amount, value)
			switch {
			case errors.Is(err, ErrNoPosition), errors.Is(err, ErrInsufficientPosition):
				// state unchanged
			case err != nil:
				t.Fatalf("unexpected sell error: %v", err)
			case res.Closed:
				h = nil
			default:
				h = res.Holding
			}
		}
		if h != nil && h.Amount <= 0 {
			t.Fatalf("stored holding amount %d not positive", h.Amount)
		}
	}
}
