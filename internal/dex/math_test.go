package dex

import (
	"errors"
	"math/big"
	"testing"

	"liquidityPool/internal/model"
)

func TestBootstrapShares(t *testing.T) {
	cases := []struct {
		name       string
		one, two   uint64
		decOne     uint8
		decTwo     uint8
		wantShares uint64
	}{
		{name: "geometric mean", one: 100, two: 400, wantShares: 200},
		{name: "floored", one: 2, two: 3, wantShares: 2},
		{name: "scaled by decimals", one: 100_000_000, two: 400_000_000, decOne: 6, decTwo: 6, wantShares: 200},
		{name: "mixed decimals", one: 100_000_000, two: 400_000_000_000, decOne: 6, decTwo: 9, wantShares: 200},
		{name: "odd total exponent", one: 10, two: 1000, decOne: 1, wantShares: 31},
		{name: "sub-unit deposit", one: 500_000, two: 500_000, decOne: 6, decTwo: 6, wantShares: 0},
		{name: "zero side", one: 0, two: 1000, wantShares: 0},
		{name: "max values", one: ^uint64(0), two: ^uint64(0), wantShares: ^uint64(0)},
	}

	for _, tc := range cases {
		got := BootstrapShares(tc.one, tc.two, tc.decOne, tc.decTwo)
		if got != tc.wantShares {
			t.Fatalf("%s: BootstrapShares(%d, %d) = %d, want %d", tc.name, tc.one, tc.two, got, tc.wantShares)
		}
	}
}

func TestProportionalSharesTakesMinimum(t *testing.T) {
	pool := &model.LiquidityPool{TotalShares: 200, ReserveOne: 100, ReserveTwo: 400}

	got, err := ProportionalShares(pool, 50, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 75 {
		t.Fatalf("shares = %d, want 75", got)
	}
}

func TestProportionalSharesOverflow(t *testing.T) {
	pool := &model.LiquidityPool{TotalShares: 1 << 40, ReserveOne: 1 << 40, ReserveTwo: 1 << 40}

	_, err := ProportionalShares(pool, 1<<30, 1<<30)
	if !errors.Is(err, ErrOverflowOrUnderflow) {
		t.Fatalf("expected ErrOverflowOrUnderflow, got %v", err)
	}
}

func TestWithdrawalAmounts(t *testing.T) {
	pool := &model.LiquidityPool{TotalShares: 275, ReserveOne: 150, ReserveTwo: 550}

	one, two, err := WithdrawalAmounts(pool, 75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one != 40 || two != 150 {
		t.Fatalf("amounts = (%d, %d), want (40, 150)", one, two)
	}

	one, two, err = WithdrawalAmounts(pool, 275)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one != 150 || two != 550 {
		t.Fatalf("full burn = (%d, %d), want all reserves", one, two)
	}

	if _, _, err := WithdrawalAmounts(pool, 276); !errors.Is(err, ErrOverflowOrUnderflow) {
		t.Fatalf("expected ErrOverflowOrUnderflow, got %v", err)
	}
}

func TestWithdrawalAmountsLargeReserves(t *testing.T) {
	full := ^uint64(0)
	pool := &model.LiquidityPool{TotalShares: full, ReserveOne: full, ReserveTwo: full / 2}

	one, two, err := WithdrawalAmounts(pool, full/4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one != full/4 {
		t.Fatalf("one = %d, want %d", one, full/4)
	}
	if two != full/8 {
		t.Fatalf("two = %d, want %d", two, full/8)
	}
}

func TestQuoteSwap(t *testing.T) {
	out, fee, err := QuoteSwap(1000, 1000, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000*100/1100
	if out != 90 || fee != 0 {
		t.Fatalf("quote = (%d, %d), want (90, 0)", out, fee)
	}

	out, fee, err = QuoteSwap(1000, 1000, 100, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// fee = ceil(100*30/10000) = 1, net 99, out = 1000*99/1099
	if out != 90 || fee != 1 {
		t.Fatalf("quote = (%d, %d), want (90, 1)", out, fee)
	}
}

func TestQuoteSwapRejections(t *testing.T) {
	if _, _, err := QuoteSwap(0, 1000, 10, 30); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if _, _, err := QuoteSwap(1000, 1000, 0, 30); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero input, got %v", err)
	}
	if _, _, err := QuoteSwap(1000, 1000, 1, 30); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount when the fee eats the input, got %v", err)
	}
	if _, _, err := QuoteSwap(1_000_000, 10, 5, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero output, got %v", err)
	}
	if _, _, err := QuoteSwap(1000, 1000, 10, 10_001); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}

func TestQuoteSwapKeepsInvariant(t *testing.T) {
	reserveIn, reserveOut := uint64(123_456_789), uint64(987_654_321)
	for _, in := range []uint64{1_000, 77_777, 5_000_000, 123_456_789, 1 << 40} {
		out, _, err := QuoteSwap(reserveIn, reserveOut, in, 25)
		if err != nil {
			t.Fatalf("quote %d: %v", in, err)
		}
		if out >= reserveOut {
			t.Fatalf("quote %d drains the pool", in)
		}
		before := new(big.Int).Mul(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(reserveOut))
		after := new(big.Int).Mul(new(big.Int).SetUint64(reserveIn+in), new(big.Int).SetUint64(reserveOut-out))
		if after.Cmp(before) < 0 {
			t.Fatalf("k decreased for input %d", in)
		}
	}
}
