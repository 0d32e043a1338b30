package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"liquidityPool/internal/model"
)

// BasisPointDivisor is 100% in basis points.
const BasisPointDivisor = 10_000

var ten = big.NewInt(10)

func checkedAdd(x, y uint64) (uint64, error) {
	v, overflow := math.SafeAdd(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflowOrUnderflow, x, y)
	}
	return v, nil
}

func checkedSub(x, y uint64) (uint64, error) {
	v, overflow := math.SafeSub(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflowOrUnderflow, x, y)
	}
	return v, nil
}

func checkedMul(x, y uint64) (uint64, error) {
	v, overflow := math.SafeMul(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflowOrUnderflow, x, y)
	}
	return v, nil
}

func checkedDiv(x, y uint64) (uint64, error) {
	if y == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrOverflowOrUnderflow, x)
	}
	return x / y, nil
}

// BootstrapShares returns the shares for the first deposit into an empty pool:
// floor(sqrt(a * b)) with both amounts expressed in whole units of their asset.
func BootstrapShares(amountOne, amountTwo uint64, decimalsOne, decimalsTwo uint8) uint64 {
	one := decimal.NewFromBigInt(new(big.Int).SetUint64(amountOne), -int32(decimalsOne))
	two := decimal.NewFromBigInt(new(big.Int).SetUint64(amountTwo), -int32(decimalsTwo))
	product := one.Mul(two)

	coef := product.Coefficient()
	exp := product.Exponent()
	if exp%2 != 0 {
		coef.Mul(coef, ten)
		exp--
	}
	root := new(big.Int).Sqrt(coef)

	// sqrt(a*b) <= max(a, b), so the result always fits.
	return decimal.NewFromBigInt(root, exp/2).BigInt().Uint64()
}

// ProportionalShares returns the shares a deposit into a funded pool earns:
// the smaller of the two ratio-implied share counts.
func ProportionalShares(pool *model.LiquidityPool, amountOne, amountTwo uint64) (uint64, error) {
	sharesOne, err := ratioShares(amountOne, pool.TotalShares, pool.ReserveOne)
	if err != nil {
		return 0, err
	}
	sharesTwo, err := ratioShares(amountTwo, pool.TotalShares, pool.ReserveTwo)
	if err != nil {
		return 0, err
	}
	if sharesTwo < sharesOne {
		return sharesTwo, nil
	}
	return sharesOne, nil
}

func ratioShares(amount, totalShares, reserve uint64) (uint64, error) {
	scaled, err := checkedMul(amount, totalShares)
	if err != nil {
		return 0, err
	}
	return checkedDiv(scaled, reserve)
}

// WithdrawalAmounts returns floor(shares * reserve / totalShares) for both
// reserves, measured against the supply before the burn.
func WithdrawalAmounts(pool *model.LiquidityPool, shares uint64) (uint64, uint64, error) {
	if pool.TotalShares == 0 || shares > pool.TotalShares {
		return 0, 0, fmt.Errorf("%w: burn %d of %d shares", ErrOverflowOrUnderflow, shares, pool.TotalShares)
	}
	total := uint256.NewInt(pool.TotalShares)
	burn := uint256.NewInt(shares)

	one := new(uint256.Int).Mul(burn, uint256.NewInt(pool.ReserveOne))
	one.Div(one, total)
	two := new(uint256.Int).Mul(burn, uint256.NewInt(pool.ReserveTwo))
	two.Div(two, total)

	return one.Uint64(), two.Uint64(), nil
}

// QuoteSwap prices a constant-product swap. The fee is taken from the input,
// rounded up, and stays in the pool.
func QuoteSwap(reserveIn, reserveOut, amountIn uint64, feeBps uint16) (amountOut uint64, fee uint64, err error) {
	if feeBps > BasisPointDivisor {
		return 0, 0, ErrInvalidFee
	}
	if amountIn == 0 {
		return 0, 0, fmt.Errorf("%w: zero input", ErrInvalidAmount)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ErrInsufficientLiquidity
	}

	divisor := uint256.NewInt(BasisPointDivisor)
	feeAmount := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(uint64(feeBps)))
	feeAmount.Add(feeAmount, uint256.NewInt(BasisPointDivisor-1))
	feeAmount.Div(feeAmount, divisor)
	fee = feeAmount.Uint64()

	net := amountIn - fee
	if net == 0 {
		return 0, 0, fmt.Errorf("%w: input %d is consumed by the fee", ErrInvalidAmount, amountIn)
	}

	numerator := new(uint256.Int).Mul(uint256.NewInt(reserveOut), uint256.NewInt(net))
	denominator := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(net))
	out := new(uint256.Int).Div(numerator, denominator)
	if out.IsZero() {
		return 0, 0, fmt.Errorf("%w: input %d is too small", ErrInvalidAmount, amountIn)
	}
	return out.Uint64(), fee, nil
}
