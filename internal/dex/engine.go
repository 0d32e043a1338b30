// Package dex holds the share accounting and reserve rebalancing of a two-asset pool.
package dex

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"liquidityPool/internal/model"
	"liquidityPool/internal/pda"
	"liquidityPool/internal/token"
)

// Accounts names the token accounts an instruction moves funds between,
// oriented to the pool's asset one and asset two.
type Accounts struct {
	Owner    solana.PublicKey
	UserOne  solana.PublicKey
	UserTwo  solana.PublicKey
	VaultOne solana.PublicKey
	VaultTwo solana.PublicKey
}

// Deposit is an add-liquidity request.
type Deposit struct {
	Accounts
	AmountOne   uint64
	AmountTwo   uint64
	DecimalsOne uint8
	DecimalsTwo uint8
}

// Withdrawal is a remove-liquidity request.
type Withdrawal struct {
	Accounts
	Shares uint64
}

// SwapParams is a swap request.
type SwapParams struct {
	Accounts
	InputMint    solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// SwapResult reports a completed swap.
type SwapResult struct {
	InputMint  solana.PublicKey `json:"input_mint"`
	OutputMint solana.PublicKey `json:"output_mint"`
	AmountIn   uint64           `json:"amount_in"`
	AmountOut  uint64           `json:"amount_out"`
	Fee        uint64           `json:"fee"`
}

// Engine applies pool operations and requests the matching transfers.
// Pool records are updated only after every transfer succeeded.
type Engine struct {
	programID solana.PublicKey
	transfers token.Transferer
	feeBps    uint16
	logger    *zap.Logger
}

// NewEngine returns an engine charging feeBps on swaps. A nil logger discards output.
func NewEngine(programID solana.PublicKey, transfers token.Transferer, feeBps uint16, logger *zap.Logger) (*Engine, error) {
	if feeBps > BasisPointDivisor {
		return nil, ErrInvalidFee
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		programID: programID,
		transfers: transfers,
		feeBps:    feeBps,
		logger:    logger,
	}, nil
}

// Initialize builds the empty pool record for an asset pair and returns it with its address.
func (e *Engine) Initialize(assetOne, assetTwo solana.PublicKey) (model.LiquidityPool, solana.PublicKey, error) {
	if assetOne.Equals(assetTwo) {
		return model.LiquidityPool{}, solana.PublicKey{}, fmt.Errorf("%w: %s", ErrDuplicateAsset, assetOne)
	}
	address, bump, err := pda.PoolAddress(e.programID, assetOne, assetTwo)
	if err != nil {
		return model.LiquidityPool{}, solana.PublicKey{}, err
	}

	pool := model.LiquidityPool{
		AssetOne: assetOne,
		AssetTwo: assetTwo,
		Bump:     bump,
	}
	e.logger.Debug("initialize pool",
		zap.Stringer("pool", address),
		zap.Stringer("asset_one", assetOne),
		zap.Stringer("asset_two", assetTwo),
		zap.Uint8("bump", bump),
	)
	return pool, address, nil
}

// AddLiquidity mints shares for a deposit and moves both amounts into the vaults.
func (e *Engine) AddLiquidity(ctx context.Context, pool *model.LiquidityPool, d Deposit) (uint64, error) {
	var (
		shares uint64
		err    error
	)
	if pool.IsEmpty() {
		shares = BootstrapShares(d.AmountOne, d.AmountTwo, d.DecimalsOne, d.DecimalsTwo)
	} else {
		shares, err = ProportionalShares(pool, d.AmountOne, d.AmountTwo)
		if err != nil {
			return 0, err
		}
	}
	if shares == 0 {
		return 0, fmt.Errorf("%w: deposit (%d, %d) mints no shares", ErrFailedToAddLiquidity, d.AmountOne, d.AmountTwo)
	}

	next := *pool
	if next.TotalShares, err = checkedAdd(pool.TotalShares, shares); err != nil {
		return 0, err
	}
	if next.ReserveOne, err = checkedAdd(pool.ReserveOne, d.AmountOne); err != nil {
		return 0, err
	}
	if next.ReserveTwo, err = checkedAdd(pool.ReserveTwo, d.AmountTwo); err != nil {
		return 0, err
	}
	if next.Sequence, err = checkedAdd(pool.Sequence, 1); err != nil {
		return 0, err
	}

	auth := token.UserAuthority(d.Owner)
	if err := e.transfers.Transfer(ctx, d.UserOne, d.VaultOne, d.AmountOne, auth); err != nil {
		return 0, fmt.Errorf("deposit asset one: %w", err)
	}
	if err := e.transfers.Transfer(ctx, d.UserTwo, d.VaultTwo, d.AmountTwo, auth); err != nil {
		return 0, fmt.Errorf("deposit asset two: %w", err)
	}

	*pool = next
	e.logger.Debug("add liquidity",
		zap.Uint64("shares", shares),
		zap.Uint64("amount_one", d.AmountOne),
		zap.Uint64("amount_two", d.AmountTwo),
		zap.Uint64("total_shares", pool.TotalShares),
	)
	return shares, nil
}

// RemoveLiquidity burns shares and pays out the proportional part of both reserves.
func (e *Engine) RemoveLiquidity(ctx context.Context, pool *model.LiquidityPool, w Withdrawal) (uint64, uint64, error) {
	if w.Shares == 0 {
		return 0, 0, fmt.Errorf("%w: zero shares", ErrFailedToRemoveLiquidity)
	}

	next := *pool
	var err error
	if next.TotalShares, err = checkedSub(pool.TotalShares, w.Shares); err != nil {
		return 0, 0, err
	}

	amountOne, amountTwo, err := WithdrawalAmounts(pool, w.Shares)
	if err != nil {
		return 0, 0, err
	}
	if amountOne == 0 && amountTwo == 0 {
		return 0, 0, fmt.Errorf("%w: %d shares redeem nothing", ErrFailedToRemoveLiquidity, w.Shares)
	}
	if next.ReserveOne, err = checkedSub(pool.ReserveOne, amountOne); err != nil {
		return 0, 0, err
	}
	if next.ReserveTwo, err = checkedSub(pool.ReserveTwo, amountTwo); err != nil {
		return 0, 0, err
	}
	if next.Sequence, err = checkedAdd(pool.Sequence, 1); err != nil {
		return 0, 0, err
	}

	auth := token.ProgramAuthority(pda.SignerSeeds(pool.AssetOne, pool.AssetTwo, pool.Bump))
	if err := e.transfers.Transfer(ctx, w.VaultOne, w.UserOne, amountOne, auth); err != nil {
		return 0, 0, fmt.Errorf("withdraw asset one: %w", err)
	}
	if err := e.transfers.Transfer(ctx, w.VaultTwo, w.UserTwo, amountTwo, auth); err != nil {
		return 0, 0, fmt.Errorf("withdraw asset two: %w", err)
	}

	*pool = next
	e.logger.Debug("remove liquidity",
		zap.Uint64("shares", w.Shares),
		zap.Uint64("amount_one", amountOne),
		zap.Uint64("amount_two", amountTwo),
		zap.Uint64("total_shares", pool.TotalShares),
	)
	return amountOne, amountTwo, nil
}

// Swap exchanges AmountIn of InputMint for the other asset at the constant-product price.
func (e *Engine) Swap(ctx context.Context, pool *model.LiquidityPool, s SwapParams) (SwapResult, error) {
	var (
		inputIsOne bool
		reserveIn  uint64
		reserveOut uint64
	)
	switch s.InputMint {
	case pool.AssetOne:
		inputIsOne, reserveIn, reserveOut = true, pool.ReserveOne, pool.ReserveTwo
	case pool.AssetTwo:
		inputIsOne, reserveIn, reserveOut = false, pool.ReserveTwo, pool.ReserveOne
	default:
		return SwapResult{}, fmt.Errorf("%w: %s", ErrUnknownAsset, s.InputMint)
	}

	amountOut, fee, err := QuoteSwap(reserveIn, reserveOut, s.AmountIn, e.feeBps)
	if err != nil {
		return SwapResult{}, err
	}
	if amountOut < s.MinAmountOut {
		return SwapResult{}, fmt.Errorf("%w: quote %d, minimum %d", ErrSlippageExceeded, amountOut, s.MinAmountOut)
	}

	newIn, err := checkedAdd(reserveIn, s.AmountIn)
	if err != nil {
		return SwapResult{}, err
	}
	newOut, err := checkedSub(reserveOut, amountOut)
	if err != nil {
		return SwapResult{}, err
	}

	next := *pool
	if next.Sequence, err = checkedAdd(pool.Sequence, 1); err != nil {
		return SwapResult{}, err
	}
	userIn, vaultIn, vaultOut, userOut := s.UserOne, s.VaultOne, s.VaultTwo, s.UserTwo
	result := SwapResult{InputMint: pool.AssetOne, OutputMint: pool.AssetTwo, AmountIn: s.AmountIn, AmountOut: amountOut, Fee: fee}
	if inputIsOne {
		next.ReserveOne, next.ReserveTwo = newIn, newOut
	} else {
		next.ReserveTwo, next.ReserveOne = newIn, newOut
		userIn, vaultIn, vaultOut, userOut = s.UserTwo, s.VaultTwo, s.VaultOne, s.UserOne
		result.InputMint, result.OutputMint = pool.AssetTwo, pool.AssetOne
	}

	if err := e.transfers.Transfer(ctx, userIn, vaultIn, s.AmountIn, token.UserAuthority(s.Owner)); err != nil {
		return SwapResult{}, fmt.Errorf("swap input: %w", err)
	}
	poolAuth := token.ProgramAuthority(pda.SignerSeeds(pool.AssetOne, pool.AssetTwo, pool.Bump))
	if err := e.transfers.Transfer(ctx, vaultOut, userOut, amountOut, poolAuth); err != nil {
		return SwapResult{}, fmt.Errorf("swap output: %w", err)
	}

	*pool = next
	e.logger.Debug("swap",
		zap.Stringer("input_mint", result.InputMint),
		zap.Uint64("amount_in", s.AmountIn),
		zap.Uint64("amount_out", amountOut),
		zap.Uint64("fee", fee),
	)
	return result, nil
}
