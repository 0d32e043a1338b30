// Package instruction resolves pool instructions to accounts and runs them through the engine.
package instruction

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/dex"
	"liquidityPool/internal/model"
)

var (
	ErrPoolMismatch       = errors.New("pool does not hold the supplied mints")
	ErrUnknownInstruction = errors.New("unknown instruction")
)

// Instruction is one atomic request against a pool.
type Instruction interface {
	Name() string
	Signer() solana.PublicKey
	Args() map[string]string
}

// InitializeLiquidityPool creates the pool for a mint pair and its two vaults.
type InitializeLiquidityPool struct {
	Payer   solana.PublicKey
	MintOne solana.PublicKey
	MintTwo solana.PublicKey
}

// AddLiquidity deposits both assets into the pool for shares.
type AddLiquidity struct {
	Payer     solana.PublicKey
	MintOne   solana.PublicKey
	MintTwo   solana.PublicKey
	AmountOne uint64
	AmountTwo uint64
}

// RemoveLiquidity burns shares for a part of both reserves.
type RemoveLiquidity struct {
	Payer   solana.PublicKey
	MintOne solana.PublicKey
	MintTwo solana.PublicKey
	Shares  uint64
}

// Swap trades AmountIn of InputMint for the other asset of the pool.
type Swap struct {
	Payer        solana.PublicKey
	MintOne      solana.PublicKey
	MintTwo      solana.PublicKey
	InputMint    solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// Name is the journal name of the instruction.
func (InitializeLiquidityPool) Name() string { return "initialize_liquidity_pool" }

// Name is the journal name of the instruction.
func (AddLiquidity) Name() string { return "add_liquidity" }

// Name is the journal name of the instruction.
func (RemoveLiquidity) Name() string { return "remove_liquidity" }

// Name is the journal name of the instruction.
func (Swap) Name() string { return "swap" }

// Signer returns the payer, who funds new accounts.
func (ix InitializeLiquidityPool) Signer() solana.PublicKey { return ix.Payer }

// Signer returns the depositor.
func (ix AddLiquidity) Signer() solana.PublicKey { return ix.Payer }

// Signer returns the account receiving the payout.
func (ix RemoveLiquidity) Signer() solana.PublicKey { return ix.Payer }

// Signer returns the trader.
func (ix Swap) Signer() solana.PublicKey { return ix.Payer }

// Args renders the arguments as strings for the journal.
func (ix InitializeLiquidityPool) Args() map[string]string {
	return map[string]string{
		"mint_one": ix.MintOne.String(),
		"mint_two": ix.MintTwo.String(),
	}
}

// Args renders the arguments as strings for the journal.
func (ix AddLiquidity) Args() map[string]string {
	return map[string]string{
		"mint_one":   ix.MintOne.String(),
		"mint_two":   ix.MintTwo.String(),
		"amount_one": strconv.FormatUint(ix.AmountOne, 10),
		"amount_two": strconv.FormatUint(ix.AmountTwo, 10),
	}
}

// Args renders the arguments as strings for the journal.
func (ix RemoveLiquidity) Args() map[string]string {
	return map[string]string{
		"mint_one": ix.MintOne.String(),
		"mint_two": ix.MintTwo.String(),
		"shares":   strconv.FormatUint(ix.Shares, 10),
	}
}

// Args renders the arguments as strings for the journal.
func (ix Swap) Args() map[string]string {
	return map[string]string{
		"mint_one":       ix.MintOne.String(),
		"mint_two":       ix.MintTwo.String(),
		"input_mint":     ix.InputMint.String(),
		"amount_in":      strconv.FormatUint(ix.AmountIn, 10),
		"min_amount_out": strconv.FormatUint(ix.MinAmountOut, 10),
	}
}

// Result reports the outcome of a processed instruction. Amounts follow the
// mint order of the request, not the pool's stored order.
type Result struct {
	Instruction  string          `json:"instruction"`
	Pool         model.PoolView  `json:"pool"`
	SharesMinted uint64          `json:"shares_minted,omitempty"`
	SharesBurned uint64          `json:"shares_burned,omitempty"`
	AmountOne    uint64          `json:"amount_one,omitempty"`
	AmountTwo    uint64          `json:"amount_two,omitempty"`
	Swap         *dex.SwapResult `json:"swap,omitempty"`
}
