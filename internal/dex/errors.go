package dex

import (
	"errors"

	"liquidityPool/internal/token"
)

var (
	// ErrOverflowOrUnderflow is returned when checked arithmetic on shares or reserves fails.
	ErrOverflowOrUnderflow = errors.New("overflow or underflow occurred")
	// ErrDuplicateAsset is returned when both sides of a pool are the same asset.
	ErrDuplicateAsset = errors.New("duplicate assets are not allowed")
	// ErrFailedToAddLiquidity is returned when a deposit would mint zero shares.
	ErrFailedToAddLiquidity = errors.New("failed to add liquidity")
	// ErrFailedToRemoveLiquidity is returned when a withdrawal would pay out nothing.
	ErrFailedToRemoveLiquidity = errors.New("failed to remove liquidity")
	// ErrInsufficientFunds is surfaced by the token ledger on an overdraft.
	ErrInsufficientFunds = token.ErrInsufficientFunds
	// ErrInsufficientLiquidity is returned when a swap targets an empty pool.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrSlippageExceeded is returned when a swap would pay less than the caller's minimum.
	ErrSlippageExceeded = errors.New("swap output below minimum")
	// ErrUnknownAsset is returned when a swap input is not one of the pool's assets.
	ErrUnknownAsset = errors.New("asset is not in this pool")
	// ErrInvalidAmount is returned for zero amounts or amounts too small to trade.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidFee is returned for a fee above 100%.
	ErrInvalidFee = errors.New("fee must not exceed 10000 basis points")
)
