package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/model"
	"liquidityPool/internal/pda"
)

// Ledger implements mint and token account operations over Records.
type Ledger struct {
	records   Records
	programID solana.PublicKey
}

// NewLedger returns a ledger over records for programID.
func NewLedger(records Records, programID solana.PublicKey) *Ledger {
	return &Ledger{records: records, programID: programID}
}

// CreateMint registers a new mint with zero supply.
func (l *Ledger) CreateMint(ctx context.Context, address solana.PublicKey, decimals uint8) (model.Mint, error) {
	if _, err := l.records.GetMint(ctx, address); err == nil {
		return model.Mint{}, fmt.Errorf("%w: mint %s", ErrAlreadyExists, address)
	} else if !errors.Is(err, ErrNotFound) {
		return model.Mint{}, err
	}
	mint := model.Mint{Address: address, Decimals: decimals}
	if err := l.records.PutMint(ctx, mint); err != nil {
		return model.Mint{}, fmt.Errorf("put mint: %w", err)
	}
	return mint, nil
}

// Mint returns the mint at address.
func (l *Ledger) Mint(ctx context.Context, address solana.PublicKey) (model.Mint, error) {
	return l.records.GetMint(ctx, address)
}

// CreateTokenAccount returns the associated token account of owner for mint,
// creating it when missing.
func (l *Ledger) CreateTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (model.TokenAccount, error) {
	if _, err := l.records.GetMint(ctx, mint); err != nil {
		return model.TokenAccount{}, fmt.Errorf("load mint %s: %w", mint, err)
	}
	address, err := pda.TokenAccountAddress(owner, mint)
	if err != nil {
		return model.TokenAccount{}, err
	}

	existing, err := l.records.GetTokenAccount(ctx, address)
	if err == nil {
		if existing.Owner != owner || existing.Mint != mint {
			return model.TokenAccount{}, fmt.Errorf("%w: token account %s", ErrAlreadyExists, address)
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.TokenAccount{}, err
	}

	account := model.TokenAccount{Address: address, Mint: mint, Owner: owner}
	if err := l.records.PutTokenAccount(ctx, account); err != nil {
		return model.TokenAccount{}, fmt.Errorf("put token account: %w", err)
	}
	return account, nil
}

// TokenAccount returns the token account at address.
func (l *Ledger) TokenAccount(ctx context.Context, address solana.PublicKey) (model.TokenAccount, error) {
	return l.records.GetTokenAccount(ctx, address)
}

// MintTo issues amount new units into a token account.
func (l *Ledger) MintTo(ctx context.Context, account solana.PublicKey, amount uint64) (model.TokenAccount, error) {
	dest, err := l.records.GetTokenAccount(ctx, account)
	if err != nil {
		return model.TokenAccount{}, fmt.Errorf("load token account %s: %w", account, err)
	}
	mint, err := l.records.GetMint(ctx, dest.Mint)
	if err != nil {
		return model.TokenAccount{}, fmt.Errorf("load mint %s: %w", dest.Mint, err)
	}

	supply, overflow := math.SafeAdd(mint.Supply, amount)
	if overflow {
		return model.TokenAccount{}, fmt.Errorf("%w: supply of %s", ErrOverflow, mint.Address)
	}
	balance, overflow := math.SafeAdd(dest.Amount, amount)
	if overflow {
		return model.TokenAccount{}, fmt.Errorf("%w: balance of %s", ErrOverflow, dest.Address)
	}
	mint.Supply = supply
	dest.Amount = balance

	if err := l.records.PutMint(ctx, mint); err != nil {
		return model.TokenAccount{}, fmt.Errorf("put mint: %w", err)
	}
	if err := l.records.PutTokenAccount(ctx, dest); err != nil {
		return model.TokenAccount{}, fmt.Errorf("put token account: %w", err)
	}
	return dest, nil
}

// Transfer moves amount from one token account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64, auth Authority) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("transfer to self: %s", from)
	}

	src, err := l.records.GetTokenAccount(ctx, from)
	if err != nil {
		return fmt.Errorf("load source %s: %w", from, err)
	}
	dst, err := l.records.GetTokenAccount(ctx, to)
	if err != nil {
		return fmt.Errorf("load destination %s: %w", to, err)
	}

	if err := ApplyTransfer(&src, &dst, amount, auth, l.programID); err != nil {
		return err
	}

	if err := l.records.PutTokenAccount(ctx, src); err != nil {
		return fmt.Errorf("put source: %w", err)
	}
	if err := l.records.PutTokenAccount(ctx, dst); err != nil {
		return fmt.Errorf("put destination: %w", err)
	}
	return nil
}

// ApplyTransfer checks a transfer and updates both balances in place.
// Neither account is modified when it returns an error.
func ApplyTransfer(src, dst *model.TokenAccount, amount uint64, auth Authority, programID solana.PublicKey) error {
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s and %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	signer, err := auth.Resolve(programID)
	if err != nil {
		return err
	}
	if signer != src.Owner {
		return fmt.Errorf("%w: %s signs for %s, owner is %s", ErrOwnerMismatch, signer, src.Address, src.Owner)
	}

	debit, underflow := math.SafeSub(src.Amount, amount)
	if underflow {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, src.Address, src.Amount, amount)
	}
	credit, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", ErrOverflow, dst.Address)
	}

	src.Amount = debit
	dst.Amount = credit
	return nil
}
