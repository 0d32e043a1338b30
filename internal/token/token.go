// Package token is the fungible asset ledger pools move reserves through.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/model"
)

var (
	ErrNotFound          = errors.New("token record not found")
	ErrAlreadyExists     = errors.New("token record already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintMismatch      = errors.New("token accounts hold different mints")
	ErrOwnerMismatch     = errors.New("authority does not own the source account")
	ErrOverflow          = errors.New("token amount overflow")
)

// Authority authorizes a transfer out of a token account. Exactly one of
// Signer or Seeds is set: Signer for a user signature, Seeds for an account
// the program signs for.
type Authority struct {
	Signer solana.PublicKey
	Seeds  [][]byte
}

// UserAuthority is a transfer signed by signer.
func UserAuthority(signer solana.PublicKey) Authority {
	return Authority{Signer: signer}
}

// ProgramAuthority is a transfer signed by the program for the address seeds derive to.
func ProgramAuthority(seeds [][]byte) Authority {
	return Authority{Seeds: seeds}
}

// Resolve returns the account the authority speaks for.
func (a Authority) Resolve(programID solana.PublicKey) (solana.PublicKey, error) {
	if len(a.Seeds) == 0 {
		if a.Signer.IsZero() {
			return solana.PublicKey{}, fmt.Errorf("%w: empty authority", ErrOwnerMismatch)
		}
		return a.Signer, nil
	}
	addr, err := solana.CreateProgramAddress(a.Seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrOwnerMismatch, err)
	}
	return addr, nil
}

// Transferer moves a fixed amount between two token accounts.
type Transferer interface {
	Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64, auth Authority) error
}

// Records is the raw persistence a Ledger runs on. Get methods return
// ErrNotFound for missing records.
type Records interface {
	GetMint(ctx context.Context, address solana.PublicKey) (model.Mint, error)
	PutMint(ctx context.Context, mint model.Mint) error
	GetTokenAccount(ctx context.Context, address solana.PublicKey) (model.TokenAccount, error)
	PutTokenAccount(ctx context.Context, account model.TokenAccount) error
}
