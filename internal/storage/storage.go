package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/model"
	"liquidityPool/internal/token"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountTooSmall = errors.New("account data exceeds allocated size")
)

// AccountStore is durable storage for program-owned accounts.
type AccountStore interface {
	// Create allocates a zeroed account of size bytes at address.
	Create(ctx context.Context, address, owner solana.PublicKey, size int, payer solana.PublicKey) error
	// LoadMutable returns the account at address and holds it for the rest of the session.
	LoadMutable(ctx context.Context, address solana.PublicKey) (model.Account, error)
	// Persist writes account data back. The data must fit the allocation.
	Persist(ctx context.Context, account model.Account) error
	// Resize changes the allocation, keeping the existing prefix.
	Resize(ctx context.Context, address solana.PublicKey, newSize int) error
}

// Session is one atomic unit of work over accounts and token balances.
// Nothing written through a session is visible to others until Commit.
type Session interface {
	AccountStore
	token.Records
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Backend opens sessions.
type Backend interface {
	Begin(ctx context.Context) (Session, error)
	Close() error
}

// Journal records executed instructions.
type Journal interface {
	Append(records ...model.InstructionRecord) error
}

// NopJournal discards records.
type NopJournal struct{}

// Append drops records.
func (NopJournal) Append(...model.InstructionRecord) error { return nil }

// ResizeData returns data grown with zeros or truncated to size.
func ResizeData(data []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, data)
	return out
}
