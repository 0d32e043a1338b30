// Package kv keeps pool accounts and token balances in pebble.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"

	"liquidityPool/internal/model"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

var (
	ErrDBClosed = errors.New("database is closed")

	errKeyNotFound = errors.New("key not found")

	accountPrefix      = []byte("acct/")
	mintPrefix         = []byte("mint/")
	tokenAccountPrefix = []byte("tacct/")
)

// Backend runs one session at a time against a pebble database.
type Backend struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens the database in dir, or a fresh in-memory one.
func Open(dir string, inMemory bool) (*Backend, error) {
	opts := &pebble.Options{}
	if inMemory {
		opts.FS = vfs.NewMem()
		dir = ""
	} else if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &Backend{db: db}, nil
}

// Begin starts a session. It blocks until the previous session finished.
func (b *Backend) Begin(ctx context.Context) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	if b.db == nil {
		b.mu.Unlock()
		return nil, ErrDBClosed
	}
	return &session{backend: b, batch: b.db.NewIndexedBatch()}, nil
}

// Close closes the database. It waits for an open session to finish.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type session struct {
	backend *Backend
	batch   *pebble.Batch
	done    bool
}

func key(prefix []byte, address solana.PublicKey) []byte {
	out := make([]byte, 0, len(prefix)+len(address))
	out = append(out, prefix...)
	return append(out, address[:]...)
}

func (s *session) get(k []byte, out interface{}) error {
	if s.done {
		return ErrDBClosed
	}
	val, closer, err := s.batch.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return errKeyNotFound
		}
		return err
	}
	defer closer.Close()

	// Copy the value out
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return borsh.Deserialize(out, valCopy)
}

func (s *session) put(k []byte, value interface{}) error {
	if s.done {
		return ErrDBClosed
	}
	data, err := borsh.Serialize(value)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	return s.batch.Set(k, data, nil)
}

func (s *session) finish() {
	if s.done {
		return
	}
	s.done = true
	s.batch.Close()
	s.backend.mu.Unlock()
}

func (s *session) Commit(ctx context.Context) error {
	if s.done {
		return ErrDBClosed
	}
	defer s.finish()
	if err := s.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards the session. It is a no-op after Commit.
func (s *session) Rollback(ctx context.Context) error {
	s.finish()
	return nil
}

func (s *session) Create(ctx context.Context, address, owner solana.PublicKey, size int, payer solana.PublicKey) error {
	if size < 0 {
		return fmt.Errorf("invalid account size %d", size)
	}
	var existing model.Account
	err := s.get(key(accountPrefix, address), &existing)
	if err == nil {
		return fmt.Errorf("%w: %s", storage.ErrAccountExists, address)
	}
	if !errors.Is(err, errKeyNotFound) {
		return err
	}
	return s.put(key(accountPrefix, address), model.Account{
		Address: address,
		Owner:   owner,
		Funder:  payer,
		Data:    make([]byte, size),
	})
}

func (s *session) LoadMutable(ctx context.Context, address solana.PublicKey) (model.Account, error) {
	var account model.Account
	if err := s.get(key(accountPrefix, address), &account); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return model.Account{}, fmt.Errorf("%w: %s", storage.ErrAccountNotFound, address)
		}
		return model.Account{}, err
	}
	return account, nil
}

func (s *session) Persist(ctx context.Context, account model.Account) error {
	existing, err := s.LoadMutable(ctx, account.Address)
	if err != nil {
		return err
	}
	if len(account.Data) > len(existing.Data) {
		return fmt.Errorf("%w: %d > %d bytes", storage.ErrAccountTooSmall, len(account.Data), len(existing.Data))
	}
	existing.Data = storage.ResizeData(account.Data, len(existing.Data))
	return s.put(key(accountPrefix, account.Address), existing)
}

func (s *session) Resize(ctx context.Context, address solana.PublicKey, newSize int) error {
	if newSize < 0 {
		return fmt.Errorf("invalid account size %d", newSize)
	}
	existing, err := s.LoadMutable(ctx, address)
	if err != nil {
		return err
	}
	existing.Data = storage.ResizeData(existing.Data, newSize)
	return s.put(key(accountPrefix, address), existing)
}

func (s *session) GetMint(ctx context.Context, address solana.PublicKey) (model.Mint, error) {
	var mint model.Mint
	if err := s.get(key(mintPrefix, address), &mint); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return model.Mint{}, fmt.Errorf("%w: mint %s", token.ErrNotFound, address)
		}
		return model.Mint{}, err
	}
	return mint, nil
}

func (s *session) PutMint(ctx context.Context, mint model.Mint) error {
	return s.put(key(mintPrefix, mint.Address), mint)
}

func (s *session) GetTokenAccount(ctx context.Context, address solana.PublicKey) (model.TokenAccount, error) {
	var account model.TokenAccount
	if err := s.get(key(tokenAccountPrefix, address), &account); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return model.TokenAccount{}, fmt.Errorf("%w: token account %s", token.ErrNotFound, address)
		}
		return model.TokenAccount{}, err
	}
	return account, nil
}

func (s *session) PutTokenAccount(ctx context.Context, account model.TokenAccount) error {
	return s.put(key(tokenAccountPrefix, account.Address), account)
}
