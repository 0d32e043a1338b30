package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityPool/internal/model"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

// Backend provides Postgres persistence for accounts and token balances.
// Every session is a transaction; rows it reads for mutation are locked.
type Backend struct {
	pool *pgxpool.Pool
}

// NewBackend connects to dsn, retrying the first ping with doubling backoff.
func NewBackend(ctx context.Context, dsn string, maxRetries int, backoff time.Duration) (*Backend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := withRetry(ctx, maxRetries, backoff, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Backend{pool: pool}, nil
}

// EnsureSchema creates the tables if they are missing.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, schema)
	return err
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

// Begin opens a transaction.
func (b *Backend) Begin(ctx context.Context) (storage.Session, error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &session{tx: tx}, nil
}

type session struct {
	tx pgx.Tx
}

func (s *session) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

// Rollback is a no-op once the transaction has been committed.
func (s *session) Rollback(ctx context.Context) error {
	err := s.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (s *session) Create(ctx context.Context, address, owner solana.PublicKey, size int, payer solana.PublicKey) error {
	if size < 0 {
		return fmt.Errorf("invalid account size %d", size)
	}
	tag, err := s.tx.Exec(ctx, `
		INSERT INTO accounts (address, owner, funder, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (address) DO NOTHING
	`, address.String(), owner.String(), payer.String(), make([]byte, size))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrAccountExists, address)
	}
	return nil
}

func (s *session) LoadMutable(ctx context.Context, address solana.PublicKey) (model.Account, error) {
	var owner, funder string
	var data []byte
	row := s.tx.QueryRow(ctx, `SELECT owner, funder, data FROM accounts WHERE address=$1 FOR UPDATE`, address.String())
	if err := row.Scan(&owner, &funder, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, fmt.Errorf("%w: %s", storage.ErrAccountNotFound, address)
		}
		return model.Account{}, err
	}

	account := model.Account{Address: address, Data: data}
	var err error
	if account.Owner, err = solana.PublicKeyFromBase58(owner); err != nil {
		return model.Account{}, fmt.Errorf("decode owner: %w", err)
	}
	if account.Funder, err = solana.PublicKeyFromBase58(funder); err != nil {
		return model.Account{}, fmt.Errorf("decode funder: %w", err)
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
	_, err = s.tx.Exec(ctx, `UPDATE accounts SET data=$2, updated_at=now() WHERE address=$1`,
		account.Address.String(), storage.ResizeData(account.Data, len(existing.Data)))
	return err
}

func (s *session) Resize(ctx context.Context, address solana.PublicKey, newSize int) error {
	if newSize < 0 {
		return fmt.Errorf("invalid account size %d", newSize)
	}
	existing, err := s.LoadMutable(ctx, address)
	if err != nil {
		return err
	}
	_, err = s.tx.Exec(ctx, `UPDATE accounts SET data=$2, updated_at=now() WHERE address=$1`,
		address.String(), storage.ResizeData(existing.Data, newSize))
	return err
}

func (s *session) GetMint(ctx context.Context, address solana.PublicKey) (model.Mint, error) {
	var decimals int16
	var supply string
	row := s.tx.QueryRow(ctx, `SELECT decimals, supply::text FROM mints WHERE address=$1 FOR UPDATE`, address.String())
	if err := row.Scan(&decimals, &supply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Mint{}, fmt.Errorf("%w: mint %s", token.ErrNotFound, address)
		}
		return model.Mint{}, err
	}
	amount, err := strconv.ParseUint(supply, 10, 64)
	if err != nil {
		return model.Mint{}, fmt.Errorf("decode supply: %w", err)
	}
	return model.Mint{Address: address, Decimals: uint8(decimals), Supply: amount}, nil
}

func (s *session) PutMint(ctx context.Context, mint model.Mint) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO mints (address, decimals, supply, updated_at)
		VALUES ($1, $2, $3::text::numeric, now())
		ON CONFLICT (address) DO UPDATE
		SET decimals = EXCLUDED.decimals, supply = EXCLUDED.supply, updated_at = now()
	`, mint.Address.String(), int16(mint.Decimals), strconv.FormatUint(mint.Supply, 10))
	return err
}

func (s *session) GetTokenAccount(ctx context.Context, address solana.PublicKey) (model.TokenAccount, error) {
	var mint, owner, amount string
	row := s.tx.QueryRow(ctx, `SELECT mint, owner, amount::text FROM token_accounts WHERE address=$1 FOR UPDATE`, address.String())
	if err := row.Scan(&mint, &owner, &amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TokenAccount{}, fmt.Errorf("%w: token account %s", token.ErrNotFound, address)
		}
		return model.TokenAccount{}, err
	}

	account := model.TokenAccount{Address: address}
	var err error
	if account.Mint, err = solana.PublicKeyFromBase58(mint); err != nil {
		return model.TokenAccount{}, fmt.Errorf("decode mint: %w", err)
	}
	if account.Owner, err = solana.PublicKeyFromBase58(owner); err != nil {
		return model.TokenAccount{}, fmt.Errorf("decode owner: %w", err)
	}
	if account.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
		return model.TokenAccount{}, fmt.Errorf("decode amount: %w", err)
	}
	return account, nil
}

func (s *session) PutTokenAccount(ctx context.Context, account model.TokenAccount) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO token_accounts (address, mint, owner, amount, updated_at)
		VALUES ($1, $2, $3, $4::text::numeric, now())
		ON CONFLICT (address) DO UPDATE
		SET mint = EXCLUDED.mint, owner = EXCLUDED.owner, amount = EXCLUDED.amount, updated_at = now()
	`, account.Address.String(), account.Mint.String(), account.Owner.String(), strconv.FormatUint(account.Amount, 10))
	return err
}
