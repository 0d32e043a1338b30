package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/model"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv("DEX_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DEX_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	backend, err := NewBackend(ctx, dsn, 0, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	if err := backend.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	return backend
}

func TestNewBackendRequiresDSN(t *testing.T) {
	if _, err := NewBackend(context.Background(), "", 0, 0); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestSessionAccountLifecycle(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()
	address := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	sess, err := backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := sess.Create(ctx, address, owner, 8, owner); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := sess.Create(ctx, address, owner, 8, owner); !errors.Is(err, storage.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if err := sess.Persist(ctx, model.Account{Address: address, Data: make([]byte, 9)}); !errors.Is(err, storage.ErrAccountTooSmall) {
		t.Fatalf("expected ErrAccountTooSmall, got %v", err)
	}
	if err := sess.Persist(ctx, model.Account{Address: address, Data: []byte{7}}); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	sess, err = backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer sess.Rollback(ctx)
	account, err := sess.LoadMutable(ctx, address)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if account.Owner != owner || len(account.Data) != 8 || account.Data[0] != 7 {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestSessionTokenRecordsKeepFullRange(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()
	mint := model.Mint{Address: solana.NewWallet().PublicKey(), Decimals: 6, Supply: ^uint64(0)}
	account := model.TokenAccount{
		Address: solana.NewWallet().PublicKey(),
		Mint:    mint.Address,
		Owner:   solana.NewWallet().PublicKey(),
		Amount:  ^uint64(0),
	}

	sess, err := backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := sess.PutMint(ctx, mint); err != nil {
		t.Fatalf("put mint failed: %v", err)
	}
	if err := sess.PutTokenAccount(ctx, account); err != nil {
		t.Fatalf("put account failed: %v", err)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	sess, err = backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer sess.Rollback(ctx)
	gotMint, err := sess.GetMint(ctx, mint.Address)
	if err != nil || gotMint != mint {
		t.Fatalf("mint mismatch: %+v, %v", gotMint, err)
	}
	gotAccount, err := sess.GetTokenAccount(ctx, account.Address)
	if err != nil || gotAccount != account {
		t.Fatalf("account mismatch: %+v, %v", gotAccount, err)
	}
	if _, err := sess.GetMint(ctx, solana.NewWallet().PublicKey()); !errors.Is(err, token.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRollbackDiscardsWrites(t *testing.T) {
	backend := openTestBackend(t)
	ctx := context.Background()
	mint := model.Mint{Address: solana.NewWallet().PublicKey(), Decimals: 2}

	sess, err := backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := sess.PutMint(ctx, mint); err != nil {
		t.Fatalf("put mint failed: %v", err)
	}
	if err := sess.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	sess, err = backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer sess.Rollback(ctx)
	if _, err := sess.GetMint(ctx, mint.Address); !errors.Is(err, token.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after rollback, got %v", err)
	}
}
