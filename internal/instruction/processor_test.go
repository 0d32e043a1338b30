package instruction

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"liquidityPool/internal/dex"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pda"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/storage/kv"
	"liquidityPool/internal/token"
)

var testProgramID = solana.MustPublicKeyFromBase58("HHtpy5cez4guhvwoXVCZzo8EUce6ouJyXaxZ7r9CVR24")

type fixture struct {
	proc    *Processor
	sess    storage.Session
	ledger  *token.Ledger
	payer   solana.PublicKey
	mintOne solana.PublicKey
	mintTwo solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	backend, err := kv.Open("", true)
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	sess, err := backend.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { sess.Rollback(ctx) })

	proc, err := NewProcessor(testProgramID, 30, nil)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	f := &fixture{
		proc:    proc,
		sess:    sess,
		ledger:  token.NewLedger(sess, testProgramID),
		payer:   solana.NewWallet().PublicKey(),
		mintOne: solana.NewWallet().PublicKey(),
		mintTwo: solana.NewWallet().PublicKey(),
	}
	for _, mint := range []solana.PublicKey{f.mintOne, f.mintTwo} {
		if _, err := f.ledger.CreateMint(ctx, mint, 0); err != nil {
			t.Fatalf("create mint: %v", err)
		}
		account, err := f.ledger.CreateTokenAccount(ctx, f.payer, mint)
		if err != nil {
			t.Fatalf("create token account: %v", err)
		}
		if _, err := f.ledger.MintTo(ctx, account.Address, 1_000_000); err != nil {
			t.Fatalf("mint to: %v", err)
		}
	}
	return f
}

func (f *fixture) process(t *testing.T, ix Instruction) Result {
	t.Helper()
	res, err := f.proc.Process(context.Background(), f.sess, ix)
	if err != nil {
		t.Fatalf("%s failed: %v", ix.Name(), err)
	}
	return res
}

func (f *fixture) balance(t *testing.T, owner, mint solana.PublicKey) uint64 {
	t.Helper()
	address, err := pda.TokenAccountAddress(owner, mint)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	account, err := f.ledger.TokenAccount(context.Background(), address)
	if err != nil {
		t.Fatalf("load token account: %v", err)
	}
	return account.Amount
}

func (f *fixture) init(t *testing.T) Result {
	return f.process(t, InitializeLiquidityPool{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo})
}

func TestInitializeCreatesPoolAndVaults(t *testing.T) {
	f := newFixture(t)
	res := f.init(t)

	want, _, err := pda.PoolAddress(testProgramID, f.mintOne, f.mintTwo)
	if err != nil {
		t.Fatalf("derive pool: %v", err)
	}
	if res.Pool.Address != want {
		t.Fatalf("pool address = %s, want %s", res.Pool.Address, want)
	}
	if res.Pool.AssetOne != f.mintOne || res.Pool.AssetTwo != f.mintTwo {
		t.Fatalf("assets not stored as supplied: %+v", res.Pool)
	}
	if res.Pool.TotalShares != 0 || res.Pool.ReserveOne != 0 || res.Pool.ReserveTwo != 0 {
		t.Fatalf("new pool not empty: %+v", res.Pool)
	}
	if f.balance(t, want, f.mintOne) != 0 || f.balance(t, want, f.mintTwo) != 0 {
		t.Fatalf("vaults should exist and be empty")
	}

	account, err := f.sess.LoadMutable(context.Background(), want)
	if err != nil {
		t.Fatalf("load pool account: %v", err)
	}
	if account.Owner != testProgramID || account.Funder != f.payer {
		t.Fatalf("unexpected pool account ownership: %+v", account)
	}
	if len(account.Data) != model.PoolAccountSize {
		t.Fatalf("pool account size = %d", len(account.Data))
	}
}

func TestInitializeRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.proc.Process(context.Background(), f.sess, InitializeLiquidityPool{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintOne})
	if !errors.Is(err, dex.ErrDuplicateAsset) {
		t.Fatalf("expected ErrDuplicateAsset, got %v", err)
	}

	_, err = f.proc.Process(context.Background(), f.sess, InitializeLiquidityPool{Payer: f.payer, MintOne: f.mintOne, MintTwo: solana.NewWallet().PublicKey()})
	if !errors.Is(err, token.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown mint, got %v", err)
	}

	f.init(t)
	_, err = f.proc.Process(context.Background(), f.sess, InitializeLiquidityPool{Payer: f.payer, MintOne: f.mintTwo, MintTwo: f.mintOne})
	if !errors.Is(err, storage.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for reversed pair, got %v", err)
	}
}

func TestLiquidityRoundTrip(t *testing.T) {
	f := newFixture(t)
	res := f.init(t)
	poolAddress := res.Pool.Address

	res = f.process(t, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 100, AmountTwo: 400})
	if res.SharesMinted != 200 {
		t.Fatalf("bootstrap shares = %d, want 200", res.SharesMinted)
	}
	if res.Pool.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", res.Pool.Sequence)
	}
	if f.balance(t, poolAddress, f.mintOne) != 100 || f.balance(t, poolAddress, f.mintTwo) != 400 {
		t.Fatalf("vault balances do not match reserves")
	}

	res = f.process(t, RemoveLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, Shares: 50})
	if res.AmountOne != 25 || res.AmountTwo != 100 {
		t.Fatalf("payout = (%d, %d), want (25, 100)", res.AmountOne, res.AmountTwo)
	}
	if res.Pool.TotalShares != 150 || res.Pool.ReserveOne != 75 || res.Pool.ReserveTwo != 300 {
		t.Fatalf("unexpected pool after removal: %+v", res.Pool)
	}
	if f.balance(t, f.payer, f.mintOne) != 1_000_000-75 {
		t.Fatalf("user balance one = %d", f.balance(t, f.payer, f.mintOne))
	}
}

func TestReversedMintOrderUsesSamePool(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.process(t, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 100, AmountTwo: 400})

	res := f.process(t, AddLiquidity{Payer: f.payer, MintOne: f.mintTwo, MintTwo: f.mintOne, AmountOne: 800, AmountTwo: 200})
	if res.SharesMinted != 400 {
		t.Fatalf("shares = %d, want 400", res.SharesMinted)
	}
	if res.Pool.ReserveOne != 300 || res.Pool.ReserveTwo != 1200 {
		t.Fatalf("reserves = (%d, %d), want (300, 1200)", res.Pool.ReserveOne, res.Pool.ReserveTwo)
	}

	res = f.process(t, RemoveLiquidity{Payer: f.payer, MintOne: f.mintTwo, MintTwo: f.mintOne, Shares: 300})
	if res.AmountOne != 600 || res.AmountTwo != 150 {
		t.Fatalf("payout in request order = (%d, %d), want (600, 150)", res.AmountOne, res.AmountTwo)
	}
}

func TestSwapThroughProcessor(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.process(t, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 1000, AmountTwo: 4000})
	before := f.balance(t, f.payer, f.mintTwo)

	res := f.process(t, Swap{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, InputMint: f.mintOne, AmountIn: 100, MinAmountOut: 300})
	if res.Swap == nil || res.Swap.AmountOut != 360 || res.Swap.Fee != 1 {
		t.Fatalf("unexpected swap result: %+v", res.Swap)
	}
	if res.Pool.ReserveOne != 1100 || res.Pool.ReserveTwo != 3640 {
		t.Fatalf("reserves = (%d, %d)", res.Pool.ReserveOne, res.Pool.ReserveTwo)
	}
	if got := f.balance(t, f.payer, f.mintTwo); got != before+360 {
		t.Fatalf("user output balance = %d, want %d", got, before+360)
	}

	_, err := f.proc.Process(context.Background(), f.sess, Swap{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, InputMint: f.mintTwo, AmountIn: 100, MinAmountOut: 1000})
	if !errors.Is(err, dex.ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}
}

func TestInstructionsOnMissingPool(t *testing.T) {
	f := newFixture(t)
	_, err := f.proc.Process(context.Background(), f.sess, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 1, AmountTwo: 1})
	if !errors.Is(err, storage.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAddLiquidityInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	_, err := f.proc.Process(context.Background(), f.sess, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 2_000_000, AmountTwo: 4})
	if !errors.Is(err, dex.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMintDecimalsCache(t *testing.T) {
	cache := NewMintDecimalsCache()
	mint := solana.NewWallet().PublicKey()
	if _, ok := cache.Get(mint); ok {
		t.Fatalf("empty cache should miss")
	}
	cache.Set(mint, 9)
	if got, ok := cache.Get(mint); !ok || got != 9 {
		t.Fatalf("cache get = (%d, %v)", got, ok)
	}
}

func TestNewProcessorRejectsBadConfig(t *testing.T) {
	if _, err := NewProcessor(solana.PublicKey{}, 30, nil); err == nil {
		t.Fatalf("expected error for zero program id")
	}
	if _, err := NewProcessor(testProgramID, 10_001, nil); !errors.Is(err, dex.ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}

func TestRemoveLiquidityRejectsDuplicateMints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poolAddress := f.init(t).Pool.Address
	f.process(t, AddLiquidity{Payer: f.payer, MintOne: f.mintOne, MintTwo: f.mintTwo, AmountOne: 100, AmountTwo: 400})

	before, err := f.proc.LoadView(ctx, f.sess, f.mintOne, f.mintTwo)
	if err != nil {
		t.Fatalf("load view: %v", err)
	}

	for _, mint := range []solana.PublicKey{f.mintOne, f.mintTwo} {
		_, err := f.proc.Process(ctx, f.sess, RemoveLiquidity{Payer: f.payer, MintOne: mint, MintTwo: mint, Shares: 1})
		if !errors.Is(err, dex.ErrDuplicateAsset) {
			t.Fatalf("expected ErrDuplicateAsset, got %v", err)
		}
	}

	after, err := f.proc.LoadView(ctx, f.sess, f.mintOne, f.mintTwo)
	if err != nil {
		t.Fatalf("load view: %v", err)
	}
	if after != before {
		t.Fatalf("pool changed: %+v != %+v", after, before)
	}
	if f.balance(t, poolAddress, f.mintOne) != 100 || f.balance(t, poolAddress, f.mintTwo) != 400 {
		t.Fatalf("vault balances changed")
	}
	if f.balance(t, f.payer, f.mintOne) != 1_000_000-100 {
		t.Fatalf("user balance changed")
	}
}
