package instruction

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"liquidityPool/internal/dex"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pda"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

// Processor executes instructions inside a storage session. It never commits;
// the caller owns the session.
type Processor struct {
	programID solana.PublicKey
	feeBps    uint16
	decimals  *MintDecimalsCache
	logger    *zap.Logger
}

// NewProcessor returns a processor for pools derived from programID.
func NewProcessor(programID solana.PublicKey, feeBps uint16, logger *zap.Logger) (*Processor, error) {
	if programID.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	if feeBps > dex.BasisPointDivisor {
		return nil, dex.ErrInvalidFee
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		programID: programID,
		feeBps:    feeBps,
		decimals:  NewMintDecimalsCache(),
		logger:    logger,
	}, nil
}

// ProgramID returns the program pools are derived from.
func (p *Processor) ProgramID() solana.PublicKey { return p.programID }

// poolContext is a loaded pool and the accounts around it, oriented to the
// pool's stored asset order.
type poolContext struct {
	address  solana.PublicKey
	account  model.Account
	pool     *model.LiquidityPool
	accounts dex.Accounts
	// flipped is set when the request named the mints in the opposite order.
	flipped bool
}

// Process runs ix against sess.
func (p *Processor) Process(ctx context.Context, sess storage.Session, ix Instruction) (Result, error) {
	ledger := token.NewLedger(sess, p.programID)
	engine, err := dex.NewEngine(p.programID, ledger, p.feeBps, p.logger)
	if err != nil {
		return Result{}, err
	}

	switch ix := ix.(type) {
	case InitializeLiquidityPool:
		return p.initialize(ctx, sess, ledger, engine, ix)
	case AddLiquidity:
		return p.addLiquidity(ctx, sess, ledger, engine, ix)
	case RemoveLiquidity:
		return p.removeLiquidity(ctx, sess, ledger, engine, ix)
	case Swap:
		return p.swap(ctx, sess, ledger, engine, ix)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownInstruction, ix)
	}
}

func (p *Processor) initialize(ctx context.Context, sess storage.Session, ledger *token.Ledger, engine *dex.Engine, ix InitializeLiquidityPool) (Result, error) {
	if ix.MintOne.Equals(ix.MintTwo) {
		return Result{}, fmt.Errorf("%w: %s", dex.ErrDuplicateAsset, ix.MintOne)
	}
	decOne, err := p.mintDecimals(ctx, ledger, ix.MintOne)
	if err != nil {
		return Result{}, err
	}
	decTwo, err := p.mintDecimals(ctx, ledger, ix.MintTwo)
	if err != nil {
		return Result{}, err
	}

	pool, address, err := engine.Initialize(ix.MintOne, ix.MintTwo)
	if err != nil {
		return Result{}, err
	}
	if err := sess.Create(ctx, address, p.programID, model.PoolAccountSize, ix.Payer); err != nil {
		return Result{}, fmt.Errorf("create pool account: %w", err)
	}
	if err := p.ensureVaults(ctx, ledger, address, &pool); err != nil {
		return Result{}, err
	}

	account := model.Account{Address: address}
	if err := p.store(ctx, sess, &account, &pool); err != nil {
		return Result{}, err
	}
	return Result{
		Instruction: ix.Name(),
		Pool:        p.view(address, &pool, decOne, decTwo),
	}, nil
}

func (p *Processor) addLiquidity(ctx context.Context, sess storage.Session, ledger *token.Ledger, engine *dex.Engine, ix AddLiquidity) (Result, error) {
	pc, err := p.loadPool(ctx, sess, ix.Payer, ix.MintOne, ix.MintTwo)
	if err != nil {
		return Result{}, err
	}
	decOne, decTwo, err := p.poolDecimals(ctx, ledger, pc.pool)
	if err != nil {
		return Result{}, err
	}
	if err := p.ensureVaults(ctx, ledger, pc.address, pc.pool); err != nil {
		return Result{}, err
	}

	amountOne, amountTwo := orient(pc.flipped, ix.AmountOne, ix.AmountTwo)
	shares, err := engine.AddLiquidity(ctx, pc.pool, dex.Deposit{
		Accounts:    pc.accounts,
		AmountOne:   amountOne,
		AmountTwo:   amountTwo,
		DecimalsOne: decOne,
		DecimalsTwo: decTwo,
	})
	if err != nil {
		return Result{}, err
	}
	if err := p.store(ctx, sess, &pc.account, pc.pool); err != nil {
		return Result{}, err
	}
	return Result{
		Instruction:  ix.Name(),
		Pool:         p.view(pc.address, pc.pool, decOne, decTwo),
		SharesMinted: shares,
		AmountOne:    ix.AmountOne,
		AmountTwo:    ix.AmountTwo,
	}, nil
}

func (p *Processor) removeLiquidity(ctx context.Context, sess storage.Session, ledger *token.Ledger, engine *dex.Engine, ix RemoveLiquidity) (Result, error) {
	pc, err := p.loadPool(ctx, sess, ix.Payer, ix.MintOne, ix.MintTwo)
	if err != nil {
		return Result{}, err
	}
	decOne, decTwo, err := p.poolDecimals(ctx, ledger, pc.pool)
	if err != nil {
		return Result{}, err
	}

	outOne, outTwo, err := engine.RemoveLiquidity(ctx, pc.pool, dex.Withdrawal{
		Accounts: pc.accounts,
		Shares:   ix.Shares,
	})
	if err != nil {
		return Result{}, err
	}
	if err := p.store(ctx, sess, &pc.account, pc.pool); err != nil {
		return Result{}, err
	}
	amountOne, amountTwo := orient(pc.flipped, outOne, outTwo)
	return Result{
		Instruction:  ix.Name(),
		Pool:         p.view(pc.address, pc.pool, decOne, decTwo),
		SharesBurned: ix.Shares,
		AmountOne:    amountOne,
		AmountTwo:    amountTwo,
	}, nil
}

func (p *Processor) swap(ctx context.Context, sess storage.Session, ledger *token.Ledger, engine *dex.Engine, ix Swap) (Result, error) {
	pc, err := p.loadPool(ctx, sess, ix.Payer, ix.MintOne, ix.MintTwo)
	if err != nil {
		return Result{}, err
	}
	decOne, decTwo, err := p.poolDecimals(ctx, ledger, pc.pool)
	if err != nil {
		return Result{}, err
	}

	swapped, err := engine.Swap(ctx, pc.pool, dex.SwapParams{
		Accounts:     pc.accounts,
		InputMint:    ix.InputMint,
		AmountIn:     ix.AmountIn,
		MinAmountOut: ix.MinAmountOut,
	})
	if err != nil {
		return Result{}, err
	}
	if err := p.store(ctx, sess, &pc.account, pc.pool); err != nil {
		return Result{}, err
	}
	return Result{
		Instruction: ix.Name(),
		Pool:        p.view(pc.address, pc.pool, decOne, decTwo),
		Swap:        &swapped,
	}, nil
}

// loadPool resolves the pool for an unordered mint pair and checks the stored
// record matches it.
func (p *Processor) loadPool(ctx context.Context, sess storage.Session, payer, mintOne, mintTwo solana.PublicKey) (*poolContext, error) {
	if mintOne.Equals(mintTwo) {
		return nil, fmt.Errorf("%w: %s", dex.ErrDuplicateAsset, mintOne)
	}
	address, _, err := pda.PoolAddress(p.programID, mintOne, mintTwo)
	if err != nil {
		return nil, err
	}
	account, err := sess.LoadMutable(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	if !account.Owner.Equals(p.programID) {
		return nil, fmt.Errorf("%w: pool %s not owned by program", model.ErrInvalidAccountData, address)
	}
	pool, err := model.DecodeLiquidityPool(account.Data)
	if err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", address, err)
	}
	if err := pool.Validate(); err != nil {
		return nil, fmt.Errorf("pool %s: %w", address, err)
	}

	var flipped bool
	switch {
	case pool.AssetOne == mintOne && pool.AssetTwo == mintTwo:
	case pool.AssetOne == mintTwo && pool.AssetTwo == mintOne:
		flipped = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrPoolMismatch, address)
	}

	accounts, err := p.poolAccounts(payer, address, pool)
	if err != nil {
		return nil, err
	}
	return &poolContext{
		address:  address,
		account:  account,
		pool:     pool,
		accounts: accounts,
		flipped:  flipped,
	}, nil
}

func (p *Processor) poolAccounts(payer, address solana.PublicKey, pool *model.LiquidityPool) (dex.Accounts, error) {
	accounts := dex.Accounts{Owner: payer}
	var err error
	if accounts.UserOne, err = pda.TokenAccountAddress(payer, pool.AssetOne); err != nil {
		return dex.Accounts{}, err
	}
	if accounts.UserTwo, err = pda.TokenAccountAddress(payer, pool.AssetTwo); err != nil {
		return dex.Accounts{}, err
	}
	if accounts.VaultOne, err = pda.VaultAddress(address, pool.AssetOne); err != nil {
		return dex.Accounts{}, err
	}
	if accounts.VaultTwo, err = pda.VaultAddress(address, pool.AssetTwo); err != nil {
		return dex.Accounts{}, err
	}
	return accounts, nil
}

func (p *Processor) ensureVaults(ctx context.Context, ledger *token.Ledger, address solana.PublicKey, pool *model.LiquidityPool) error {
	for _, mint := range []solana.PublicKey{pool.AssetOne, pool.AssetTwo} {
		if _, err := ledger.CreateTokenAccount(ctx, address, mint); err != nil {
			return fmt.Errorf("create vault for %s: %w", mint, err)
		}
	}
	return nil
}

func (p *Processor) store(ctx context.Context, sess storage.Session, account *model.Account, pool *model.LiquidityPool) error {
	if err := pool.Validate(); err != nil {
		return err
	}
	data, err := pool.Encode()
	if err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	account.Data = data
	if err := sess.Persist(ctx, *account); err != nil {
		return fmt.Errorf("persist pool: %w", err)
	}
	return nil
}

func (p *Processor) mintDecimals(ctx context.Context, ledger *token.Ledger, mint solana.PublicKey) (uint8, error) {
	if decimals, ok := p.decimals.Get(mint); ok {
		return decimals, nil
	}
	m, err := ledger.Mint(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("load mint %s: %w", mint, err)
	}
	p.decimals.Set(mint, m.Decimals)
	return m.Decimals, nil
}

func (p *Processor) poolDecimals(ctx context.Context, ledger *token.Ledger, pool *model.LiquidityPool) (uint8, uint8, error) {
	decOne, err := p.mintDecimals(ctx, ledger, pool.AssetOne)
	if err != nil {
		return 0, 0, err
	}
	decTwo, err := p.mintDecimals(ctx, ledger, pool.AssetTwo)
	if err != nil {
		return 0, 0, err
	}
	return decOne, decTwo, nil
}

func (p *Processor) view(address solana.PublicKey, pool *model.LiquidityPool, decOne, decTwo uint8) model.PoolView {
	view := model.NewPoolView(address, pool, decOne, decTwo)
	view.VaultOne, _ = pda.VaultAddress(address, pool.AssetOne)
	view.VaultTwo, _ = pda.VaultAddress(address, pool.AssetTwo)
	return view
}

// LoadView returns the current state of the pool for an unordered mint pair.
func (p *Processor) LoadView(ctx context.Context, sess storage.Session, mintOne, mintTwo solana.PublicKey) (model.PoolView, error) {
	pc, err := p.loadPool(ctx, sess, solana.PublicKey{}, mintOne, mintTwo)
	if err != nil {
		return model.PoolView{}, err
	}
	decOne, decTwo, err := p.poolDecimals(ctx, token.NewLedger(sess, p.programID), pc.pool)
	if err != nil {
		return model.PoolView{}, err
	}
	return p.view(pc.address, pc.pool, decOne, decTwo), nil
}

func orient(flipped bool, one, two uint64) (uint64, uint64) {
	if flipped {
		return two, one
	}
	return one, two
}
