// Package host runs instructions as atomic units of work over a storage backend.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"liquidityPool/internal/instruction"
	"liquidityPool/internal/model"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

// Host owns a backend, processor and journal.
type Host struct {
	backend   storage.Backend
	processor *instruction.Processor
	journal   storage.Journal
	logger    *zap.Logger
	now       func() time.Time
}

// New returns a host. A nil journal discards records and a nil logger discards output.
func New(backend storage.Backend, processor *instruction.Processor, journal storage.Journal, logger *zap.Logger) (*Host, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor is nil")
	}
	if journal == nil {
		journal = storage.NopJournal{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		backend:   backend,
		processor: processor,
		journal:   journal,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Execute runs ix in its own session. Either every effect of ix is committed
// or none is.
func (h *Host) Execute(ctx context.Context, ix instruction.Instruction) (instruction.Result, error) {
	var res instruction.Result
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		res, err = h.processor.Process(ctx, sess, ix)
		return err
	})

	record := model.InstructionRecord{
		Instruction: ix.Name(),
		Payer:       ix.Signer().String(),
		Args:        ix.Args(),
		Success:     err == nil,
		ExecutedAt:  h.now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		record.Error = err.Error()
	} else {
		record.Pool = res.Pool.Address.String()
		record.TotalShares = res.Pool.TotalShares
		record.ReserveOne = res.Pool.ReserveOne
		record.ReserveTwo = res.Pool.ReserveTwo
		record.Sequence = res.Pool.Sequence
	}
	if jerr := h.journal.Append(record); jerr != nil {
		h.logger.Error("journal append failed", zap.String("instruction", ix.Name()), zap.Error(jerr))
	}

	if err != nil {
		h.logger.Warn("instruction rejected",
			zap.String("instruction", ix.Name()),
			zap.String("payer", record.Payer),
			zap.Error(err),
		)
		return instruction.Result{}, err
	}
	h.logger.Info("instruction executed",
		zap.String("instruction", ix.Name()),
		zap.String("pool", record.Pool),
		zap.Uint64("total_shares", record.TotalShares),
		zap.Uint64("reserve_one", record.ReserveOne),
		zap.Uint64("reserve_two", record.ReserveTwo),
		zap.Uint64("sequence", record.Sequence),
	)
	return res, nil
}

// CreateMint registers a mint with zero supply.
func (h *Host) CreateMint(ctx context.Context, address solana.PublicKey, decimals uint8) (model.Mint, error) {
	var mint model.Mint
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		mint, err = h.ledger(sess).CreateMint(ctx, address, decimals)
		return err
	})
	return mint, err
}

// CreateTokenAccount returns the associated token account of owner for mint, creating it when missing.
func (h *Host) CreateTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (model.TokenAccount, error) {
	var account model.TokenAccount
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		account, err = h.ledger(sess).CreateTokenAccount(ctx, owner, mint)
		return err
	})
	return account, err
}

// MintTo credits amount of new supply to a token account.
func (h *Host) MintTo(ctx context.Context, address solana.PublicKey, amount uint64) (model.TokenAccount, error) {
	var account model.TokenAccount
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		account, err = h.ledger(sess).MintTo(ctx, address, amount)
		return err
	})
	return account, err
}

// TokenAccount reads a token account.
func (h *Host) TokenAccount(ctx context.Context, address solana.PublicKey) (model.TokenAccount, error) {
	var account model.TokenAccount
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		account, err = h.ledger(sess).TokenAccount(ctx, address)
		return err
	})
	return account, err
}

// Pool returns the current state of the pool for an unordered mint pair.
func (h *Host) Pool(ctx context.Context, mintOne, mintTwo solana.PublicKey) (model.PoolView, error) {
	var view model.PoolView
	err := h.withSession(ctx, func(sess storage.Session) error {
		var err error
		view, err = h.processor.LoadView(ctx, sess, mintOne, mintTwo)
		return err
	})
	return view, err
}

func (h *Host) ledger(sess storage.Session) *token.Ledger {
	return token.NewLedger(sess, h.processor.ProgramID())
}

func (h *Host) withSession(ctx context.Context, fn func(storage.Session) error) error {
	sess, err := h.backend.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	if err := fn(sess); err != nil {
		h.rollback(ctx, sess)
		return err
	}
	if err := sess.Commit(ctx); err != nil {
		h.rollback(ctx, sess)
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

func (h *Host) rollback(ctx context.Context, sess storage.Session) {
	if err := sess.Rollback(ctx); err != nil {
		h.logger.Error("rollback failed", zap.Error(err))
	}
}
