package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityPool/internal/config"
	"liquidityPool/internal/host"
	"liquidityPool/internal/instruction"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/storage/kv"
	"liquidityPool/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dex",
		Short:        "Two-asset liquidity pool ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("backend", config.BackendPebble, "storage backend (pebble, postgres)")
	flags.String("data-dir", "./data/dex", "pebble data directory")
	flags.Bool("in-memory", false, "keep pebble data in memory only")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("program-id", config.DefaultProgramID, "program id pools are derived from")
	flags.Uint16("fee-bps", 30, "swap fee in basis points")
	flags.String("journal", "", "optional JSONL instruction journal path")
	flags.Int64("journal-max-bytes", 64<<20, "rotate the journal past this size, 0 disables rotation")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("max-retries", 5, "maximum connect retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial connect retry backoff")

	root.AddCommand(
		newCreateMintCmd(),
		newCreateAccountCmd(),
		newMintToCmd(),
		newInitPoolCmd(),
		newAddLiquidityCmd(),
		newRemoveLiquidityCmd(),
		newSwapCmd(),
		newPoolCmd(),
		newServeCmd(),
	)
	return root
}

// runtime is everything a command needs to talk to the pool ledger.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	backend storage.Backend
	host    *host.Host
}

func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	proc, err := instruction.NewProcessor(cfg.ProgramID, cfg.FeeBps, logger)
	if err != nil {
		backend.Close()
		logger.Sync()
		return nil, err
	}

	var journal storage.Journal = storage.NopJournal{}
	if cfg.Journal != "" {
		journal = storage.NewJsonlJournal(cfg.Journal, cfg.JournalMax)
	}

	h, err := host.New(backend, proc, journal, logger)
	if err != nil {
		backend.Close()
		logger.Sync()
		return nil, err
	}

	logger.Debug("runtime ready",
		zap.String("backend", cfg.Backend),
		zap.Stringer("program_id", cfg.ProgramID),
		zap.Uint16("fee_bps", cfg.FeeBps),
		zap.String("journal", cfg.Journal),
	)
	return &runtime{cfg: cfg, logger: logger, backend: backend, host: h}, nil
}

func (r *runtime) Close() {
	if err := r.backend.Close(); err != nil {
		r.logger.Warn("close backend", zap.Error(err))
	}
	r.logger.Sync()
}

func openBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		backend, err := postgres.NewBackend(ctx, cfg.PGDSN, cfg.MaxRetries, cfg.RetryBackoff)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := backend.EnsureSchema(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return backend, nil
	default:
		return kv.Open(cfg.DataDir, cfg.InMemory)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
