package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"

	DefaultProgramID = "HHtpy5cez4guhvwoXVCZzo8EUce6ouJyXaxZ7r9CVR24"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Backend      string
	DataDir      string
	InMemory     bool
	PGDSN        string
	ProgramID    solana.PublicKey
	FeeBps       uint16
	Journal      string
	JournalMax   int64
	Listen       string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendPebble)
	v.SetDefault("data-dir", "./data/dex")
	v.SetDefault("in-memory", false)
	v.SetDefault("program-id", DefaultProgramID)
	v.SetDefault("fee-bps", 30)
	v.SetDefault("journal", "")
	v.SetDefault("journal-max-bytes", int64(64<<20))
	v.SetDefault("listen", ":8080")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	programID, err := solana.PublicKeyFromBase58(v.GetString("program-id"))
	if err != nil {
		return Config{}, fmt.Errorf("parse program id: %w", err)
	}
	feeBps := v.GetUint("fee-bps")
	if feeBps > 10_000 {
		return Config{}, fmt.Errorf("fee-bps %d exceeds 10000", feeBps)
	}

	cfg := Config{
		Backend:      strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		DataDir:      v.GetString("data-dir"),
		InMemory:     v.GetBool("in-memory"),
		PGDSN:        v.GetString("pg-dsn"),
		ProgramID:    programID,
		FeeBps:       uint16(feeBps),
		Journal:      v.GetString("journal"),
		JournalMax:   v.GetInt64("journal-max-bytes"),
		Listen:       v.GetString("listen"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	switch cfg.Backend {
	case BackendPebble:
		if !cfg.InMemory && cfg.DataDir == "" {
			return Config{}, fmt.Errorf("data-dir is required for the pebble backend")
		}
	case BackendPostgres:
		if cfg.PGDSN == "" {
			return Config{}, fmt.Errorf("pg-dsn is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return cfg, nil
}
