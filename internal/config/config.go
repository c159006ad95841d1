package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityDecrease/internal/registry"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	PositionManager string
	StateView       string
	Recipient       string
	PrivateKey      string

	Tokens []registry.Entry

	CushionBps           uint32
	FullBurnBps          uint32
	MinFallbackLiquidity int64
	Debounce             time.Duration
	ResolveTimeout       time.Duration
	DeadlineWindow       time.Duration
	MaxRetries           int
	RetryBackoff         time.Duration

	PGDSN    string
	Out      string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DECREASER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("cushion-bps", uint32(1))
	v.SetDefault("full-burn-bps", uint32(9900))
	v.SetDefault("min-fallback-liquidity", int64(1000))
	v.SetDefault("debounce", 300*time.Millisecond)
	v.SetDefault("resolve-timeout", 10*time.Second)
	v.SetDefault("deadline-window", 20*time.Minute)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("out", "./data/plans.jsonl")
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

	var tokens []registry.Entry
	if v.IsSet("tokens") {
		if err := v.UnmarshalKey("tokens", &tokens); err != nil {
			return Config{}, fmt.Errorf("parse tokens: %w", err)
		}
	}

	cfg := Config{
		RPCURL:               v.GetString("rpc"),
		PositionManager:      v.GetString("position-manager"),
		StateView:            v.GetString("state-view"),
		Recipient:            v.GetString("recipient"),
		PrivateKey:           v.GetString("private-key"),
		Tokens:               tokens,
		CushionBps:           v.GetUint32("cushion-bps"),
		FullBurnBps:          v.GetUint32("full-burn-bps"),
		MinFallbackLiquidity: v.GetInt64("min-fallback-liquidity"),
		Debounce:             v.GetDuration("debounce"),
		ResolveTimeout:       v.GetDuration("resolve-timeout"),
		DeadlineWindow:       v.GetDuration("deadline-window"),
		MaxRetries:           v.GetInt("max-retries"),
		RetryBackoff:         v.GetDuration("retry-backoff"),
		PGDSN:                v.GetString("pg-dsn"),
		Out:                  v.GetString("out"),
		LogLevel:             v.GetString("log-level"),
	}

	return cfg, nil
}
