// Package config loads process configuration from the environment and
// an optional config file.
package config

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/viper"
)

// Config is the server configuration. Every field maps to an
// environment variable with the REDCIRCLE_ prefix, e.g.
// REDCIRCLE_HTTP_ADDR, and to the same key in an optional config.yaml.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	// Storage. Empty DSNs together with UseMemory select the in-memory
	// backends.
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
	UseMemory     bool   `mapstructure:"use_memory"`

	// Solana endpoints and the bonding-curve program.
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	WSEndpoint  string `mapstructure:"ws_endpoint"`
	ProgramID   string `mapstructure:"program_id"`

	// AuthorityKey is the base58-encoded ed25519 key that co-signs
	// swaps for pools requiring it: either a 32-byte seed or a 64-byte
	// private key. Optional.
	AuthorityKey string `mapstructure:"authority_key"`

	// ReserveStaleAfter bounds how old a cached reserve snapshot may be
	// before trades fall back to RPC.
	ReserveStaleAfter time.Duration `mapstructure:"reserve_stale_after"`

	MetricsNamespace string `mapstructure:"metrics_namespace"`
	LogLevel         string `mapstructure:"log_level"`
}

// Load reads configuration from config.yaml (if present in the working
// directory) and the environment. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("use_memory", false)
	v.SetDefault("reserve_stale_after", 30*time.Second)
	v.SetDefault("metrics_namespace", "redcircle_trading")
	v.SetDefault("log_level", "info")

	// Keys without a meaningful default still need one registered, or
	// AutomaticEnv will not surface them through Unmarshal.
	for _, key := range []string{
		"postgres_dsn", "clickhouse_dsn", "rpc_endpoint", "ws_endpoint",
		"program_id", "authority_key",
	} {
		v.SetDefault(key, "")
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REDCIRCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration can run a server.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.ProgramID == "" {
		return fmt.Errorf("program_id is required")
	}
	if !c.UseMemory && (c.PostgresDSN == "" || c.ClickhouseDSN == "") {
		return fmt.Errorf("postgres_dsn and clickhouse_dsn are required (or set use_memory)")
	}
	if _, err := c.Authority(); err != nil {
		return err
	}
	return nil
}

// Authority decodes the configured authority key. Returns nil when no
// key is configured.
func (c *Config) Authority() (ed25519.PrivateKey, error) {
	if c.AuthorityKey == "" {
		return nil, nil
	}
	raw, err := base58.Decode(c.AuthorityKey)
	if err != nil {
		return nil, fmt.Errorf("authority_key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("authority_key: expected %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}
