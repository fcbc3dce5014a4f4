// Package config loads runtime configuration from flags, environment
// variables, and an optional config file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"launchpad/internal/registry"
	"launchpad/internal/wallet"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURLs        []string
	ChainID        uint64
	Networks       []NetworkEntry
	Addresses      map[string]string
	PrivateKey     string
	KeystorePath   string
	KeystorePass   string
	Mnemonic       string
	MnemonicIndex  uint32
	CacheTTL       time.Duration
	JournalPath    string
	ProfilesPath   string
	PGDSN          string
	ListenAddr     string
	AutoApprove    bool
	TxTimeout      time.Duration
	TxPollInterval time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
	RateLimit      float64
	LogLevel       string
}

// NetworkEntry is one row of the configured network table.
type NetworkEntry struct {
	ChainID     uint64 `mapstructure:"chain-id"`
	Name        string `mapstructure:"name"`
	Currency    string `mapstructure:"currency"`
	RPCURL      string `mapstructure:"rpc-url"`
	ExplorerURL string `mapstructure:"explorer-url"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", wallet.Sepolia.ChainID)
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("profiles", "./data/profiles.json")
	v.SetDefault("listen", ":8080")
	v.SetDefault("tx-timeout", 3*time.Minute)
	v.SetDefault("tx-poll-interval", 2*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("rate-limit", 20.0)
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

	var networks []NetworkEntry
	if v.IsSet("networks") {
		if err := v.UnmarshalKey("networks", &networks); err != nil {
			return Config{}, fmt.Errorf("parse networks: %w", err)
		}
	}

	cfg := Config{
		RPCURLs:        getStringSlice(v, "rpc"),
		ChainID:        v.GetUint64("chain-id"),
		Networks:       networks,
		Addresses:      contractAddresses(v),
		PrivateKey:     v.GetString("private-key"),
		KeystorePath:   v.GetString("keystore"),
		KeystorePass:   v.GetString("keystore-pass"),
		Mnemonic:       v.GetString("mnemonic"),
		MnemonicIndex:  v.GetUint32("mnemonic-index"),
		CacheTTL:       v.GetDuration("cache-ttl"),
		JournalPath:    v.GetString("journal"),
		ProfilesPath:   v.GetString("profiles"),
		PGDSN:          v.GetString("pg-dsn"),
		ListenAddr:     v.GetString("listen"),
		AutoApprove:    v.GetBool("yes"),
		TxTimeout:      v.GetDuration("tx-timeout"),
		TxPollInterval: v.GetDuration("tx-poll-interval"),
		RetryAttempts:  v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		RateLimit:      v.GetFloat64("rate-limit"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// contractAddresses collects the per-contract address keys into the
// registry's logical-name map.
func contractAddresses(v *viper.Viper) map[string]string {
	return map[string]string{
		registry.TokenSaleFactory: v.GetString("factory-address"),
		registry.StakingContract:  v.GetString("staking-address"),
		registry.StakingToken:     v.GetString("staking-token-address"),
		registry.TierSystem:       v.GetString("tier-system-address"),
		registry.TierNFT:          v.GetString("tier-nft-address"),
		registry.Vesting:          v.GetString("vesting-address"),
	}
}

// RequiredNetwork resolves the params for the configured chain id,
// preferring the configured network table over the builtins.
func (c Config) RequiredNetwork() wallet.NetworkParams {
	for _, entry := range c.Networks {
		if entry.ChainID == c.ChainID {
			return entry.Params()
		}
	}
	if params, ok := c.NetworkTable().Lookup(c.ChainID); ok {
		return params
	}
	return wallet.NetworkParams{ChainID: c.ChainID, Name: fmt.Sprintf("chain-%d", c.ChainID)}
}

// NetworkTable builds the full lookup table: builtins overlaid with the
// configured entries. The primary RPC URL backfills the required chain's
// entry when the table leaves it blank.
func (c Config) NetworkTable() wallet.NetworkTable {
	table := wallet.NetworkTable{
		wallet.Sepolia.ChainID: wallet.Sepolia,
	}
	for _, entry := range c.Networks {
		table[entry.ChainID] = entry.Params()
	}
	if len(c.RPCURLs) > 0 {
		if params, ok := table[c.ChainID]; ok && params.RPCURL == "" {
			params.RPCURL = c.RPCURLs[0]
			table[c.ChainID] = params
		}
	}
	return table
}

// Params converts a config entry to wallet network params.
func (e NetworkEntry) Params() wallet.NetworkParams {
	return wallet.NetworkParams{
		ChainID:     e.ChainID,
		Name:        e.Name,
		Currency:    e.Currency,
		RPCURL:      e.RPCURL,
		ExplorerURL: e.ExplorerURL,
	}
}

// Signer builds the signer from whichever key material is configured.
// Returns nil when none is set; read-only use stays possible.
func (c Config) Signer() (*wallet.Signer, error) {
	switch {
	case c.PrivateKey != "":
		return wallet.NewSignerFromHex(c.PrivateKey)
	case c.KeystorePath != "":
		return wallet.NewSignerFromKeystore(c.KeystorePath, c.KeystorePass)
	case c.Mnemonic != "":
		return wallet.NewSignerFromMnemonic(c.Mnemonic, "", c.MnemonicIndex)
	default:
		return nil, nil
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
