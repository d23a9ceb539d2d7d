// Package config loads the immutable process configuration from defaults,
// an optional config file, .env, the environment and CLI flags.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/codec"
	"github.com/yolodolo42/plasma-mcp/internal/faucet"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
	"github.com/yolodolo42/plasma-mcp/internal/tx"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
)

// Keys.
const (
	KeyRPCURL           = "rpc_url"
	KeyChainID          = "chain_id"
	KeyExplorerURL      = "explorer_url"
	KeyPrivateKey       = "wallet_private_key"
	KeyKeystoreDir      = "keystore_dir"
	KeyKeystoreAddress  = "keystore_address"
	KeyKeystorePassword = "keystore_password"
	KeyConfirmTimeout   = "confirm_timeout"
	KeyRPCTimeout       = "rpc_timeout"
	KeyFaucetTimeout    = "faucet_timeout"
	KeyDefaultFaucet    = "default_faucet"
	KeyMaxTxXPL         = "max_tx_xpl"
	KeyAllowTo          = "allow_to"
	KeyDenyTo           = "deny_to"
	KeyHistory          = "history"
	KeyHistoryDB        = "history_db"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

var envNames = map[string]string{
	KeyRPCURL:           "PLASMA_RPC_URL",
	KeyChainID:          "PLASMA_CHAIN_ID",
	KeyExplorerURL:      "PLASMA_EXPLORER_URL",
	KeyPrivateKey:       "WALLET_PRIVATE_KEY",
	KeyKeystoreDir:      "PLASMA_KEYSTORE_DIR",
	KeyKeystoreAddress:  "PLASMA_KEYSTORE_ADDRESS",
	KeyKeystorePassword: "PLASMA_KEYSTORE_PASSWORD",
	KeyConfirmTimeout:   "PLASMA_CONFIRM_TIMEOUT",
	KeyRPCTimeout:       "PLASMA_RPC_TIMEOUT",
	KeyFaucetTimeout:    "PLASMA_FAUCET_TIMEOUT",
	KeyDefaultFaucet:    "PLASMA_DEFAULT_FAUCET",
	KeyMaxTxXPL:         "PLASMA_MAX_TX_XPL",
	KeyAllowTo:          "PLASMA_ALLOW_TO",
	KeyDenyTo:           "PLASMA_DENY_TO",
	KeyHistory:          "PLASMA_HISTORY",
	KeyHistoryDB:        "PLASMA_HISTORY_DB",
	KeyLogLevel:         "LOG_LEVEL",
	KeyLogFormat:        "LOG_FORMAT",
}

// EnvName returns the environment variable bound to a key.
func EnvName(key string) string {
	return envNames[key]
}

// EnvVars lists every environment variable the configuration reads.
func EnvVars() []string {
	out := make([]string, 0, len(envNames))
	for _, env := range envNames {
		out = append(out, env)
	}
	sort.Strings(out)
	return out
}

// Config is built once at startup and passed to every component.
type Config struct {
	RPCURL      string
	ChainID     int64
	ExplorerURL string

	PrivateKey       string
	KeystoreDir      string
	KeystoreAddress  string
	KeystorePassword string

	ConfirmTimeout time.Duration
	RPCTimeout     time.Duration
	FaucetTimeout  time.Duration
	DefaultFaucet  string

	MaxTxXPL string
	AllowTo  []string
	DenyTo   []string

	// History enables the local sqlite record of submitted transactions.
	History   bool
	HistoryDB string

	LogLevel  string
	LogFormat string
}

// DataDir is where the keystore lives unless overridden.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".plasma-mcp"
	}
	return filepath.Join(home, ".plasma-mcp")
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	network := chain.PlasmaTestnet()
	v.SetDefault(KeyRPCURL, network.RPCURL)
	v.SetDefault(KeyChainID, network.ChainID.Int64())
	v.SetDefault(KeyExplorerURL, network.ExplorerURL)
	v.SetDefault(KeyKeystoreDir, filepath.Join(DataDir(), "keystore"))
	v.SetDefault(KeyConfirmTimeout, 2*time.Minute)
	v.SetDefault(KeyRPCTimeout, 30*time.Second)
	v.SetDefault(KeyFaucetTimeout, 10*time.Second)
	v.SetDefault(KeyDefaultFaucet, faucet.DefaultFaucet)
	v.SetDefault(KeyHistory, true)
	v.SetDefault(KeyHistoryDB, filepath.Join(DataDir(), "history.db"))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
}

// Load reads every key from v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RPCURL:           strings.TrimSpace(v.GetString(KeyRPCURL)),
		ChainID:          v.GetInt64(KeyChainID),
		ExplorerURL:      strings.TrimSpace(v.GetString(KeyExplorerURL)),
		PrivateKey:       strings.TrimSpace(v.GetString(KeyPrivateKey)),
		KeystoreDir:      v.GetString(KeyKeystoreDir),
		KeystoreAddress:  strings.TrimSpace(v.GetString(KeyKeystoreAddress)),
		KeystorePassword: v.GetString(KeyKeystorePassword),
		ConfirmTimeout:   v.GetDuration(KeyConfirmTimeout),
		RPCTimeout:       v.GetDuration(KeyRPCTimeout),
		FaucetTimeout:    v.GetDuration(KeyFaucetTimeout),
		DefaultFaucet:    v.GetString(KeyDefaultFaucet),
		MaxTxXPL:         strings.TrimSpace(v.GetString(KeyMaxTxXPL)),
		AllowTo:          addressList(v, KeyAllowTo),
		DenyTo:           addressList(v, KeyDenyTo),
		History:          v.GetBool(KeyHistory),
		HistoryDB:        v.GetString(KeyHistoryDB),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addressList accepts a YAML list or a comma-separated string.
func addressList(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate rejects values no component could run with.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.RPCURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s: invalid URL %q", KeyRPCURL, c.RPCURL))
	}
	if c.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyChainID))
	}
	for key, d := range map[string]time.Duration{
		KeyConfirmTimeout: c.ConfirmTimeout,
		KeyRPCTimeout:     c.RPCTimeout,
		KeyFaucetTimeout:  c.FaucetTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", key))
		}
	}
	if _, ok := faucet.Catalog()[c.DefaultFaucet]; !ok {
		errs = append(errs, fmt.Errorf("%s: unknown faucet %q (known: %s)",
			KeyDefaultFaucet, c.DefaultFaucet, strings.Join(faucet.Names(faucet.Catalog()), ", ")))
	}
	if c.MaxTxXPL != "" && !codec.IsDecimalAmount(c.MaxTxXPL) {
		errs = append(errs, fmt.Errorf("%s: invalid amount %q", KeyMaxTxXPL, c.MaxTxXPL))
	}
	for key, list := range map[string][]string{KeyAllowTo: c.AllowTo, KeyDenyTo: c.DenyTo} {
		for _, a := range list {
			if !codec.IsAddress(a) {
				errs = append(errs, fmt.Errorf("%s: invalid address %q", key, a))
			}
		}
	}
	if c.KeystoreAddress != "" && !codec.IsAddress(c.KeystoreAddress) {
		errs = append(errs, fmt.Errorf("%s: invalid address %q", KeyKeystoreAddress, c.KeystoreAddress))
	}
	if c.History && strings.TrimSpace(c.HistoryDB) == "" {
		errs = append(errs, fmt.Errorf("%s: required when %s is enabled", KeyHistoryDB, KeyHistory))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown format %q", KeyLogFormat, c.LogFormat))
	}

	return errors.Join(errs...)
}

// Network returns the network configuration with endpoint overrides applied.
func (c *Config) Network() *chain.NetworkConfig {
	n := chain.PlasmaTestnet()
	n.RPCURL = c.RPCURL
	n.ChainID = big.NewInt(c.ChainID)
	if c.ExplorerURL != "" {
		n.ExplorerURL = c.ExplorerURL
	}
	return n
}

// Policy converts the spending limits into a tx.Policy.
func (c *Config) Policy() (tx.Policy, error) {
	var p tx.Policy
	if c.MaxTxXPL != "" {
		limit, err := codec.ToBaseUnits(c.MaxTxXPL, codec.EtherDecimals)
		if err != nil {
			return tx.Policy{}, fmt.Errorf("%s: %w", KeyMaxTxXPL, err)
		}
		p.MaxPerTxWei = limit
	}
	for _, a := range c.AllowTo {
		p.AllowTo = append(p.AllowTo, common.HexToAddress(a))
	}
	for _, a := range c.DenyTo {
		p.DenyTo = append(p.DenyTo, common.HexToAddress(a))
	}
	return p, nil
}

// WalletSettings returns the signing material for a wallet.Source.
func (c *Config) WalletSettings() wallet.Settings {
	return wallet.Settings{
		PrivateKey:       c.PrivateKey,
		KeystoreDir:      c.KeystoreDir,
		KeystoreAddress:  c.KeystoreAddress,
		KeystorePassword: c.KeystorePassword,
	}
}
