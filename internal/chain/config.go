package chain

import (
	"math/big"
	"strings"

	"github.com/yolodolo42/plasma-mcp/internal/codec"
)

// NetworkConfig holds configuration for the single EVM network the server talks to.
// Built once at startup and treated as read-only afterwards.
type NetworkConfig struct {
	Name           string
	ChainID        *big.Int
	RPCURL         string
	ExplorerURL    string
	NativeSymbol   string
	NativeName     string
	NativeDecimals uint8
	// KnownTokens maps a lowercase symbol to a contract address or codec.NativeSentinel.
	KnownTokens map[string]string
}

// PlasmaTestnet returns the default network configuration.
func PlasmaTestnet() *NetworkConfig {
	// Token contracts are not deployed on testnet yet; the zero address
	// resolves but every ERC20 read against it reports "not deployed".
	const undeployed = "0x0000000000000000000000000000000000000000"

	return &NetworkConfig{
		Name:           "Plasma Testnet",
		ChainID:        big.NewInt(9746),
		RPCURL:         "https://testnet-rpc.plasma.to",
		ExplorerURL:    "https://testnet.plasmascan.to",
		NativeSymbol:   "XPL",
		NativeName:     "Plasma",
		NativeDecimals: 18,
		KnownTokens: map[string]string{
			"xpl":    codec.NativeSentinel,
			"native": codec.NativeSentinel,
			"wxpl":   undeployed,
			"weth":   undeployed, // WXPL stands in for WETH
			"usdt":   undeployed,
			"usdc":   undeployed,
		},
	}
}

// TxURL returns the explorer link for a transaction hash.
func (n *NetworkConfig) TxURL(hash string) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/tx/" + hash
}

// AddressURL returns the explorer link for an address.
func (n *NetworkConfig) AddressURL(address string) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/address/" + address
}
