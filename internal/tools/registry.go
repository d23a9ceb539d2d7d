// Package tools owns the tool catalogue: each tool's input schema, its
// handler, and the JSON text result every handler produces.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/faucet"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
	"github.com/yolodolo42/plasma-mcp/internal/store"
	"github.com/yolodolo42/plasma-mcp/internal/tx"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
)

// Backend is the chain adapter surface the handlers use. *chain.Client
// implements it.
type Backend interface {
	Network() *chain.NetworkConfig
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	Nonce(ctx context.Context, address common.Address) (uint64, error)
	PendingNonce(ctx context.Context, address common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, req chain.CallRequest) (uint64, error)
	Code(ctx context.Context, address common.Address) ([]byte, error)
	Block(ctx context.Context, number *big.Int) (*chain.Block, error)
	Transaction(ctx context.Context, hash common.Hash) (*chain.Transaction, error)
	Receipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
	SendTransaction(ctx context.Context, signed *types.Transaction) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
	TokenMetadata(ctx context.Context, token common.Address) (*chain.TokenMetadata, error)
}

// Wallet hands out the signer for write tools. *wallet.Source implements it.
type Wallet interface {
	Configured() bool
	Signer() (wallet.Signer, error)
}

// FaucetAdvisor resolves faucet requests. *faucet.Advisor implements it.
type FaucetAdvisor interface {
	Request(ctx context.Context, address, name string) (faucet.Result, error)
}

// History records submitted transactions. *store.History implements it.
type History interface {
	RecordSubmitted(ctx context.Context, rec store.Record) error
	RecordReceipt(ctx context.Context, chainID, txHash string, success bool, blockNumber, gasUsed uint64) error
}

// Tool describes one callable tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	// Writes marks tools that sign and submit transactions.
	Writes bool `json:"-"`
}

// DefaultName is the server name reported by getServiceInfo and the MCP handshake.
const DefaultName = "Plasma Network MCP"

// Handler runs a tool against already-raw JSON arguments.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Deps wires the registry to its collaborators.
type Deps struct {
	Chain   Backend
	Wallet  Wallet
	Faucets FaucetAdvisor
	Policy  tx.Policy
	// History is optional; nil disables the local transaction history.
	History History

	// ReadTimeout bounds read-only tools; WriteTimeout bounds send tools
	// including the wait for a receipt. Zero means no extra deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Name    string
	Version string
}

// Registry maps tool names to handlers
type Registry struct {
	deps     Deps
	network  *chain.NetworkConfig
	tools    []Tool
	handlers map[string]Handler
	now      func() time.Time
}

// NewRegistry creates a registry with every tool registered
func NewRegistry(deps Deps) *Registry {
	if deps.Wallet == nil {
		deps.Wallet = wallet.NewSource(wallet.Settings{})
	}
	if deps.Faucets == nil {
		deps.Faucets = faucet.NewAdvisor()
	}
	if deps.Name == "" {
		deps.Name = DefaultName
	}

	r := &Registry{
		deps:     deps,
		network:  deps.Chain.Network(),
		tools:    Definitions(),
		handlers: make(map[string]Handler),
		now:      time.Now,
	}

	r.handlers["getServiceInfo"] = r.handleServiceInfo
	r.handlers["getNetworkInfo"] = r.handleNetworkInfo
	r.handlers["getAccountBalance"] = r.handleAccountBalance
	r.handlers["sendTransaction"] = r.handleSendTransaction
	r.handlers["sendXPL"] = r.handleSendXPL
	r.handlers["getTransactionStatus"] = r.handleTransactionStatus
	r.handlers["requestFaucet"] = r.handleRequestFaucet
	r.handlers["estimateGas"] = r.handleEstimateGas
	r.handlers["getLatestBlocks"] = r.handleLatestBlocks
	r.handlers["getGasPrice"] = r.handleGasPrice
	r.handlers["getTokenInfo"] = r.handleTokenInfo

	return r
}

// Tools returns all registered tools
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Names returns the tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

func (r *Registry) lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Execute runs a tool by name and wraps its output as one JSON text block.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (*Result, error) {
	tool, ok := r.lookup(name)
	handler, hok := r.handlers[name]
	if !ok || !hok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	timeout := r.deps.ReadTimeout
	if tool.Writes {
		timeout = r.deps.WriteTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id := uuid.NewString()
	logger.Debug("tool %s [%s] args=%s", name, id, RedactJSONArgs(string(input)))
	start := time.Now()

	out, err := handler(ctx, input)
	if err != nil {
		logger.Warn("tool %s [%s] failed after %s: %v", name, id, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}

	res, err := NewJSONResult(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", name, err)
	}
	logger.Debug("tool %s [%s] done in %s", name, id, time.Since(start).Round(time.Millisecond))
	return res, nil
}
