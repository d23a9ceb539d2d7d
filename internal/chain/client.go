package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
)

// Block is a read-only projection of a block header plus its transaction count.
type Block struct {
	Number    uint64
	Hash      common.Hash
	Timestamp uint64
	Miner     common.Address
	TxCount   int
	GasUsed   uint64
	GasLimit  uint64
	BaseFee   *big.Int // nil on pre-London blocks
}

// Transaction is the subset of a transaction the tools report on.
type Transaction struct {
	Hash        common.Hash
	From        common.Address
	To          *common.Address // nil for contract creation
	Value       *big.Int
	GasPrice    *big.Int
	Nonce       uint64
	BlockNumber *uint64 // nil while pending
}

// Receipt is the subset of a transaction receipt the tools report on.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Succeeded reports whether the receipt carries status code 1.
func (r *Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// CallRequest is an unsigned transaction skeleton used for gas estimation.
type CallRequest struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
}

// Client is the adapter over one EVM JSON-RPC endpoint.
type Client struct {
	network        *NetworkConfig
	confirmTimeout time.Duration
	pollInterval   time.Duration

	mu  sync.Mutex
	eth *ethclient.Client
}

// Option configures a Client.
type Option func(*Client)

// WithConfirmTimeout bounds how long WaitMined blocks.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Client) { c.confirmTimeout = d }
}

// WithPollInterval sets how often WaitMined asks the node for a receipt.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates an adapter for the given network. The connection is
// opened lazily on first use.
func NewClient(network *NetworkConfig, opts ...Option) *Client {
	c := &Client{
		network:        network,
		confirmTimeout: 2 * time.Minute,
		pollInterval:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Network returns the configuration the client was built with.
func (c *Client) Network() *NetworkConfig {
	return c.network
}

// conn returns the cached ethclient, dialing and verifying the chain ID on
// first use. Holding the lock for the whole dial keeps concurrent first calls
// from opening duplicate connections.
func (c *Client) conn(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		return c.eth, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, c.network.RPCURL)
	if err != nil {
		return nil, rpcErr("dial", err)
	}

	chainID, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, rpcErr("eth_chainId", err)
	}
	if chainID.Cmp(c.network.ChainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %s, got %s", c.network.ChainID, chainID)
	}

	logger.Debug("Connected to %s (chain %s) at %s", c.network.Name, chainID, c.network.RPCURL)
	c.eth = client
	return client, nil
}

// ChainID returns the chain ID reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	id, err := client.ChainID(ctx)
	return id, rpcErr("eth_chainId", err)
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.BlockNumber(ctx)
	return n, rpcErr("eth_blockNumber", err)
}

// Balance returns the native balance of an address in base units.
func (c *Client) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := client.BalanceAt(ctx, address, nil)
	return bal, rpcErr("eth_getBalance", err)
}

// Nonce returns the number of transactions mined from an address.
func (c *Client) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.NonceAt(ctx, address, nil)
	return n, rpcErr("eth_getTransactionCount", err)
}

// PendingNonce returns the next nonce to use, counting pool transactions.
func (c *Client) PendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.PendingNonceAt(ctx, address)
	return n, rpcErr("eth_getTransactionCount", err)
}

// GasPrice returns the node's suggested legacy gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	price, err := client.SuggestGasPrice(ctx)
	return price, rpcErr("eth_gasPrice", err)
}

// EstimateGas estimates the gas limit for a transaction skeleton.
func (c *Client) EstimateGas(ctx context.Context, req CallRequest) (uint64, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return 0, err
	}
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.From,
		To:    req.To,
		Value: req.Value,
		Data:  req.Data,
	})
	return gas, rpcErr("eth_estimateGas", err)
}

// Code returns the bytecode deployed at an address. Empty means a plain account.
func (c *Client) Code(ctx context.Context, address common.Address) ([]byte, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	code, err := client.CodeAt(ctx, address, nil)
	return code, rpcErr("eth_getCode", err)
}

type rpcBlock struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	Miner        common.Address `json:"miner"`
	GasUsed      hexutil.Uint64 `json:"gasUsed"`
	GasLimit     hexutil.Uint64 `json:"gasLimit"`
	BaseFee      *hexutil.Big   `json:"baseFeePerGas"`
	Transactions []common.Hash  `json:"transactions"`
}

// Block fetches a block by number; nil means the latest block.
// Returns ErrNotFound when the node has no such block.
//
// The raw RPC shape is decoded directly rather than through types.Block so the
// node-reported hash is kept and unknown transaction types do not break decoding.
func (c *Client) Block(ctx context.Context, number *big.Int) (*Block, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	tag := "latest"
	if number != nil {
		tag = hexutil.EncodeBig(number)
	}

	var raw json.RawMessage
	if err := client.Client().CallContext(ctx, &raw, "eth_getBlockByNumber", tag, false); err != nil {
		return nil, rpcErr("eth_getBlockByNumber", err)
	}
	if isNull(raw) {
		return nil, fmt.Errorf("block %s: %w", tag, ErrNotFound)
	}

	var rb rpcBlock
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, rpcErr("eth_getBlockByNumber", fmt.Errorf("decode block: %w", err))
	}

	block := &Block{
		Number:    uint64(rb.Number),
		Hash:      rb.Hash,
		Timestamp: uint64(rb.Timestamp),
		Miner:     rb.Miner,
		TxCount:   len(rb.Transactions),
		GasUsed:   uint64(rb.GasUsed),
		GasLimit:  uint64(rb.GasLimit),
	}
	if rb.BaseFee != nil {
		block.BaseFee = rb.BaseFee.ToInt()
	}
	return block, nil
}

type rpcTransaction struct {
	Hash        common.Hash     `json:"hash"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Value       *hexutil.Big    `json:"value"`
	GasPrice    *hexutil.Big    `json:"gasPrice"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
}

// Transaction fetches a transaction by hash. Returns nil, nil when unknown.
func (c *Client) Transaction(ctx context.Context, hash common.Hash) (*Transaction, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := client.Client().CallContext(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return nil, rpcErr("eth_getTransactionByHash", err)
	}
	if isNull(raw) {
		return nil, nil
	}

	var rt rpcTransaction
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, rpcErr("eth_getTransactionByHash", fmt.Errorf("decode transaction: %w", err))
	}

	tx := &Transaction{
		Hash:     rt.Hash,
		From:     rt.From,
		To:       rt.To,
		Value:    new(big.Int),
		GasPrice: new(big.Int),
		Nonce:    uint64(rt.Nonce),
	}
	if rt.Value != nil {
		tx.Value = rt.Value.ToInt()
	}
	if rt.GasPrice != nil {
		tx.GasPrice = rt.GasPrice.ToInt()
	}
	if rt.BlockNumber != nil {
		n := rt.BlockNumber.ToInt().Uint64()
		tx.BlockNumber = &n
	}
	return tx, nil
}

type rpcReceipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	Status          hexutil.Uint64 `json:"status"`
	BlockNumber     *hexutil.Big   `json:"blockNumber"`
	GasUsed         hexutil.Uint64 `json:"gasUsed"`
}

// Receipt fetches the receipt for a transaction. Returns nil, nil while the
// transaction is pending or unknown.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := client.Client().CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, rpcErr("eth_getTransactionReceipt", err)
	}
	if isNull(raw) {
		return nil, nil
	}

	var rr rpcReceipt
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, rpcErr("eth_getTransactionReceipt", fmt.Errorf("decode receipt: %w", err))
	}

	receipt := &Receipt{
		TxHash:  rr.TransactionHash,
		Status:  uint64(rr.Status),
		GasUsed: uint64(rr.GasUsed),
	}
	if rr.BlockNumber != nil {
		receipt.BlockNumber = rr.BlockNumber.ToInt().Uint64()
	}
	return receipt, nil
}

// SendTransaction submits a signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	client, err := c.conn(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if err := client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, rpcErr("eth_sendRawTransaction", err)
	}
	return tx.Hash(), nil
}

// WaitMined blocks until the node reports a receipt for txHash or the
// confirmation timeout elapses, whichever comes first.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.Receipt(waitCtx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil {
			// Transient polling failures are expected while the node catches up.
			logger.Debug("Receipt poll for %s failed: %v", txHash.Hex(), err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w after %s: %s", ErrConfirmationTimeout, c.confirmTimeout, txHash.Hex())
		case <-ticker.C:
		}
	}
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
