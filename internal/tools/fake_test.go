package tools

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/faucet"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
)

// Well-known development key; never fund it.
const (
	testKey    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testWallet = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	otherAddr  = "0x1111111111111111111111111111111111111111"
)

var oneXPL = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// fakeChain is an in-memory Backend that counts every call.
type fakeChain struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	network  *chain.NetworkConfig
	chainID  *big.Int
	head     uint64
	balance  *big.Int
	nonce    uint64
	gasPrice *big.Int
	estimate uint64
	code     []byte
	baseFee  *big.Int

	txs      map[common.Hash]*chain.Transaction
	receipts map[common.Hash]*chain.Receipt

	token    *chain.TokenMetadata
	tokenErr error

	mineStatus uint64
	sent       []*types.Transaction
	estimated  []chain.CallRequest
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		calls:      make(map[string]int),
		errs:       make(map[string]error),
		network:    chain.PlasmaTestnet(),
		chainID:    big.NewInt(9746),
		head:       1000,
		balance:    new(big.Int).Mul(big.NewInt(10), oneXPL),
		nonce:      4,
		gasPrice:   big.NewInt(1_000_000_000),
		estimate:   42_000,
		baseFee:    big.NewInt(7_000_000_000),
		txs:        make(map[common.Hash]*chain.Transaction),
		receipts:   make(map[common.Hash]*chain.Receipt),
		mineStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *fakeChain) hit(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errs[method]
}

func (f *fakeChain) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeChain) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeChain) Network() *chain.NetworkConfig { return f.network }

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, f.hit("ChainID")
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	return f.head, f.hit("BlockNumber")
}

func (f *fakeChain) Balance(context.Context, common.Address) (*big.Int, error) {
	return f.balance, f.hit("Balance")
}

func (f *fakeChain) Nonce(context.Context, common.Address) (uint64, error) {
	return f.nonce, f.hit("Nonce")
}

func (f *fakeChain) PendingNonce(context.Context, common.Address) (uint64, error) {
	return f.nonce, f.hit("PendingNonce")
}

func (f *fakeChain) GasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, f.hit("GasPrice")
}

func (f *fakeChain) EstimateGas(_ context.Context, req chain.CallRequest) (uint64, error) {
	err := f.hit("EstimateGas")
	f.mu.Lock()
	f.estimated = append(f.estimated, req)
	f.mu.Unlock()
	return f.estimate, err
}

func (f *fakeChain) Code(context.Context, common.Address) ([]byte, error) {
	return f.code, f.hit("Code")
}

func (f *fakeChain) Block(_ context.Context, number *big.Int) (*chain.Block, error) {
	if err := f.hit("Block"); err != nil {
		return nil, err
	}
	n := f.head
	if number != nil {
		n = number.Uint64()
	}
	return &chain.Block{
		Number:    n,
		Hash:      common.BigToHash(new(big.Int).SetUint64(n + 1)),
		Timestamp: 1_700_000_000 + n,
		Miner:     common.HexToAddress(otherAddr),
		TxCount:   int(n % 3),
		GasUsed:   21_000 * (n % 3),
		GasLimit:  30_000_000,
		BaseFee:   f.baseFee,
	}, nil
}

func (f *fakeChain) Transaction(_ context.Context, hash common.Hash) (*chain.Transaction, error) {
	return f.txs[hash], f.hit("Transaction")
}

func (f *fakeChain) Receipt(_ context.Context, hash common.Hash) (*chain.Receipt, error) {
	return f.receipts[hash], f.hit("Receipt")
}

func (f *fakeChain) SendTransaction(_ context.Context, signed *types.Transaction) (common.Hash, error) {
	if err := f.hit("SendTransaction"); err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, signed)
	f.mu.Unlock()
	return signed.Hash(), nil
}

func (f *fakeChain) WaitMined(_ context.Context, hash common.Hash) (*chain.Receipt, error) {
	if err := f.hit("WaitMined"); err != nil {
		return nil, err
	}
	return &chain.Receipt{TxHash: hash, Status: f.mineStatus, BlockNumber: f.head + 1, GasUsed: 21_000}, nil
}

func (f *fakeChain) TokenMetadata(context.Context, common.Address) (*chain.TokenMetadata, error) {
	if err := f.hit("TokenMetadata"); err != nil {
		return nil, err
	}
	return f.token, f.tokenErr
}

type fakeFaucet struct {
	calls   int
	address string
	name    string
}

func (f *fakeFaucet) Request(_ context.Context, address, name string) (faucet.Result, error) {
	f.calls++
	f.address, f.name = address, name
	return &faucet.ManualResult{Manual: true, Faucet: name, Address: address, Instructions: []string{"visit"}}, nil
}

func newTestRegistry(t *testing.T, fc *fakeChain, mutate ...func(*Deps)) *Registry {
	t.Helper()
	deps := Deps{
		Chain:   fc,
		Wallet:  wallet.NewSource(wallet.Settings{}),
		Faucets: &fakeFaucet{},
		Version: "test",
	}
	for _, m := range mutate {
		m(&deps)
	}
	return NewRegistry(deps)
}

func withWallet(d *Deps) {
	d.Wallet = wallet.NewSource(wallet.Settings{PrivateKey: testKey})
}

// call runs a tool that must succeed and decodes its JSON text.
func call(t *testing.T, r *Registry, name, args string) map[string]any {
	t.Helper()
	res, err := r.Execute(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	require.Equal(t, "text", res.Content[0].Type)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &out))
	return out
}

func callErr(t *testing.T, r *Registry, name, args string) error {
	t.Helper()
	res, err := r.Execute(context.Background(), name, json.RawMessage(args))
	require.Error(t, err)
	require.Nil(t, res)
	return err
}
