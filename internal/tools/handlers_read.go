package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/codec"
	"github.com/yolodolo42/plasma-mcp/internal/validate"
	"golang.org/x/sync/errgroup"
)

func (r *Registry) gwei(wei *big.Int) string {
	return codec.FormatGwei(wei) + " gwei"
}

func (r *Registry) native(wei *big.Int) string {
	return codec.ToDecimalString(wei, r.network.NativeDecimals) + " " + r.network.NativeSymbol
}

type serviceInfo struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	Network          string   `json:"network"`
	ChainID          *big.Int `json:"chainId"`
	RPCURL           string   `json:"rpcUrl"`
	Explorer         string   `json:"explorer"`
	Tools            []string `json:"tools"`
	WalletConfigured bool     `json:"walletConfigured"`
	Features         []string `json:"features"`
	Status           string   `json:"status"`
}

func (r *Registry) handleServiceInfo(_ context.Context, _ json.RawMessage) (any, error) {
	return serviceInfo{
		Name:             r.deps.Name,
		Version:          r.deps.Version,
		Network:          r.network.Name,
		ChainID:          r.network.ChainID,
		RPCURL:           r.network.RPCURL,
		Explorer:         r.network.ExplorerURL,
		Tools:            r.Names(),
		WalletConfigured: r.deps.Wallet.Configured(),
		Features: []string{
			"Native XPL transfers",
			"Custom transactions",
			"Transaction monitoring",
			"Faucet integration",
			"Gas estimation",
			"Block explorer",
			"ERC20 token metadata",
		},
		Status: "operational",
	}, nil
}

type networkInfo struct {
	Network     string   `json:"network"`
	ChainID     *big.Int `json:"chainId"`
	BlockNumber uint64   `json:"blockNumber"`
	GasPrice    string   `json:"gasPrice"`
	GasPriceWei string   `json:"gasPriceWei"`
	RPCURL      string   `json:"rpcUrl"`
	Explorer    string   `json:"explorer"`
}

func (r *Registry) handleNetworkInfo(ctx context.Context, _ json.RawMessage) (any, error) {
	var (
		chainID  *big.Int
		head     uint64
		gasPrice *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chainID, err = r.deps.Chain.ChainID(gctx)
		return err
	})
	g.Go(func() (err error) {
		head, err = r.deps.Chain.BlockNumber(gctx)
		return err
	})
	g.Go(func() (err error) {
		gasPrice, err = r.deps.Chain.GasPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return networkInfo{
		Network:     r.network.Name,
		ChainID:     chainID,
		BlockNumber: head,
		GasPrice:    r.gwei(gasPrice),
		GasPriceWei: gasPrice.String(),
		RPCURL:      r.network.RPCURL,
		Explorer:    r.network.ExplorerURL,
	}, nil
}

type accountBalanceArgs struct {
	Address string `json:"address,omitempty" validate:"omitempty,evm_address"`
}

type accountBalance struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"`
	BalanceWei string `json:"balanceWei"`
	Nonce      uint64 `json:"nonce"`
	IsContract bool   `json:"isContract"`
	Explorer   string `json:"explorer"`
}

func (r *Registry) handleAccountBalance(ctx context.Context, input json.RawMessage) (any, error) {
	var args accountBalanceArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}

	var address common.Address
	if args.Address != "" {
		address = common.HexToAddress(args.Address)
	} else {
		signer, err := r.deps.Wallet.Signer()
		if err != nil {
			return nil, err
		}
		address = signer.Address()
	}

	var (
		balance *big.Int
		nonce   uint64
		code    []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = r.deps.Chain.Balance(gctx, address)
		return err
	})
	g.Go(func() (err error) {
		nonce, err = r.deps.Chain.Nonce(gctx, address)
		return err
	})
	g.Go(func() (err error) {
		code, err = r.deps.Chain.Code(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return accountBalance{
		Address:    address.Hex(),
		Balance:    r.native(balance),
		BalanceWei: balance.String(),
		Nonce:      nonce,
		IsContract: len(code) > 0,
		Explorer:   r.network.AddressURL(address.Hex()),
	}, nil
}

type transactionStatusArgs struct {
	TxHash string `json:"txHash" validate:"required,tx_hash"`
}

type transactionStatus struct {
	TxHash        string  `json:"txHash"`
	Status        string  `json:"status"`
	BlockNumber   *uint64 `json:"blockNumber"`
	Confirmations uint64  `json:"confirmations"`
	From          string  `json:"from"`
	To            *string `json:"to"`
	Value         string  `json:"value"`
	ValueWei      string  `json:"valueWei"`
	GasPrice      string  `json:"gasPrice"`
	GasUsed       *string `json:"gasUsed"`
	Nonce         uint64  `json:"nonce"`
	Explorer      string  `json:"explorer"`
}

const (
	statusPending = "pending"
	statusSuccess = "success"
	statusFailed  = "failed"
)

func receiptStatus(rcpt *chain.Receipt) string {
	if rcpt.Succeeded() {
		return statusSuccess
	}
	return statusFailed
}

func (r *Registry) handleTransactionStatus(ctx context.Context, input json.RawMessage) (any, error) {
	var args transactionStatusArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}
	hash := common.HexToHash(args.TxHash)

	var (
		txn  *chain.Transaction
		rcpt *chain.Receipt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txn, err = r.deps.Chain.Transaction(gctx, hash)
		return err
	})
	g.Go(func() (err error) {
		rcpt, err = r.deps.Chain.Receipt(gctx, hash)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, fmt.Errorf("transaction %s: %w", args.TxHash, chain.ErrNotFound)
	}

	out := transactionStatus{
		TxHash:   args.TxHash,
		Status:   statusPending,
		From:     txn.From.Hex(),
		Value:    r.native(txn.Value),
		ValueWei: bigString(txn.Value),
		GasPrice: r.gwei(txn.GasPrice),
		Nonce:    txn.Nonce,
		Explorer: r.network.TxURL(args.TxHash),
	}
	if txn.To != nil {
		to := txn.To.Hex()
		out.To = &to
	}

	if rcpt != nil {
		head, err := r.deps.Chain.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		block := rcpt.BlockNumber
		gasUsed := new(big.Int).SetUint64(rcpt.GasUsed).String()

		out.Status = receiptStatus(rcpt)
		out.BlockNumber = &block
		out.GasUsed = &gasUsed
		if head > block {
			out.Confirmations = head - block
		}
	}
	return out, nil
}

type estimateGasArgs struct {
	From  string `json:"from" validate:"required,evm_address"`
	To    string `json:"to" validate:"required,evm_address"`
	Value string `json:"value,omitempty" validate:"omitempty,decimal_amount"`
	Data  string `json:"data,omitempty" validate:"omitempty,hex_data"`
}

type gasEstimate struct {
	GasLimit         string        `json:"gasLimit"`
	GasPrice         string        `json:"gasPrice"`
	GasPriceWei      string        `json:"gasPriceWei"`
	EstimatedCost    string        `json:"estimatedCost"`
	EstimatedCostWei string        `json:"estimatedCostWei"`
	Transaction      estimatedCall `json:"transaction"`
}

type estimatedCall struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func (r *Registry) handleEstimateGas(ctx context.Context, input json.RawMessage) (any, error) {
	var args estimateGasArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}
	value, err := r.parseNative("value", args.Value)
	if err != nil {
		return nil, err
	}
	data, err := parseData(args.Data)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(args.To)
	req := chain.CallRequest{
		From:  common.HexToAddress(args.From),
		To:    &to,
		Value: value,
		Data:  data,
	}

	var (
		gasLimit uint64
		gasPrice *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		gasLimit, err = r.deps.Chain.EstimateGas(gctx, req)
		return err
	})
	g.Go(func() (err error) {
		gasPrice, err = r.deps.Chain.GasPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	shownValue := args.Value
	if shownValue == "" {
		shownValue = "0"
	}

	return gasEstimate{
		GasLimit:         new(big.Int).SetUint64(gasLimit).String(),
		GasPrice:         r.gwei(gasPrice),
		GasPriceWei:      gasPrice.String(),
		EstimatedCost:    r.native(cost),
		EstimatedCostWei: cost.String(),
		Transaction: estimatedCall{
			From:  args.From,
			To:    args.To,
			Value: shownValue,
		},
	}, nil
}

type latestBlocksArgs struct {
	Count int `json:"count" validate:"min=1,max=20"`
}

type blockSummary struct {
	Number       uint64 `json:"number"`
	Hash         string `json:"hash"`
	Timestamp    uint64 `json:"timestamp"`
	Time         string `json:"time"`
	Miner        string `json:"miner"`
	Transactions int    `json:"transactions"`
	GasUsed      string `json:"gasUsed"`
	GasLimit     string `json:"gasLimit"`
	BaseFee      string `json:"baseFee,omitempty"`
}

type latestBlocks struct {
	LatestBlock uint64         `json:"latestBlock"`
	Blocks      []blockSummary `json:"blocks"`
	Network     string         `json:"network"`
	Explorer    string         `json:"explorer"`
}

func (r *Registry) handleLatestBlocks(ctx context.Context, input json.RawMessage) (any, error) {
	args := latestBlocksArgs{Count: 5}
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}

	head, err := r.deps.Chain.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	n := uint64(args.Count)
	if head+1 < n {
		n = head + 1
	}

	blocks := make([]blockSummary, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := uint64(0); i < n; i++ {
		g.Go(func() error {
			b, err := r.deps.Chain.Block(gctx, new(big.Int).SetUint64(head-i))
			if err != nil {
				return err
			}
			blocks[i] = r.summarizeBlock(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return latestBlocks{
		LatestBlock: head,
		Blocks:      blocks,
		Network:     r.network.Name,
		Explorer:    r.network.ExplorerURL,
	}, nil
}

func (r *Registry) summarizeBlock(b *chain.Block) blockSummary {
	s := blockSummary{
		Number:       b.Number,
		Hash:         b.Hash.Hex(),
		Timestamp:    b.Timestamp,
		Time:         time.Unix(int64(b.Timestamp), 0).UTC().Format(time.RFC3339),
		Miner:        b.Miner.Hex(),
		Transactions: b.TxCount,
		GasUsed:      new(big.Int).SetUint64(b.GasUsed).String(),
		GasLimit:     new(big.Int).SetUint64(b.GasLimit).String(),
	}
	if b.BaseFee != nil {
		s.BaseFee = r.gwei(b.BaseFee)
	}
	return s
}

type gasPriceInfo struct {
	GasPrice gasPriceUnits `json:"gasPrice"`
	BaseFee  string        `json:"baseFee"`
	Network  string        `json:"network"`
	Block    uint64        `json:"block"`
	Time     string        `json:"timestamp"`
}

type gasPriceUnits struct {
	Wei  string `json:"wei"`
	Gwei string `json:"gwei"`
	Eth  string `json:"eth"`
}

func (r *Registry) handleGasPrice(ctx context.Context, _ json.RawMessage) (any, error) {
	var (
		gasPrice *big.Int
		latest   *chain.Block
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		gasPrice, err = r.deps.Chain.GasPrice(gctx)
		return err
	})
	g.Go(func() (err error) {
		latest, err = r.deps.Chain.Block(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseFee := "N/A"
	if latest.BaseFee != nil {
		baseFee = r.gwei(latest.BaseFee)
	}

	return gasPriceInfo{
		GasPrice: gasPriceUnits{
			Wei:  gasPrice.String(),
			Gwei: codec.FormatGwei(gasPrice),
			Eth:  codec.FormatNative(gasPrice),
		},
		BaseFee: baseFee,
		Network: r.network.Name,
		Block:   latest.Number,
		Time:    r.now().UTC().Format(time.RFC3339),
	}, nil
}

type tokenInfoArgs struct {
	TokenAddress string `json:"tokenAddress" validate:"required"`
}

// nativeTokenInfo, erc20TokenInfo and tokenNotDeployed are the three
// getTokenInfo outcomes.
type nativeTokenInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Type     string `json:"type"`
	Address  string `json:"address"`
}

type erc20TokenInfo struct {
	Address        string `json:"address"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Decimals       uint8  `json:"decimals"`
	TotalSupply    string `json:"totalSupply"`
	TotalSupplyRaw string `json:"totalSupplyRaw"`
	Type           string `json:"type"`
	Explorer       string `json:"explorer"`
}

type tokenNotDeployed struct {
	Error   string `json:"error"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

func (r *Registry) handleTokenInfo(ctx context.Context, input json.RawMessage) (any, error) {
	var args tokenInfoArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}

	ref, ok := codec.ResolveToken(args.TokenAddress, r.network.KnownTokens)
	if !ok || ref.Native {
		return nativeTokenInfo{
			Symbol:   r.network.NativeSymbol,
			Name:     r.network.NativeName,
			Decimals: r.network.NativeDecimals,
			Type:     "native",
			Address:  codec.NativeSentinel,
		}, nil
	}

	md, err := r.deps.Chain.TokenMetadata(ctx, common.HexToAddress(ref.Address))
	if err != nil {
		var callErr *chain.ContractCallError
		if errors.As(err, &callErr) {
			return tokenNotDeployed{
				Error:   "Token not found or not yet deployed",
				Address: ref.Address,
				Note:    "This token address may not be deployed on " + r.network.Name + " yet",
			}, nil
		}
		return nil, err
	}

	return erc20TokenInfo{
		Address:        ref.Address,
		Symbol:         md.Symbol,
		Name:           md.Name,
		Decimals:       md.Decimals,
		TotalSupply:    codec.ToDecimalString(md.TotalSupply, md.Decimals),
		TotalSupplyRaw: bigString(md.TotalSupply),
		Type:           "ERC20",
		Explorer:       r.network.AddressURL(ref.Address),
	}, nil
}

type faucetArgs struct {
	Address    string `json:"address" validate:"required,evm_address"`
	FaucetName string `json:"faucetName,omitempty" validate:"omitempty,oneof=gasZip quickNode"`
}

func (r *Registry) handleRequestFaucet(ctx context.Context, input json.RawMessage) (any, error) {
	var args faucetArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}
	return r.deps.Faucets.Request(ctx, args.Address, args.FaucetName)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
