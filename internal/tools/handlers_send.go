package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/codec"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
	"github.com/yolodolo42/plasma-mcp/internal/store"
	"github.com/yolodolo42/plasma-mcp/internal/tx"
	"github.com/yolodolo42/plasma-mcp/internal/validate"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
	"golang.org/x/sync/errgroup"
)

// parseUnits converts an optional validated decimal field; empty means zero.
func parseUnits(field, amount string, decimals uint8) (*big.Int, error) {
	if amount == "" {
		return new(big.Int), nil
	}
	v, err := codec.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, &validate.ValidationError{Field: field, Rule: fmt.Sprintf("must have at most %d decimal places", decimals)}
	}
	return v, nil
}

func (r *Registry) parseNative(field, amount string) (*big.Int, error) {
	return parseUnits(field, amount, r.network.NativeDecimals)
}

func parseData(data string) ([]byte, error) {
	if data == "" || data == "0x" {
		return nil, nil
	}
	b, err := hexutil.Decode(data)
	if err != nil {
		return nil, &validate.ValidationError{Field: "data", Rule: "must be 0x-prefixed hex bytes"}
	}
	return b, nil
}

type sendTransactionArgs struct {
	To       string `json:"to" validate:"required,evm_address"`
	Value    string `json:"value,omitempty" validate:"omitempty,decimal_amount"`
	Data     string `json:"data,omitempty" validate:"omitempty,hex_data"`
	GasLimit string `json:"gasLimit,omitempty" validate:"omitempty,uint_string"`
	GasPrice string `json:"gasPrice,omitempty" validate:"omitempty,decimal_amount"`
}

type sendResult struct {
	Success     bool   `json:"success"`
	Status      string `json:"status"`
	TxHash      string `json:"txHash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount,omitempty"`
	AmountWei   string `json:"amountWei,omitempty"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
	Explorer    string `json:"explorer"`
}

func (r *Registry) handleSendTransaction(ctx context.Context, input json.RawMessage) (any, error) {
	var args sendTransactionArgs
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

	intent := tx.Intent{
		To:       common.HexToAddress(args.To),
		ValueWei: value,
		Data:     data,
	}
	if args.GasLimit != "" {
		gl, err := strconv.ParseUint(args.GasLimit, 10, 64)
		if err != nil {
			return nil, &validate.ValidationError{Field: "gasLimit", Rule: "must fit in 64 bits"}
		}
		intent.GasLimit = &gl
	}
	if args.GasPrice != "" {
		gp, err := parseUnits("gasPrice", args.GasPrice, codec.GweiDecimals)
		if err != nil {
			return nil, err
		}
		intent.GasPrice = gp
	}

	signer, err := r.deps.Wallet.Signer()
	if err != nil {
		return nil, err
	}
	intent.From = signer.Address()

	if err := tx.Validate(intent, r.deps.Policy); err != nil {
		return nil, err
	}

	unsigned, _, err := tx.Build(ctx, r.deps.Chain, intent)
	if err != nil {
		return nil, err
	}

	rcpt, hash, err := r.signSendWait(ctx, "sendTransaction", signer, unsigned)
	if err != nil {
		return nil, err
	}

	res := r.sendResult(signer.Address(), intent.To, hash, rcpt)
	if value.Sign() > 0 {
		res.Amount = r.native(value)
		res.AmountWei = value.String()
	}
	return res, nil
}

type sendXPLArgs struct {
	To     string `json:"to" validate:"required,evm_address"`
	Amount string `json:"amount" validate:"required,decimal_amount"`
}

func (r *Registry) handleSendXPL(ctx context.Context, input json.RawMessage) (any, error) {
	var args sendXPLArgs
	if err := validate.Decode(input, &args); err != nil {
		return nil, err
	}
	amount, err := r.parseNative("amount", args.Amount)
	if err != nil {
		return nil, err
	}

	signer, err := r.deps.Wallet.Signer()
	if err != nil {
		return nil, err
	}
	from := signer.Address()

	intent := tx.Intent{
		From:     from,
		To:       common.HexToAddress(args.To),
		ValueWei: amount,
	}
	if err := tx.Validate(intent, r.deps.Policy); err != nil {
		return nil, err
	}

	var (
		balance  *big.Int
		gasPrice *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = r.deps.Chain.Balance(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		gasPrice, err = r.deps.Chain.GasPrice(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Point-in-time check; the balance can still change before inclusion.
	gasLimit := params.TxGas
	need := tx.TotalCost(amount, gasLimit, gasPrice)
	if balance.Cmp(need) < 0 {
		return nil, newInsufficientBalance(balance, need, r.network.NativeSymbol)
	}

	intent.GasLimit = &gasLimit
	intent.GasPrice = gasPrice
	unsigned, _, err := tx.Build(ctx, r.deps.Chain, intent)
	if err != nil {
		return nil, err
	}

	rcpt, hash, err := r.signSendWait(ctx, "sendXPL", signer, unsigned)
	if err != nil {
		return nil, err
	}

	res := r.sendResult(from, intent.To, hash, rcpt)
	res.Amount = args.Amount + " " + r.network.NativeSymbol
	res.AmountWei = amount.String()
	return res, nil
}

func (r *Registry) signSendWait(ctx context.Context, tool string, signer wallet.Signer, unsigned *types.Transaction) (*chain.Receipt, common.Hash, error) {
	signed, err := signer.SignTransaction(unsigned, r.network.ChainID)
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("failed to sign tx: %w", err)
	}

	hash, err := r.deps.Chain.SendTransaction(ctx, signed)
	if err != nil {
		return nil, common.Hash{}, err
	}
	logger.Info("submitted %s, waiting for receipt", hash.Hex())
	r.recordSubmitted(ctx, tool, signer.Address(), signed)

	rcpt, err := r.deps.Chain.WaitMined(ctx, hash)
	if err != nil {
		return nil, hash, fmt.Errorf("tx %s: %w", hash.Hex(), err)
	}
	r.recordReceipt(ctx, hash, rcpt)
	return rcpt, hash, nil
}

// History failures never fail a send that already reached the node.
func (r *Registry) recordSubmitted(ctx context.Context, tool string, from common.Address, signed *types.Transaction) {
	if r.deps.History == nil {
		return
	}
	rec := store.Record{
		ChainID:  r.network.ChainID.String(),
		TxHash:   signed.Hash().Hex(),
		Tool:     tool,
		From:     from.Hex(),
		ValueWei: signed.Value().String(),
	}
	if to := signed.To(); to != nil {
		rec.To = to.Hex()
	}
	if err := r.deps.History.RecordSubmitted(ctx, rec); err != nil {
		logger.Warn("history: %v", err)
	}
}

func (r *Registry) recordReceipt(ctx context.Context, hash common.Hash, rcpt *chain.Receipt) {
	if r.deps.History == nil {
		return
	}
	err := r.deps.History.RecordReceipt(ctx, r.network.ChainID.String(), hash.Hex(), rcpt.Succeeded(), rcpt.BlockNumber, rcpt.GasUsed)
	if err != nil {
		logger.Warn("history: %v", err)
	}
}

func (r *Registry) sendResult(from, to common.Address, hash common.Hash, rcpt *chain.Receipt) sendResult {
	return sendResult{
		Success:     rcpt.Succeeded(),
		Status:      receiptStatus(rcpt),
		TxHash:      hash.Hex(),
		From:        from.Hex(),
		To:          to.Hex(),
		BlockNumber: rcpt.BlockNumber,
		GasUsed:     new(big.Int).SetUint64(rcpt.GasUsed).String(),
		Explorer:    r.network.TxURL(hash.Hex()),
	}
}
