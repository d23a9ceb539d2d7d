package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"
)

// ERC20ABI covers the read-only accessors used for token metadata.
const ERC20ABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var erc20ABI = mustParseABI(ERC20ABI)

var errEmptyReturn = errors.New("empty return data (no contract code at address)")

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}

// TokenMetadata is the result of the four ERC20 metadata reads.
type TokenMetadata struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// CallRead performs an eth_call against a view method and decodes the outputs.
// Reverts, missing code and undecodable output are reported as
// *ContractCallError. Transport failures and any other node error, such as
// rate limiting, are reported as *RPCError.
func (c *Client) CallRead(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, &ContractCallError{Address: to.Hex(), Method: method, Err: err}
	}

	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if isRevert(err) {
			return nil, &ContractCallError{Address: to.Hex(), Method: method, Err: err}
		}
		return nil, rpcErr("eth_call", err)
	}
	if len(out) == 0 {
		return nil, &ContractCallError{Address: to.Hex(), Method: method, Err: errEmptyReturn}
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, &ContractCallError{Address: to.Hex(), Method: method, Err: err}
	}
	if len(values) == 0 {
		return nil, &ContractCallError{Address: to.Hex(), Method: method, Err: errEmptyReturn}
	}
	return values, nil
}

// isRevert reports whether a node error means the call executed and reverted:
// code 3 or revert data attached, or a geth-style "execution reverted" message.
func isRevert(err error) bool {
	var nodeErr rpc.Error
	if !errors.As(err, &nodeErr) {
		return false
	}
	if nodeErr.ErrorCode() == 3 {
		return true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(strings.ToLower(nodeErr.Error()), "execution reverted")
}

// TokenMetadata reads name, symbol, decimals and totalSupply in parallel.
// The first failing read aborts the rest.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (*TokenMetadata, error) {
	meta := &TokenMetadata{Address: token}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.CallRead(gctx, token, erc20ABI, "name")
		if err != nil {
			return err
		}
		meta.Name, err = asType[string](token, "name", v[0])
		return err
	})
	g.Go(func() error {
		v, err := c.CallRead(gctx, token, erc20ABI, "symbol")
		if err != nil {
			return err
		}
		meta.Symbol, err = asType[string](token, "symbol", v[0])
		return err
	})
	g.Go(func() error {
		v, err := c.CallRead(gctx, token, erc20ABI, "decimals")
		if err != nil {
			return err
		}
		meta.Decimals, err = asType[uint8](token, "decimals", v[0])
		return err
	})
	g.Go(func() error {
		v, err := c.CallRead(gctx, token, erc20ABI, "totalSupply")
		if err != nil {
			return err
		}
		meta.TotalSupply, err = asType[*big.Int](token, "totalSupply", v[0])
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meta, nil
}

func asType[T any](token common.Address, method string, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, &ContractCallError{
			Address: token.Hex(),
			Method:  method,
			Err:     fmt.Errorf("unexpected return type %T", v),
		}
	}
	return out, nil
}
