package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPolicyDenied     = errors.New("destination denied by policy")
	ErrPolicyNotAllowed = errors.New("destination not in allowlist")
	ErrPolicyMaxValue   = errors.New("value exceeds max per tx limit")
)

// Intent captures a state-changing transaction a tool wants to perform.
// Nil overrides are filled from the node by Build.
type Intent struct {
	From     common.Address // signer address
	To       common.Address // recipient
	ValueWei *big.Int       // native value
	Data     []byte         // calldata (empty for native send)
	Nonce    *uint64        // optional override
	GasLimit *uint64        // optional override
	GasPrice *big.Int       // optional override
}

// Policy enforces spending constraints before signing.
type Policy struct {
	MaxPerTxWei *big.Int
	AllowTo     []common.Address
	DenyTo      []common.Address
}

// Fees carries the gas parameters Build settled on.
type Fees struct {
	GasLimit         uint64
	GasPrice         *big.Int
	EstimatedCostWei *big.Int // gasLimit * gasPrice + value
}

// Reader is the part of the chain adapter Build needs.
type Reader interface {
	PendingNonce(ctx context.Context, address common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, req chain.CallRequest) (uint64, error)
}

// Validate applies allow/deny lists and the per-transaction spend limit.
func Validate(intent Intent, policy Policy) error {
	if intent.ValueWei == nil {
		return fmt.Errorf("value missing")
	}

	for _, a := range policy.DenyTo {
		if a == intent.To {
			return fmt.Errorf("%w: %s", ErrPolicyDenied, intent.To.Hex())
		}
	}
	if len(policy.AllowTo) > 0 {
		allowed := false
		for _, a := range policy.AllowTo {
			if a == intent.To {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrPolicyNotAllowed, intent.To.Hex())
		}
	}
	if policy.MaxPerTxWei != nil && intent.ValueWei.Cmp(policy.MaxPerTxWei) > 0 {
		return fmt.Errorf("%w: %s > %s wei", ErrPolicyMaxValue, intent.ValueWei, policy.MaxPerTxWei)
	}
	return nil
}

// Build prepares an unsigned legacy transaction. Missing nonce, gas price and
// gas limit are independent reads and are fetched in parallel.
func Build(ctx context.Context, r Reader, intent Intent) (*types.Transaction, Fees, error) {
	if intent.ValueWei == nil {
		return nil, Fees{}, fmt.Errorf("value missing")
	}

	var (
		nonce    uint64
		gasPrice = intent.GasPrice
		gasLimit uint64
	)
	if intent.Nonce != nil {
		nonce = *intent.Nonce
	}
	if intent.GasLimit != nil {
		gasLimit = *intent.GasLimit
	}

	g, gctx := errgroup.WithContext(ctx)
	if intent.Nonce == nil {
		g.Go(func() error {
			n, err := r.PendingNonce(gctx, intent.From)
			nonce = n
			return err
		})
	}
	if gasPrice == nil {
		g.Go(func() error {
			p, err := r.GasPrice(gctx)
			gasPrice = p
			return err
		})
	}
	if intent.GasLimit == nil {
		to := intent.To
		g.Go(func() error {
			gl, err := r.EstimateGas(gctx, chain.CallRequest{
				From:  intent.From,
				To:    &to,
				Value: intent.ValueWei,
				Data:  intent.Data,
			})
			gasLimit = gl
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Fees{}, err
	}

	to := intent.To
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    intent.ValueWei,
		Data:     intent.Data,
	})

	return unsigned, Fees{
		GasLimit:         gasLimit,
		GasPrice:         gasPrice,
		EstimatedCostWei: TotalCost(intent.ValueWei, gasLimit, gasPrice),
	}, nil
}

// TotalCost returns value + gasLimit*gasPrice.
func TotalCost(value *big.Int, gasLimit uint64, gasPrice *big.Int) *big.Int {
	total := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	if value != nil {
		total.Add(total, value)
	}
	return total
}
