package tools

import (
	"fmt"
	"math/big"

	"github.com/yolodolo42/plasma-mcp/internal/codec"
)

// InsufficientBalanceError is returned by sendXPL when the wallet balance
// read before submission cannot cover amount plus gas.
type InsufficientBalanceError struct {
	Have      *big.Int
	Need      *big.Int
	Shortfall *big.Int
	Symbol    string
}

func newInsufficientBalance(have, need *big.Int, symbol string) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		Have:      have,
		Need:      need,
		Shortfall: new(big.Int).Sub(need, have),
		Symbol:    symbol,
	}
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s %s, need %s %s (short by %s %s)",
		codec.FormatNative(e.Have), e.Symbol,
		codec.FormatNative(e.Need), e.Symbol,
		codec.FormatNative(e.Shortfall), e.Symbol)
}
