// Package codec converts between human-decimal amounts and integer base units,
// and resolves token symbols to contract addresses.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// EtherDecimals is the base-unit exponent of the native asset.
	EtherDecimals uint8 = 18
	// GweiDecimals is the exponent between wei and gwei.
	GweiDecimals uint8 = 9
)

// ErrInvalidAmount is returned for strings that are not non-negative decimals.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	decimalPattern = regexp.MustCompile(`^\d+\.?\d*$`)
	integerPattern = regexp.MustCompile(`^\d+$`)
)

// IsDecimalAmount reports whether s is a non-negative decimal such as "1", "1." or "1.5".
func IsDecimalAmount(s string) bool {
	return decimalPattern.MatchString(s)
}

// IsInteger reports whether s is a non-negative base-10 integer.
func IsInteger(s string) bool {
	return integerPattern.MatchString(s)
}

// ToBaseUnits parses a human-decimal string into base units.
// More fractional digits than decimals is an error, not a silent truncation.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	if !IsDecimalAmount(amount) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	out, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return out, nil
}

// ToDecimalString renders base units as a decimal string with trailing
// fractional zeros trimmed but at least one fractional digit ("1.0", "0.5").
func ToDecimalString(value *big.Int, decimals uint8) string {
	if value == nil {
		value = new(big.Int)
	}

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}
	digits := new(big.Int).Abs(value).String()

	if decimals == 0 {
		return sign + digits
	}

	d := int(decimals)
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-d]
	frac := strings.TrimRight(digits[len(digits)-d:], "0")
	if frac == "" {
		frac = "0"
	}
	return sign + whole + "." + frac
}

// FormatNative renders a wei amount as a native-asset decimal.
func FormatNative(wei *big.Int) string {
	return ToDecimalString(wei, EtherDecimals)
}

// FormatGwei renders a wei amount in gwei.
func FormatGwei(wei *big.Int) string {
	return ToDecimalString(wei, GweiDecimals)
}
