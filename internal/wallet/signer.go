// Package wallet resolves the single signing identity the server acts as.
package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer signs legacy and typed transactions for one account.
type Signer interface {
	Address() common.Address
	SignTransaction(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// SignerType records where a signer's key material was loaded from.
type SignerType string

const (
	SignerTypeRawKey   SignerType = "raw-key"  // WALLET_PRIVATE_KEY
	SignerTypeKeystore SignerType = "keystore" // decrypted keystore account
)
