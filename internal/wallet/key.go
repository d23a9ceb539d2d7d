package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrAccountLocked = errors.New("account is locked")
	ErrInvalidKey    = errors.New("invalid private key")
)

// KeySigner signs with an in-memory private key, either parsed from a raw hex
// secret or decrypted from a keystore file.
type KeySigner struct {
	// mu protects key from concurrent access so signing cannot race with
	// Lock() zeroing the key material.
	mu      sync.RWMutex
	kind    SignerType
	address common.Address
	key     *ecdsa.PrivateKey // nil when locked
}

// NewKeySigner parses a hex private key, with or without the 0x prefix.
func NewKeySigner(privateKeyHex string) (*KeySigner, error) {
	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	return newKeySigner(SignerTypeRawKey, key), nil
}

func newKeySigner(kind SignerType, key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		kind:    kind,
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}
}

func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// Address returns the address of the signer
func (s *KeySigner) Address() common.Address {
	return s.address
}

// Type reports where the key came from.
func (s *KeySigner) Type() SignerType {
	return s.kind
}

// SignTransaction signs a transaction
func (s *KeySigner) SignTransaction(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, ErrAccountLocked
	}

	signer := types.LatestSignerForChainID(chainID)
	return types.SignTx(tx, signer, s.key)
}

// Lock zeros the private key. Safe to call multiple times; afterwards every
// signing operation returns ErrAccountLocked.
func (s *KeySigner) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		s.key.D.SetInt64(0)
		s.key = nil
	}
}
