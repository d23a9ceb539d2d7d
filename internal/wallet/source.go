package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
)

// ErrNotConfigured is returned by write-capable operations when no signing
// key has been supplied.
var ErrNotConfigured = errors.New("wallet not configured: set WALLET_PRIVATE_KEY or a keystore account")

// Settings names the signing material a Source may load from.
// PrivateKey wins over the keystore fields when both are set.
type Settings struct {
	PrivateKey       string
	KeystoreDir      string
	KeystoreAddress  string
	KeystorePassword string
}

func (s Settings) configured() bool {
	return s.PrivateKey != "" || (s.KeystoreDir != "" && s.KeystoreAddress != "")
}

// Source resolves the configured wallet on first use and caches the result.
// Read-only callers never touch it, so a missing key only fails the write
// tools and the address-defaulting balance query.
type Source struct {
	settings Settings

	once   sync.Once
	signer Signer
	err    error
}

// NewSource returns a lazy wallet source.
func NewSource(settings Settings) *Source {
	return &Source{settings: settings}
}

// Static wraps an existing signer; mostly useful in tests.
func Static(signer Signer) *Source {
	src := &Source{signer: signer}
	src.once.Do(func() {})
	return src
}

// Configured reports whether signing material is present without loading it.
func (s *Source) Configured() bool {
	if s.signer != nil {
		return true
	}
	return s.settings.configured()
}

// Signer loads the wallet on first call and returns the same signer thereafter.
func (s *Source) Signer() (Signer, error) {
	s.once.Do(func() {
		s.signer, s.err = s.load()
		if s.err == nil {
			logger.Info("wallet loaded: %s", s.signer.Address().Hex())
		}
	})
	return s.signer, s.err
}

// Address is shorthand for loading the signer and returning its address.
func (s *Source) Address() (common.Address, error) {
	signer, err := s.Signer()
	if err != nil {
		return common.Address{}, err
	}
	return signer.Address(), nil
}

func (s *Source) load() (Signer, error) {
	st := s.settings
	if !st.configured() {
		return nil, ErrNotConfigured
	}

	if st.PrivateKey != "" {
		return NewKeySigner(st.PrivateKey)
	}

	if !common.IsHexAddress(st.KeystoreAddress) {
		return nil, fmt.Errorf("invalid keystore address %q", st.KeystoreAddress)
	}
	km, err := NewKeystoreManager(st.KeystoreDir)
	if err != nil {
		return nil, err
	}
	return km.GetSigner(common.HexToAddress(st.KeystoreAddress), st.KeystorePassword)
}
