package wallet

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

var ErrAccountNotFound = errors.New("account not found")

// KeystoreManager manages an encrypted go-ethereum keystore directory
type KeystoreManager struct {
	ks  *keystore.KeyStore
	dir string
}

// NewKeystoreManager opens (creating if needed) the keystore in dir
func NewKeystoreManager(dir string) (*KeystoreManager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	// StandardScryptN and StandardScryptP are secure defaults
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)

	return &KeystoreManager{
		ks:  ks,
		dir: dir,
	}, nil
}

// Dir returns the keystore directory
func (km *KeystoreManager) Dir() string {
	return km.dir
}

// CreateAccount creates a new random account encrypted with password
func (km *KeystoreManager) CreateAccount(password string) (accounts.Account, error) {
	return km.ks.NewAccount(password)
}

// ImportKey imports a hex private key and encrypts it with the password
func (km *KeystoreManager) ImportKey(privateKeyHex string, password string) (accounts.Account, error) {
	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return accounts.Account{}, err
	}
	return km.ks.ImportECDSA(key, password)
}

// ListAccounts returns all accounts in the keystore
func (km *KeystoreManager) ListAccounts() []accounts.Account {
	return km.ks.Accounts()
}

// GetSigner decrypts the key for address and returns a signer holding it
func (km *KeystoreManager) GetSigner(address common.Address, password string) (*KeySigner, error) {
	var target *accounts.Account
	for _, acc := range km.ks.Accounts() {
		if acc.Address == address {
			target = &acc
			break
		}
	}
	if target == nil {
		return nil, ErrAccountNotFound
	}

	keyJSON, err := os.ReadFile(target.URL.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock account: %w", err)
	}

	return newKeySigner(SignerTypeKeystore, key.PrivateKey), nil
}
