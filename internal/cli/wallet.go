package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
	"golang.org/x/term"
)

const minPasswordLength = 8

func (a *app) walletCmd() *cobra.Command {
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage keystore accounts",
		Long: `Create, import, and list encrypted keystore accounts.

Point the server at an account with PLASMA_KEYSTORE_ADDRESS and
PLASMA_KEYSTORE_PASSWORD, or set WALLET_PRIVATE_KEY to sign with a raw key.`,
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new keystore account",
		Args:  cobra.NoArgs,
		RunE:  a.runWalletNew,
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a private key into the keystore",
		Args:  cobra.NoArgs,
		RunE:  a.runWalletImport,
	}
	importCmd.Flags().String("key", "", "Private key to import (hex, with or without 0x prefix)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List keystore accounts",
		Args:  cobra.NoArgs,
		RunE:  a.runWalletList,
	}

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address the server signs with",
		Args:  cobra.NoArgs,
		RunE:  a.runWalletAddress,
	}

	walletCmd.AddCommand(newCmd, importCmd, listCmd, addressCmd)
	return walletCmd
}

// readPassword prompts on stderr so stdout stays clean for scripting.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func readNewPassword() (string, error) {
	password, err := readPassword("Enter password for the keystore: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func (a *app) keystore() (*wallet.KeystoreManager, error) {
	km, err := wallet.NewKeystoreManager(a.cfg.KeystoreDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keystore: %w", err)
	}
	return km, nil
}

func (a *app) runWalletNew(cmd *cobra.Command, args []string) error {
	km, err := a.keystore()
	if err != nil {
		return err
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	account, err := km.CreateAccount(password)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Account created.")
	fmt.Fprintf(out, "Address:  %s\n", account.Address.Hex())
	fmt.Fprintf(out, "Keystore: %s\n", account.URL.Path)
	fmt.Fprintln(out, "\nBack up the keystore file and remember the password.")
	return nil
}

func (a *app) runWalletImport(cmd *cobra.Command, args []string) error {
	privateKey, _ := cmd.Flags().GetString("key")

	if privateKey == "" {
		fmt.Fprint(os.Stderr, "Enter private key (hex): ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		privateKey = strings.TrimSpace(line)
	}
	if privateKey == "" {
		return errors.New("private key is required")
	}

	km, err := a.keystore()
	if err != nil {
		return err
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	account, err := km.ImportKey(privateKey, password)
	if err != nil {
		return fmt.Errorf("failed to import key: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Account imported.")
	fmt.Fprintf(out, "Address:  %s\n", account.Address.Hex())
	fmt.Fprintf(out, "Keystore: %s\n", account.URL.Path)
	return nil
}

func (a *app) runWalletList(cmd *cobra.Command, args []string) error {
	km, err := a.keystore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	accounts := km.ListAccounts()
	if len(accounts) == 0 {
		fmt.Fprintf(out, "No accounts in %s.\n", km.Dir())
		fmt.Fprintln(out, "Use 'plasma-mcp wallet new' to create one.")
		return nil
	}

	for i, acc := range accounts {
		fmt.Fprintf(out, "%d. %s\n", i+1, acc.Address.Hex())
	}
	return nil
}

func (a *app) runWalletAddress(cmd *cobra.Command, args []string) error {
	address, err := wallet.NewSource(a.cfg.WalletSettings()).Address()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), address.Hex())
	return nil
}
