package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/plasma-mcp/internal/chain"
	"github.com/yolodolo42/plasma-mcp/internal/config"
	"github.com/yolodolo42/plasma-mcp/internal/faucet"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
	"github.com/yolodolo42/plasma-mcp/internal/mcpserver"
	"github.com/yolodolo42/plasma-mcp/internal/store"
	"github.com/yolodolo42/plasma-mcp/internal/tools"
	"github.com/yolodolo42/plasma-mcp/internal/wallet"
)

const defaultAddr = "127.0.0.1:8080"

func (a *app) serveCmd() *cobra.Command {
	var transport, addr, baseURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, transport, addr, baseURL)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "transport to serve on (stdio or sse)")
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address for the sse transport")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL for the sse transport (default http://<addr>)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, transport, addr, baseURL string) error {
	reg, closeFn, err := registryFor(a.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := mcpserver.NewMCPServer(mcpserver.Config{Name: tools.DefaultName, Version: Version}, reg)
	logger.Info("%s %s on %s (chain %d)", tools.DefaultName, Version, a.cfg.Network().Name, a.cfg.ChainID)

	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout)
	case "sse":
		if baseURL == "" {
			baseURL = "http://" + addr
		}
		return mcpserver.ServeSSE(ctx, s, addr, baseURL)
	default:
		return fmt.Errorf("unknown transport %q: use stdio or sse", transport)
	}
}

// buildRegistry wires the chain client, wallet, faucet advisor, policy and
// transaction history from cfg. The returned func releases the RPC
// connection and the history database.
func buildRegistry(cfg *config.Config) (*tools.Registry, func(), error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}

	deps := tools.Deps{
		Wallet: wallet.NewSource(cfg.WalletSettings()),
		Faucets: faucet.NewAdvisor(
			faucet.WithTimeout(cfg.FaucetTimeout),
			faucet.WithDefault(cfg.DefaultFaucet),
		),
		Policy:       policy,
		ReadTimeout:  cfg.RPCTimeout,
		WriteTimeout: cfg.RPCTimeout + cfg.ConfirmTimeout,
		Name:         tools.DefaultName,
		Version:      Version,
	}

	var history *store.History
	if cfg.History {
		history, err = store.Open(cfg.HistoryDB)
		if err != nil {
			return nil, nil, err
		}
		deps.History = history
	}

	client := chain.NewClient(cfg.Network(), chain.WithConfirmTimeout(cfg.ConfirmTimeout))
	deps.Chain = client

	closeFn := func() {
		client.Close()
		if history != nil {
			_ = history.Close()
		}
	}
	return tools.NewRegistry(deps), closeFn, nil
}

// registryFor is replaced in tests to avoid dialing a node.
var registryFor = buildRegistry
