package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/plasma-mcp/internal/config"
	"github.com/yolodolo42/plasma-mcp/internal/logger"
)

// Version is overridden at build time with -ldflags.
var Version = "1.0.0"

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	envFile string
	v       *viper.Viper
	cfg     *config.Config
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Serving over stdio is the default.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "plasma-mcp",
		Short: "MCP server for the Plasma testnet",
		Long: `plasma-mcp exposes Plasma testnet operations as MCP tools.

It reads chain state, estimates gas, requests faucet funds, and signs and
submits native XPL transfers and arbitrary transactions with a configured
wallet. Run without a subcommand to serve over stdio.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, "stdio", defaultAddr, "")
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.plasma-mcp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load (default is ./.env)")
	rootCmd.PersistentFlags().String("rpc-url", "", "JSON-RPC endpoint")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag(config.KeyRPCURL, rootCmd.PersistentFlags().Lookup("rpc-url"))
	_ = a.v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		a.serveCmd(),
		a.callCmd(),
		a.toolsCmd(),
		a.walletCmd(),
		a.historyCmd(),
		versionCmd(),
	)
	return rootCmd
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	if a.envFile != "" {
		config.LoadEnvironment(a.envFile)
	} else {
		config.LoadEnvironment()
	}

	config.SetDefaults(a.v)
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", a.cfgFile, err)
		}
	} else {
		a.v.AddConfigPath(config.DataDir())
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
		// Silently ignore missing config file - it's optional
		_ = a.v.ReadInConfig()
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	a.cfg = cfg

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file %s", used)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "plasma-mcp %s\n", Version)
			return nil
		},
	}
}
