package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *app) callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Run one tool and print its result",
		Long: `Run one tool outside of MCP and print the JSON text it returns.

Arguments are a JSON object given as the second argument or piped on stdin.`,
		Example: `  plasma-mcp call getNetworkInfo
  plasma-mcp call getAccountBalance '{"address":"0x..."}'
  echo '{"count":3}' | plasma-mcp call getLatestBlocks`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.runCall,
	}
}

func (a *app) runCall(cmd *cobra.Command, args []string) error {
	input, err := readArguments(cmd, args)
	if err != nil {
		return err
	}

	reg, closeFn, err := registryFor(a.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := reg.Execute(ctx, args[0], input)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text())
	return nil
}

func readArguments(cmd *cobra.Command, args []string) (json.RawMessage, error) {
	if len(args) > 1 {
		return json.RawMessage(args[1]), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read arguments from stdin: %w", err)
	}
	return bytes.TrimSpace(data), nil
}

func (a *app) toolsCmd() *cobra.Command {
	var schemas bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeFn, err := registryFor(a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			if schemas {
				data, err := json.MarshalIndent(reg.Tools(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, t := range reg.Tools() {
				mode := "read"
				if t.Writes {
					mode = "write"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, mode, t.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&schemas, "schemas", false, "print full tool definitions with input schemas as JSON")
	return cmd
}
