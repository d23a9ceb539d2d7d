package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/plasma-mcp/internal/store"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions this server has submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.History {
				return errors.New("transaction history is disabled")
			}
			h, err := store.Open(a.cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer h.Close()

			recs, err := h.Recent(cmd.Context(), a.cfg.Network().ChainID.String(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(historyEntries(recs, a.cfg.Network().TxURL), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(recs) == 0 {
				fmt.Fprintln(out, "No transactions recorded.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTOOL\tSTATUS\tHASH\tTO\tVALUE (WEI)")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.RFC3339), r.Tool, r.Status, r.TxHash, r.To, r.ValueWei)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of transactions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

type historyEntry struct {
	TxHash      string `json:"txHash"`
	Tool        string `json:"tool"`
	Status      string `json:"status"`
	From        string `json:"from"`
	To          string `json:"to"`
	ValueWei    string `json:"valueWei"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
	SubmittedAt string `json:"submittedAt"`
	Explorer    string `json:"explorer"`
}

func historyEntries(recs []store.Record, txURL func(string) string) []historyEntry {
	out := make([]historyEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, historyEntry{
			TxHash:      r.TxHash,
			Tool:        r.Tool,
			Status:      r.Status,
			From:        r.From,
			To:          r.To,
			ValueWei:    r.ValueWei,
			BlockNumber: r.BlockNumber,
			GasUsed:     r.GasUsed,
			SubmittedAt: r.CreatedAt.Format(time.RFC3339),
			Explorer:    txURL(r.TxHash),
		})
	}
	return out
}
