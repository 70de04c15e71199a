package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rivalscan/internal/store"
)

var (
	historyDomain string
	historyKind   string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted scan snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Domain: historyDomain,
			Kind:   store.ScanKind(historyKind),
			Limit:  historyLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list scans")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scans)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDomain, "domain", "", "filter by domain")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "filter by kind (competitors|keywords)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max snapshots to list")
	rootCmd.AddCommand(historyCmd)
}
