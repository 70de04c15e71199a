package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rivalscan/internal/store"
)

var scanNoSave bool

var scanCmd = &cobra.Command{
	Use:   "scan <domain>",
	Short: "Discover business and search competitors for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng := initEngine()
		report, err := eng.Competitors(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		if !scanNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if _, err := st.SaveScan(ctx, report.Target, store.ScanCompetitors, report); err != nil {
				// Snapshot persistence is best-effort; the report still prints.
				zap.L().Warn("scan: snapshot save failed", zap.Error(err))
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "skip persisting the report snapshot")
	rootCmd.AddCommand(scanCmd)
}
