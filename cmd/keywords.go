package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rivalscan/internal/store"
)

var keywordsNoSave bool

var keywordsCmd = &cobra.Command{
	Use:   "keywords <domain>",
	Short: "Discover the keywords a domain should target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng := initEngine()
		report, err := eng.Keywords(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "keywords")
		}

		if !keywordsNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if _, err := st.SaveScan(ctx, report.Target, store.ScanKeywords, report); err != nil {
				zap.L().Warn("keywords: snapshot save failed", zap.Error(err))
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	keywordsCmd.Flags().BoolVar(&keywordsNoSave, "no-save", false, "skip persisting the report snapshot")
	rootCmd.AddCommand(keywordsCmd)
}
