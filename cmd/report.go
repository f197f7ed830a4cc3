package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/lehigh-university-libraries/bookmerge/internal/export"
	"github.com/lehigh-university-libraries/bookmerge/internal/storage"
	"github.com/spf13/cobra"
)

func newReportCmd(root *rootOptions) *cobra.Command {
	var (
		reportPath string
		sqlitePath string
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the quality report of the last integration run",
		Example: `  bookmerge report
  bookmerge report --from out/docs/quality_metrics.json --sqlite catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if reportPath == "" {
				reportPath = filepath.Join(cfg.Output.Dir, "docs", "quality_metrics.json")
			}
			if sqlitePath == "" {
				sqlitePath = cfg.Output.SQLite
			}

			report, err := export.LoadReport(reportPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Render(plain || !isTerminal(out)))

			if sqlitePath != "" {
				store, err := storage.Open(cmd.Context(), sqlitePath)
				if err != nil {
					return fmt.Errorf("failed to open catalog database: %w", err)
				}
				defer store.Close()
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Books stored in %s: %d\n", sqlitePath, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "from", "", "Quality report JSON (default <output dir>/docs/quality_metrics.json)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also show the book count of this SQLite catalog")
	cmd.Flags().BoolVar(&plain, "plain", false, "Render the report without box styling")

	return cmd
}
