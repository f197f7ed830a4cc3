package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bookmerge/internal/dataset"
	"github.com/lehigh-university-libraries/bookmerge/internal/export"
	"github.com/lehigh-university-libraries/bookmerge/internal/identity"
	"github.com/lehigh-university-libraries/bookmerge/internal/pipeline"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/lehigh-university-libraries/bookmerge/internal/storage"
	"github.com/spf13/cobra"
)

func newIntegrateCmd(root *rootOptions) *cobra.Command {
	var (
		goodreadsPath   string
		googleBooksPath string
		outputDir       string
		sqlitePath      string
		workers         int
		strictChecksum  bool
		writeCSV        bool
		writeYAML       bool
		plain           bool
	)

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Build the unified catalog from the Goodreads and Google Books landing files",
		Long: `Reads both landing files, runs normalization, matching, survivorship merge
and deduplication, then writes standard/dim_book, standard/book_source_detail
and the docs/ quality and schema reports under the output directory.

Accepted input formats: .json (array of objects), .jsonl, .csv, .parquet.`,
		Example: `  # Use bookmerge.yaml or the defaults
  bookmerge integrate

  # Explicit inputs, also store into SQLite
  bookmerge integrate --goodreads landing/goodreads_books.json \
    --googlebooks landing/googlebooks_books.csv --sqlite catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("goodreads") {
				cfg.Inputs.Goodreads = goodreadsPath
			}
			if flags.Changed("googlebooks") {
				cfg.Inputs.GoogleBooks = googleBooksPath
			}
			if flags.Changed("out") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("sqlite") {
				cfg.Output.SQLite = sqlitePath
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("strict-checksum") {
				cfg.Identity.StrictChecksum = strictChecksum
			}
			if flags.Changed("csv") {
				cfg.Output.CSV = writeCSV
			}
			if flags.Changed("yaml") {
				cfg.Output.YAML = writeYAML
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()

			primary, err := dataset.NewLoader(cfg.Inputs.Goodreads, raw.SourceGoodreads).Load()
			if err != nil {
				return fmt.Errorf("failed to load Goodreads input: %w", err)
			}
			secondary, err := dataset.NewLoader(cfg.Inputs.GoogleBooks, raw.SourceGoogleBooks).Load()
			if err != nil {
				return fmt.Errorf("failed to load Google Books input: %w", err)
			}

			res, err := pipeline.Run(ctx, primary, secondary, pipeline.Options{
				Policy:   cfg.Survivorship,
				Resolver: identity.Resolver{StrictChecksum: cfg.Identity.StrictChecksum},
				Workers:  cfg.Workers,
			})
			if err != nil {
				var bie *raw.BatchIntegrityError
				if errors.As(err, &bie) {
					return fmt.Errorf("input rejected: %w", err)
				}
				return fmt.Errorf("integration failed: %w", err)
			}

			writer := export.New(cfg.Output.Dir, export.Options{CSV: cfg.Output.CSV, YAML: cfg.Output.YAML})
			if _, err := writer.Write(res.Catalog, res.Details, res.Report); err != nil {
				return fmt.Errorf("failed to export run: %w", err)
			}

			if cfg.Output.SQLite != "" {
				store, err := storage.Open(ctx, cfg.Output.SQLite)
				if err != nil {
					return fmt.Errorf("failed to open catalog database: %w", err)
				}
				defer store.Close()
				if err := store.SaveRun(ctx, res.RunID, res.Report.GeneratedAt, res.Catalog, res.Details); err != nil {
					return fmt.Errorf("failed to store run: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Report.Render(plain || !isTerminal(out)))
			slog.Info("Integration complete", "run_id", res.RunID, "books", len(res.Catalog), "dir", cfg.Output.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&goodreadsPath, "goodreads", "", "Goodreads landing file (Input A)")
	cmd.Flags().StringVar(&googleBooksPath, "googlebooks", "", "Google Books landing file (Input B)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also upsert the catalog into this SQLite database")
	cmd.Flags().IntVar(&workers, "workers", 0, "Normalization and matching workers")
	cmd.Flags().BoolVar(&strictChecksum, "strict-checksum", false, "Require valid ISBN check digits")
	cmd.Flags().BoolVar(&writeCSV, "csv", true, "Write ';'-separated CSV copies of the standard tables")
	cmd.Flags().BoolVar(&writeYAML, "yaml", false, "Write the quality report as YAML too")
	cmd.Flags().BoolVar(&plain, "plain", false, "Render the report without box styling")

	return cmd
}
