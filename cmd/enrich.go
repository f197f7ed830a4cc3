package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookmerge/internal/dataset"
	"github.com/lehigh-university-libraries/bookmerge/internal/export"
	"github.com/lehigh-university-libraries/bookmerge/internal/googlebooks"
	"github.com/lehigh-university-libraries/bookmerge/internal/raw"
	"github.com/spf13/cobra"
)

func newEnrichCmd(root *rootOptions) *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up Goodreads books in Google Books and write the Input B landing file",
		Long: `For each distinct (isbn13, title) in the Goodreads landing file, searches the
Google Books volumes API by isbn13, then isbn10, then title and first author,
then title alone, and keeps the first volume found.

Set GOOGLE_BOOKS_API_KEY (or google_books.api_key) for the authenticated quota.`,
		Example: `  bookmerge enrich --goodreads landing/goodreads_books.json --out landing/googlebooks_books.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if inputPath == "" {
				inputPath = cfg.Inputs.Goodreads
			}
			if outputPath == "" {
				outputPath = cfg.Inputs.GoogleBooks
			}

			records, err := dataset.NewLoader(inputPath, raw.SourceGoodreads).Load()
			if err != nil {
				return fmt.Errorf("failed to load Goodreads input: %w", err)
			}

			ctx := cmd.Context()
			client, err := googlebooks.New(ctx, googlebooks.Options{
				APIKey:   cfg.GoogleBooks.APIKey,
				Endpoint: cfg.GoogleBooks.Endpoint,
				Country:  cfg.GoogleBooks.Country,
				Delay:    time.Duration(cfg.GoogleBooks.DelayMillis) * time.Millisecond,
			})
			if err != nil {
				return err
			}

			rows, err := client.Enrich(ctx, records)
			if err != nil {
				return fmt.Errorf("enrichment failed: %w", err)
			}

			switch strings.ToLower(filepath.Ext(outputPath)) {
			case ".parquet":
				err = export.WriteParquet(outputPath, rows)
			case ".json":
				err = dataset.WriteJSON(outputPath, rows)
			default:
				err = dataset.WriteCSV(outputPath, rows)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d Google Books rows to %s\n", len(rows), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "goodreads", "", "Goodreads landing file to enrich")
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Google Books landing file to write (.csv, .json or .parquet)")

	return cmd
}
