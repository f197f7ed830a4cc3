package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/bookmerge/internal/dataset"
	"github.com/lehigh-university-libraries/bookmerge/internal/goodreads"
	"github.com/spf13/cobra"
)

func newParsePagesCmd(root *rootOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "parse-pages <dir>",
		Short: "Parse saved Goodreads book pages into the Input A landing file",
		Long: `Parses every <book id>.html file in a directory of saved Goodreads book
pages and writes them as a JSON array. Downloading the pages is not part of
this command.`,
		Example: `  bookmerge parse-pages pages/ --out landing/goodreads_books.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = cfg.Inputs.Goodreads
			}

			books, err := goodreads.ParseDir(args[0])
			if err != nil {
				return err
			}
			if err := dataset.WriteJSON(outputPath, books); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d Goodreads books to %s\n", len(books), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Goodreads landing file to write")

	return cmd
}
