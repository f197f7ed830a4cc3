package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/bookmerge/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookmerge",
		Short: "Unify Goodreads and Google Books metadata into one book catalog",
		Long: `Bookmerge integrates book metadata scraped from Goodreads with records
fetched from the Google Books API.

It normalizes both inputs, matches them by ISBN or title and author, merges
each pair under a configurable survivorship policy, removes duplicates and
writes the catalog with a data quality report.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default $"+config.EnvConfig+" or ./bookmerge.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newIntegrateCmd(opts))
	cmd.AddCommand(newEnrichCmd(opts))
	cmd.AddCommand(newParsePagesCmd(opts))
	cmd.AddCommand(newReportCmd(opts))

	return cmd
}

// load reads the configuration and installs the slog default handler.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, path, exists, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Logging.Level, o.verbose)
	if exists {
		slog.Debug("Loaded config", "path", path)
	}
	return cfg, nil
}

func setupLogging(level string, verbose bool) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
