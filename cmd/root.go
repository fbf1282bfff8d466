package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/config"
	"github.com/vedsharma/reqkit/internal/format"
	"github.com/vedsharma/reqkit/internal/storage"
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "reqkit",
	Short: "Author, bind and send templated HTTP requests",
	Long: `reqkit is a command-line HTTP client built around endpoint files.

An endpoint file keeps a URL, verb, headers, body and local variables.
Placeholders like {{TOKEN}} are bound from variables before sending.

Examples:
  reqkit new users.toml GET 'https://{{HOST}}/users' --var HOST=api.example.com
  reqkit send users.toml --var HOST=staging.example.com
  reqkit get https://api.example.com/users -H 'Accept: application/json'
  reqkit history
  reqkit collection list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logCloser, err = config.SetupLogger(cfg)
		if err != nil {
			return fmt.Errorf("set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
}

// openStorage opens the SQLite store in the configured data directory
func openStorage() (*storage.SQLiteStorage, error) {
	return storage.NewStorage(cfg.DataDir, cfg.HistoryLimit)
}

// fail prints an error and exits
func fail(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	format.PrintError(msg)
	os.Exit(1)
}
