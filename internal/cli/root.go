// Package cli implements the ocrdocth command tree. Commands share one
// configuration load path: environment first, then an optional dotenv file,
// then an optional TOML file, each layer overriding the last.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/internal/common"
	"github.com/rmtsu9/OCRdocTH/internal/repository"
)

var (
	cfgFile string
	envFile string
	dbDSN   string
	verbose bool

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ocrdocth",
	Short: "Extract structured fields from Thai tax invoices",
	Long: `Reads scanned Thai tax invoices (PDF, image or pre-OCR text),
extracts invoice fields with rule patterns, validates them and stores
the results for TRCloud accounts payable export.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "database DSN (postgres:// URL or SQLite path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		// a .env next to the binary is picked up when present
		_ = godotenv.Load()
	}

	cfg = common.LoadConfig()
	if cfgFile != "" {
		if err := cfg.ApplyFile(cfgFile); err != nil {
			return err
		}
	}
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func openStore() (*repository.Store, error) {
	store, err := repository.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	store.ApplyPool(repository.PoolConfig{
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	return store, nil
}
