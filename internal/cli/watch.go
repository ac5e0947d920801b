package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/internal/ingest"
	"github.com/rmtsu9/OCRdocTH/internal/pipeline"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]...",
	Short: "Watch directories and process documents as they arrive",
	Long: `Watches the given directories recursively and runs every new PDF,
image or text document through the pipeline. Stops on SIGINT/SIGTERM.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", false, "also process files already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "wait this long after the last write before processing a file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
	}, logger)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %v, press Ctrl-C to stop\n", args)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			if _, err := p.ProcessFile(ctx, path); err != nil {
				logger.Error("watch.document.failed", "path", path, "error", err)
			}
		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			logger.Error("watch.error", "error", err)
		}
	}
}
