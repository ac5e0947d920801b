package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/internal/ingest"
	"github.com/rmtsu9/OCRdocTH/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Process every document under a directory",
	Long: `Recursively scans a directory for PDF, image and text documents and
runs each through the pipeline. One document failing does not stop the
batch; failures are recorded as failed jobs.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paths, scan, err := ingest.ScanDirectory(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Printf("No documents found under %s\n", args[0])
		return nil
	}
	logger.Info("batch.scan.done", "root", args[0], "matched", scan.Matched, "failed", scan.Failed)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	stats := p.ProcessBatch(ctx, paths)
	cmd.Printf("Processed %d, failed %d, incomplete %d (of %d found)\n",
		stats.Processed, stats.Failed, stats.Incomplete, len(paths))
	if stats.Failed > 0 {
		return errors.New("some documents failed; see the job ledger")
	}
	return nil
}
