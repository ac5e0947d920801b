package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/internal/export"
)

var (
	exportFrom string
	exportTo   string
	exportDir  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records as a TRCloud AP workbook",
	Long: `Writes an XLSX workbook in the TRCloud accounts payable import
layout covering records processed within the given date range.
Without --from/--to the last 31 days are exported.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "start date YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "end date YYYY-MM-DD (exclusive)")
	exportCmd.Flags().StringVar(&exportDir, "out", "", "output directory (defaults to the configured export dir)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -31)
	var err error
	if exportFrom != "" {
		if from, err = time.Parse("2006-01-02", exportFrom); err != nil {
			return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
		}
	}
	if exportTo != "" {
		if to, err = time.Parse("2006-01-02", exportTo); err != nil {
			return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
		}
	}
	if !from.Before(to) {
		return fmt.Errorf("--from %s is not before --to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svcCfg := export.Config{
		OutputDir:      cfg.Export.OutputDir,
		DocumentSeries: cfg.Export.DocumentSeries,
	}
	if exportDir != "" {
		svcCfg.OutputDir = exportDir
	}

	path, n, err := export.NewService(store, svcCfg, logger).ExportToFile(ctx, from, to)
	if err != nil {
		return err
	}
	cmd.Printf("Wrote %d records to %s\n", n, path)
	return nil
}
