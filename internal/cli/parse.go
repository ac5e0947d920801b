package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/pipeline"
	"github.com/rmtsu9/OCRdocTH/internal/repository"
)

var (
	parseJSON bool
	parseSave bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract fields from a single document",
	Long: `Runs one document through OCR, rule extraction and validation and
prints the resulting fields. Nothing is stored unless --save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output the full record as JSON")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "persist the record and job to the database")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var store *repository.Store
	if parseSave {
		var err error
		if store, err = openStore(); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	rec, err := p.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	if parseJSON {
		return outputRecordJSON(cmd, rec)
	}
	return outputRecordTable(cmd, rec)
}

func outputRecordJSON(cmd *cobra.Command, rec entity.InvoiceRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRecordTable(cmd *cobra.Command, rec entity.InvoiceRecord) error {
	cmd.Printf("Source: %s\n", rec.Meta.SourceFile)
	cmd.Printf("Engine: %s\n", rec.Meta.Engine)
	cmd.Printf("Score:  %.2f  (valid %d, suspect %d, missing %d)\n",
		rec.Summary.Score, rec.Summary.Valid, rec.Summary.Suspect, rec.Summary.Missing)
	if rec.Incomplete {
		cmd.Println("Status: INCOMPLETE (mandatory field missing)")
	}
	cmd.Println()
	for _, f := range rec.Fields {
		if f.Missing() {
			cmd.Printf("  %-20s -\n", f.Key)
			continue
		}
		mark := ""
		if len(f.Checks) > 0 {
			mark = "  !" + joinChecks(f.Checks)
		}
		cmd.Printf("  %-20s %s  [%s %.2f]%s\n", f.Key, f.Text, f.Status, f.Confidence, mark)
	}
	return nil
}

func joinChecks(checks []string) string {
	out := ""
	for i, c := range checks {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}
