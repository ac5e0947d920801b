// Package export renders stored invoice records into the TRCloud AP import
// workbook. Presentation defaults live here and only here: a record's
// missing field stays missing in the database, and becomes a default cell
// value ("in", "yes", fallback dates) at export time.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/repository"
)

// headers is the TRCloud accounts payable import column set, in order.
var headers = []string{
	"AP Date",
	"Document Series",
	"Autorun Number",
	"Reference Document",
	"Tax Option",
	"Contact ID",
	"Contact Code",
	"Name/Shop",
	"Organization/Company",
	"Branch",
	"Address",
	"Email",
	"Telephone",
	"Tax ID",
	"Staff",
	"Department",
	"Project",
	"Warehouse",
	"Due Date",
	"Accounting Formula",
	"Withholding Tax",
	"Tax Report",
	"Tax Date",
	"Subtotal",
	"VAT Amount",
	"Total Amount",
	"VAT Rate",
	"Source File",
	"OCR Engine",
	"Processed Date",
	"Confidence Score",
}

type Config struct {
	OutputDir      string // default "./Export"
	DocumentSeries string // default "AP"
}

// Service turns stored records into workbook bytes and files.
type Service struct {
	store  *repository.Store
	cfg    Config
	logger *slog.Logger
}

func NewService(store *repository.Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./Export"
	}
	if cfg.DocumentSeries == "" {
		cfg.DocumentSeries = "AP"
	}
	return &Service{store: store, cfg: cfg, logger: logger}
}

// ExportXLSX builds a workbook for records processed within [from, to).
func (s *Service) ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, int, error) {
	start := time.Now()

	recs, err := s.store.ListRecords(ctx, from, to)
	if err != nil {
		return nil, 0, err
	}

	buf, err := BuildWorkbook(recs, s.cfg.DocumentSeries)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf, len(recs), nil
}

// ExportToFile writes the workbook under the configured output directory and
// returns its path.
func (s *Service) ExportToFile(ctx context.Context, from, to time.Time) (string, int, error) {
	b, n, err := s.ExportXLSX(ctx, from, to)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", 0, err
	}
	name := fmt.Sprintf("trcloud-ap-%s.xlsx", time.Now().Format("20060102-150405"))
	path := filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", 0, err
	}
	s.logger.Info("export.file.written", "path", path, "rows", n)
	return path, n, nil
}

// BuildWorkbook renders records into TRCloud layout. Exposed separately so
// callers holding records in memory can skip the store.
func BuildWorkbook(recs []repository.StoredRecord, series string) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, sr := range recs {
		writeRow(f, sheet, i+2, sr, series)
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)  // ap date
	_ = f.SetColWidth(sheet, "C", "D", 18)  // numbers
	_ = f.SetColWidth(sheet, "H", "I", 32)  // names
	_ = f.SetColWidth(sheet, "K", "K", 48)  // address
	_ = f.SetColWidth(sheet, "N", "N", 16)  // tax id
	_ = f.SetColWidth(sheet, "X", "Z", 14)  // amounts
	_ = f.SetColWidth(sheet, "AB", "AB", 40) // source file

	writeSummarySheet(f, recs)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, sr repository.StoredRecord, series string) {
	rec := sr.Record
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	issueDate := rec.Value(constants.FieldIssueDate)

	write(1, issueDate)
	write(2, series)
	write(3, rec.Value(constants.FieldInvoiceNumber))
	write(4, rec.Value(constants.FieldReference))
	write(5, orDefault(rec.Value(constants.FieldTaxOption), "in"))
	// contact id/code are assigned inside TRCloud, left blank on import
	write(6, "")
	write(7, "")
	write(8, rec.Value(constants.FieldOrganization))
	write(9, rec.Value(constants.FieldOrganization))
	write(10, rec.Value(constants.FieldBranch))
	write(11, rec.Value(constants.FieldAddress))
	write(12, rec.Value(constants.FieldEmail))
	write(13, rec.Value(constants.FieldTelephone))
	write(14, rec.Value(constants.FieldTaxID))
	write(15, "")
	write(16, "")
	write(17, "")
	write(18, "")
	write(19, orDefault(rec.Value(constants.FieldDueDate), issueDate))
	write(20, "")
	write(21, "")
	write(22, "yes")
	write(23, orDefault(rec.Value(constants.FieldTaxDate), issueDate))
	write(24, amountOrZero(rec, constants.FieldSubtotal))
	write(25, amountOrZero(rec, constants.FieldVATAmount))
	write(26, amountOrZero(rec, constants.FieldTotalAmount))
	write(27, orDefault(rec.Value(constants.FieldVATRate), "7"))
	write(28, rec.Meta.SourceFile)
	write(29, rec.Meta.Engine)
	write(30, rec.Meta.ProcessedAt.Format("2006-01-02 15:04:05"))
	write(31, fmt.Sprintf("%.2f", rec.Summary.Score))
}

// writeSummarySheet adds per-batch totals for a quick sanity check before the
// workbook is uploaded to TRCloud.
func writeSummarySheet(f *excelize.File, recs []repository.StoredRecord) {
	const sheet = "Summary"
	_, _ = f.NewSheet(sheet)

	var subtotal, vat, total decimal.Decimal
	var incomplete, refined int
	var score float64
	for _, sr := range recs {
		rec := sr.Record
		subtotal = subtotal.Add(amountOr(rec, constants.FieldSubtotal))
		vat = vat.Add(amountOr(rec, constants.FieldVATAmount))
		total = total.Add(amountOr(rec, constants.FieldTotalAmount))
		if rec.Incomplete {
			incomplete++
		}
		if rec.Refined {
			refined++
		}
		score += float64(rec.Summary.Score)
	}
	avg := 0.0
	if len(recs) > 0 {
		avg = score / float64(len(recs))
	}

	rows := []struct {
		label string
		value any
	}{
		{"Records", len(recs)},
		{"Incomplete", incomplete},
		{"Refined", refined},
		{"Subtotal Sum", subtotal.StringFixed(2)},
		{"VAT Sum", vat.StringFixed(2)},
		{"Total Sum", total.StringFixed(2)},
		{"Average Confidence", fmt.Sprintf("%.2f", avg)},
	}
	for i, r := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(sheet, labelCell, r.label)
		_ = f.SetCellValue(sheet, valueCell, r.value)
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
}

func amountOr(rec entity.InvoiceRecord, key constants.FieldKey) decimal.Decimal {
	if f, ok := rec.Field(key); ok && f.Amount != nil {
		return *f.Amount
	}
	return decimal.Zero
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func amountOrZero(rec entity.InvoiceRecord, key constants.FieldKey) string {
	if f, ok := rec.Field(key); ok && f.Amount != nil {
		return f.Amount.StringFixed(2)
	}
	return "0.00"
}
