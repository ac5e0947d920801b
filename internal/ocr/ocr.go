// Package ocr extracts raw text from invoice documents by shelling out to
// tesseract and the poppler utilities. Output here is raw engine text; all
// cleanup happens downstream in the normalize package.
package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // tesseract language spec, default "tha+eng"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // 6 suits the uniform text blocks of printed invoices
	OEM int // 1 = LSTM; leave 0 to use tesseract's default

	// MinTextChars is the threshold below which a PDF's embedded text layer
	// is considered unusable and the file is rasterized and OCRed instead.
	MinTextChars int
}

// Result is the raw engine output for one document.
type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TXT
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Engine identifies the OCR engine in document metadata.
func (r Result) Engine() string { return "tesseract/" + r.Method }

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "tha+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 80
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; tests stub external binaries this way.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension. Pre-extracted .txt files
// pass straight through so already-OCRed batches can be reparsed.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var res Result
	var err error
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.TXT:
		res, err = e.readPlainText(path)
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return Result{}, common.NewAppError("OCR_UNSUPPORTED", "unsupported extension "+ext, common.ErrInvalidInput)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "error", err)
		return res, err
	}
	e.logger.Info("ocr.extract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) readPlainText(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{SourceType: constants.TXT}, common.NewAppError("OCR_READ", "read text file", err)
	}
	return Result{
		Text:       string(b),
		Pages:      1,
		SourceType: constants.TXT,
		Method:     "plain-text",
		Confidence: 1.0,
	}, nil
}
