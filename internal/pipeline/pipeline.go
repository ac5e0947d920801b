// Package pipeline wires the full document flow: OCR, normalization, rule
// extraction, validation, refinement, assembly and persistence. One document
// failing never aborts a batch; failures land in the job ledger.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/assemble"
	"github.com/rmtsu9/OCRdocTH/internal/common"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
	"github.com/rmtsu9/OCRdocTH/internal/extract"
	"github.com/rmtsu9/OCRdocTH/internal/llm"
	"github.com/rmtsu9/OCRdocTH/internal/llm/openai"
	"github.com/rmtsu9/OCRdocTH/internal/normalize"
	"github.com/rmtsu9/OCRdocTH/internal/ocr"
	"github.com/rmtsu9/OCRdocTH/internal/patterns"
	"github.com/rmtsu9/OCRdocTH/internal/repository"
	"github.com/rmtsu9/OCRdocTH/internal/validate"
)

// Processor runs documents end to end. Safe for concurrent use once built;
// registry compilation failures surface here, before any document runs.
type Processor struct {
	registry  *patterns.Registry
	ocr       *ocr.Extractor
	extractor *extract.Extractor
	validator *validate.Validator
	refiners  []llm.Refiner
	store     *repository.Store // nil disables persistence
	logger    *slog.Logger
}

// New builds a processor from configuration. The store may be nil for
// parse-only runs that never touch a database.
func New(cfg *common.Config, store *repository.Store, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg, err := patterns.NewRegistry()
	if err != nil {
		return nil, err
	}

	tolerance, err := decimal.NewFromString(cfg.Parser.AmountTolerance)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "amount tolerance "+cfg.Parser.AmountTolerance, err)
	}

	ocrx := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Language:            cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		PSM:                 cfg.OCR.PSM,
		DPI:                 cfg.OCR.DPI,
		EnableTSVConfidence: true,
	}, logger)

	// the rule fallback always votes; the model slot is a no-op unless a
	// provider is configured, and the best value per field wins
	var model llm.Refiner = llm.Noop{}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey != "" {
		model = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}
	refiners := []llm.Refiner{llm.RuleRefiner{}, model}

	return &Processor{
		registry:  reg,
		ocr:       ocrx,
		extractor: extract.New(reg, extract.Config{ProximityRadius: cfg.Parser.ProximityRadius}),
		validator: validate.New(validate.Config{
			Tolerance: tolerance,
			MinYear:   cfg.Parser.MinYear,
			MaxFuture: time.Duration(cfg.Parser.MaxFutureDays) * 24 * time.Hour,
		}),
		refiners: refiners,
		store:    store,
		logger:   logger,
	}, nil
}

// WithRefiners replaces the refiner set; tests and parse-only runs use this.
func (p *Processor) WithRefiners(refiners ...llm.Refiner) *Processor {
	p.refiners = refiners
	return p
}

// WithOCR replaces the OCR extractor, for stubbing external binaries.
func (p *Processor) WithOCR(e *ocr.Extractor) *Processor {
	p.ocr = e
	return p
}

// Registry exposes the compiled rule registry.
func (p *Processor) Registry() *patterns.Registry { return p.registry }

// Parse runs the pure text path: normalize, extract, validate, refine,
// assemble. It never touches OCR binaries or the store.
func (p *Processor) Parse(ctx context.Context, rawText string, meta entity.DocumentMeta) (entity.InvoiceRecord, []byte) {
	text := normalize.Normalize(rawText)
	fields := p.validator.Validate(p.extractor.Extract(text))
	baseline := assemble.Assemble(meta, fields, p.registry)

	best := fields
	var llmRaw []byte
	for _, r := range p.refiners {
		out, raw, err := r.Refine(ctx, llm.RefineRequest{
			OCRText:    text,
			SourceFile: meta.SourceFile,
			Baseline:   baseline,
		})
		if err != nil {
			p.logger.Warn("pipeline.refine.failed", "refiner", r.Name(), "error", err)
			continue
		}
		merged := p.validator.Validate(llm.Merge(fields, out, r.Name()))
		p.logger.Debug("pipeline.refine.scored",
			"refiner", r.Name(), "score", llm.ScoreFields(merged))
		best = llm.MergeBest(best, merged)
		if len(raw) > 0 {
			llmRaw = raw
		}
	}

	rec := assemble.Assemble(meta, best, p.registry)
	for _, f := range rec.Fields {
		if f.Source == entity.SourceLLM {
			rec.Refined = true
			break
		}
	}
	return rec, llmRaw
}

// ProcessFile runs one document end to end and persists the outcome when a
// store is configured.
func (p *Processor) ProcessFile(ctx context.Context, path string) (entity.InvoiceRecord, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))

	var job repository.Job
	var err error
	if p.store != nil {
		if job, err = p.store.CreateJob(ctx, path, format); err != nil {
			return entity.InvoiceRecord{}, err
		}
		p.setJobStatus(ctx, job.ID, constants.JobStatusRunning, "")
	}

	res, err := p.ocr.Extract(ctx, path)
	if err != nil {
		p.failJob(ctx, job, err)
		return entity.InvoiceRecord{}, err
	}
	if p.store != nil {
		p.setJobStatus(ctx, job.ID, constants.JobStatusOCROK, "")
	}

	meta := entity.DocumentMeta{
		ID:          uuid.New(),
		SourceFile:  path,
		Engine:      res.Engine(),
		ProcessedAt: time.Now().UTC(),
	}
	rec, llmRaw := p.Parse(ctx, res.Text, meta)

	if p.store != nil {
		if err := p.store.SaveRecord(ctx, job.ID, rec, res.Text, llmRaw); err != nil {
			p.failJob(ctx, job, err)
			return rec, err
		}
		p.setJobStatus(ctx, job.ID, constants.JobStatusParsedOK, "")
	}

	p.logger.Info("pipeline.document.done",
		"path", path,
		"incomplete", rec.Incomplete,
		"valid", rec.Summary.Valid,
		"suspect", rec.Summary.Suspect,
		"missing", rec.Summary.Missing,
		"score", rec.Summary.Score)
	return rec, nil
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Processed  int
	Failed     int
	Incomplete int
}

// ProcessBatch runs every path, containing per-document failures.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string) BatchStats {
	var stats BatchStats
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		rec, err := p.ProcessFile(ctx, path)
		if err != nil {
			stats.Failed++
			p.logger.Error("pipeline.document.failed", "path", path, "error", err)
			continue
		}
		stats.Processed++
		if rec.Incomplete {
			stats.Incomplete++
		}
	}
	p.logger.Info("pipeline.batch.done",
		"processed", stats.Processed,
		"failed", stats.Failed,
		"incomplete", stats.Incomplete)
	return stats
}

func (p *Processor) setJobStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, msg string) {
	if err := p.store.UpdateJobStatus(ctx, id, status, msg); err != nil {
		p.logger.Warn("pipeline.job.status_update_failed", "job_id", id, "status", status, "error", err)
	}
}

func (p *Processor) failJob(ctx context.Context, job repository.Job, cause error) {
	if p.store == nil {
		return
	}
	p.setJobStatus(ctx, job.ID, constants.JobStatusFailed, cause.Error())
}
