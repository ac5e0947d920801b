package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(processedAt time.Time) entity.InvoiceRecord {
	total := decimal.RequireFromString("5831.07")
	return entity.InvoiceRecord{
		Meta: entity.DocumentMeta{
			ID:          uuid.New(),
			SourceFile:  "invoice-001.pdf",
			Engine:      "tesseract/pdf-ocr",
			ProcessedAt: processedAt,
		},
		Fields: []entity.Field{
			{Key: constants.FieldInvoiceNumber, Text: "CT68-000612", Status: constants.StatusValid, Confidence: 0.95, Source: entity.SourceRules},
			{Key: constants.FieldTotalAmount, Amount: &total, Text: "5831.07", Status: constants.StatusValid, Confidence: 0.95, Source: entity.SourceRules},
			{Key: constants.FieldTaxID, Status: constants.StatusMissing, Source: entity.SourceRules},
		},
		Incomplete: true,
		Summary:    entity.Summary{Valid: 2, Missing: 1, Score: 0.66},
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "invoice-001.pdf", constants.PDF)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusQueued, job.Status)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, constants.JobStatusRunning, ""))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, constants.JobStatusFailed, "ocr timed out"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "ocr timed out", got.Error)

	failed, err := s.ListJobs(ctx, constants.JobStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	err = s.UpdateJobStatus(ctx, uuid.New(), constants.JobStatusRunning, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "invoice-001.pdf", constants.PDF)
	require.NoError(t, err)

	rec := sampleRecord(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveRecord(ctx, job.ID, rec, "ใบกำกับภาษี ...", []byte(`{"issue_date":"2025-08-01"}`)))

	got, err := s.GetRecord(ctx, rec.Meta.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Meta.ID, got.Record.Meta.ID)
	assert.Equal(t, job.ID, got.JobID)
	assert.Equal(t, "ใบกำกับภาษี ...", got.OCRText)
	assert.True(t, got.Record.Incomplete)
	require.Len(t, got.Record.Fields, 3)

	total, ok := got.Record.Field(constants.FieldTotalAmount)
	require.True(t, ok)
	require.NotNil(t, total.Amount)
	assert.True(t, total.Amount.Equal(decimal.RequireFromString("5831.07")))

	// summary counts recomputed from fields
	assert.Equal(t, 2, got.Record.Summary.Valid)
	assert.Equal(t, 1, got.Record.Summary.Missing)

	_, err = s.GetRecord(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRecordsByRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "batch", constants.PDF)
	require.NoError(t, err)

	day := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	inside := sampleRecord(day.Add(10 * time.Hour))
	before := sampleRecord(day.Add(-2 * time.Hour))
	require.NoError(t, s.SaveRecord(ctx, job.ID, inside, "", nil))
	require.NoError(t, s.SaveRecord(ctx, job.ID, before, "", nil))

	got, err := s.ListRecords(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.Meta.ID, got[0].Record.Meta.ID)

	incomplete, err := s.ListIncomplete(ctx)
	require.NoError(t, err)
	assert.Len(t, incomplete, 2)
}
