package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rmtsu9/OCRdocTH/constants"
	"github.com/rmtsu9/OCRdocTH/internal/common"
	"github.com/rmtsu9/OCRdocTH/internal/entity"
)

// StoredRecord pairs an invoice record with its persistence context.
type StoredRecord struct {
	Record  entity.InvoiceRecord
	JobID   uuid.UUID
	OCRText string
	LLMRaw  string
}

// SaveRecord persists a finished record, its source OCR text and any raw
// model output for later review.
func (s *Store) SaveRecord(ctx context.Context, jobID uuid.UUID, rec entity.InvoiceRecord, ocrText string, llmRaw []byte) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return common.NewAppError("DB_INSERT", "encode fields", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO invoice_records
			(id, job_id, source_file, engine, processed_at, incomplete, refined, score, fields_json, ocr_text, llm_raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.Meta.ID.String(), jobID.String(), rec.Meta.SourceFile, rec.Meta.Engine,
		sqlTime(rec.Meta.ProcessedAt), rec.Incomplete, rec.Refined, rec.Summary.Score,
		string(fieldsJSON), ocrText, string(llmRaw))
	if err != nil {
		return common.NewAppError("DB_INSERT", "save record", err)
	}
	return nil
}

// GetRecord loads one record by document id.
func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, job_id, source_file, engine, processed_at, incomplete, refined, score, fields_json, ocr_text, llm_raw
		 FROM invoice_records WHERE id = ?`), id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRecord{}, common.NewAppError("DB_QUERY", "record "+id.String(), common.ErrNotFound)
	}
	return rec, err
}

// ListRecords returns records processed within [from, to), oldest first.
// Export runs page through batches this way.
func (s *Store) ListRecords(ctx context.Context, from, to time.Time) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, job_id, source_file, engine, processed_at, incomplete, refined, score, fields_json, ocr_text, llm_raw
		 FROM invoice_records
		 WHERE processed_at >= ? AND processed_at < ?
		 ORDER BY processed_at ASC`),
		sqlTime(from), sqlTime(to))
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list records", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListIncomplete returns records still missing a mandatory field, for manual
// review queues.
func (s *Store) ListIncomplete(ctx context.Context) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, job_id, source_file, engine, processed_at, incomplete, refined, score, fields_json, ocr_text, llm_raw
		 FROM invoice_records WHERE incomplete ORDER BY processed_at ASC`))
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list incomplete", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (StoredRecord, error) {
	var sr StoredRecord
	var id, jobID, fieldsJSON string
	if err := row.Scan(&id, &jobID, &sr.Record.Meta.SourceFile, &sr.Record.Meta.Engine,
		&sr.Record.Meta.ProcessedAt, &sr.Record.Incomplete, &sr.Record.Refined,
		&sr.Record.Summary.Score, &fieldsJSON, &sr.OCRText, &sr.LLMRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredRecord{}, err
		}
		return StoredRecord{}, common.NewAppError("DB_SCAN", "scan record", err)
	}

	recID, err := uuid.Parse(id)
	if err != nil {
		return StoredRecord{}, common.NewAppError("DB_SCAN", "record id", err)
	}
	sr.Record.Meta.ID = recID
	if sr.JobID, err = uuid.Parse(jobID); err != nil {
		return StoredRecord{}, common.NewAppError("DB_SCAN", "job id", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &sr.Record.Fields); err != nil {
		return StoredRecord{}, common.NewAppError("DB_SCAN", "decode fields", err)
	}

	// counts are derivable; recompute instead of storing them
	for _, f := range sr.Record.Fields {
		switch f.Status {
		case constants.StatusValid:
			sr.Record.Summary.Valid++
		case constants.StatusSuspect:
			sr.Record.Summary.Suspect++
		default:
			sr.Record.Summary.Missing++
		}
	}
	sr.Record.Meta.ProcessedAt = sr.Record.Meta.ProcessedAt.UTC()
	return sr, nil
}
