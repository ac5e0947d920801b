package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmtsu9/OCRdocTH/constants"
)

// Field is the per-document result for one extractable field.
//
// Exactly one of Date / Amount is set for date and money fields; Text carries
// the canonical string value for the rest. A missing field has no typed value
// at all: nil pointers and an empty Text, never a zero stand-in.
type Field struct {
	Key        constants.FieldKey    `json:"key"`
	Raw        string                `json:"raw,omitempty"`    // matched substring, kept for review
	Text       string                `json:"value,omitempty"`  // canonical string value
	Date       *time.Time            `json:"date,omitempty"`   // typed value for date fields
	Amount     *decimal.Decimal      `json:"amount,omitempty"` // typed value for money fields
	Status     constants.FieldStatus `json:"status"`
	Confidence float32               `json:"confidence"` // 0..1
	Rule       string                `json:"rule,omitempty"`   // name of the rule that matched
	Source     string                `json:"source"`           // "rules" | "llm"
	Checks     []string              `json:"checks,omitempty"` // names of failed validation checks
}

// Missing reports whether the field carries no value.
func (f Field) Missing() bool { return f.Status == constants.StatusMissing }

// SourceRules and SourceLLM identify who produced a field value.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// DocumentMeta is document-level metadata attached to a pipeline run.
type DocumentMeta struct {
	ID          uuid.UUID `json:"id"`
	SourceFile  string    `json:"source_file"`
	Engine      string    `json:"engine"` // OCR engine identity, metadata only
	ProcessedAt time.Time `json:"processed_at"`
}

// Summary counts field statuses for quick triage.
type Summary struct {
	Valid   int     `json:"valid"`
	Suspect int     `json:"suspect"`
	Missing int     `json:"missing"`
	Score   float32 `json:"score"` // 0..1
}

// InvoiceRecord aggregates all extracted fields for one document.
//
// Fields are ordered by the registry's declared field order, independent of
// match discovery order. Records are treated as read-only snapshots once
// assembled; refinement produces a new record rather than mutating one.
type InvoiceRecord struct {
	Meta       DocumentMeta `json:"meta"`
	Fields     []Field      `json:"fields"`
	Incomplete bool         `json:"incomplete"` // a mandatory field is missing
	Summary    Summary      `json:"summary"`
	Refined    bool         `json:"refined"` // an LLM refinement pass ran
}

// Field returns the field for key, and whether it is present in the record.
func (r InvoiceRecord) Field(key constants.FieldKey) (Field, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Value returns the canonical string value for key, or "" when absent.
func (r InvoiceRecord) Value(key constants.FieldKey) string {
	f, ok := r.Field(key)
	if !ok || f.Missing() {
		return ""
	}
	return f.Text
}
